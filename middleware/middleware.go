// Package middleware validates request query strings against a filter schema
// at the HTTP boundary and hands the resulting State to handlers through the
// request context.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	queryfilter "github.com/reoring/queryfilter"
)

// ctxKeyState is a typed context key for the validated State.
type ctxKeyState struct{}

// ContextWithState attaches a State to the context.
func ContextWithState(ctx context.Context, st queryfilter.State) context.Context {
	return context.WithValue(ctx, ctxKeyState{}, st)
}

// StateFromContext retrieves the State stored by ValidateQuery.
func StateFromContext(ctx context.Context) (queryfilter.State, bool) {
	st, ok := ctx.Value(ctxKeyState{}).(queryfilter.State)
	return st, ok
}

// ErrorPayload shapes a State's errors for a JSON response body:
// {"errors": {"page": {"code": "...", "message": "..."}}}.
func ErrorPayload(st queryfilter.State) map[string]any {
	errs := make(map[string]any, len(st.Errors))
	for key, it := range st.Errors {
		e := map[string]any{"code": it.Code, "message": it.Message}
		if it.Hint != "" {
			e["hint"] = it.Hint
		}
		errs[key] = e
	}
	return map[string]any{"errors": errs}
}

type config struct {
	log    zerolog.Logger
	opt    queryfilter.Opt
	reject bool
}

// Option configures ValidateQuery.
type Option func(*config)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithDecodeOpt sets the validation options applied to every request.
func WithDecodeOpt(opt queryfilter.Opt) Option {
	return func(c *config) { c.opt = opt }
}

// RejectInvalid responds 400 with an ErrorPayload body instead of passing an
// invalid State through. Listing endpoints usually prefer the pass-through
// default: a bad filter falls back to the unfiltered view.
func RejectInvalid() Option {
	return func(c *config) { c.reject = true }
}

// ValidateQuery validates the request query against s and stores the State
// in the request context.
func ValidateQuery(s queryfilter.Schema, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := queryfilter.Validate(r.Context(), s, r.URL.Query(), cfg.opt)
			if !st.Valid() {
				cfg.log.Debug().Str("path", r.URL.Path).Int("fields", len(st.Errors)).Msg("query validation failed")
				if cfg.reject {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusBadRequest)
					if err := json.NewEncoder(w).Encode(ErrorPayload(st)); err != nil {
						cfg.log.Error().Err(err).Msg("encoding error payload")
					}
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(ContextWithState(r.Context(), st)))
		})
	}
}
