package queryfilter

import (
	"context"
	"net/url"

	oa "github.com/reoring/queryfilter/openapi"
)

// Schema validates and coerces a raw query mapping into typed filter values.
// Implementations are built once (dsl, schemaspec) and immutable afterwards;
// a Store references its schema, it never copies it.
type Schema interface {
	// Decode transforms raw query values into a typed value map
	// (Coerce -> Default -> Validate -> Refine). All input-shape failures are
	// reported as Issues; construction bugs never reach this method because
	// builders reject them at Build time.
	Decode(ctx context.Context, raw url.Values, opt ...Opt) (map[string]any, error)
	// DecodeWithOrigin returns the typed values together with per-key
	// provenance (query-supplied vs schema default).
	DecodeWithOrigin(ctx context.Context, raw url.Values, opt ...Opt) (Decoded, error)

	// Keys lists the declared field names in sorted order.
	Keys() []string

	// Parameters projects the schema into OpenAPI query parameter objects.
	Parameters() ([]oa.Parameter, error)
}

// Codec performs bidirectional transformation between the wire representation
// A and the value representation B. Decode must reject what Encode would not
// produce; Encode of a decoded value must round-trip.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error)
	Encode(ctx context.Context, b B) (A, error)
}

// Is reports whether raw conforms to the schema s.
func Is(ctx context.Context, s Schema, raw url.Values) bool {
	_, err := s.Decode(ctx, raw)
	return err == nil
}

// ---- Decode-time context options (internal wiring, exported for subpackages) ----

type contextKey int

const _ctxKeyFailFast contextKey = iota

// WithFailFast returns a child context that marks fail-fast decoding behavior.
// This is set by Validate based on Opt and consumed by schema implementations.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current decode should stop at the first
// offending field.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
