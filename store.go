package queryfilter

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Snapshot is the externally visible state for one read: current filter
// values plus validation errors. Maps are caller-owned copies; mutations go
// through FilterBy and Reset on the owning Store.
type Snapshot struct {
	Filters map[string]any
	Errors  map[string]Issue
}

// Valid reports whether the read produced no errors.
func (st Snapshot) Valid() bool { return len(st.Errors) == 0 }

// Option configures a Store during New.
type Option func(*Store) error

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) error {
		s.log = log
		return nil
	}
}

// WithDecodeOpt sets the validation options applied on every snapshot read.
func WithDecodeOpt(opt Opt) Option {
	return func(s *Store) error {
		s.decodeOpt = opt
		return nil
	}
}

// WithoutNormalize disables the one-shot normalization push issued after the
// first successful validation.
func WithoutNormalize() Option {
	return func(s *Store) error {
		s.noNormalize = true
		return nil
	}
}

// Store holds the authoritative current filter values and validation errors
// for one location. The location remains the source of truth: every quiescent
// snapshot re-validates it, since it can change through navigation this store
// never sees. The internal value map is owned exclusively by the store and is
// updated synchronously on mutation, before the corresponding push resolves,
// so overlapping mutations observe each other in call order.
type Store struct {
	schema Schema
	router Router

	log         zerolog.Logger
	decodeOpt   Opt
	noNormalize bool

	mu         sync.Mutex
	values     map[string]any
	errs       map[string]Issue
	pending    int
	normalized bool
}

// New wires a store to its schema and router.
func New(schema Schema, router Router, opts ...Option) (*Store, error) {
	if schema == nil {
		return nil, errors.New("queryfilter: nil schema")
	}
	if router == nil {
		return nil, errors.New("queryfilter: nil router")
	}
	s := &Store{
		schema: schema,
		router: router,
		log:    zerolog.Nop(),
		values: map[string]any{},
		errs:   map[string]Issue{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Snapshot re-validates the router's current query and returns the resulting
// state. While pushes from this store are still pending, the synchronously
// merged values are fresher than the location and are served unchanged.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 {
		loc := s.refreshLocked(ctx)
		if len(s.errs) == 0 && !s.normalized && !s.noNormalize {
			s.normalized = true // set before the push so it cannot re-enter
			s.pushNormalized(ctx, loc)
		}
	}
	return Snapshot{Filters: cloneValues(s.values), Errors: cloneErrors(s.errs)}
}

// refreshLocked re-validates the router's current query into the internal
// reference. Caller holds s.mu and has checked that no pushes are pending,
// otherwise the internal reference is fresher than the location.
func (s *Store) refreshLocked(ctx context.Context) Location {
	loc := s.router.Location()
	st := Validate(ctx, s.schema, loc.Query, s.decodeOpt)
	s.values = st.Values
	s.errs = st.Errors
	if len(st.Errors) > 0 {
		s.log.Debug().Int("invalid_fields", len(st.Errors)).Msg("query validation failed")
	}
	return loc
}

// pushNormalized repairs malformed or extraneous query content by replacing
// the current entry with the canonical encoding of the validated values.
// Caller holds s.mu.
func (s *Store) pushNormalized(ctx context.Context, loc Location) {
	q, err := Encode(s.values)
	if err != nil {
		// Validated values are primitive by construction; reaching this means
		// a schema emitted a non-serializable type.
		s.log.Error().Err(err).Msg("normalization encode failed")
		return
	}
	if q.Encode() == loc.Query.Encode() {
		return
	}
	s.pending++
	comp := s.router.Push(ctx, Location{Path: loc.Path, Query: q}, NavOpt{Replace: true})
	s.log.Debug().Str("query", q.Encode()).Msg("normalized location")
	go s.settle(comp, nil)
}

// FilterBy merges partial into the current values and pushes the merged
// result. The internal reference is updated before the push resolves, so a
// second call issued immediately observes the first call's merge rather than
// a stale base. A nil value removes its key. The returned completion resolves
// when the navigation settles; a serialization failure returns synchronously
// and leaves the state untouched.
func (s *Store) FilterBy(ctx context.Context, partial map[string]any) (*Completion, error) {
	return s.mutate(ctx, partial, true)
}

// Reset replaces the entire filter state with partial; nil or empty clears
// all filters. Push and completion semantics match FilterBy.
func (s *Store) Reset(ctx context.Context, partial map[string]any) (*Completion, error) {
	return s.mutate(ctx, partial, false)
}

func (s *Store) mutate(ctx context.Context, partial map[string]any, merge bool) (*Completion, error) {
	s.mu.Lock()
	if s.pending == 0 {
		// Quiescent: the location is the source of truth, so the merge base
		// comes from re-validating it, not from a possibly stale reference.
		s.refreshLocked(ctx)
	}
	next := make(map[string]any, len(s.values)+len(partial))
	if merge {
		for k, v := range s.values {
			next[k] = v
		}
	}
	for k, v := range partial {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	q, err := Encode(next)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.values = next
	s.errs = map[string]Issue{}
	s.pending++
	loc := s.router.Location()
	inner := s.router.Push(ctx, Location{Path: loc.Path, Query: q})
	s.mu.Unlock()

	s.log.Debug().Bool("merge", merge).Str("query", q.Encode()).Msg("pushed filters")
	outer := NewCompletion()
	go s.settle(inner, outer)
	return outer, nil
}

// settle propagates a push outcome: the pending counter drops first so the
// next snapshot reconciles from the location again, then the outer completion
// resolves.
func (s *Store) settle(inner, outer *Completion) {
	<-inner.Done()
	err := inner.Err()
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
	if err != nil {
		s.log.Debug().Err(err).Msg("location push failed")
	}
	if outer != nil {
		outer.Resolve(err)
	}
}

func cloneValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneErrors(m map[string]Issue) map[string]Issue {
	out := make(map[string]Issue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
