package queryfilter_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	queryfilter "github.com/reoring/queryfilter"
	g "github.com/reoring/queryfilter/dsl"
)

// stubRouter records pushes and applies them to an in-memory location. With
// manual set, completions stay pending until release is called, which is how
// the overlapping-mutation tests freeze the world mid-navigation.
type stubRouter struct {
	mu       sync.Mutex
	loc      queryfilter.Location
	pushes   []queryfilter.Location
	replaces int
	manual   bool
	waiting  []*queryfilter.Completion
}

func newStubRouter(path, rawQuery string) *stubRouter {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		panic(err)
	}
	return &stubRouter{loc: queryfilter.Location{Path: path, Query: q}}
}

func (r *stubRouter) Location() queryfilter.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loc.Clone()
}

func (r *stubRouter) Push(ctx context.Context, loc queryfilter.Location, opts ...queryfilter.NavOpt) *queryfilter.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	if queryfilter.MergeNavOpts(opts...).Replace {
		r.replaces++
	}
	r.loc = loc.Clone()
	r.pushes = append(r.pushes, loc.Clone())
	c := queryfilter.NewCompletion()
	if r.manual {
		r.waiting = append(r.waiting, c)
	} else {
		c.Resolve(nil)
	}
	return c
}

func (r *stubRouter) release() {
	r.mu.Lock()
	cs := r.waiting
	r.waiting = nil
	r.mu.Unlock()
	for _, c := range cs {
		c.Resolve(nil)
	}
}

func (r *stubRouter) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

func (r *stubRouter) replaceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaces
}

func (r *stubRouter) query() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loc.Query.Encode()
}

func (r *stubRouter) pushedQuery(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushes[i].Query.Encode()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func storeSchema(t *testing.T) queryfilter.Schema {
	t.Helper()
	return g.Filters().
		Field("page", g.Int().Min(1)).
		Field("sort", g.String().OneOf("price", "asc", "desc")).
		Field("tags", g.Strings()).
		MustBuild()
}

func TestNew_RejectsNilDependencies(t *testing.T) {
	r := newStubRouter("/products", "")
	if _, err := queryfilter.New(nil, r); err == nil {
		t.Fatalf("nil schema must be rejected")
	}
	if _, err := queryfilter.New(storeSchema(t), nil); err == nil {
		t.Fatalf("nil router must be rejected")
	}
}

func TestStore_SnapshotValidatesLocation(t *testing.T) {
	r := newStubRouter("/products", "page=2&sort=price&utm_source=mail")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	st := s.Snapshot(context.Background())
	if len(st.Errors) != 0 {
		t.Fatalf("errors: %v", st.Errors)
	}
	if st.Filters["page"] != int64(2) {
		t.Fatalf("page: %v", st.Filters["page"])
	}
	if st.Filters["sort"] != "price" {
		t.Fatalf("sort: %v", st.Filters["sort"])
	}
	if _, ok := st.Filters["utm_source"]; ok {
		t.Fatalf("unknown key must be stripped: %v", st.Filters)
	}
}

func TestStore_SnapshotReportsErrorsAndEmptyFilters(t *testing.T) {
	r := newStubRouter("/products", "page=banana&sort=price")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	st := s.Snapshot(context.Background())
	if len(st.Filters) != 0 {
		t.Fatalf("filters must be empty on validation failure: %v", st.Filters)
	}
	if st.Errors["page"].Code != queryfilter.CodeInvalidType {
		t.Fatalf("page error: %+v", st.Errors["page"])
	}
	if r.pushCount() != 0 {
		t.Fatalf("invalid location must not be normalized: %d pushes", r.pushCount())
	}
}

func TestStore_NormalizesLocationExactlyOnce(t *testing.T) {
	// non-canonical numeral plus tracking junk
	r := newStubRouter("/products", "page=02&utm_source=mail")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	st := s.Snapshot(ctx)
	if st.Filters["page"] != int64(2) {
		t.Fatalf("page: %v", st.Filters["page"])
	}
	if r.replaceCount() != 1 {
		t.Fatalf("expected one replace push, got %d", r.replaceCount())
	}
	if got := r.query(); got != "page=2" {
		t.Fatalf("normalized query: %q", got)
	}

	// settle and keep reading; the one-shot flag must hold
	waitFor(t, func() bool {
		st := s.Snapshot(ctx)
		return st.Filters["page"] == int64(2)
	})
	for i := 0; i < 3; i++ {
		s.Snapshot(ctx)
	}
	if r.replaceCount() != 1 {
		t.Fatalf("normalization must not repeat, got %d replaces", r.replaceCount())
	}
	if r.pushCount() != 1 {
		t.Fatalf("no other pushes expected, got %d", r.pushCount())
	}
}

func TestStore_NormalizeSkippedWhenCanonical(t *testing.T) {
	r := newStubRouter("/products", "page=2")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Snapshot(context.Background())
	if r.pushCount() != 0 {
		t.Fatalf("canonical location must not be pushed, got %d", r.pushCount())
	}
}

func TestStore_WithoutNormalize(t *testing.T) {
	r := newStubRouter("/products", "page=02")
	s, err := queryfilter.New(storeSchema(t), r, queryfilter.WithoutNormalize())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Snapshot(context.Background())
	if r.pushCount() != 0 {
		t.Fatalf("normalization disabled, got %d pushes", r.pushCount())
	}
}

func TestStore_FilterByMergesIntoLocation(t *testing.T) {
	r := newStubRouter("/products", "page=2")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	comp, err := s.FilterBy(ctx, map[string]any{"sort": "price"})
	if err != nil {
		t.Fatalf("filterBy: %v", err)
	}
	if err := comp.Wait(ctx); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got := r.query(); got != "page=2&sort=price" {
		t.Fatalf("merged query: %q", got)
	}

	waitFor(t, func() bool {
		st := s.Snapshot(ctx)
		return st.Filters["page"] == int64(2) && st.Filters["sort"] == "price"
	})
}

func TestStore_FilterByNilRemovesKey(t *testing.T) {
	r := newStubRouter("/products", "page=2&sort=price")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	comp, err := s.FilterBy(ctx, map[string]any{"sort": nil})
	if err != nil {
		t.Fatalf("filterBy: %v", err)
	}
	if err := comp.Wait(ctx); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got := r.query(); got != "page=2" {
		t.Fatalf("query after removal: %q", got)
	}
}

func TestStore_ResetReplacesEntirely(t *testing.T) {
	r := newStubRouter("/products", "page=2&sort=price")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	comp, err := s.Reset(ctx, map[string]any{"tags": []string{"new"}})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := comp.Wait(ctx); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got := r.query(); got != "tags=new" {
		t.Fatalf("reset query: %q", got)
	}

	// resetting to the same mapping lands on the same location
	comp, err = s.Reset(ctx, map[string]any{"tags": []string{"new"}})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := comp.Wait(ctx); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got := r.query(); got != "tags=new" {
		t.Fatalf("reset must be idempotent, got %q", got)
	}

	// clearing everything
	comp, err = s.Reset(ctx, nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := comp.Wait(ctx); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got := r.query(); got != "" {
		t.Fatalf("cleared query: %q", got)
	}
}

func TestStore_OverlappingMutationsMergeInCallOrder(t *testing.T) {
	r := newStubRouter("/products", "page=1")
	r.manual = true
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	c1, err := s.FilterBy(ctx, map[string]any{"page": 2})
	if err != nil {
		t.Fatalf("first filterBy: %v", err)
	}
	// issued before the first push resolves; the merge base must already
	// contain page=2, not the stale location value
	c2, err := s.FilterBy(ctx, map[string]any{"sort": "price"})
	if err != nil {
		t.Fatalf("second filterBy: %v", err)
	}

	if r.pushCount() != 2 {
		t.Fatalf("expected 2 pushes, got %d", r.pushCount())
	}
	if got := r.pushedQuery(1); got != "page=2&sort=price" {
		t.Fatalf("second push lost the first update: %q", got)
	}
	if c1.Err() != nil || c2.Err() != nil {
		t.Fatalf("completions must still be pending")
	}

	r.release()
	if err := c1.Wait(ctx); err != nil {
		t.Fatalf("c1: %v", err)
	}
	if err := c2.Wait(ctx); err != nil {
		t.Fatalf("c2: %v", err)
	}
}

func TestStore_SnapshotServesPendingStateWithoutRevalidating(t *testing.T) {
	r := newStubRouter("/products", "page=1")
	r.manual = true
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if _, err := s.FilterBy(ctx, map[string]any{"page": 5}); err != nil {
		t.Fatalf("filterBy: %v", err)
	}
	// mid-flight the merged reference is served verbatim
	st := s.Snapshot(ctx)
	if st.Filters["page"] != 5 {
		t.Fatalf("pending snapshot: %v (%T)", st.Filters["page"], st.Filters["page"])
	}

	r.release()
	// once settled, reads reconcile from the location and coerce again
	waitFor(t, func() bool {
		st := s.Snapshot(ctx)
		return st.Filters["page"] == int64(5)
	})
}

func TestStore_SerializationFailureIsSynchronous(t *testing.T) {
	r := newStubRouter("/products", "page=2")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	type opaque struct{ N int }
	comp, err := s.FilterBy(ctx, map[string]any{"bad": opaque{N: 1}})
	if comp != nil {
		t.Fatalf("no completion expected, got %v", comp)
	}
	var se *queryfilter.SerializationError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SerializationError, got %T: %v", err, err)
	}
	if r.pushCount() != 0 {
		t.Fatalf("failed serialization must not push, got %d", r.pushCount())
	}
	st := s.Snapshot(ctx)
	if st.Filters["page"] != int64(2) || len(st.Filters) != 1 {
		t.Fatalf("state must be untouched: %v", st.Filters)
	}
}

func TestStore_MutationProceedsDespiteValidationErrors(t *testing.T) {
	r := newStubRouter("/products", "page=banana")
	s, err := queryfilter.New(storeSchema(t), r)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	st := s.Snapshot(ctx)
	if st.Valid() {
		t.Fatalf("expected errors for page=banana")
	}

	comp, err := s.FilterBy(ctx, map[string]any{"sort": "asc"})
	if err != nil {
		t.Fatalf("filterBy: %v", err)
	}
	if err := comp.Wait(ctx); err != nil {
		t.Fatalf("completion: %v", err)
	}
	// the invalid value was never part of the validated state, so the push
	// writes only what validates
	if got := r.query(); got != "sort=asc" {
		t.Fatalf("query: %q", got)
	}
	waitFor(t, func() bool {
		st := s.Snapshot(ctx)
		return st.Valid() && st.Filters["sort"] == "asc"
	})
}

func TestStore_DecodeOptAppliesOnReads(t *testing.T) {
	r := newStubRouter("/products", "junk=1")
	s, err := queryfilter.New(storeSchema(t), r,
		queryfilter.WithDecodeOpt(queryfilter.Opt{Unknown: queryfilter.UnknownStrict}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	st := s.Snapshot(context.Background())
	if st.Errors["junk"].Code != queryfilter.CodeUnknownKey {
		t.Fatalf("expected unknown_key for junk, got %v", st.Errors)
	}
}
