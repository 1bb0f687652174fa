// Package queryfilter keeps an application's active filter state in sync with
// the query component of a navigable location, validated through a declarative
// schema on every read and write.
//
// It provides:
//
//   - Schema-driven validation and coercion of raw query values (url.Values)
//     into typed filter values, with structured Issues on failure
//   - A location codec: typed values <-> canonical query strings, plus a
//     Router abstraction whose pushes report completion asynchronously
//   - Store: the stateful adapter holding current values and errors, with
//     Snapshot / FilterBy / Reset and a one-shot normalization push on load
//
// Design policy:
//   - Keep only public APIs in the root package; put coercion details under
//     internal/, the schema builder under dsl/, value codecs under codec/, the
//     in-memory router under history/, and the CLI under cmd/queryfilter.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := dsl.Filters().
//		Field("status", dsl.String().OneOf("active", "archived")).
//		Field("page", dsl.Int().Min(1).Default(1)).
//		MustBuild()
//	loc, _ := queryfilter.ParseLocation("/items?status=active")
//	router, _ := history.New(loc)
//	store, _ := queryfilter.New(s, router)
//	snap := store.Snapshot(ctx)
//	comp, err := store.FilterBy(ctx, map[string]any{"page": int64(2)})
//	if err == nil {
//		err = comp.Wait(ctx)
//	}
package queryfilter
