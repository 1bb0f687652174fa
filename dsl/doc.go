// Package dsl provides the declarative filter-schema builder for queryfilter.
//
// Overview
//   - Builder API: declare query semantics (fields/required/defaults/unknown
//     policy/duplicate policy/refinements) with Filters()/Field()/MustBuild().
//   - Field kinds: String()/Int()/Float()/Bool()/Time() scalars plus
//     Strings()/Ints() repeated-key lists (optionally in the comma-joined CSV
//     form). Custom(fn) embeds caller-supplied decode logic.
//   - Constraints: per-kind chainers (Min/Max/Pattern/OneOf/Format/Layout and
//     friends) checked in a stable order; the first violation per field wins.
//   - Rules: Refine(name, fn) for cross-field checks in Go, RefineExpr(name,
//     expression) for compiled expr-lang predicates evaluated against the
//     decoded values (plus ExprEnv-injected variables and "now").
//
// Entry points
//   - Filters(): create a builder; chain Field/Require/Unknown*/Duplicates,
//     then MustBuild()/Build().
//   - Build() reports schema-construction problems (unknown required field,
//     bad pattern, bad expression, default violating its own constraints) as
//     errors; MustBuild panics on them. Input-data problems never surface
//     here, they are Issues at decode time.
//
// File layout (roles)
//   - builder.go: the Filters builder, field chaining and Build/MustBuild.
//   - filters_core.go: decode pipeline (duplicates, coercion, defaults,
//     unknown keys, refinements, rules) and the Schema implementation.
//   - adapter.go: AnyAdapter erasure plus issue-path rebasing.
//   - primitives.go: scalar field kinds.
//   - lists.go: repeated-key and CSV list kinds.
//   - rules.go: refinements and expr-lang rule compilation.
//
// Example (quickstart)
//
//	s := dsl.Filters().
//	    Field("status", dsl.String().OneOf("active", "archived").Default("active")).
//	    Field("page",   dsl.Int().Min(1).Default(1)).
//	    Field("tags",   dsl.Strings().CSV()).
//	    Field("since",  dsl.Time()).
//	    RefineExpr("page_window", "page <= 500").
//	    MustBuild()
//
//	vals, err := s.Decode(ctx, url.Values{"page": {"2"}, "tags": {"go,web"}})
//	// vals: map[status:active page:2 tags:[go web]]
package dsl
