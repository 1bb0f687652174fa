package dsl

import (
	"context"
	"sort"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/i18n"
)

type filtersBuilder struct {
	fields   map[string]Fielder
	required map[string]struct{}
	unknown  queryfilter.UnknownPolicy
	dup      queryfilter.DuplicatePolicy
	rules    []func(b *filtersBuilder) (rule, error)
	env      map[string]any
}

type fieldStep struct {
	b    *filtersBuilder
	name string
}

// Filters creates a new filter-schema builder. Defaults suit query strings:
// unknown keys are stripped (URLs accumulate tracking junk) and the first of
// a repeated scalar key wins.
func Filters() *filtersBuilder {
	return &filtersBuilder{
		fields:   map[string]Fielder{},
		required: map[string]struct{}{},
		unknown:  queryfilter.UnknownStrip,
		dup:      queryfilter.DuplicateFirst,
	}
}

// Field registers a field with its declaration. Registering the same name
// twice keeps the last declaration.
func (b *filtersBuilder) Field(name string, f Fielder) *fieldStep {
	b.fields[name] = f
	return &fieldStep{b: b, name: name}
}

// Required marks the field as required and returns the builder.
func (f *fieldStep) Required() *filtersBuilder {
	f.b.required[f.name] = struct{}{}
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *fieldStep) Optional() *filtersBuilder {
	delete(f.b.required, f.name)
	return f.b
}

func (f *fieldStep) Require(names ...string) *filtersBuilder { return f.b.Require(names...) }
func (f *fieldStep) UnknownStrict() *filtersBuilder          { return f.b.UnknownStrict() }
func (f *fieldStep) UnknownStrip() *filtersBuilder           { return f.b.UnknownStrip() }
func (f *fieldStep) UnknownPassthrough() *filtersBuilder     { return f.b.UnknownPassthrough() }
func (f *fieldStep) Duplicates(p queryfilter.DuplicatePolicy) *filtersBuilder {
	return f.b.Duplicates(p)
}
func (f *fieldStep) Refine(name string, fn func(context.Context, map[string]any) error) *filtersBuilder {
	return f.b.Refine(name, fn)
}
func (f *fieldStep) RefineExpr(name, expression string) *filtersBuilder {
	return f.b.RefineExpr(name, expression)
}
func (f *fieldStep) ExprEnv(env map[string]any) *filtersBuilder { return f.b.ExprEnv(env) }
func (f *fieldStep) Field(name string, fd Fielder) *fieldStep   { return f.b.Field(name, fd) }
func (f *fieldStep) Build() (queryfilter.Schema, error)         { return f.b.Build() }
func (f *fieldStep) MustBuild() queryfilter.Schema              { return f.b.MustBuild() }

// Require marks one or more declared fields as required.
func (b *filtersBuilder) Require(names ...string) *filtersBuilder {
	for _, n := range names {
		b.required[n] = struct{}{}
	}
	return b
}

// UnknownStrict rejects undeclared query keys.
func (b *filtersBuilder) UnknownStrict() *filtersBuilder {
	b.unknown = queryfilter.UnknownStrict
	return b
}

// UnknownStrip drops undeclared query keys (the default).
func (b *filtersBuilder) UnknownStrip() *filtersBuilder {
	b.unknown = queryfilter.UnknownStrip
	return b
}

// UnknownPassthrough keeps undeclared query keys in the decoded values as raw
// strings, so a later serialization round-trips them untouched.
func (b *filtersBuilder) UnknownPassthrough() *filtersBuilder {
	b.unknown = queryfilter.UnknownPassthrough
	return b
}

// Duplicates sets the repeated-scalar-key policy.
func (b *filtersBuilder) Duplicates(p queryfilter.DuplicatePolicy) *filtersBuilder {
	b.dup = p
	return b
}

// Refine adds a named cross-field rule. It runs only after every field
// decoded cleanly.
func (b *filtersBuilder) Refine(name string, fn func(context.Context, map[string]any) error) *filtersBuilder {
	if fn == nil {
		return b
	}
	b.rules = append(b.rules, func(*filtersBuilder) (rule, error) {
		return refineRule{id: name, fn: fn}, nil
	})
	return b
}

// RefineExpr adds a named cross-field rule written as an expr-lang boolean
// expression, e.g. "from <= to". Field names are variables; absent fields
// evaluate as nil. Compilation happens at Build time.
func (b *filtersBuilder) RefineExpr(name, expression string) *filtersBuilder {
	b.rules = append(b.rules, func(bb *filtersBuilder) (rule, error) {
		return compileExprRule(name, expression, bb.env)
	})
	return b
}

// ExprEnv exposes extra variables to every expression rule, e.g. feature
// flags or tenant limits.
func (b *filtersBuilder) ExprEnv(env map[string]any) *filtersBuilder {
	b.env = env
	return b
}

// Build validates the declarations and returns a Schema. Declaration
// mistakes (bad patterns, defaults violating their own constraints,
// unparsable expressions, required on an undeclared field) are reported
// here, never from Validate.
func (b *filtersBuilder) Build() (queryfilter.Schema, error) {
	var iss queryfilter.Issues
	fields := make(map[string]AnyAdapter, len(b.fields))
	for name, f := range b.fields {
		if name == "" {
			iss = append(iss, queryfilter.Issue{Path: "/", Code: queryfilter.CodeParseError, Message: i18n.T(queryfilter.CodeParseError, nil), Hint: "empty field name"})
			continue
		}
		ad, err := f.adapter()
		if err != nil {
			iss = append(iss, rebaseIssues("/"+name, err)...)
			continue
		}
		fields[name] = ad
	}
	for name := range b.required {
		if _, ok := b.fields[name]; !ok {
			iss = append(iss, queryfilter.Issue{Path: "/" + name, Code: queryfilter.CodeParseError, Message: i18n.T(queryfilter.CodeParseError, nil), Hint: "required field not declared"})
		}
	}
	rules := make([]rule, 0, len(b.rules))
	for _, mk := range b.rules {
		r, err := mk(b)
		if err != nil {
			iss = append(iss, rebaseIssues("", err)...)
			continue
		}
		rules = append(rules, r)
	}
	if len(iss) > 0 {
		sort.SliceStable(iss, func(i, j int) bool { return iss[i].Path < iss[j].Path })
		return nil, iss
	}
	// cache sorted keys for deterministic order without per-decode sorting
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	required := make(map[string]struct{}, len(b.required))
	for k := range b.required {
		required[k] = struct{}{}
	}
	return &filtersSchema{
		fields:     fields,
		required:   required,
		unknown:    b.unknown,
		dup:        b.dup,
		rules:      rules,
		sortedKeys: keys,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *filtersBuilder) MustBuild() queryfilter.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
