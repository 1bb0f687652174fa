package dsl

import (
	"context"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/i18n"
)

// rule is a cross-field check evaluated after every field decoded cleanly.
type rule interface {
	name() string
	eval(ctx context.Context, values map[string]any) error
}

// refineRule wraps a Go function. The function may return plain errors
// (reported under the root path) or Issues with explicit field paths.
type refineRule struct {
	id string
	fn func(ctx context.Context, values map[string]any) error
}

func (r refineRule) name() string { return r.id }

func (r refineRule) eval(ctx context.Context, values map[string]any) error {
	if err := r.fn(ctx, values); err != nil {
		return wrapRuleErr(r.id, err)
	}
	return nil
}

// exprRule evaluates a compiled expr-lang boolean expression against the
// decoded values. Field names are exposed as variables; absent fields are
// undefined (nil) rather than compile errors. "now" is bound to the current
// UTC instant.
type exprRule struct {
	id      string
	src     string
	program *vm.Program
	static  map[string]any
}

func compileExprRule(id, src string, static map[string]any) (*exprRule, error) {
	program, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, queryfilter.Issues{{Code: queryfilter.CodeParseError, Message: "invalid rule expression", Hint: src, Cause: err, Rule: id}}
	}
	return &exprRule{id: id, src: src, program: program, static: static}, nil
}

func (r *exprRule) name() string { return r.id }

func (r *exprRule) eval(ctx context.Context, values map[string]any) error {
	env := make(map[string]any, len(r.static)+len(values)+1)
	for k, v := range r.static {
		env[k] = v
	}
	for k, v := range values {
		env[k] = v
	}
	env["now"] = time.Now().UTC()
	out, err := expr.Run(r.program, env)
	if err != nil {
		return queryfilter.Issues{{Code: queryfilter.CodeRuleFailed, Message: i18n.T(queryfilter.CodeRuleFailed, nil), Hint: r.src, Cause: err, Rule: r.id}}
	}
	if ok, _ := out.(bool); !ok {
		return queryfilter.Issues{{Code: queryfilter.CodeRuleFailed, Message: i18n.T(queryfilter.CodeRuleFailed, nil), Hint: r.src, Rule: r.id}}
	}
	return nil
}

// wrapRuleErr normalizes a rule failure: Issues pass through with the rule
// name stamped on entries that lack one, anything else becomes a single
// root-path rule_failed issue.
func wrapRuleErr(id string, err error) error {
	if iss, ok := queryfilter.AsIssues(err); ok {
		out := make(queryfilter.Issues, 0, len(iss))
		for _, it := range iss {
			if it.Rule == "" {
				it.Rule = id
			}
			out = append(out, it)
		}
		return out
	}
	return queryfilter.Issues{{Code: queryfilter.CodeRuleFailed, Message: i18n.T(queryfilter.CodeRuleFailed, nil), Cause: err, Rule: id}}
}
