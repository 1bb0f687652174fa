// Package rules provides reusable cross-field checks for filter schemas.
// Each helper returns a Check that plugs into the dsl builder's Refine;
// checks compose with All, Any and When. Checks run only on fully decoded
// value sets, so they can assume every present value already carries its
// schema's type.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	queryfilter "github.com/reoring/queryfilter"
)

// Check inspects decoded filter values and returns Issues to veto them.
type Check func(ctx context.Context, values map[string]any) error

// Requires demands that then is present whenever when is present.
func Requires(when, then string) Check {
	return func(_ context.Context, values map[string]any) error {
		if _, ok := values[when]; !ok {
			return nil
		}
		if _, ok := values[then]; ok {
			return nil
		}
		return queryfilter.Issues{{
			Path:    "/" + then,
			Code:    queryfilter.CodeRequired,
			Message: fmt.Sprintf("required when %q is set", when),
		}}
	}
}

// MutuallyExclusive allows at most one of keys to be present.
func MutuallyExclusive(keys ...string) Check {
	return func(_ context.Context, values map[string]any) error {
		var present []string
		for _, k := range keys {
			if _, ok := values[k]; ok {
				present = append(present, k)
			}
		}
		if len(present) <= 1 {
			return nil
		}
		iss := make(queryfilter.Issues, 0, len(present)-1)
		for _, k := range present[1:] {
			iss = append(iss, queryfilter.Issue{
				Path:    "/" + k,
				Code:    queryfilter.CodeCustom,
				Message: fmt.Sprintf("mutually exclusive with %q", present[0]),
			})
		}
		return iss
	}
}

// AtLeastOne demands that one of keys is present.
func AtLeastOne(keys ...string) Check {
	return func(_ context.Context, values map[string]any) error {
		for _, k := range keys {
			if _, ok := values[k]; ok {
				return nil
			}
		}
		return queryfilter.Issues{{
			Path:    "",
			Code:    queryfilter.CodeRequired,
			Message: "one of " + strings.Join(keys, ", ") + " is required",
		}}
	}
}

// Ordered demands lo <= hi when both are present. Values must share one of
// the comparable filter types (int64, float64, string, time.Time); anything
// else is a wiring bug between rule and schema and reports as custom.
func Ordered(lo, hi string) Check {
	return func(_ context.Context, values map[string]any) error {
		a, okA := values[lo]
		b, okB := values[hi]
		if !okA || !okB {
			return nil
		}
		c, ok := compare(a, b)
		if !ok {
			return queryfilter.Issues{{
				Path:    "/" + lo,
				Code:    queryfilter.CodeCustom,
				Message: fmt.Sprintf("cannot order %T against %T", a, b),
			}}
		}
		if c > 0 {
			return queryfilter.Issues{{
				Path:    "/" + lo,
				Code:    queryfilter.CodeTooBig,
				Message: fmt.Sprintf("must not exceed %q", hi),
			}}
		}
		return nil
	}
}

// When runs then only if key currently equals want.
func When(key string, want any, then Check) Check {
	return func(ctx context.Context, values map[string]any) error {
		v, ok := values[key]
		if !ok || v != want {
			return nil
		}
		return then(ctx, values)
	}
}

// All runs every check and accumulates their issues.
func All(checks ...Check) Check {
	return func(ctx context.Context, values map[string]any) error {
		var iss queryfilter.Issues
		for _, c := range checks {
			err := c(ctx, values)
			if err == nil {
				continue
			}
			if more, ok := queryfilter.AsIssues(err); ok {
				iss = queryfilter.AppendIssues(iss, more...)
				continue
			}
			iss = queryfilter.AppendIssues(iss, queryfilter.Issue{
				Code: queryfilter.CodeCustom, Message: err.Error(), Cause: err,
			})
		}
		if len(iss) > 0 {
			return iss
		}
		return nil
	}
}

// Any passes when at least one check passes; otherwise it reports the first
// check's issues.
func Any(checks ...Check) Check {
	return func(ctx context.Context, values map[string]any) error {
		var first error
		for _, c := range checks {
			err := c(ctx, values)
			if err == nil {
				return nil
			}
			if first == nil {
				first = err
			}
		}
		return first
	}
}

func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}
