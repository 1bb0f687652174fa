package queryfilter

import (
	"context"
	"net/url"
)

// State is the result of validating a raw query mapping against a schema.
// Values and Errors are mutually exclusive per key; a single invalid field
// invalidates the whole read, so Values is empty whenever Errors is not.
type State struct {
	Values map[string]any
	Errors map[string]Issue
}

// Valid reports whether the read produced no errors.
func (st State) Valid() bool { return len(st.Errors) == 0 }

// Validate is the primary read entry point. It decodes raw against s and folds
// every input-shape failure into the Errors mapping, first violation per field.
// Nothing about user-supplied query content escapes as an error; schema
// construction bugs are rejected earlier, at Build time.
func Validate(ctx context.Context, s Schema, raw url.Values, opts ...Opt) State {
	opt := MergeOpts(opts...)
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	vals, err := s.Decode(ctx, raw, opt)
	if err == nil {
		if vals == nil {
			vals = map[string]any{}
		}
		return State{Values: vals, Errors: map[string]Issue{}}
	}
	return State{Values: map[string]any{}, Errors: errorsByField(err)}
}

// errorsByField maps issues onto their top-level field keys, first issue per
// key wins.
func errorsByField(err error) map[string]Issue {
	out := map[string]Issue{}
	iss, ok := AsIssues(err)
	if !ok {
		iss = Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	for _, it := range iss {
		key := FieldKey(it.Path)
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = it
	}
	return out
}
