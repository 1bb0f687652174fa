package dsl

import (
	"context"

	queryfilter "github.com/reoring/queryfilter"
	oa "github.com/reoring/queryfilter/openapi"
)

// Fielder is implemented by every field kind. Field builders resolve into an
// AnyAdapter when the schema is built, so construction problems (bad pattern,
// default violating its own constraints) surface at Build time.
type Fielder interface {
	adapter() (AnyAdapter, error)
}

// AnyAdapter erases a field kind into the closures the decode pipeline needs.
type AnyAdapter struct {
	// decode coerces the raw values for one key. Scalar adapters receive a
	// single-element slice (duplicates already resolved); list adapters
	// receive every value.
	decode func(ctx context.Context, raw []string) (any, error)
	// applyDefault reports the schema default, when one is declared.
	applyDefault func() (any, bool)
	// parameter projects the field into an OpenAPI schema fragment.
	parameter func() *oa.Schema
	// multi marks list adapters.
	multi bool
	// explode marks the repeated-key list form (false for CSV lists).
	explode bool
	// keepEmpty treats empty string values as values instead of absences.
	keepEmpty bool
}

// Custom embeds caller-supplied decode logic as a scalar field. The returned
// value must be query-serializable for the store's normalization push to
// round-trip.
func Custom(decode func(ctx context.Context, raw string) (any, error)) *CustomField {
	return &CustomField{decode: decode}
}

// CustomField wraps a caller-supplied scalar decoder.
type CustomField struct {
	decode func(ctx context.Context, raw string) (any, error)
}

func (f *CustomField) adapter() (AnyAdapter, error) {
	if f.decode == nil {
		return AnyAdapter{}, queryfilter.Issues{{Code: queryfilter.CodeParseError, Message: "custom field requires a decode func"}}
	}
	dec := f.decode
	return AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			return dec(ctx, raw[0])
		},
		parameter: func() *oa.Schema { return &oa.Schema{Type: "string"} },
	}, nil
}

// rebaseIssues shifts child issue paths under base ("/field"), so adapters
// report at "" or "/2" and callers see "/field" or "/field/2". Non-Issues
// errors are wrapped with parse_error at base.
func rebaseIssues(base string, err error) queryfilter.Issues {
	if err == nil {
		return nil
	}
	child, ok := queryfilter.AsIssues(err)
	if !ok {
		return queryfilter.Issues{{Path: base, Code: queryfilter.CodeParseError, Message: err.Error(), Cause: err}}
	}
	var out queryfilter.Issues
	for _, it := range child {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		out = queryfilter.AppendIssues(out, queryfilter.Issue{
			Path:    p,
			Code:    it.Code,
			Message: it.Message,
			Hint:    it.Hint,
			Cause:   it.Cause,
			Params:  it.Params,
			Rule:    it.Rule,
		})
	}
	return out
}
