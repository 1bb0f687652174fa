package dsl

import (
	"context"
	"strconv"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/i18n"
	"github.com/reoring/queryfilter/internal/coerce"
	oa "github.com/reoring/queryfilter/openapi"
)

// ---- string list ----

// Strings declares a repeated string field decoded to []string. The wire
// form is the repeated key (?tag=a&tag=b); CSV switches to a single
// comma-joined value.
func Strings() *StringsField { return &StringsField{} }

// StringsField accumulates list constraints. MinLen/MaxLen bound the item
// count, OneOf applies per element.
type StringsField struct {
	minItems, maxItems *int
	oneOf              []string
	csv                bool
	def                []string
}

// MinLen sets the minimum item count (inclusive).
func (f *StringsField) MinLen(n int) *StringsField { f.minItems = &n; return f }

// MaxLen sets the maximum item count (inclusive).
func (f *StringsField) MaxLen(n int) *StringsField { f.maxItems = &n; return f }

// OneOf restricts every element to the given set.
func (f *StringsField) OneOf(vs ...string) *StringsField { f.oneOf = vs; return f }

// CSV switches the wire form to a single comma-joined value.
func (f *StringsField) CSV() *StringsField { f.csv = true; return f }

// Default sets the list applied when the key is absent.
func (f *StringsField) Default(vs ...string) *StringsField { f.def = vs; return f }

func (f *StringsField) adapter() (AnyAdapter, error) {
	checkLen := func(n int) queryfilter.Issues {
		if f.minItems != nil && n < *f.minItems {
			return queryfilter.Issues{{Code: queryfilter.CodeTooShort, Message: i18n.T(queryfilter.CodeTooShort, nil), Params: map[string]any{"min": *f.minItems, "got": n}}}
		}
		if f.maxItems != nil && n > *f.maxItems {
			return queryfilter.Issues{{Code: queryfilter.CodeTooLong, Message: i18n.T(queryfilter.CodeTooLong, nil), Params: map[string]any{"max": *f.maxItems, "got": n}}}
		}
		return nil
	}
	checkElems := func(vs []string) queryfilter.Issues {
		if len(f.oneOf) == 0 {
			return nil
		}
		for i, v := range vs {
			if !containsString(f.oneOf, v) {
				return queryfilter.Issues{{Path: "/" + strconv.Itoa(i), Code: queryfilter.CodeInvalidEnum, Message: i18n.T(queryfilter.CodeInvalidEnum, nil), Params: map[string]any{"allowed": f.oneOf, "got": v}}}
			}
		}
		return nil
	}
	if f.def != nil {
		if iss := checkLen(len(f.def)); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
		if iss := checkElems(f.def); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
	}
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			vs := raw
			if f.csv {
				vs = nil
				for _, r := range raw {
					vs = append(vs, coerce.SplitList(r)...)
				}
			}
			if iss := checkLen(len(vs)); len(iss) > 0 {
				return nil, iss
			}
			if iss := checkElems(vs); len(iss) > 0 {
				return nil, iss
			}
			out := make([]string, len(vs))
			copy(out, vs)
			return out, nil
		},
		parameter: func() *oa.Schema {
			item := &oa.Schema{Type: "string"}
			for _, v := range f.oneOf {
				item.Enum = append(item.Enum, v)
			}
			return &oa.Schema{Type: "array", Items: item, MinItems: f.minItems, MaxItems: f.maxItems}
		},
		multi:   true,
		explode: !f.csv,
	}
	if f.def != nil {
		def := f.def
		ad.applyDefault = func() (any, bool) {
			out := make([]string, len(def))
			copy(out, def)
			return out, true
		}
	}
	return ad, nil
}

// ---- int list ----

// Ints declares a repeated integer field decoded to []int64.
func Ints() *IntsField { return &IntsField{} }

// IntsField accumulates list constraints. MinLen/MaxLen bound the item
// count, Min/Max and OneOf apply per element.
type IntsField struct {
	minItems, maxItems *int
	min, max           *int64
	oneOf              []int64
	csv                bool
	def                []int64
}

// MinLen sets the minimum item count (inclusive).
func (f *IntsField) MinLen(n int) *IntsField { f.minItems = &n; return f }

// MaxLen sets the maximum item count (inclusive).
func (f *IntsField) MaxLen(n int) *IntsField { f.maxItems = &n; return f }

// Min sets the minimum element value (inclusive).
func (f *IntsField) Min(n int64) *IntsField { f.min = &n; return f }

// Max sets the maximum element value (inclusive).
func (f *IntsField) Max(n int64) *IntsField { f.max = &n; return f }

// OneOf restricts every element to the given set.
func (f *IntsField) OneOf(vs ...int64) *IntsField { f.oneOf = vs; return f }

// CSV switches the wire form to a single comma-joined value.
func (f *IntsField) CSV() *IntsField { f.csv = true; return f }

// Default sets the list applied when the key is absent.
func (f *IntsField) Default(vs ...int64) *IntsField { f.def = vs; return f }

func (f *IntsField) adapter() (AnyAdapter, error) {
	checkLen := func(n int) queryfilter.Issues {
		if f.minItems != nil && n < *f.minItems {
			return queryfilter.Issues{{Code: queryfilter.CodeTooShort, Message: i18n.T(queryfilter.CodeTooShort, nil), Params: map[string]any{"min": *f.minItems, "got": n}}}
		}
		if f.maxItems != nil && n > *f.maxItems {
			return queryfilter.Issues{{Code: queryfilter.CodeTooLong, Message: i18n.T(queryfilter.CodeTooLong, nil), Params: map[string]any{"max": *f.maxItems, "got": n}}}
		}
		return nil
	}
	checkElem := func(n int64) queryfilter.Issues {
		if f.min != nil && n < *f.min {
			return queryfilter.Issues{{Code: queryfilter.CodeTooSmall, Message: i18n.T(queryfilter.CodeTooSmall, nil), Params: map[string]any{"min": *f.min, "got": n}}}
		}
		if f.max != nil && n > *f.max {
			return queryfilter.Issues{{Code: queryfilter.CodeTooBig, Message: i18n.T(queryfilter.CodeTooBig, nil), Params: map[string]any{"max": *f.max, "got": n}}}
		}
		if len(f.oneOf) > 0 && !containsInt(f.oneOf, n) {
			return queryfilter.Issues{{Code: queryfilter.CodeInvalidEnum, Message: i18n.T(queryfilter.CodeInvalidEnum, nil), Params: map[string]any{"allowed": f.oneOf, "got": n}}}
		}
		return nil
	}
	if f.def != nil {
		if iss := checkLen(len(f.def)); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
		for _, v := range f.def {
			if iss := checkElem(v); len(iss) > 0 {
				return AnyAdapter{}, buildDefaultIssue(iss)
			}
		}
	}
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			vs := raw
			if f.csv {
				vs = nil
				for _, r := range raw {
					vs = append(vs, coerce.SplitList(r)...)
				}
			}
			if iss := checkLen(len(vs)); len(iss) > 0 {
				return nil, iss
			}
			out := make([]int64, 0, len(vs))
			for i, v := range vs {
				n, err := decodeInt(v)
				if err != nil {
					return nil, rebaseIssues("/"+strconv.Itoa(i), err)
				}
				if iss := checkElem(n); len(iss) > 0 {
					return nil, rebaseIssues("/"+strconv.Itoa(i), iss)
				}
				out = append(out, n)
			}
			return out, nil
		},
		parameter: func() *oa.Schema {
			item := &oa.Schema{Type: "integer", Format: "int64", Minimum: intPtrToFloat(f.min), Maximum: intPtrToFloat(f.max)}
			for _, v := range f.oneOf {
				item.Enum = append(item.Enum, v)
			}
			return &oa.Schema{Type: "array", Items: item, MinItems: f.minItems, MaxItems: f.maxItems}
		},
		multi:   true,
		explode: !f.csv,
	}
	if f.def != nil {
		def := f.def
		ad.applyDefault = func() (any, bool) {
			out := make([]int64, len(def))
			copy(out, def)
			return out, true
		}
	}
	return ad, nil
}
