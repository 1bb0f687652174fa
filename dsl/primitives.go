package dsl

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/codec"
	"github.com/reoring/queryfilter/i18n"
	"github.com/reoring/queryfilter/internal/coerce"
	oa "github.com/reoring/queryfilter/openapi"
)

// ---- string ----

// String declares a string field.
func String() *StringField { return &StringField{} }

// StringField accumulates string constraints. Checks run in a fixed order:
// length, pattern, enum, format; the first violation wins.
type StringField struct {
	minLen, maxLen *int
	pattern        string
	oneOf          []string
	format         string
	allowEmpty     bool
	def            *string
}

// Min sets the minimum length (inclusive).
func (f *StringField) Min(n int) *StringField { f.minLen = &n; return f }

// Max sets the maximum length (inclusive).
func (f *StringField) Max(n int) *StringField { f.maxLen = &n; return f }

// Pattern requires the value to match re (Go regexp syntax). The expression
// is compiled at Build time; a bad pattern is a construction error.
func (f *StringField) Pattern(re string) *StringField { f.pattern = re; return f }

// OneOf restricts the value to the given set.
func (f *StringField) OneOf(vs ...string) *StringField { f.oneOf = vs; return f }

// Format attaches a named format check: "uuid", "email" or "date".
func (f *StringField) Format(name string) *StringField { f.format = name; return f }

// AllowEmpty keeps empty string values instead of treating them as absent.
func (f *StringField) AllowEmpty() *StringField { f.allowEmpty = true; return f }

// Default sets the value applied when the key is absent.
func (f *StringField) Default(v string) *StringField { f.def = &v; return f }

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (f *StringField) adapter() (AnyAdapter, error) {
	var re *regexp.Regexp
	if f.pattern != "" {
		var err error
		re, err = regexp.Compile(f.pattern)
		if err != nil {
			return AnyAdapter{}, queryfilter.Issues{{Code: queryfilter.CodeParseError, Message: "invalid pattern", Hint: f.pattern, Cause: err}}
		}
	}
	switch f.format {
	case "", "uuid", "email", "date":
	default:
		return AnyAdapter{}, queryfilter.Issues{{Code: queryfilter.CodeParseError, Message: "unknown format", Hint: f.format}}
	}
	check := func(s string) queryfilter.Issues {
		if f.minLen != nil && len(s) < *f.minLen {
			return queryfilter.Issues{{Code: queryfilter.CodeTooShort, Message: i18n.T(queryfilter.CodeTooShort, nil), Params: map[string]any{"min": *f.minLen, "got": len(s)}}}
		}
		if f.maxLen != nil && len(s) > *f.maxLen {
			return queryfilter.Issues{{Code: queryfilter.CodeTooLong, Message: i18n.T(queryfilter.CodeTooLong, nil), Params: map[string]any{"max": *f.maxLen, "got": len(s)}}}
		}
		if re != nil && !re.MatchString(s) {
			return queryfilter.Issues{{Code: queryfilter.CodePattern, Message: i18n.T(queryfilter.CodePattern, nil), Hint: f.pattern}}
		}
		if len(f.oneOf) > 0 && !containsString(f.oneOf, s) {
			return queryfilter.Issues{{Code: queryfilter.CodeInvalidEnum, Message: i18n.T(queryfilter.CodeInvalidEnum, nil), Params: map[string]any{"allowed": f.oneOf, "got": s}}}
		}
		switch f.format {
		case "uuid":
			if _, err := uuid.Parse(s); err != nil {
				return queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: i18n.T(queryfilter.CodeInvalidFormat, nil), Hint: "uuid", Cause: err}}
			}
		case "email":
			if !emailRe.MatchString(s) {
				return queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: i18n.T(queryfilter.CodeInvalidFormat, nil), Hint: "email"}}
			}
		case "date":
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: i18n.T(queryfilter.CodeInvalidFormat, nil), Hint: "2006-01-02", Cause: err}}
			}
		}
		return nil
	}
	if f.def != nil {
		if iss := check(*f.def); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
	}
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			s := raw[0]
			if iss := check(s); len(iss) > 0 {
				return nil, iss
			}
			return s, nil
		},
		parameter: func() *oa.Schema {
			sc := &oa.Schema{Type: "string", Pattern: f.pattern, MinLength: f.minLen, MaxLength: f.maxLen, Format: f.format}
			for _, v := range f.oneOf {
				sc.Enum = append(sc.Enum, v)
			}
			if f.def != nil {
				sc.Default = *f.def
			}
			return sc
		},
		keepEmpty: f.allowEmpty,
	}
	if f.def != nil {
		v := *f.def
		ad.applyDefault = func() (any, bool) { return v, true }
	}
	return ad, nil
}

// ---- int ----

// Int declares an integer field decoded to int64.
func Int() *IntField { return &IntField{} }

// IntField accumulates integer constraints.
type IntField struct {
	min, max *int64
	oneOf    []int64
	def      *int64
}

// Min sets the minimum value (inclusive).
func (f *IntField) Min(n int64) *IntField { f.min = &n; return f }

// Max sets the maximum value (inclusive).
func (f *IntField) Max(n int64) *IntField { f.max = &n; return f }

// OneOf restricts the value to the given set.
func (f *IntField) OneOf(vs ...int64) *IntField { f.oneOf = vs; return f }

// Default sets the value applied when the key is absent.
func (f *IntField) Default(v int64) *IntField { f.def = &v; return f }

func (f *IntField) adapter() (AnyAdapter, error) {
	check := func(n int64) queryfilter.Issues {
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
		if iss := check(*f.def); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
	}
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			n, err := decodeInt(raw[0])
			if err != nil {
				return nil, err
			}
			if iss := check(n); len(iss) > 0 {
				return nil, iss
			}
			return n, nil
		},
		parameter: func() *oa.Schema {
			sc := &oa.Schema{Type: "integer", Format: "int64", Minimum: intPtrToFloat(f.min), Maximum: intPtrToFloat(f.max)}
			for _, v := range f.oneOf {
				sc.Enum = append(sc.Enum, v)
			}
			if f.def != nil {
				sc.Default = *f.def
			}
			return sc
		},
	}
	if f.def != nil {
		v := *f.def
		ad.applyDefault = func() (any, bool) { return v, true }
	}
	return ad, nil
}

// ---- float ----

// Float declares a numeric field decoded to float64.
func Float() *FloatField { return &FloatField{} }

// FloatField accumulates numeric constraints.
type FloatField struct {
	min, max *float64
	def      *float64
}

// Min sets the minimum value (inclusive).
func (f *FloatField) Min(n float64) *FloatField { f.min = &n; return f }

// Max sets the maximum value (inclusive).
func (f *FloatField) Max(n float64) *FloatField { f.max = &n; return f }

// Default sets the value applied when the key is absent.
func (f *FloatField) Default(v float64) *FloatField { f.def = &v; return f }

func (f *FloatField) adapter() (AnyAdapter, error) {
	check := func(n float64) queryfilter.Issues {
		if f.min != nil && n < *f.min {
			return queryfilter.Issues{{Code: queryfilter.CodeTooSmall, Message: i18n.T(queryfilter.CodeTooSmall, nil), Params: map[string]any{"min": *f.min, "got": n}}}
		}
		if f.max != nil && n > *f.max {
			return queryfilter.Issues{{Code: queryfilter.CodeTooBig, Message: i18n.T(queryfilter.CodeTooBig, nil), Params: map[string]any{"max": *f.max, "got": n}}}
		}
		return nil
	}
	if f.def != nil {
		if iss := check(*f.def); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
	}
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			n, err := coerce.Float(raw[0])
			if err != nil {
				return nil, queryfilter.Issues{{Code: queryfilter.CodeInvalidType, Message: i18n.T(queryfilter.CodeInvalidType, nil), Hint: "expected number", Cause: err}}
			}
			if iss := check(n); len(iss) > 0 {
				return nil, iss
			}
			return n, nil
		},
		parameter: func() *oa.Schema {
			sc := &oa.Schema{Type: "number", Minimum: f.min, Maximum: f.max}
			if f.def != nil {
				sc.Default = *f.def
			}
			return sc
		},
	}
	if f.def != nil {
		v := *f.def
		ad.applyDefault = func() (any, bool) { return v, true }
	}
	return ad, nil
}

// ---- bool ----

// Bool declares a boolean field. It accepts true/false, 1/0 and on/off,
// case-insensitive.
func Bool() *BoolField { return &BoolField{} }

// BoolField accumulates boolean options.
type BoolField struct {
	def *bool
}

// Default sets the value applied when the key is absent.
func (f *BoolField) Default(v bool) *BoolField { f.def = &v; return f }

func (f *BoolField) adapter() (AnyAdapter, error) {
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			b, err := coerce.Bool(raw[0])
			if err != nil {
				return nil, queryfilter.Issues{{Code: queryfilter.CodeInvalidType, Message: i18n.T(queryfilter.CodeInvalidType, nil), Hint: "expected boolean", Cause: err}}
			}
			return b, nil
		},
		parameter: func() *oa.Schema {
			sc := &oa.Schema{Type: "boolean"}
			if f.def != nil {
				sc.Default = *f.def
			}
			return sc
		},
	}
	if f.def != nil {
		v := *f.def
		ad.applyDefault = func() (any, bool) { return v, true }
	}
	return ad, nil
}

// ---- time ----

// Time declares a time field; RFC3339 by default, switchable to a fixed
// layout or epoch seconds.
func Time() *TimeField { return &TimeField{} }

// TimeField accumulates time constraints.
type TimeField struct {
	layout   string
	unix     bool
	min, max *time.Time
	def      *time.Time
}

// Layout switches decoding to a fixed reference layout, e.g. "2006-01-02".
func (f *TimeField) Layout(l string) *TimeField { f.layout = l; return f }

// Unix switches decoding to epoch seconds.
func (f *TimeField) Unix() *TimeField { f.unix = true; return f }

// Min sets the earliest accepted instant (inclusive).
func (f *TimeField) Min(t time.Time) *TimeField { f.min = &t; return f }

// Max sets the latest accepted instant (inclusive).
func (f *TimeField) Max(t time.Time) *TimeField { f.max = &t; return f }

// Default sets the value applied when the key is absent.
func (f *TimeField) Default(t time.Time) *TimeField { f.def = &t; return f }

func (f *TimeField) adapter() (AnyAdapter, error) {
	if f.unix && f.layout != "" {
		return AnyAdapter{}, queryfilter.Issues{{Code: queryfilter.CodeParseError, Message: "Unix and Layout are mutually exclusive"}}
	}
	var c queryfilter.Codec[string, time.Time]
	switch {
	case f.unix:
		c = codec.TimeUnix()
	case f.layout != "":
		c = codec.TimeLayout(f.layout)
	default:
		c = codec.TimeRFC3339()
	}
	check := func(t time.Time) queryfilter.Issues {
		if f.min != nil && t.Before(*f.min) {
			return queryfilter.Issues{{Code: queryfilter.CodeTooSmall, Message: i18n.T(queryfilter.CodeTooSmall, nil), Params: map[string]any{"min": f.min.UTC().Format(time.RFC3339), "got": t.UTC().Format(time.RFC3339)}}}
		}
		if f.max != nil && t.After(*f.max) {
			return queryfilter.Issues{{Code: queryfilter.CodeTooBig, Message: i18n.T(queryfilter.CodeTooBig, nil), Params: map[string]any{"max": f.max.UTC().Format(time.RFC3339), "got": t.UTC().Format(time.RFC3339)}}}
		}
		return nil
	}
	if f.def != nil {
		if iss := check(*f.def); len(iss) > 0 {
			return AnyAdapter{}, buildDefaultIssue(iss)
		}
	}
	ad := AnyAdapter{
		decode: func(ctx context.Context, raw []string) (any, error) {
			t, err := c.Decode(ctx, raw[0])
			if err != nil {
				return nil, err
			}
			if iss := check(t); len(iss) > 0 {
				return nil, iss
			}
			return t, nil
		},
		parameter: func() *oa.Schema {
			sc := &oa.Schema{Type: "string", Format: "date-time"}
			if f.unix {
				sc.Type = "integer"
				sc.Format = "unix-time"
			}
			if f.def != nil {
				sc.Default = f.def.UTC().Format(time.RFC3339)
			}
			return sc
		},
	}
	if f.def != nil {
		v := *f.def
		ad.applyDefault = func() (any, bool) { return v, true }
	}
	return ad, nil
}

// ---- helpers ----

func containsString(vs []string, s string) bool {
	for _, v := range vs {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(vs []int64, n int64) bool {
	for _, v := range vs {
		if v == n {
			return true
		}
	}
	return false
}

func decodeInt(s string) (int64, error) {
	n, err := coerce.Int(s)
	if err == nil {
		return n, nil
	}
	if err == coerce.ErrRange {
		return 0, queryfilter.Issues{{Code: queryfilter.CodeTooBig, Message: i18n.T(queryfilter.CodeTooBig, nil), Hint: "int64 overflow", Cause: err}}
	}
	return 0, queryfilter.Issues{{Code: queryfilter.CodeInvalidType, Message: i18n.T(queryfilter.CodeInvalidType, nil), Hint: "expected integer", Cause: err}}
}

func intPtrToFloat(p *int64) *float64 {
	if p == nil {
		return nil
	}
	f := float64(*p)
	return &f
}

// buildDefaultIssue marks a construction-time failure: the declared default
// violates the field's own constraints.
func buildDefaultIssue(iss queryfilter.Issues) queryfilter.Issues {
	out := make(queryfilter.Issues, 0, len(iss))
	for _, it := range iss {
		it.Hint = "default violates field constraints"
		out = append(out, it)
	}
	return out
}
