package schemaspec

import (
	"fmt"
	"time"

	"github.com/reoring/queryfilter/dsl"
)

type importer struct {
	d    *simpleDiag
	opts Options
}

func (im *importer) unrecognized(field, key string) error {
	if im.opts.StrictKeys {
		return fmt.Errorf("schemaspec: field %q: unrecognized key %q", field, key)
	}
	im.d.warnf("field %q: unrecognized key %q ignored", field, key)
	return nil
}

// fieldFor plans a dsl field from one spec entry. Unrecognized constraint
// keys warn (or error under StrictKeys); a missing or unknown type errors.
func fieldFor(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	t, _ := spec["type"].(string)
	switch t {
	case "string":
		return stringField(name, spec, im)
	case "int", "integer":
		return intField(name, spec, im)
	case "float", "number":
		return floatField(name, spec, im)
	case "bool", "boolean":
		return boolField(name, spec, im)
	case "time":
		return timeField(name, spec, im)
	case "[]string", "strings":
		return stringsField(name, spec, im)
	case "[]int", "ints":
		return intsField(name, spec, im)
	case "":
		return nil, fmt.Errorf("schemaspec: field %q: missing type", name)
	default:
		return nil, fmt.Errorf("schemaspec: field %q: unknown type %q", name, t)
	}
}

func stringField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	f := dsl.String()
	for k, v := range spec {
		switch k {
		case "type":
		case "minLength":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Min(int(n))
		case "maxLength":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Max(int(n))
		case "pattern":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Pattern(s)
		case "enum":
			ss, ok := asStrings(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.OneOf(ss...)
		case "format":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Format(s)
		case "allowEmpty":
			b, ok := v.(bool)
			if !ok {
				return nil, badValue(name, k, v)
			}
			if b {
				f = f.AllowEmpty()
			}
		case "default":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Default(s)
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func intField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	f := dsl.Int()
	for k, v := range spec {
		switch k {
		case "type":
		case "min":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Min(n)
		case "max":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Max(n)
		case "enum":
			ns, ok := asInts(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.OneOf(ns...)
		case "default":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Default(n)
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func floatField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	f := dsl.Float()
	for k, v := range spec {
		switch k {
		case "type":
		case "min":
			n, ok := asFloat(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Min(n)
		case "max":
			n, ok := asFloat(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Max(n)
		case "default":
			n, ok := asFloat(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Default(n)
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func boolField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	f := dsl.Bool()
	for k, v := range spec {
		switch k {
		case "type":
		case "default":
			b, ok := v.(bool)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Default(b)
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// timeField collects first and applies afterwards so min/max/default parse
// independently of map iteration order. Bounds and defaults are always
// RFC3339 in documents; layout and unix affect only the wire form.
func timeField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	var layout string
	var unix bool
	var minS, maxS, defS string
	for k, v := range spec {
		switch k {
		case "type":
		case "layout":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			layout = s
		case "unix":
			b, ok := v.(bool)
			if !ok {
				return nil, badValue(name, k, v)
			}
			unix = b
		case "min":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			minS = s
		case "max":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			maxS = s
		case "default":
			s, ok := v.(string)
			if !ok {
				return nil, badValue(name, k, v)
			}
			defS = s
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	f := dsl.Time()
	if unix {
		f = f.Unix()
	}
	if layout != "" {
		f = f.Layout(layout)
	}
	if minS != "" {
		t, err := time.Parse(time.RFC3339, minS)
		if err != nil {
			return nil, badValue(name, "min", minS)
		}
		f = f.Min(t)
	}
	if maxS != "" {
		t, err := time.Parse(time.RFC3339, maxS)
		if err != nil {
			return nil, badValue(name, "max", maxS)
		}
		f = f.Max(t)
	}
	if defS != "" {
		t, err := time.Parse(time.RFC3339, defS)
		if err != nil {
			return nil, badValue(name, "default", defS)
		}
		f = f.Default(t)
	}
	return f, nil
}

func stringsField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	f := dsl.Strings()
	for k, v := range spec {
		switch k {
		case "type":
		case "minItems":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.MinLen(int(n))
		case "maxItems":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.MaxLen(int(n))
		case "enum":
			ss, ok := asStrings(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.OneOf(ss...)
		case "csv":
			b, ok := v.(bool)
			if !ok {
				return nil, badValue(name, k, v)
			}
			if b {
				f = f.CSV()
			}
		case "default":
			ss, ok := asStrings(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Default(ss...)
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func intsField(name string, spec map[string]any, im *importer) (dsl.Fielder, error) {
	f := dsl.Ints()
	for k, v := range spec {
		switch k {
		case "type":
		case "minItems":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.MinLen(int(n))
		case "maxItems":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.MaxLen(int(n))
		case "min":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Min(n)
		case "max":
			n, ok := asInt(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Max(n)
		case "enum":
			ns, ok := asInts(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.OneOf(ns...)
		case "csv":
			b, ok := v.(bool)
			if !ok {
				return nil, badValue(name, k, v)
			}
			if b {
				f = f.CSV()
			}
		case "default":
			ns, ok := asInts(v)
			if !ok {
				return nil, badValue(name, k, v)
			}
			f = f.Default(ns...)
		default:
			if err := im.unrecognized(name, k); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func badValue(field, key string, v any) error {
	return fmt.Errorf("schemaspec: field %q: invalid %s value %v (%T)", field, key, v, v)
}

// asInt accepts the integer spellings JSON and YAML decoders produce.
func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func asStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func asInts(v any) ([]int64, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int64, 0, len(list))
	for _, e := range list {
		n, ok := asInt(e)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
