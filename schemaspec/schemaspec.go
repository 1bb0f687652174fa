// Package schemaspec compiles declarative filter-schema documents (JSON or
// YAML) into queryfilter schemas. A document names its fields under
// "filters", each with a type and per-type constraints, plus optional
// top-level "required", "unknown", "duplicates" and "rules" sections:
//
//	filters:
//	  q:    {type: string, minLength: 2}
//	  page: {type: int, min: 1, default: 1}
//	required: [q]
//	unknown: strict
//	rules:
//	  - name: window
//	    expr: from == nil || to == nil || from <= to
//
// Documents are data, so every construction failure the dsl reports at
// Build surfaces here as an error rather than a panic.
package schemaspec

import (
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/dsl"
)

// Import compiles a filter-schema document into a queryfilter.Schema. The
// document can be a decoded map[string]any or raw JSON bytes. The returned
// Diag collects warnings for ignored keys; under Options.StrictKeys those
// become errors instead.
func Import(doc any, opts Options) (queryfilter.Schema, Diag, error) {
	d := &simpleDiag{}
	var root map[string]any
	switch t := doc.(type) {
	case []byte:
		if err := json.Unmarshal(t, &root); err != nil {
			return nil, d, fmt.Errorf("schemaspec: invalid JSON: %w", err)
		}
	case map[string]any:
		root = t
	default:
		return nil, d, fmt.Errorf("schemaspec: unsupported document type %T", doc)
	}
	im := &importer{d: d, opts: opts}
	s, err := im.build(root)
	if err != nil {
		return nil, d, err
	}
	return s, d, nil
}

func (im *importer) build(root map[string]any) (queryfilter.Schema, error) {
	for _, k := range sortedKeys(root) {
		switch k {
		// name identifies a document inside a multi-schema YAML bundle.
		case "filters", "required", "unknown", "duplicates", "rules", "name":
		default:
			if im.opts.StrictKeys {
				return nil, fmt.Errorf("schemaspec: unrecognized top-level key %q", k)
			}
			im.d.warnf("unrecognized top-level key %q ignored", k)
		}
	}

	fm, ok := root["filters"].(map[string]any)
	if !ok || len(fm) == 0 {
		return nil, errors.New("schemaspec: document declares no filters")
	}

	b := dsl.Filters()
	for _, name := range sortedKeys(fm) {
		spec, ok := fm[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schemaspec: field %q: spec must be a mapping", name)
		}
		f, err := fieldFor(name, spec, im)
		if err != nil {
			return nil, err
		}
		b.Field(name, f)
	}

	if raw, ok := root["required"]; ok {
		names, ok := asStrings(raw)
		if !ok {
			return nil, errors.New("schemaspec: required must be a list of field names")
		}
		b.Require(names...)
	}

	if raw, ok := root["unknown"]; ok {
		s, _ := raw.(string)
		switch s {
		case "strip":
			b.UnknownStrip()
		case "strict":
			b.UnknownStrict()
		case "passthrough":
			b.UnknownPassthrough()
		default:
			return nil, fmt.Errorf("schemaspec: unknown must be strip, strict or passthrough, got %q", s)
		}
	}

	if raw, ok := root["duplicates"]; ok {
		s, _ := raw.(string)
		switch s {
		case "first":
			b.Duplicates(queryfilter.DuplicateFirst)
		case "last":
			b.Duplicates(queryfilter.DuplicateLast)
		case "reject":
			b.Duplicates(queryfilter.DuplicateReject)
		default:
			return nil, fmt.Errorf("schemaspec: duplicates must be first, last or reject, got %q", s)
		}
	}

	if raw, ok := root["rules"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, errors.New("schemaspec: rules must be a list")
		}
		for i, e := range list {
			rm, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("schemaspec: rule %d: must be a mapping", i)
			}
			expr, _ := rm["expr"].(string)
			if expr == "" {
				return nil, fmt.Errorf("schemaspec: rule %d: missing expr", i)
			}
			name, _ := rm["name"].(string)
			if name == "" {
				name = fmt.Sprintf("rule-%d", i)
			}
			for _, k := range sortedKeys(rm) {
				if k == "name" || k == "expr" {
					continue
				}
				if im.opts.StrictKeys {
					return nil, fmt.Errorf("schemaspec: rule %q: unrecognized key %q", name, k)
				}
				im.d.warnf("rule %q: unrecognized key %q ignored", name, k)
			}
			b.RefineExpr(name, expr)
		}
	}

	return b.Build()
}

// sortedKeys keeps error reporting and warning order independent of map
// iteration order.
func sortedKeys(m map[string]any) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
