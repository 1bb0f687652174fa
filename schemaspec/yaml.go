package schemaspec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	queryfilter "github.com/reoring/queryfilter"
	"gopkg.in/yaml.v3"
)

// ImportYAML compiles the first document of a YAML filter-schema file.
func ImportYAML(data []byte, opts Options) (queryfilter.Schema, Diag, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var node any
	if err := dec.Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &simpleDiag{}, errors.New("schemaspec: empty YAML document")
		}
		return nil, &simpleDiag{}, fmt.Errorf("schemaspec: invalid YAML: %w", err)
	}
	m := yamlAnyToStringMap(node)
	if m == nil {
		return nil, &simpleDiag{}, errors.New("schemaspec: document root must be a mapping")
	}
	return Import(m, opts)
}

// ImportYAMLNamed scans a multi-document YAML bundle and compiles the
// document whose top-level name matches. Lets one file carry the filter
// schemas for several endpoints.
func ImportYAMLNamed(data []byte, name string, opts Options) (queryfilter.Schema, Diag, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &simpleDiag{}, fmt.Errorf("schemaspec: invalid YAML: %w", err)
		}
		m := yamlAnyToStringMap(node)
		if m == nil {
			continue
		}
		if n, _ := m["name"].(string); n == name {
			return Import(m, opts)
		}
	}
	return nil, &simpleDiag{}, fmt.Errorf("schemaspec: schema %q not found in YAML bundle", name)
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain
// map[any]any) into JSON-like map[string]any recursively. Non-map roots
// return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
