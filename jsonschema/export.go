package jsonschema

import (
	queryfilter "github.com/reoring/queryfilter"
	oa "github.com/reoring/queryfilter/openapi"
)

// FromSchema renders a filter schema as one JSON Schema object: each query
// parameter becomes a property and required parameters land in required.
// additionalProperties stays unset because unknown-key handling is a
// decode-time policy, not a document shape.
func FromSchema(s queryfilter.Schema) (*Schema, error) {
	params, err := s.Parameters()
	if err != nil {
		return nil, err
	}
	out := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema, len(params)),
	}
	for _, p := range params {
		out.Properties[p.Name] = fromParameter(p.Schema)
		if p.Required {
			out.Required = append(out.Required, p.Name)
		}
	}
	return out, nil
}

func fromParameter(ps *oa.Schema) *Schema {
	if ps == nil {
		return nil
	}
	out := &Schema{
		Type:      ps.Type,
		Format:    ps.Format,
		Default:   ps.Default,
		Pattern:   ps.Pattern,
		Minimum:   ps.Minimum,
		Maximum:   ps.Maximum,
		MinLength: ps.MinLength,
		MaxLength: ps.MaxLength,
		MinItems:  ps.MinItems,
		MaxItems:  ps.MaxItems,
		Items:     fromParameter(ps.Items),
	}
	if len(ps.Enum) > 0 {
		out.Enum = append([]any(nil), ps.Enum...)
	}
	return out
}
