package openapi

// Parameter is a minimal OpenAPI v3 query parameter representation used for
// export. Keep this struct small and extend incrementally.
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"` // always "query" for filter schemas
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`

	// Style/Explode describe array serialization: explode=true is the
	// repeated-key form (?tag=a&tag=b), explode=false the comma-joined form.
	Style   string `json:"style,omitempty"`
	Explode *bool  `json:"explode,omitempty"`
}

// Schema is the value shape carried by a Parameter.
type Schema struct {
	Type    string   `json:"type,omitempty"`
	Format  string   `json:"format,omitempty"`
	Enum    []any    `json:"enum,omitempty"`
	Default any      `json:"default,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// String
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`
}
