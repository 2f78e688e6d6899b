package agent

// Schema is the JSON-Schema subset the generation service enforces on
// structured results.
type Schema struct {
	Type                 string             `json:"type"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	MinItems             *int               `json:"minItems,omitempty"`
	MaxItems             *int               `json:"maxItems,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

// String returns a string field schema.
func String(description string) *Schema {
	return &Schema{Type: "string", Description: description}
}

// Object returns a closed object schema: every listed field is
// required and no others are allowed.
func Object(properties map[string]*Schema, required ...string) *Schema {
	closed := false
	return &Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: &closed,
	}
}

// FixedArray returns a schema for an array of exactly n items.
func FixedArray(items *Schema, n int) *Schema {
	return &Schema{
		Type:     "array",
		Items:    items,
		MinItems: &n,
		MaxItems: &n,
	}
}
