package llm

import "encoding/json"

// JSONSchema is a node of a response_format JSON schema. Build trees with
// the String, Number, ArrayOf and Object helpers.
type JSONSchema struct {
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

// MarshalJSON always emits additionalProperties, which strict mode requires.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	return json.Marshal((*alias)(s))
}

// String returns a string-typed schema node.
func String(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// Number returns a number-typed schema node.
func Number(description string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description}
}

// ArrayOf returns an array schema node with the given item schema.
func ArrayOf(items *JSONSchema, description string) *JSONSchema {
	return &JSONSchema{Type: "array", Items: items, Description: description}
}

// Object returns a closed object schema. Every property listed in required
// must also be present in props.
func Object(props map[string]*JSONSchema, required ...string) *JSONSchema {
	return &JSONSchema{Type: "object", Properties: props, Required: required}
}
