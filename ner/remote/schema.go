package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema describes the token-classification response of a
// HuggingFace-style inference endpoint. Fields are typed but not required;
// entities missing a field are rejected one by one by the adapter.
func responseSchema() map[string]any {
	number := map[string]any{"type": "number"}
	offset := map[string]any{"type": "integer", "minimum": 0}
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"entity_group": str,
				"entity":       str,
				"word":         str,
				"score":        number,
				"start":        offset,
				"end":          offset,
			},
		},
	}
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
