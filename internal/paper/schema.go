package paper

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// payloadSchema describes the outer shape of a paper payload. Nested fields
// that may arrive string-encoded accept both forms.
var payloadSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "exercises"},
	"properties": map[string]any{
		"id":          map[string]any{"type": []any{"string", "integer"}},
		"title":       map[string]any{"type": "string"},
		"total_items": map[string]any{"type": "integer", "minimum": 0},
		"exercises": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     []any{"object", "string"},
				"required": []any{"id", "type"},
				"properties": map[string]any{
					"id":    map[string]any{"type": []any{"string", "integer"}},
					"type":  map[string]any{"type": "string", "minLength": 1},
					"items": map[string]any{"type": []any{"array", "string", "null"}},
					"asset": map[string]any{"type": []any{"object", "string", "null"}},
				},
			},
		},
	},
}

const payloadSchemaURL = "schema://paper-payload.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ValidatePayload checks raw paper JSON against the payload schema.
func ValidatePayload(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	sch, err := payloadValidator()
	if err != nil {
		return fmt.Errorf("compile paper schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return fmt.Errorf("paper schema validation failed: %w", err)
	}
	return nil
}

func payloadValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a plain any tree, so round-trip through JSON.
		defBytes, err := json.Marshal(payloadSchema)
		if err != nil {
			compileErr = err
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(payloadSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(payloadSchemaURL)
	})
	return compiled, compileErr
}
