package quiz

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// questionListSchema validates the model-returned question array before it
// is accepted. Ids and difficulty are optional: post-processing fills them.
var questionListSchema = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":   map[string]any{"type": "string"},
			"type": map[string]any{"type": "string"},
			"question_text": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"correct_option_index": map[string]any{"type": "integer"},
			"explanation":          map[string]any{"type": "string"},
			"difficulty":           map[string]any{"type": "string"},
			"interactive_element":  map[string]any{"type": "string"},
			"phonetic_hint":        map[string]any{"type": "string"},
			"audio_url":            map[string]any{"type": "string"},
		},
		"required": []any{"type", "question_text"},
	},
}

var (
	compiledSchema     *jsonschema.Schema
	compileSchemaOnce  sync.Once
	compileSchemaError error
)

// validateQuestionList checks raw JSON against the question list schema.
func validateQuestionList(raw []byte) error {
	compileSchemaOnce.Do(func() {
		defBytes, err := json.Marshal(questionListSchema)
		if err != nil {
			compileSchemaError = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileSchemaError = fmt.Errorf("parse schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://question-list.json"
		if err := c.AddResource(schemaURL, def); err != nil {
			compileSchemaError = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileSchemaError = c.Compile(schemaURL)
	})
	if compileSchemaError != nil {
		return compileSchemaError
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledSchema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
