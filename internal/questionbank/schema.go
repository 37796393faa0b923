package questionbank

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const corpusSchemaURL = "schema://mth101-corpus.json"

// corpusSchema describes the on-disk corpus: one array of questions per
// difficulty tier.
var corpusSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"easy":   map[string]any{"$ref": "#/$defs/pool"},
		"medium": map[string]any{"$ref": "#/$defs/pool"},
		"hard":   map[string]any{"$ref": "#/$defs/pool"},
	},
	"required": []any{"easy", "medium", "hard"},
	"$defs": map[string]any{
		"pool": map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/$defs/question"},
		},
		"question": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":       map[string]any{"type": "string"},
				"topic":    map[string]any{"type": "string", "minLength": 1},
				"question": map[string]any{"type": "string", "minLength": 1},
				"options": map[string]any{
					"type":          "object",
					"minProperties": 2,
					"additionalProperties": map[string]any{
						"type": "string",
					},
				},
				"correct_answer": map[string]any{"type": "string", "minLength": 1},
				"explanation":    map[string]any{"type": "string"},
			},
			"required": []any{"topic", "question", "options", "correct_answer"},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateCorpusJSON checks raw corpus bytes against the corpus schema.
func validateCorpusJSON(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema()
	if err != nil {
		return fmt.Errorf("compile corpus schema: %w", err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// getCompiledSchema compiles the corpus schema once and caches it.
func getCompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler expects a plain decoded JSON value.
		defBytes, err := json.Marshal(corpusSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(corpusSchemaURL, defParsed); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(corpusSchemaURL)
	})
	return compiledSchema, compileErr
}
