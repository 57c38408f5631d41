package decision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/optimo/constants"
)

// RecordJSONSchema describes one line of the decision log.
func RecordJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"source": map[string]any{"type": "string", "minLength": 1},
			"decision": map[string]any{
				"type": "string",
				"enum": []string{string(constants.DecisionEmpty), string(constants.DecisionConverged)},
			},
			"lines":   map[string]any{"type": "integer", "minimum": 0},
			"preview": map[string]any{"type": "string", "maxLength": PreviewRunes + 1},
		},
		"required": []string{"source", "decision", "lines", "preview"},
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(RecordJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("record.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidateLine checks one log line against RecordJSONSchema and the
// decision/lines consistency rule.
func ValidateLine(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}

	r, err := ParseLine(data)
	if err != nil {
		return err
	}
	if Classify(r.Lines) != r.Decision {
		return fmt.Errorf("record %s: decision %q inconsistent with %d lines", r.Source, r.Decision, r.Lines)
	}
	return nil
}
