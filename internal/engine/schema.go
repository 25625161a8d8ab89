package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ExtractionSchema describes what the document engines may print on stdout.
// Fields are optional; when present they must have the right type.
func ExtractionSchema() map[string]any {
	str := map[string]any{"type": "string"}
	nullableStr := map[string]any{"type": []any{"string", "null"}}
	count := map[string]any{"type": "integer", "minimum": 0}
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"extractedText": str,
			"summary":       nullableStr,
			"metadata":      map[string]any{"type": "object"},
			"documentAnalysis": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":       str,
					"confidence": map[string]any{"type": "number"},
					"complexity": str,
					"keyEntities": map[string]any{
						"type":                 "object",
						"additionalProperties": map[string]any{"type": "array"},
					},
				},
			},
			"structureAnalysis": map[string]any{"type": "object"},
			"processingStages": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "boolean"},
			},
			"extractionMethod": str,
			"documentType":     str,
			"wordCount":        count,
			"characterCount":   count,
			"pageCount":        count,
			"processingTime":   map[string]any{"type": "number", "minimum": 0},
			"success":          map[string]any{"type": "boolean"},
			"error":            nullableStr,
		},
	}
}

// ChatSchema describes the chat engine's stdout.
func ChatSchema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"response":        map[string]any{"type": "string"},
			"mode":            map[string]any{"type": "string"},
			"success":         map[string]any{"type": "boolean"},
			"using_document":  map[string]any{"type": "boolean"},
			"ai_powered":      map[string]any{"type": "boolean"},
			"processing_time": map[string]any{"type": "number"},
		},
	}
}

// OutputValidator checks decoded engine output at the process boundary.
type OutputValidator struct {
	extraction *jsonschema.Schema
	chat       *jsonschema.Schema
}

// NewOutputValidator compiles the extraction and chat schemas.
func NewOutputValidator() (*OutputValidator, error) {
	extraction, err := compile("extraction.json", ExtractionSchema())
	if err != nil {
		return nil, err
	}
	chat, err := compile("chat.json", ChatSchema())
	if err != nil {
		return nil, err
	}
	return &OutputValidator{extraction: extraction, chat: chat}, nil
}

// ValidateExtraction validates a value produced by json.Unmarshal into any.
func (v *OutputValidator) ValidateExtraction(doc any) error {
	if err := v.extraction.Validate(doc); err != nil {
		return fmt.Errorf("json does not match extraction schema: %w", err)
	}
	return nil
}

// ValidateChat validates a value produced by json.Unmarshal into any.
func (v *OutputValidator) ValidateChat(doc any) error {
	if err := v.chat.Validate(doc); err != nil {
		return fmt.Errorf("json does not match chat schema: %w", err)
	}
	return nil
}

func compile(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
