// Package openapi describes a wizard schema as an OpenAPI 3.1 document and
// as a standalone JSON Schema.
package openapi

import (
	"encoding/json"
	"fmt"

	wizard "github.com/goliatone/go-wizard"
)

// JSONSchemaDialect is the dialect declared by StateSchema.
const JSONSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// Generator renders documents for wizard schemas.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator with the provided options.
func NewGenerator(opts ...GeneratorOption) Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Generator{config: cfg}
}

// Generate returns the OpenAPI document for schema. The schema is validated
// first.
func (g Generator) Generate(schema wizard.Schema) (map[string]any, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}
	return newDocumentBuilder(g.config, schema).build()
}

// GenerateJSON returns the indented JSON encoding of Generate.
func (g Generator) GenerateJSON(schema wizard.Schema) ([]byte, error) {
	document, err := g.Generate(schema)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(document, "", "  ")
}

// Document is shorthand for NewGenerator(opts...).Generate(schema).
func Document(schema wizard.Schema, opts ...GeneratorOption) (map[string]any, error) {
	return NewGenerator(opts...).Generate(schema)
}

// StateSchema returns a JSON Schema (draft 2020-12) accepting exactly the
// normalized states of schema.
func StateSchema(schema wizard.Schema) (map[string]any, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}
	document := stateNode(configurationNode(schema), stepNode(schema)).inline()
	document["$schema"] = JSONSchemaDialect
	document["title"] = "WizardState"
	return document, nil
}
