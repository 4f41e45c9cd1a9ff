package openapi

import (
	"fmt"
	"strings"

	wizard "github.com/goliatone/go-wizard"
)

type documentBuilder struct {
	config   generatorConfig
	registry *componentRegistry

	state       *schemaNode
	preset      *schemaNode
	presetInput *schemaNode
	rename      *schemaNode
}

type operationSpec struct {
	id        string
	summary   string
	body      *schemaNode
	pathParam bool
	responses map[string]responseSpec
}

type responseSpec struct {
	description string
	schema      *schemaNode
}

func newDocumentBuilder(config generatorConfig, schema wizard.Schema) *documentBuilder {
	registry := newComponentRegistry()
	configuration := registry.add("Configuration", configurationNode(schema))
	step := stepNode(schema)
	state := registry.add("WizardState", stateNode(configuration, step))

	b := &documentBuilder{
		config:   config,
		registry: registry,
		state:    state,
	}
	if config.presets {
		b.preset = registry.add("Preset", presetNode(state))
		b.presetInput = registry.add("PresetInput", presetInputNode(configuration, step))
		b.rename = registry.add("PresetRename", renameInputNode())
	}
	return b
}

func (b *documentBuilder) build() (map[string]any, error) {
	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.buildInfo(),
		"paths":   b.buildPaths(),
	}
	if components := b.registry.componentsMap(); components != nil {
		document["components"] = map[string]any{
			"schemas": components,
		}
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (b *documentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

func (b *documentBuilder) buildPaths() map[string]any {
	base := b.config.basePath
	paths := map[string]any{
		base + "/normalize": map[string]any{
			"post": b.operation(operationSpec{
				id:      "normalizeState",
				summary: "Normalize a raw snapshot",
				body:    &schemaNode{Description: "Structured, legacy flat or absent snapshot."},
				responses: map[string]responseSpec{
					"200": {description: "Normalized state", schema: b.state},
				},
			}),
		},
	}
	if !b.config.presets {
		return paths
	}

	notFound := responseSpec{description: "Unknown preset id"}
	paths[base+"/presets"] = map[string]any{
		"get": b.operation(operationSpec{
			id:      "listPresets",
			summary: "List presets in creation order",
			responses: map[string]responseSpec{
				"200": {description: "Presets", schema: &schemaNode{Type: "array", Items: b.preset}},
			},
		}),
		"post": b.operation(operationSpec{
			id:      "savePreset",
			summary: "Save a new preset",
			body:    b.presetInput,
			responses: map[string]responseSpec{
				"201": {description: "Created preset", schema: b.preset},
				"400": {description: "Name is blank"},
			},
		}),
	}
	paths[base+"/presets/applied"] = map[string]any{
		"get": b.operation(operationSpec{
			id:      "appliedPreset",
			summary: "Return the applied preset",
			responses: map[string]responseSpec{
				"200": {description: "Applied preset", schema: b.preset},
				"204": {description: "No preset is applied"},
			},
		}),
	}
	paths[base+"/presets/{id}"] = map[string]any{
		"get": b.operation(operationSpec{
			id:        "getPreset",
			pathParam: true,
			responses: map[string]responseSpec{
				"200": {description: "Preset", schema: b.preset},
				"404": notFound,
			},
		}),
		"patch": b.operation(operationSpec{
			id:        "renamePreset",
			pathParam: true,
			body:      b.rename,
			responses: map[string]responseSpec{
				"200": {description: "Renamed preset", schema: b.preset},
				"400": {description: "Name is blank"},
				"404": notFound,
			},
		}),
		"delete": b.operation(operationSpec{
			id:        "deletePreset",
			pathParam: true,
			responses: map[string]responseSpec{
				"204": {description: "Deleted"},
				"404": notFound,
			},
		}),
	}
	paths[base+"/presets/{id}/apply"] = map[string]any{
		"post": b.operation(operationSpec{
			id:        "applyPreset",
			summary:   "Mark a preset as the only applied one",
			pathParam: true,
			responses: map[string]responseSpec{
				"200": {description: "Applied preset", schema: b.preset},
				"204": {description: "Unknown id; every preset was cleared"},
			},
		}),
	}
	return paths
}

func (b *documentBuilder) operation(spec operationSpec) map[string]any {
	operation := map[string]any{
		"operationId": spec.id,
	}
	if summary := strings.TrimSpace(spec.summary); summary != "" {
		operation["summary"] = summary
	}
	if len(b.config.tags) > 0 {
		operation["tags"] = append([]string{}, b.config.tags...)
	}
	if spec.pathParam {
		operation["parameters"] = []any{
			map[string]any{
				"name":     "id",
				"in":       "path",
				"required": true,
				"schema":   map[string]any{"type": "string"},
			},
		}
	}
	if spec.body != nil {
		operation["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				b.config.contentType: map[string]any{"schema": spec.body.inline()},
			},
		}
	}

	responses := make(map[string]any, len(spec.responses))
	for status, resp := range spec.responses {
		entry := map[string]any{"description": resp.description}
		if resp.schema != nil {
			entry["content"] = map[string]any{
				b.config.contentType: map[string]any{"schema": resp.schema.inline()},
			}
		}
		responses[status] = entry
	}
	operation["responses"] = responses
	return operation
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	openapi, _ := document["openapi"].(string)
	if openapi == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	seen := map[string]string{}
	for pathKey, pathValue := range paths {
		if !strings.HasPrefix(pathKey, "/") {
			return fmt.Errorf("openapi: path %q must start with /", pathKey)
		}
		pathItem, _ := pathValue.(map[string]any)
		if len(pathItem) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", pathKey)
		}
		for method, operationValue := range pathItem {
			operation, _ := operationValue.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			id, _ := operation["operationId"].(string)
			if id == "" {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			if other, dup := seen[id]; dup {
				return fmt.Errorf("openapi: operationId %q used by %s and %s %s", id, other, method, pathKey)
			}
			seen[id] = method + " " + pathKey
			if responses, _ := operation["responses"].(map[string]any); len(responses) == 0 {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
		}
	}
	return nil
}
