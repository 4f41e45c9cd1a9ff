package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	wizard "github.com/goliatone/go-wizard"
)

type schemaNode struct {
	Type        string
	Format      string
	Nullable    bool
	Description string
	Properties  map[string]*schemaNode
	Required    []string
	Items       *schemaNode
	Enum        []any
	Default     any
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Ref         string
	// labels is published as x-labels next to enums.
	labels map[string]string
	// closed sets additionalProperties to false.
	closed bool
}

func newObjectNode() *schemaNode {
	return &schemaNode{
		Type:       "object",
		Properties: map[string]*schemaNode{},
	}
}

func refNode(ref string) *schemaNode {
	return &schemaNode{Ref: ref}
}

func (n *schemaNode) baseMap() map[string]any {
	if n.Ref != "" {
		return map[string]any{"$ref": n.Ref}
	}
	result := map[string]any{}
	switch {
	case n.Type != "" && n.Nullable:
		result["type"] = []any{n.Type, "null"}
	case n.Type != "":
		result["type"] = n.Type
	}
	if n.Format != "" {
		result["format"] = n.Format
	}
	if n.Description != "" {
		result["description"] = n.Description
	}
	if n.Default != nil {
		result["default"] = n.Default
	}
	if len(n.Enum) > 0 {
		result["enum"] = n.Enum
	}
	if n.Minimum != nil {
		result["minimum"] = *n.Minimum
	}
	if n.Maximum != nil {
		result["maximum"] = *n.Maximum
	}
	if n.MinLength != nil {
		result["minLength"] = *n.MinLength
	}
	if n.MaxLength != nil {
		result["maxLength"] = *n.MaxLength
	}
	if len(n.labels) > 0 {
		result["x-labels"] = orderedStringMap(n.labels)
	}
	return result
}

func (n *schemaNode) inline() map[string]any {
	result := n.baseMap()
	if n.Ref != "" {
		return result
	}

	if len(n.Properties) > 0 || n.Type == "object" {
		props := make(map[string]any, len(n.Properties))
		for name, child := range n.Properties {
			props[name] = child.inline()
		}
		result["properties"] = props
		if n.closed {
			result["additionalProperties"] = false
		}
	}

	if len(n.Required) > 0 {
		names := append([]string{}, n.Required...)
		sort.Strings(names)
		result["required"] = names
	}

	if n.Items != nil {
		result["items"] = n.Items.inline()
	}
	return result
}

// Digest identifies structurally equal nodes.
func (n *schemaNode) Digest() string {
	if n == nil {
		return ""
	}
	payload, err := json.Marshal(n.inline())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// configurationNode describes one configuration object. Required fields
// accept null until chosen; module fields default to their sentinel.
func configurationNode(schema wizard.Schema) *schemaNode {
	node := newObjectNode()
	node.closed = true
	for _, field := range schema.Fields() {
		child := &schemaNode{Type: "string"}
		for _, value := range schema.AllowedOptions[field] {
			if value != "" {
				child.Enum = append(child.Enum, value)
			}
		}
		if schema.IsRequired(field) {
			child.Nullable = true
			child.Enum = append(child.Enum, nil)
		} else {
			child.Default = schema.DefaultConfiguration[field]
		}
		if labels := schema.Labels[field]; len(labels) > 0 {
			child.labels = labels
		}
		node.Properties[field] = child
		node.Required = append(node.Required, field)
	}
	return node
}

func stepNode(schema wizard.Schema) *schemaNode {
	minimum := float64(1)
	node := &schemaNode{
		Type:        "integer",
		Nullable:    true,
		Minimum:     &minimum,
		Description: "Wizard step, null before the first step is reached.",
	}
	if schema.TotalSteps >= 1 {
		maximum := float64(schema.TotalSteps)
		node.Maximum = &maximum
	}
	return node
}

func stateNode(configuration, step *schemaNode) *schemaNode {
	node := newObjectNode()
	node.Properties["configuration"] = configuration
	node.Properties["currentStep"] = step
	node.Required = []string{"configuration", "currentStep"}
	return node
}

func presetNode(state *schemaNode) *schemaNode {
	maxName := 120
	minName := 1
	node := newObjectNode()
	node.Properties["id"] = &schemaNode{Type: "string"}
	node.Properties["name"] = &schemaNode{Type: "string", MinLength: &minName, MaxLength: &maxName}
	node.Properties["state"] = state
	node.Properties["isApplied"] = &schemaNode{Type: "boolean"}
	node.Properties["createdAt"] = &schemaNode{Type: "string", Format: "date-time"}
	node.Properties["updatedAt"] = &schemaNode{Type: "string", Format: "date-time"}
	node.Properties["appliedAt"] = &schemaNode{Type: "string", Format: "date-time"}
	node.Required = []string{"id", "name", "state", "isApplied", "createdAt"}
	return node
}

func presetInputNode(configuration, step *schemaNode) *schemaNode {
	node := newObjectNode()
	node.Properties["name"] = &schemaNode{Type: "string"}
	node.Properties["configuration"] = configuration
	node.Properties["currentStep"] = step
	node.Required = []string{"name", "configuration"}
	return node
}

func renameInputNode() *schemaNode {
	node := newObjectNode()
	node.Properties["name"] = &schemaNode{Type: "string"}
	node.Required = []string{"name"}
	return node
}

func orderedStringMap(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
