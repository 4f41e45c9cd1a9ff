// Package source loads wizard schemas from YAML, JSON or JSONC files.
//
// Documents use the keys of wizard.Schema (defaultConfiguration,
// allowedOptions, totalSteps, order, rules, labels); snake_case spellings
// are accepted too. A required field is declared with a null or empty
// default. Loaded schemas are validated unless WithoutValidation is given.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/internal/hydrate"
	"github.com/goliatone/go-wizard/layering"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	// FormatJSON also accepts comments and trailing commas.
	FormatJSON Format = "json"
)

var keyAliases = map[string]string{
	"default_configuration": "defaultConfiguration",
	"defaults":              "defaultConfiguration",
	"allowed_options":       "allowedOptions",
	"total_steps":           "totalSteps",
}

type config struct {
	base     *wizard.Schema
	strict   bool
	validate bool
	logger   *slog.Logger
}

// Option configures loading.
type Option func(*config)

// WithBase overlays the document on base. Keys the document leaves out, or
// sets to null or an empty string, keep the base value.
func WithBase(base wizard.Schema) Option {
	return func(c *config) {
		clone := base.Clone()
		c.base = &clone
	}
}

// WithStrict rejects unknown top-level keys.
func WithStrict() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithoutValidation skips wizard.Schema.Validate.
func WithoutValidation() Option {
	return func(c *config) {
		c.validate = false
	}
}

// WithLogger sets the logger used to report aliased keys.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// FormatFromPath picks the format from the file extension. Unknown
// extensions are treated as YAML, which also reads plain JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads and parses the schema stored at path.
func Load(path string, opts ...Option) (wizard.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wizard.Schema{}, fmt.Errorf("source: read %s: %w", path, err)
	}
	schema, err := parse(path, data, FormatFromPath(path), opts)
	if err != nil {
		return wizard.Schema{}, fmt.Errorf("source: %s: %w", path, err)
	}
	return schema, nil
}

// Parse decodes a schema document held in memory.
func Parse(data []byte, format Format, opts ...Option) (wizard.Schema, error) {
	schema, err := parse("inline", data, format, opts)
	if err != nil {
		return wizard.Schema{}, fmt.Errorf("source: %w", err)
	}
	return schema, nil
}

func parse(name string, data []byte, format Format, opts []Option) (wizard.Schema, error) {
	cfg := config{validate: true, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	document, order, err := decodeDocument(data, format)
	if err != nil {
		return wizard.Schema{}, err
	}
	if document == nil {
		return wizard.Schema{}, fmt.Errorf("empty document")
	}
	if _, set := document["order"]; !set && len(order) > 0 {
		document["order"] = order
	}

	decoderOpts := []hydrate.DecoderOption[wizard.Schema]{
		hydrate.WithPreHook[wizard.Schema](cfg.canonicalKeys),
	}
	if cfg.base != nil {
		decoderOpts = append(decoderOpts, hydrate.WithPreHook[wizard.Schema](cfg.overlayBase))
	}
	if cfg.strict {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[wizard.Schema]())
	}
	if cfg.validate {
		decoderOpts = append(decoderOpts, hydrate.WithPostHook[wizard.Schema](validateSchema))
	}

	return hydrate.NewDecoder[wizard.Schema](decoderOpts...).Decode(hydrate.Context{Source: name}, document)
}

// decodeDocument returns the generic document and, for YAML, the order in
// which defaultConfiguration declares its fields.
func decodeDocument(data []byte, format Format) (map[string]any, []string, error) {
	switch format {
	case FormatJSON:
		var document map[string]any
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		if err := decoder.Decode(&document); err != nil {
			return nil, nil, fmt.Errorf("parse json: %w", err)
		}
		return document, nil, nil
	case FormatYAML, "":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, nil, fmt.Errorf("parse yaml: %w", err)
		}
		var document map[string]any
		if err := root.Decode(&document); err != nil {
			return nil, nil, fmt.Errorf("parse yaml: %w", err)
		}
		return document, fieldOrder(&root), nil
	default:
		return nil, nil, fmt.Errorf("unsupported format %q", format)
	}
}

func fieldOrder(root *yaml.Node) []string {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if canonical, ok := keyAliases[key]; ok {
			key = canonical
		}
		value := node.Content[i+1]
		if key != "defaultConfiguration" || value.Kind != yaml.MappingNode {
			continue
		}
		order := make([]string, 0, len(value.Content)/2)
		for j := 0; j+1 < len(value.Content); j += 2 {
			order = append(order, value.Content[j].Value)
		}
		return order
	}
	return nil
}

func (c config) canonicalKeys(ctx hydrate.Context, payload map[string]any) (map[string]any, error) {
	for alias, canonical := range keyAliases {
		value, ok := payload[alias]
		if !ok {
			continue
		}
		delete(payload, alias)
		if _, taken := payload[canonical]; taken {
			return nil, fmt.Errorf("both %q and %q are set", alias, canonical)
		}
		c.logger.Debug("schema key alias used", "source", ctx.Source, "alias", alias, "key", canonical)
		payload[canonical] = value
	}
	return payload, nil
}

func (c config) overlayBase(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(c.base)
	if err != nil {
		return nil, fmt.Errorf("encode base schema: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var base map[string]any
	if err := decoder.Decode(&base); err != nil {
		return nil, fmt.Errorf("decode base schema: %w", err)
	}
	return layering.MergeLayers(payload, base), nil
}

func validateSchema(_ hydrate.Context, schema *wizard.Schema) error {
	return schema.Validate()
}
