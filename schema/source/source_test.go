package source_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/schema/source"
)

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func TestLoadYAMLMatchesDefaultSchema(t *testing.T) {
	loaded, err := source.Load(fixturePath("schema_device.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := wizard.DefaultSchema()

	if !loaded.DefaultConfiguration.Equal(want.DefaultConfiguration) {
		t.Fatalf("defaults mismatch: %v", loaded.DefaultConfiguration)
	}
	if !reflect.DeepEqual(loaded.AllowedOptions, want.AllowedOptions) {
		t.Fatalf("allowed options mismatch: %v", loaded.AllowedOptions)
	}
	if loaded.TotalSteps != want.TotalSteps {
		t.Fatalf("expected %d steps, got %d", want.TotalSteps, loaded.TotalSteps)
	}
	if !reflect.DeepEqual(loaded.Order, want.Order) {
		t.Fatalf("expected order from document, got %v", loaded.Order)
	}
	if !reflect.DeepEqual(loaded.Rules, want.Rules) {
		t.Fatalf("rules mismatch: %+v", loaded.Rules)
	}
	if !reflect.DeepEqual(loaded.Labels, want.Labels) {
		t.Fatalf("labels mismatch: %v", loaded.Labels)
	}

	state := wizard.Normalize(map[string]any{"mounting": "ceiling", "power": "usb", "fan": "pwm"}, loaded)
	if state.Configuration["fan"] != "none" {
		t.Fatalf("expected loaded rule to apply, got fan=%q", state.Configuration["fan"])
	}
}

func TestLoadJSONCWithAliases(t *testing.T) {
	loaded, err := source.Load(fixturePath("schema_device.jsonc"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TotalSteps != 3 {
		t.Fatalf("expected 3 steps, got %d", loaded.TotalSteps)
	}
	if !loaded.IsRequired("mounting") || !loaded.IsRequired("power") || loaded.IsRequired("fan") {
		t.Fatalf("unexpected required fields %v", loaded.DefaultConfiguration)
	}
	if !reflect.DeepEqual(loaded.Fields(), []string{"mounting", "power", "fan"}) {
		t.Fatalf("unexpected field order %v", loaded.Fields())
	}
}

func TestParseValidates(t *testing.T) {
	doc := []byte("defaultConfiguration:\n  fan: turbo\nallowedOptions:\n  fan: [none, pwm]\ntotalSteps: 2\n")

	if _, err := source.Parse(doc, source.FormatYAML); !errors.Is(err, wizard.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	schema, err := source.Parse(doc, source.FormatYAML, source.WithoutValidation())
	if err != nil {
		t.Fatalf("expected validation to be skipped, got %v", err)
	}
	if schema.DefaultConfiguration["fan"] != "turbo" {
		t.Fatalf("unexpected default %q", schema.DefaultConfiguration["fan"])
	}
}

func TestParseStrictRejectsUnknownKeys(t *testing.T) {
	doc := []byte(`{"defaultConfiguration": {"fan": "none"}, "allowedOptions": {"fan": ["none"]}, "colour": "red"}`)
	if _, err := source.Parse(doc, source.FormatJSON); err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	_, err := source.Parse(doc, source.FormatJSON, source.WithStrict())
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestParseOverlaysBase(t *testing.T) {
	doc := []byte("totalSteps: 5\nallowedOptions:\n  fan: [none, pwm]\n")
	schema, err := source.Parse(doc, source.FormatYAML, source.WithBase(wizard.DefaultSchema()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if schema.TotalSteps != 5 {
		t.Fatalf("expected overlay to win, got %d", schema.TotalSteps)
	}
	if !reflect.DeepEqual(schema.AllowedOptions["fan"], []string{"none", "pwm"}) {
		t.Fatalf("unexpected fan options %v", schema.AllowedOptions["fan"])
	}
	if !reflect.DeepEqual(schema.AllowedOptions["mounting"], []string{"wall", "ceiling"}) {
		t.Fatalf("expected base options to survive, got %v", schema.AllowedOptions["mounting"])
	}
	if !schema.IsRequired("mounting") || len(schema.Rules) != 1 {
		t.Fatalf("expected base defaults and rules, got %v %v", schema.DefaultConfiguration, schema.Rules)
	}
}

func TestParseRejectsConflictingAliases(t *testing.T) {
	doc := []byte(`{"total_steps": 2, "totalSteps": 3, "defaultConfiguration": {"fan": "none"}, "allowedOptions": {"fan": ["none"]}}`)
	if _, err := source.Parse(doc, source.FormatJSON); err == nil {
		t.Fatalf("expected alias conflict error")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := source.Parse([]byte("{"), source.FormatJSON); err == nil {
		t.Fatalf("expected json error")
	}
	if _, err := source.Parse([]byte("a: [b"), source.FormatYAML); err == nil {
		t.Fatalf("expected yaml error")
	}
	if _, err := source.Parse([]byte(""), source.FormatYAML); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := source.Parse([]byte("{}"), source.Format("toml")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := source.Load(fixturePath("missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]source.Format{
		"schema.yaml":  source.FormatYAML,
		"schema.yml":   source.FormatYAML,
		"schema.JSON":  source.FormatJSON,
		"schema.jsonc": source.FormatJSON,
		"schema":       source.FormatYAML,
	}
	for path, want := range cases {
		if got := source.FormatFromPath(path); got != want {
			t.Fatalf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
