package wizard_test

import (
	"testing"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/layering"
)

func TestResolveLayersStrongestFirst(t *testing.T) {
	schema := wizard.DefaultSchema()
	query := map[string]any{"mounting": "wall", "power": "teleport"}
	remembered := map[string]any{
		"configuration": map[string]any{"mounting": "ceiling", "power": "poe", "fan": "pwm"},
		"currentStep":   3,
	}

	got := wizard.ResolveLayers(schema, query, remembered, nil)
	if got.Configuration["mounting"] != "wall" {
		t.Fatalf("expected query mounting, got %q", got.Configuration["mounting"])
	}
	if got.Configuration["power"] != "poe" {
		t.Fatalf("illegal stronger value must not hide a legal weaker one, got %q", got.Configuration["power"])
	}
	if got.Configuration["fan"] != "pwm" {
		t.Fatalf("expected remembered fan to survive on a wall mount, got %q", got.Configuration["fan"])
	}
	if got.CurrentStep == nil || *got.CurrentStep != 3 {
		t.Fatalf("expected remembered step, got %v", got.CurrentStep)
	}
}

func TestResolveLayersEmpty(t *testing.T) {
	schema := wizard.DefaultSchema()
	got := wizard.ResolveLayers(schema)
	if !got.Equal(wizard.WizardState{Configuration: schema.Defaults()}) {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestResolveSourcesUsesPrecedence(t *testing.T) {
	schema := wizard.DefaultSchema()
	layers := []layering.Layer{
		{Source: layering.SourceRemembered, Snapshot: map[string]any{"configuration": map[string]any{"power": "usb"}, "currentStep": 2}},
		{Source: layering.SourcePreset, Snapshot: map[string]any{"configuration": map[string]any{"power": "pwr", "airiq": "base"}, "currentStep": 4}},
	}
	got, err := wizard.ResolveSources(schema, layers)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Configuration["power"] != "pwr" || got.Configuration["airiq"] != "base" {
		t.Fatalf("expected preset values to win, got %v", got.Configuration)
	}
	if got.CurrentStep == nil || *got.CurrentStep != 4 {
		t.Fatalf("expected preset step, got %v", got.CurrentStep)
	}

	if _, err := wizard.ResolveSources(schema, []layering.Layer{{Snapshot: nil}}); err == nil {
		t.Fatalf("expected error for a layer without source")
	}
}
