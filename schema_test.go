package wizard_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	wizard "github.com/goliatone/go-wizard"
)

func TestDefaultSchemaIsValid(t *testing.T) {
	schema := wizard.DefaultSchema()
	if err := schema.Validate(); err != nil {
		t.Fatalf("default schema invalid: %v", err)
	}
	want := []string{"mounting", "power", "airiq", "presence", "comfort", "fan"}
	if got := schema.Fields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected field order %v", got)
	}
	if !schema.IsRequired("mounting") || schema.IsRequired("fan") || schema.IsRequired("ghost") {
		t.Fatalf("unexpected required fields")
	}
	if schema.Label("power", "poe") != "PoE Module" || schema.Label("power", "x") != "x" {
		t.Fatalf("unexpected labels")
	}
}

func TestSchemaValidateReportsProblems(t *testing.T) {
	schema := wizard.Schema{
		DefaultConfiguration: wizard.Configuration{"mounting": "", "fan": "off"},
		AllowedOptions: map[string][]string{
			"fan":   {"none", ""},
			"extra": {"a"},
		},
		TotalSteps: -1,
		Rules:      []wizard.Rule{{Set: map[string]string{"ghost": "x"}}},
	}
	err := schema.Validate()
	if !errors.Is(err, wizard.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	for _, fragment := range []string{"totalSteps", `"mounting" has no allowed options`, "empty value", `default "off"`, `unknown field "extra"`, "no condition", `unknown field "ghost"`} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}
}

func TestSchemaCloneIsDetached(t *testing.T) {
	schema := wizard.DefaultSchema()
	clone := schema.Clone()
	clone.AllowedOptions["fan"][0] = "turbo"
	clone.DefaultConfiguration["fan"] = "pwm"
	clone.Rules[0].Set["fan"] = "analog"
	clone.Labels["fan"]["pwm"] = "Blower"

	if schema.AllowedOptions["fan"][0] != "none" || schema.DefaultConfiguration["fan"] != "none" {
		t.Fatalf("clone shares allow-list or defaults")
	}
	if schema.Rules[0].Set["fan"] != "none" || schema.Labels["fan"]["pwm"] != "Fan PWM" {
		t.Fatalf("clone shares rules or labels")
	}
}

func TestSchemaChangeSelfHeals(t *testing.T) {
	schema := wizard.DefaultSchema()
	stored := wizard.Normalize(map[string]any{"configuration": map[string]any{"mounting": "wall", "fan": "analog"}}, schema)

	narrowed := schema.Clone()
	narrowed.AllowedOptions["fan"] = []string{"none", "pwm"}
	got := wizard.Normalize(stored, narrowed)
	if got.Configuration["fan"] != "none" {
		t.Fatalf("removed value should fall back to default, got %q", got.Configuration["fan"])
	}
}
