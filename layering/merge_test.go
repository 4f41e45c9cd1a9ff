package layering

import (
	"reflect"
	"testing"
)

func TestMergeLayersPrefersStrongerValues(t *testing.T) {
	query := map[string]any{"mounting": "ceiling"}
	remembered := map[string]any{"mounting": "wall", "power": "poe"}
	defaults := map[string]any{"mounting": nil, "power": nil, "fan": "none"}

	got := MergeLayers(query, remembered, defaults)
	want := map[string]any{"mounting": "ceiling", "power": "poe", "fan": "none"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merged snapshot mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestMergeLayersUnsetValuesFallThrough(t *testing.T) {
	strong := map[string]string{"mounting": "", "power": "usb"}
	weak := map[string]string{"mounting": "wall", "power": "poe"}

	got := MergeLayers(strong, weak)
	want := map[string]string{"mounting": "wall", "power": "usb"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected empty strings to fall through, got %#v", got)
	}

	nilStrong := map[string]any{"mounting": nil}
	got2 := MergeLayers(nilStrong, map[string]any{"mounting": "ceiling"})
	if got2["mounting"] != "ceiling" {
		t.Fatalf("expected nil to fall through, got %#v", got2)
	}
}

func TestMergeLayersNestedMaps(t *testing.T) {
	strong := map[string]any{"configuration": map[string]any{"fan": "pwm"}}
	weak := map[string]any{
		"configuration": map[string]any{"fan": "none", "mounting": "wall"},
		"currentStep":   2,
	}

	got := MergeLayers(strong, weak)
	cfg, ok := got["configuration"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested configuration map, got %#v", got["configuration"])
	}
	if cfg["fan"] != "pwm" || cfg["mounting"] != "wall" {
		t.Fatalf("unexpected nested merge: %#v", cfg)
	}
	if got["currentStep"] != 2 {
		t.Fatalf("expected weak step to survive, got %#v", got["currentStep"])
	}
}

func TestMergeLayersDoesNotAliasInputs(t *testing.T) {
	weak := map[string]any{"configuration": map[string]any{"fan": "none"}}
	got := MergeLayers(map[string]any{}, weak)

	got["configuration"].(map[string]any)["fan"] = "analog"
	if weak["configuration"].(map[string]any)["fan"] != "none" {
		t.Fatalf("merge result must not share memory with its inputs")
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	if got := MergeLayers[map[string]any](); got != nil {
		t.Fatalf("expected nil map for no layers, got %#v", got)
	}
}

func TestMergeLayersStructFields(t *testing.T) {
	type state struct {
		Mounting string
		Step     *int
	}
	step := 3
	got := MergeLayers(state{Mounting: "ceiling"}, state{Mounting: "wall", Step: &step})
	if got.Mounting != "ceiling" {
		t.Fatalf("expected stronger mounting, got %q", got.Mounting)
	}
	if got.Step == nil || *got.Step != 3 {
		t.Fatalf("expected weaker step to fill in, got %v", got.Step)
	}
	if got.Step == &step {
		t.Fatalf("expected cloned step pointer")
	}
}

func TestCloneDeepCopiesMaps(t *testing.T) {
	original := map[string]any{
		"configuration": map[string]any{"mounting": "wall"},
		"tags":          []any{"a", "b"},
	}
	clone := Clone(original)
	clone["configuration"].(map[string]any)["mounting"] = "ceiling"
	clone["tags"].([]any)[0] = "z"

	if original["configuration"].(map[string]any)["mounting"] != "wall" {
		t.Fatalf("clone mutated nested map")
	}
	if original["tags"].([]any)[0] != "a" {
		t.Fatalf("clone mutated nested slice")
	}
}
