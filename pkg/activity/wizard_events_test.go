package activity

import (
	"testing"
	"time"
)

func TestBuildPresetEventsCarryMetadata(t *testing.T) {
	step := 3
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	input := PresetEventInput{
		Actor:         Actor{ActorID: " actor "},
		PresetID:      " p-1 ",
		Name:          " Kitchen ",
		PreviousName:  "Old",
		Configuration: map[string]any{"mounting": "wall", "power": nil},
		Step:          &step,
		OccurredAt:    at,
	}

	builders := map[string]func(PresetEventInput) Event{
		VerbPresetCreated: BuildPresetCreatedEvent,
		VerbPresetRenamed: BuildPresetRenamedEvent,
		VerbPresetApplied: BuildPresetAppliedEvent,
		VerbPresetCleared: BuildPresetClearedEvent,
		VerbPresetDeleted: BuildPresetDeletedEvent,
		VerbPresetEvicted: BuildPresetEvictedEvent,
	}
	for verb, build := range builders {
		event := build(input)
		if event.Verb != verb || event.ObjectType != ObjectPreset || event.ObjectID != "p-1" {
			t.Fatalf("%s: unexpected identity %+v", verb, event)
		}
		if event.ActorID != "actor" || !event.OccurredAt.Equal(at) {
			t.Fatalf("%s: unexpected actor or time %+v", verb, event)
		}
		if event.Metadata["name"] != "Kitchen" || event.Metadata["previous_name"] != "Old" || event.Metadata["current_step"] != 3 {
			t.Fatalf("%s: unexpected metadata %+v", verb, event.Metadata)
		}
		cfg, ok := event.Metadata["configuration"].(map[string]any)
		if !ok || cfg["mounting"] != "wall" {
			t.Fatalf("%s: unexpected configuration metadata %+v", verb, event.Metadata)
		}
	}
	input.Configuration["mounting"] = "ceiling"
	if BuildPresetCreatedEvent(PresetEventInput{PresetID: "x"}).Metadata != nil {
		t.Fatalf("expected nil metadata when nothing is set")
	}
}

func TestBuildPresetClearedEventWithoutID(t *testing.T) {
	event := BuildPresetClearedEvent(PresetEventInput{})
	if event.ObjectID != "presets" || !event.Valid() {
		t.Fatalf("expected collection object id, got %+v", event)
	}
}

func TestBuildRememberEvents(t *testing.T) {
	enabled := BuildRememberEnabledEvent(RememberEventInput{Key: "sense360.rememberChoices"})
	if enabled.Verb != VerbRememberEnabled || enabled.ObjectID != "sense360.rememberChoices" || enabled.ObjectType != ObjectRemember {
		t.Fatalf("unexpected enabled event %+v", enabled)
	}
	disabled := BuildRememberDisabledEvent(RememberEventInput{SnapshotCleared: true})
	if disabled.ObjectID != "remember" || disabled.Metadata["snapshot_cleared"] != true {
		t.Fatalf("unexpected disabled event %+v", disabled)
	}
}
