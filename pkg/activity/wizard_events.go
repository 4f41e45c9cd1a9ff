package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the preset store and the remembered-state service.
const (
	VerbPresetCreated    = "preset.created"
	VerbPresetRenamed    = "preset.renamed"
	VerbPresetApplied    = "preset.applied"
	VerbPresetCleared    = "preset.cleared"
	VerbPresetDeleted    = "preset.deleted"
	VerbPresetEvicted    = "preset.evicted"
	VerbRememberEnabled  = "remember.enabled"
	VerbRememberDisabled = "remember.disabled"
)

// Object types used by wizard events.
const (
	ObjectPreset   = "wizard.preset"
	ObjectRemember = "wizard.remember"
)

// Actor identifies who triggered an event.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// PresetEventInput describes a preset lifecycle change.
type PresetEventInput struct {
	Actor
	PresetID      string
	Name          string
	PreviousName  string
	Configuration map[string]any
	Step          *int
	Channel       string
	Metadata      map[string]any
	OccurredAt    time.Time
}

// RememberEventInput describes a change to the remember-choices flag.
type RememberEventInput struct {
	Actor
	// Key is the storage key of the flag, used as the object id.
	Key             string
	SnapshotCleared bool
	Channel         string
	Metadata        map[string]any
	OccurredAt      time.Time
}

// BuildPresetCreatedEvent builds the event for a newly saved preset.
func BuildPresetCreatedEvent(input PresetEventInput) Event {
	return buildPresetEvent(VerbPresetCreated, input)
}

// BuildPresetRenamedEvent builds the event for a renamed preset.
func BuildPresetRenamedEvent(input PresetEventInput) Event {
	return buildPresetEvent(VerbPresetRenamed, input)
}

// BuildPresetAppliedEvent builds the event for a preset marked applied.
func BuildPresetAppliedEvent(input PresetEventInput) Event {
	return buildPresetEvent(VerbPresetApplied, input)
}

// BuildPresetClearedEvent builds the event emitted when no preset remains
// applied. PresetID may be empty.
func BuildPresetClearedEvent(input PresetEventInput) Event {
	return buildPresetEvent(VerbPresetCleared, input)
}

// BuildPresetDeletedEvent builds the event for a deleted preset.
func BuildPresetDeletedEvent(input PresetEventInput) Event {
	return buildPresetEvent(VerbPresetDeleted, input)
}

// BuildPresetEvictedEvent builds the event for a preset dropped to make room
// for a newer one.
func BuildPresetEvictedEvent(input PresetEventInput) Event {
	return buildPresetEvent(VerbPresetEvicted, input)
}

// BuildRememberEnabledEvent builds the event for opting in.
func BuildRememberEnabledEvent(input RememberEventInput) Event {
	return buildRememberEvent(VerbRememberEnabled, input)
}

// BuildRememberDisabledEvent builds the event for opting out.
func BuildRememberDisabledEvent(input RememberEventInput) Event {
	return buildRememberEvent(VerbRememberDisabled, input)
}

func buildPresetEvent(verb string, input PresetEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if name := strings.TrimSpace(input.Name); name != "" {
		metadata = ensureMetadata(metadata)
		metadata["name"] = name
	}
	if previous := strings.TrimSpace(input.PreviousName); previous != "" {
		metadata = ensureMetadata(metadata)
		metadata["previous_name"] = previous
	}
	if len(input.Configuration) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["configuration"] = cloneMap(input.Configuration)
	}
	if input.Step != nil {
		metadata = ensureMetadata(metadata)
		metadata["current_step"] = *input.Step
	}

	objectID := strings.TrimSpace(input.PresetID)
	if objectID == "" {
		objectID = "presets"
	}
	return newEvent(verb, ObjectPreset, objectID, input.Actor, input.Channel, metadata, input.OccurredAt)
}

func buildRememberEvent(verb string, input RememberEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.SnapshotCleared {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_cleared"] = true
	}
	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = "remember"
	}
	return newEvent(verb, ObjectRemember, objectID, input.Actor, input.Channel, metadata, input.OccurredAt)
}

func newEvent(verb, objectType, objectID string, actor Actor, channel string, metadata map[string]any, at time.Time) Event {
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(actor.ActorID),
		UserID:     strings.TrimSpace(actor.UserID),
		TenantID:   strings.TrimSpace(actor.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(channel),
		Metadata:   metadata,
		OccurredAt: at,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
