package presets

import (
	"context"

	"github.com/goliatone/go-wizard/pkg/activity"
)

func (s *Store) eventInput(preset *Preset, previousName string) activity.PresetEventInput {
	input := activity.PresetEventInput{
		Actor:        s.actor,
		PresetID:     preset.ID,
		Name:         preset.Name,
		PreviousName: previousName,
		OccurredAt:   s.now(),
	}
	if preset.State.Configuration != nil {
		input.Configuration = preset.State.Configuration.AsMap()
		input.Step = preset.State.CurrentStep
	}
	return input
}

// emit logs hook failures instead of returning them.
func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("preset activity hook failed", "verb", event.Verb, "object_id", event.ObjectID, "error", err)
	}
}
