// Package remember keeps the opt-in "remember my choices" snapshot.
//
// The snapshot lives in process memory unless another backend is supplied.
// The enabled flag may be stored separately, typically in a durable
// backend, so the preference outlives the snapshot. While the flag is off
// nothing is stored: writes are ignored, reads return nil and turning it
// off deletes the snapshot.
package remember

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/activity"
	"github.com/goliatone/go-wizard/pkg/state"
)

// Service gates the remembered snapshot behind the enabled flag.
type Service struct {
	snapshots *state.Adapter
	flags     *state.Adapter
	logger    *slog.Logger
	now       func() time.Time
	emitter   *activity.Emitter
	actor     activity.Actor
	normalize []wizard.Option
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshotAdapter replaces the in-memory snapshot adapter.
func WithSnapshotAdapter(adapter *state.Adapter) Option {
	return func(s *Service) {
		if adapter != nil {
			s.snapshots = adapter
		}
	}
}

// WithFlagAdapter stores the enabled flag through adapter instead of the
// snapshot adapter.
func WithFlagAdapter(adapter *state.Adapter) Option {
	return func(s *Service) {
		if adapter != nil {
			s.flags = adapter
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time stamped on emitted events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithActivityHooks emits remember.enabled and remember.disabled events.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(s *Service) {
		s.emitter = activity.NewEmitter(activity.Hooks(hooks), activity.Config{Enabled: true})
	}
}

// WithActor attributes emitted events to actor.
func WithActor(actor activity.Actor) Option {
	return func(s *Service) {
		s.actor = actor
	}
}

// WithNormalizeOptions forwards options to Normalize.
func WithNormalizeOptions(opts ...wizard.Option) Option {
	return func(s *Service) {
		s.normalize = append(s.normalize, opts...)
	}
}

// New builds a service. Without options both the snapshot and the flag
// live in process memory.
func New(opts ...Option) *Service {
	s := &Service{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.snapshots == nil {
		s.snapshots = state.NewAdapter(state.NewMemoryBackend(), state.WithLogger(s.logger))
	}
	if s.flags == nil {
		s.flags = s.snapshots
	}
	return s
}

// IsEnabled reports whether remembering is switched on.
func (s *Service) IsEnabled(ctx context.Context) (bool, error) {
	enabled, err := s.flags.ReadEnabledFlag(ctx)
	if err != nil {
		return false, fmt.Errorf("remember: read flag: %w", err)
	}
	return enabled, nil
}

// SetEnabled stores the flag. Disabling also deletes the snapshot.
func (s *Service) SetEnabled(ctx context.Context, enabled bool) error {
	if err := s.flags.WriteEnabledFlag(ctx, enabled); err != nil {
		return fmt.Errorf("remember: write flag: %w", err)
	}
	input := activity.RememberEventInput{
		Actor:      s.actor,
		Key:        s.flags.FlagKey(),
		OccurredAt: s.now(),
	}
	if enabled {
		s.emit(ctx, activity.BuildRememberEnabledEvent(input))
		return nil
	}
	if err := s.snapshots.ClearSnapshot(ctx); err != nil {
		return fmt.Errorf("remember: clear on disable: %w", err)
	}
	input.SnapshotCleared = true
	s.emit(ctx, activity.BuildRememberDisabledEvent(input))
	return nil
}

// Persist normalizes configuration and step and stores the result. A
// structured snapshot is accepted as configuration, as with wizard.Snapshot.
// It reports whether anything was written; nothing is while disabled.
func (s *Service) Persist(ctx context.Context, configuration any, step *int, schema wizard.Schema) (bool, error) {
	enabled, err := s.IsEnabled(ctx)
	if err != nil || !enabled {
		return false, err
	}
	normalized := wizard.Normalize(wizard.Snapshot(configuration, step), schema, s.normalize...)
	if err := s.snapshots.WriteSnapshot(ctx, normalized.AsMap()); err != nil {
		return false, fmt.Errorf("remember: persist: %w", err)
	}
	return true, nil
}

// Load returns the remembered state normalized against schema, or nil when
// disabled or nothing is stored.
func (s *Service) Load(ctx context.Context, schema wizard.Schema) (*wizard.WizardState, error) {
	enabled, err := s.IsEnabled(ctx)
	if err != nil || !enabled {
		return nil, err
	}
	raw, err := s.snapshots.ReadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("remember: load: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	normalized := wizard.Normalize(raw, schema, s.normalize...)
	return &normalized, nil
}

// Clear deletes the snapshot and leaves the flag alone.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.snapshots.ClearSnapshot(ctx); err != nil {
		return fmt.Errorf("remember: clear: %w", err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("remember activity hook failed", "verb", event.Verb, "error", err)
	}
}
