package presets

import (
	"context"
	"fmt"
	"strings"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/activity"
)

// Save normalizes configuration and step against schema and stores them
// under a new id. configuration may be a flat field map or a structured
// snapshot such as a WizardState; see wizard.Snapshot. When the collection
// is full the oldest presets are evicted.
func (s *Store) Save(ctx context.Context, name string, configuration any, step *int, schema wizard.Schema) (*Preset, error) {
	name = cleanName(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.uniqueID(c)
	if err != nil {
		return nil, err
	}
	normalized := wizard.Normalize(wizard.Snapshot(configuration, step), schema, s.normalize...)
	now := s.now()
	c.records[id] = &record{
		Name:      name,
		State:     normalized.AsMap(),
		CreatedAt: now,
		UpdatedAt: now,
		Seq:       c.nextSeq,
	}
	c.nextSeq++

	evicted := s.evict(c)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}

	for _, old := range evicted {
		s.emit(ctx, activity.BuildPresetEvictedEvent(s.eventInput(old, "")))
	}
	preset := s.preset(id, c.records[id], schema)
	s.emit(ctx, activity.BuildPresetCreatedEvent(s.eventInput(&preset, "")))
	s.logger.Debug("preset saved", "id", id, "name", name, "evicted", len(evicted))
	return &preset, nil
}

// List returns every preset in creation order, normalized against schema.
func (s *Store) List(ctx context.Context, schema wizard.Schema) ([]Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ids := c.ordered()
	out := make([]Preset, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.preset(id, c.records[id], schema))
	}
	return out, nil
}

// Get returns the preset stored under id.
func (s *Store) Get(ctx context.Context, id string, schema wizard.Schema) (*Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	preset := s.preset(id, rec, schema)
	return &preset, nil
}

// Applied returns the preset currently marked applied, or nil when none is.
func (s *Store) Applied(ctx context.Context, schema wizard.Schema) (*Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range c.ordered() {
		if rec := c.records[id]; rec.IsApplied {
			preset := s.preset(id, rec, schema)
			return &preset, nil
		}
	}
	return nil, nil
}

// Rename changes the name of a preset. A blank name leaves the preset
// untouched.
func (s *Store) Rename(ctx context.Context, id, name string, schema wizard.Schema) (*Preset, error) {
	name = cleanName(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	previous := rec.Name
	rec.Name = name
	rec.UpdatedAt = s.now()
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}

	preset := s.preset(id, rec, schema)
	s.emit(ctx, activity.BuildPresetRenamedEvent(s.eventInput(&preset, previous)))
	return &preset, nil
}

// Delete removes the preset stored under id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	rec, ok := c.records[id]
	if !ok {
		return false, nil
	}
	delete(c.records, id)
	if err := s.persist(ctx, c); err != nil {
		return false, err
	}
	s.emit(ctx, activity.BuildPresetDeletedEvent(activity.PresetEventInput{
		Actor:      s.actor,
		PresetID:   id,
		Name:       rec.Name,
		OccurredAt: s.now(),
	}))
	return true, nil
}

// ApplyOption tunes MarkApplied.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	step *int
}

// WithAppliedStep records step as the preset's current step when it is
// applied. The stored value is clamped by normalization on read.
func WithAppliedStep(step int) ApplyOption {
	return func(cfg *applyConfig) {
		cfg.step = &step
	}
}

// MarkApplied flags the preset stored under id as the only applied one and
// stamps its appliedAt and updatedAt. An empty or unknown id clears every
// flag and returns nil.
func (s *Store) MarkApplied(ctx context.Context, id string, schema wizard.Schema, opts ...ApplyOption) (*Preset, error) {
	cfg := applyConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	target, found := c.records[id]
	changed := found
	cleared := ""
	for otherID, rec := range c.records {
		want := found && otherID == id
		if rec.IsApplied == want {
			continue
		}
		if rec.IsApplied {
			cleared = otherID
		}
		rec.IsApplied = want
		changed = true
	}
	if found {
		now := s.now()
		target.AppliedAt = now
		target.UpdatedAt = now
		if cfg.step != nil {
			target.State = wizard.Snapshot(target.State, cfg.step)
		}
	}
	if changed || c.migrated {
		if err := s.persist(ctx, c); err != nil {
			return nil, err
		}
	}

	if !found {
		if cleared != "" {
			s.emit(ctx, activity.BuildPresetClearedEvent(activity.PresetEventInput{
				Actor:      s.actor,
				PresetID:   cleared,
				Name:       c.records[cleared].Name,
				OccurredAt: s.now(),
			}))
		}
		return nil, nil
	}

	preset := s.preset(id, target, schema)
	s.emit(ctx, activity.BuildPresetAppliedEvent(s.eventInput(&preset, "")))
	return &preset, nil
}

func (s *Store) load(ctx context.Context) (*collection, error) {
	raw, err := s.adapter.ReadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("presets: load: %w", err)
	}
	return s.decodeCollection(raw), nil
}

func (s *Store) persist(ctx context.Context, c *collection) error {
	if err := s.adapter.WriteSnapshot(ctx, c.encode()); err != nil {
		return fmt.Errorf("presets: persist: %w", err)
	}
	c.migrated = false
	return nil
}

func (s *Store) evict(c *collection) []*Preset {
	var evicted []*Preset
	for len(c.records) > s.maxEntries {
		oldest := c.ordered()[0]
		rec := c.records[oldest]
		delete(c.records, oldest)
		evicted = append(evicted, &Preset{ID: oldest, Name: rec.Name, CreatedAt: rec.CreatedAt})
	}
	return evicted
}

const maxIDAttempts = 16

func (s *Store) uniqueID(c *collection) (string, error) {
	for range maxIDAttempts {
		id := strings.TrimSpace(s.newID())
		if _, taken := c.records[id]; id != "" && !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDUnavailable, maxIDAttempts)
}

func (s *Store) preset(id string, rec *record, schema wizard.Schema) Preset {
	return Preset{
		ID:        id,
		Name:      rec.Name,
		State:     wizard.Normalize(rec.State, schema, s.normalize...),
		IsApplied: rec.IsApplied,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		AppliedAt: rec.AppliedAt,
	}
}
