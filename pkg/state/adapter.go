package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Default keys used by the remembered-state service.
const (
	DefaultSnapshotKey = "sense360.lastWizardState"
	DefaultFlagKey     = "sense360.rememberChoices"
)

// Adapter reads and writes one snapshot and one enabled flag through a
// Backend.
type Adapter struct {
	backend     Backend
	snapshotKey string
	flagKey     string
	codec       Codec
	logger      *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithSnapshotKey overrides the key the snapshot is stored under.
func WithSnapshotKey(key string) AdapterOption {
	return func(a *Adapter) {
		if key != "" {
			a.snapshotKey = key
		}
	}
}

// WithFlagKey overrides the key the enabled flag is stored under.
func WithFlagKey(key string) AdapterOption {
	return func(a *Adapter) {
		if key != "" {
			a.flagKey = key
		}
	}
}

// WithCodec selects the snapshot encoding.
func WithCodec(codec Codec) AdapterOption {
	return func(a *Adapter) {
		if codec != nil {
			a.codec = codec
		}
	}
}

// WithLogger sets the logger used to report discarded payloads.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter builds an Adapter over backend. A nil backend gets a fresh
// MemoryBackend.
func NewAdapter(backend Backend, opts ...AdapterOption) *Adapter {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	a := &Adapter{
		backend:     backend,
		snapshotKey: DefaultSnapshotKey,
		flagKey:     DefaultFlagKey,
		codec:       JSONCodec{},
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// SnapshotKey returns the key the snapshot is stored under.
func (a *Adapter) SnapshotKey() string { return a.snapshotKey }

// FlagKey returns the key the enabled flag is stored under.
func (a *Adapter) FlagKey() string { return a.flagKey }

// ReadSnapshot returns the decoded snapshot, or nil when nothing usable is
// stored.
func (a *Adapter) ReadSnapshot(ctx context.Context) (any, error) {
	return a.read(ctx, a.snapshotKey)
}

// WriteSnapshot encodes and stores value. Writing nil clears the snapshot.
func (a *Adapter) WriteSnapshot(ctx context.Context, value any) error {
	if value == nil {
		return a.ClearSnapshot(ctx)
	}
	return a.write(ctx, a.snapshotKey, value)
}

// ClearSnapshot removes the stored snapshot.
func (a *Adapter) ClearSnapshot(ctx context.Context) error {
	if err := a.backend.Delete(ctx, a.snapshotKey); err != nil {
		return fmt.Errorf("state: clear %q: %w", a.snapshotKey, err)
	}
	return nil
}

// ReadEnabledFlag reports the stored flag. Absent or unreadable flags are
// false.
func (a *Adapter) ReadEnabledFlag(ctx context.Context) (bool, error) {
	value, err := a.read(ctx, a.flagKey)
	if err != nil || value == nil {
		return false, err
	}
	enabled, ok := value.(bool)
	if !ok {
		a.logger.Warn("ignoring non-boolean flag", "key", a.flagKey, "type", fmt.Sprintf("%T", value))
		return false, nil
	}
	return enabled, nil
}

// WriteEnabledFlag stores the flag.
func (a *Adapter) WriteEnabledFlag(ctx context.Context, enabled bool) error {
	return a.write(ctx, a.flagKey, enabled)
}

func (a *Adapter) read(ctx context.Context, key string) (any, error) {
	raw, found, err := a.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCorruptSnapshot) {
			a.logger.Warn("discarding unreadable value", "key", key, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("state: read %q: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return nil, nil
	}
	value, err := a.codec.Unmarshal(raw)
	if err != nil {
		a.logger.Warn("discarding undecodable value", "key", key, "codec", a.codec.Name(), "error", err)
		return nil, nil
	}
	return value, nil
}

func (a *Adapter) write(ctx context.Context, key string, value any) error {
	payload, err := a.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	if err := a.backend.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("state: write %q: %w", key, err)
	}
	return nil
}
