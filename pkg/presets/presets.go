// Package presets stores named wizard snapshots in a durable backend.
//
// The whole collection lives under one key as a map of preset id to record.
// Every mutation reads the collection, changes it and writes it back while
// holding the store mutex. Stored states are normalized again on every read
// so presets saved under an older schema heal themselves.
package presets

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/activity"
	"github.com/goliatone/go-wizard/pkg/state"
	"github.com/google/uuid"
)

var (
	// ErrEmptyName is returned when a preset name is blank after trimming.
	ErrEmptyName = errors.New("presets: name is required")
	// ErrNotFound is returned when no preset has the requested id.
	ErrNotFound = errors.New("presets: preset not found")
	// ErrIDUnavailable is returned when the id generator keeps producing
	// blank or taken ids.
	ErrIDUnavailable = errors.New("presets: no free preset id")
)

const (
	// DefaultKey is the storage key holding the preset collection.
	DefaultKey = "wizard.presets"
	// DefaultMaxEntries bounds the collection; the oldest presets are
	// evicted first.
	DefaultMaxEntries = 20
	// MaxNameLength is the maximum preset name length in runes.
	MaxNameLength = 120
)

// Preset is a named, normalized wizard snapshot.
type Preset struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	State     wizard.WizardState `json:"state"`
	IsApplied bool               `json:"isApplied"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	AppliedAt time.Time          `json:"appliedAt,omitzero"`
}

// Store manages the preset collection.
type Store struct {
	mu sync.Mutex

	adapter    *state.Adapter
	key        string
	codec      state.Codec
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	maxEntries int
	emitter    *activity.Emitter
	actor      activity.Actor
	normalize  []wizard.Option
}

// New builds a store over backend. A nil backend keeps presets in memory
// only.
func New(backend state.Backend, opts ...Option) *Store {
	s := &Store{
		key:        DefaultKey,
		codec:      state.JSONCodec{},
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		newID:      uuid.NewString,
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.adapter = state.NewAdapter(backend,
		state.WithSnapshotKey(s.key),
		state.WithCodec(s.codec),
		state.WithLogger(s.logger),
	)
	return s
}

// Key returns the storage key of the collection.
func (s *Store) Key() string { return s.key }
