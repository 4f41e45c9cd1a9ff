package presets

import (
	"log/slog"
	"strings"
	"time"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/activity"
	"github.com/goliatone/go-wizard/pkg/state"
)

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key of the collection.
func WithKey(key string) Option {
	return func(s *Store) {
		if key = strings.TrimSpace(key); key != "" {
			s.key = key
		}
	}
}

// WithCodec selects how the collection is encoded.
func WithCodec(codec state.Codec) Option {
	return func(s *Store) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithLogger sets the logger for discarded records and hook failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the preset id generator (uuid v4 by default).
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithMaxEntries bounds the collection size. Values below one are ignored.
func WithMaxEntries(max int) Option {
	return func(s *Store) {
		if max > 0 {
			s.maxEntries = max
		}
	}
}

// WithActivityHooks emits lifecycle events to hooks.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(s *Store) {
		s.emitter = activity.NewEmitter(activity.Hooks(hooks), activity.Config{Enabled: true})
	}
}

// WithEmitter uses a preconfigured emitter.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(s *Store) {
		s.emitter = emitter
	}
}

// WithActor attributes emitted events to actor.
func WithActor(actor activity.Actor) Option {
	return func(s *Store) {
		s.actor = actor
	}
}

// WithNormalizeOptions forwards options to every normalization the store
// performs.
func WithNormalizeOptions(opts ...wizard.Option) Option {
	return func(s *Store) {
		s.normalize = append(s.normalize, opts...)
	}
}
