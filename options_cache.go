package wizard

import (
	"strings"
	"sync"
)

// ProgramCache stores compiled expression programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewMemoryProgramCache returns a ProgramCache safe for concurrent use.
func NewMemoryProgramCache() ProgramCache {
	return &memoryProgramCache{programs: map[string]any{}}
}

type memoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	c.programs[key] = value
	c.mu.Unlock()
}

var defaultProgramCache = NewMemoryProgramCache()

// WithProgramCache overrides the program cache shared by rule evaluators.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *optionsConfig) {
		cfg.programCache = cache
	}
}

// programKey namespaces cache entries by engine and by the helper functions
// compiled into the program.
func programKey(engine string, registry *FunctionRegistry, expression string) string {
	names := registry.Names()
	if len(names) == 0 {
		return engine + ":" + expression
	}
	return engine + "[" + strings.Join(names, ",") + "]:" + expression
}
