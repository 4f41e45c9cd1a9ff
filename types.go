package wizard

import (
	"encoding/json"
	"maps"
	"sort"
	"time"
)

// Configuration maps every schema field to its selected value. The empty
// string marks a required field that has not been chosen yet and is encoded
// as JSON null.
type Configuration map[string]string

// Get returns the value stored for field and whether it is set.
func (c Configuration) Get(field string) (string, bool) {
	value, ok := c[field]
	return value, ok && value != ""
}

// Clone returns a detached copy of c.
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Equal reports whether both configurations hold the same fields and values.
func (c Configuration) Equal(other Configuration) bool {
	return maps.Equal(c, other)
}

// AsMap returns a JSON-compatible view where unset fields are nil.
func (c Configuration) AsMap() map[string]any {
	out := make(map[string]any, len(c))
	for field, value := range c {
		if value == "" {
			out[field] = nil
			continue
		}
		out[field] = value
	}
	return out
}

// MarshalJSON encodes unset fields as null.
func (c Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.AsMap())
}

// UnmarshalJSON accepts null for unset fields.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	out := make(Configuration, len(raw))
	for field, value := range raw {
		if value == nil {
			out[field] = ""
			continue
		}
		out[field] = *value
	}
	*c = out
	return nil
}

// WizardState is the canonical, validated shape of a wizard snapshot.
type WizardState struct {
	Configuration Configuration `json:"configuration"`
	CurrentStep   *int          `json:"currentStep"`
}

// Step returns the current step or zero when none is recorded.
func (s WizardState) Step() int {
	if s.CurrentStep == nil {
		return 0
	}
	return *s.CurrentStep
}

// Clone returns a copy of s that shares no memory with the original.
func (s WizardState) Clone() WizardState {
	out := WizardState{Configuration: s.Configuration.Clone()}
	if s.CurrentStep != nil {
		out.CurrentStep = StepPtr(*s.CurrentStep)
	}
	return out
}

// Equal reports whether both states carry the same configuration and step.
func (s WizardState) Equal(other WizardState) bool {
	if !s.Configuration.Equal(other.Configuration) {
		return false
	}
	if s.CurrentStep == nil || other.CurrentStep == nil {
		return s.CurrentStep == nil && other.CurrentStep == nil
	}
	return *s.CurrentStep == *other.CurrentStep
}

// AsMap returns the structured snapshot shape used for persistence. The
// result only contains JSON-compatible values so every codec encodes it the
// same way.
func (s WizardState) AsMap() map[string]any {
	out := map[string]any{
		"configuration": s.Configuration.AsMap(),
		"currentStep":   nil,
	}
	if s.CurrentStep != nil {
		out["currentStep"] = *s.CurrentStep
	}
	return out
}

// StepPtr is a convenience for building optional steps.
func StepPtr(step int) *int {
	return &step
}

// Snapshot assembles the structured raw shape from a configuration and an
// optional step so it can be passed to Normalize. A configuration that is
// already a structured snapshot, such as a WizardState, is unwrapped and its
// step is kept unless step overrides it.
func Snapshot(configuration any, step *int) map[string]any {
	raw := map[string]any{"configuration": configuration}
	if kind, object := ClassifySnapshot(configuration); kind == SnapshotStructured {
		raw["configuration"] = object["configuration"]
		if current, ok := object["currentStep"]; ok {
			raw["currentStep"] = current
		}
	}
	if step != nil {
		raw["currentStep"] = *step
	}
	return raw
}

// RuleContext carries inputs needed when evaluating a constraint rule.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Rule     string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) ruleLabel() string {
	if ctx.Rule != "" {
		return ctx.Rule
	}
	return "unnamed"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures normalization.
type Option func(*optionsConfig)

type optionsConfig struct {
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       EvaluatorLogger
	now          func() time.Time
	metadata     map[string]any
}

func applyOptions(opts []Option) optionsConfig {
	cfg := optionsConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg optionsConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopEvaluatorLogger{}
}

func (cfg optionsConfig) timestamp() time.Time {
	if cfg.now != nil {
		return cfg.now()
	}
	return time.Now()
}

// WithNow overrides the clock exposed to rule expressions as `now`.
func WithNow(now func() time.Time) Option {
	return func(cfg *optionsConfig) {
		cfg.now = now
	}
}

// WithRuleMetadata exposes metadata to rule expressions as `metadata`.
func WithRuleMetadata(metadata map[string]any) Option {
	return func(cfg *optionsConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = maps.Clone(metadata)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
