package wizard

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
)

// SnapshotKind classifies a raw snapshot before normalization.
type SnapshotKind int

const (
	// SnapshotAbsent covers nil and every non-object input.
	SnapshotAbsent SnapshotKind = iota
	// SnapshotStructured is an object whose configuration property is itself
	// an object.
	SnapshotStructured
	// SnapshotLegacy is any other object; its fields sit at the top level and
	// it never carries a step.
	SnapshotLegacy
)

func (k SnapshotKind) String() string {
	switch k {
	case SnapshotStructured:
		return "structured"
	case SnapshotLegacy:
		return "legacy"
	default:
		return "absent"
	}
}

// ClassifySnapshot decides the snapshot kind once and returns the object
// view of raw used by the matching branch.
func ClassifySnapshot(raw any) (SnapshotKind, map[string]any) {
	object, ok := asObject(raw)
	if !ok {
		return SnapshotAbsent, nil
	}
	if _, ok := asObject(object["configuration"]); ok {
		return SnapshotStructured, object
	}
	return SnapshotLegacy, object
}

// Normalize converts any raw snapshot into a WizardState that satisfies the
// schema. It never fails: unknown shapes collapse to the defaults, invalid
// values collapse to field defaults and steps are clamped into
// [1, TotalSteps].
func Normalize(raw any, schema Schema, opts ...Option) WizardState {
	cfg := applyOptions(opts)
	return normalize(raw, schema, cfg, nil)
}

func normalize(raw any, schema Schema, cfg optionsConfig, trace *Trace) WizardState {
	kind, object := ClassifySnapshot(raw)
	if trace != nil {
		trace.Kind = kind.String()
	}

	var fields map[string]any
	state := WizardState{}
	switch kind {
	case SnapshotStructured:
		fields, _ = asObject(object["configuration"])
		rawStep, present := object["currentStep"]
		state.CurrentStep = normalizeStep(rawStep, schema.TotalSteps, trace)
		if trace != nil && present {
			trace.RawStep = rawStep
		}
	case SnapshotLegacy:
		fields = object
	}

	state.Configuration = make(Configuration, len(schema.DefaultConfiguration))
	for _, field := range schema.Fields() {
		value := schema.ValidateField(field, fields[field])
		state.Configuration[field] = value
		if trace != nil {
			trace.recordField(field, fields[field], value)
		}
	}
	applyRules(state.Configuration, schema, cfg, trace)
	if trace != nil {
		trace.Step = state.CurrentStep
	}
	return state
}

func normalizeStep(raw any, totalSteps int, trace *Trace) *int {
	step, ok := integerStep(raw)
	if !ok {
		return nil
	}
	clamped := clampStep(step, totalSteps)
	if trace != nil {
		trace.Clamped = clamped != step
	}
	return &clamped
}

// clampStep bounds step to [1, totalSteps]; a non-positive total leaves the
// upper bound open.
func clampStep(step, totalSteps int) int {
	if step < 1 {
		return 1
	}
	if totalSteps >= 1 && step > totalSteps {
		return totalSteps
	}
	return step
}

// integerStep accepts Go integers, integral finite floats and integral
// json.Number values.
func integerStep(raw any) (int, bool) {
	switch value := raw.(type) {
	case int:
		return value, true
	case int8:
		return int(value), true
	case int16:
		return int(value), true
	case int32:
		return int(value), true
	case int64:
		return saturateSigned(value), true
	case uint:
		return saturateUnsigned(uint64(value)), true
	case uint8:
		return int(value), true
	case uint16:
		return int(value), true
	case uint32:
		return saturateUnsigned(uint64(value)), true
	case uint64:
		return saturateUnsigned(value), true
	case float32:
		return integralFloat(float64(value))
	case float64:
		return integralFloat(value)
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return saturateSigned(i), true
		}
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	default:
		return 0, false
	}
}

func integralFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt {
		return math.MaxInt, true
	}
	if f <= math.MinInt {
		return math.MinInt, true
	}
	return int(f), true
}

func saturateSigned(i int64) int {
	if i > math.MaxInt {
		return math.MaxInt
	}
	if i < math.MinInt {
		return math.MinInt
	}
	return int(i)
}

func saturateUnsigned(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}

// asObject returns a string-keyed view of raw when it is an object.
func asObject(raw any) (map[string]any, bool) {
	switch value := raw.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if value == nil {
			return nil, false
		}
		return value, true
	case Configuration:
		if value == nil {
			return nil, false
		}
		return value.AsMap(), true
	case map[string]string:
		if value == nil {
			return nil, false
		}
		return Configuration(value).AsMap(), true
	case WizardState:
		return value.AsMap(), true
	case *WizardState:
		if value == nil {
			return nil, false
		}
		return value.AsMap(), true
	case json.RawMessage:
		return decodeObject(value)
	case []byte:
		return decodeObject(value)
	}
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func decodeObject(data []byte) (map[string]any, bool) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}
	object, ok := value.(map[string]any)
	return object, ok && object != nil
}

func (cfg optionsConfig) ruleContext(snapshot map[string]any, rule string) RuleContext {
	now := cfg.timestamp()
	return RuleContext{
		Snapshot: snapshot,
		Now:      &now,
		Metadata: cfg.metadata,
		Rule:     rule,
	}
}
