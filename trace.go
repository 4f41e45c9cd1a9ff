package wizard

import "encoding/json"

// FieldOutcome describes how normalization arrived at a field value.
type FieldOutcome string

const (
	// OutcomeKept means the raw value was legal and kept as is.
	OutcomeKept FieldOutcome = "kept"
	// OutcomeDefaulted means the raw value was missing or illegal.
	OutcomeDefaulted FieldOutcome = "defaulted"
	// OutcomeConstrained means a rule overwrote the validated value.
	OutcomeConstrained FieldOutcome = "constrained"
)

// FieldTrace records the provenance of one configuration field.
type FieldTrace struct {
	Field   string       `json:"field"`
	Raw     any          `json:"raw,omitempty"`
	Value   string       `json:"value"`
	Outcome FieldOutcome `json:"outcome"`
	Rule    string       `json:"rule,omitempty"`
}

// RuleTrace records whether a constraint rule fired.
type RuleTrace struct {
	Name    string `json:"name"`
	Matched bool   `json:"matched"`
	Error   string `json:"error,omitempty"`
}

// Trace explains a normalization run.
type Trace struct {
	Kind   string       `json:"kind"`
	Fields []FieldTrace `json:"fields"`
	// Rules holds the outcome of each rule in the last pass; RulePasses
	// counts the passes needed for the rules to settle.
	Rules      []RuleTrace `json:"rules,omitempty"`
	RulePasses int         `json:"rulePasses,omitempty"`
	RawStep    any         `json:"rawStep,omitempty"`
	Step       *int        `json:"step"`
	Clamped    bool        `json:"clamped"`
}

// NormalizeWithTrace behaves like Normalize and also reports how each field
// and the step were derived.
func NormalizeWithTrace(raw any, schema Schema, opts ...Option) (WizardState, Trace) {
	cfg := applyOptions(opts)
	trace := Trace{}
	state := normalize(raw, schema, cfg, &trace)
	return state, trace
}

// Field returns the trace entry for field.
func (t Trace) Field(field string) (FieldTrace, bool) {
	for _, entry := range t.Fields {
		if entry.Field == field {
			return entry, true
		}
	}
	return FieldTrace{}, false
}

func (t *Trace) recordField(field string, raw any, value string) {
	outcome := OutcomeDefaulted
	if str, ok := raw.(string); ok && str != "" && str == value {
		outcome = OutcomeKept
	}
	t.Fields = append(t.Fields, FieldTrace{Field: field, Raw: raw, Value: value, Outcome: outcome})
}

func (t *Trace) recordRule(name string, matched bool, err error) {
	entry := RuleTrace{Name: name, Matched: matched}
	if err != nil {
		entry.Error = err.Error()
	}
	t.Rules = append(t.Rules, entry)
}

func (t *Trace) recordConstraint(field, value, rule string) {
	for i := range t.Fields {
		if t.Fields[i].Field == field {
			t.Fields[i].Value = value
			t.Fields[i].Outcome = OutcomeConstrained
			t.Fields[i].Rule = rule
			return
		}
	}
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
