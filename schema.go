package wizard

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Schema describes the wizard's fields, the values each field accepts and
// the number of steps. It is supplied by the caller on every call and never
// persisted by the stores.
type Schema struct {
	// DefaultConfiguration lists every known field. An empty default marks
	// a required field; any other default is the sentinel used when a value
	// is missing or invalid.
	DefaultConfiguration Configuration `json:"defaultConfiguration" yaml:"defaultConfiguration"`
	// AllowedOptions is the allow-list per field.
	AllowedOptions map[string][]string `json:"allowedOptions" yaml:"allowedOptions"`
	TotalSteps     int                 `json:"totalSteps" yaml:"totalSteps"`
	// Order is the display order of fields. Fields missing from it follow in
	// alphabetical order.
	Order  []string                     `json:"order,omitempty" yaml:"order,omitempty"`
	Rules  []Rule                       `json:"rules,omitempty" yaml:"rules,omitempty"`
	Labels map[string]map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

var (
	// ErrInvalidSchema reports a schema that cannot be used for normalization.
	ErrInvalidSchema = errors.New("wizard: invalid schema")
	// ErrUnknownEngine reports an unsupported evaluator name.
	ErrUnknownEngine = errors.New("wizard: unknown evaluator engine")
	// ErrEngineUnavailable reports an engine missing from this build.
	ErrEngineUnavailable = errors.New("wizard: evaluator engine not available in this build")
	// ErrRulesUnstable reports rules that kept rewriting each other without
	// settling.
	ErrRulesUnstable = errors.New("wizard: constraint rules did not settle")
)

// Fields returns the known field names in display order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s.DefaultConfiguration))
	seen := make(map[string]struct{}, len(s.DefaultConfiguration))
	for _, field := range s.Order {
		if _, known := s.DefaultConfiguration[field]; !known {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		fields = append(fields, field)
	}
	for _, field := range sortedKeys(s.DefaultConfiguration) {
		if _, done := seen[field]; !done {
			fields = append(fields, field)
		}
	}
	return fields
}

// IsRequired reports whether field has no sentinel default.
func (s Schema) IsRequired(field string) bool {
	value, known := s.DefaultConfiguration[field]
	return known && value == ""
}

// Allows reports whether value is a member of field's allow-list.
func (s Schema) Allows(field, value string) bool {
	if value == "" {
		return false
	}
	return slices.Contains(s.AllowedOptions[field], value)
}

// Label returns the display label for a field value, falling back to the
// raw value.
func (s Schema) Label(field, value string) string {
	if label, ok := s.Labels[field][value]; ok && label != "" {
		return label
	}
	return value
}

// Defaults returns a fresh copy of the default configuration.
func (s Schema) Defaults() Configuration {
	out := s.DefaultConfiguration.Clone()
	if out == nil {
		out = Configuration{}
	}
	return out
}

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	out := Schema{
		DefaultConfiguration: s.DefaultConfiguration.Clone(),
		TotalSteps:           s.TotalSteps,
		Order:                slices.Clone(s.Order),
	}
	if s.AllowedOptions != nil {
		out.AllowedOptions = make(map[string][]string, len(s.AllowedOptions))
		for field, values := range s.AllowedOptions {
			out.AllowedOptions[field] = slices.Clone(values)
		}
	}
	for _, rule := range s.Rules {
		rule.Set = maps.Clone(rule.Set)
		out.Rules = append(out.Rules, rule)
	}
	if s.Labels != nil {
		out.Labels = make(map[string]map[string]string, len(s.Labels))
		for field, labels := range s.Labels {
			out.Labels[field] = maps.Clone(labels)
		}
	}
	return out
}

// Validate checks that the schema is internally consistent.
func (s Schema) Validate() error {
	var errs []error
	if len(s.DefaultConfiguration) == 0 {
		errs = append(errs, fmt.Errorf("no fields declared"))
	}
	if s.TotalSteps < 0 {
		errs = append(errs, fmt.Errorf("totalSteps must not be negative, got %d", s.TotalSteps))
	}
	for _, field := range sortedKeys(s.DefaultConfiguration) {
		allowed, ok := s.AllowedOptions[field]
		if !ok {
			errs = append(errs, fmt.Errorf("field %q has no allowed options", field))
			continue
		}
		for _, value := range allowed {
			if value == "" {
				errs = append(errs, fmt.Errorf("field %q allows an empty value", field))
			}
		}
		if def := s.DefaultConfiguration[field]; def != "" && !slices.Contains(allowed, def) {
			errs = append(errs, fmt.Errorf("field %q default %q is not an allowed option", field, def))
		}
	}
	for _, field := range sortedKeys(s.AllowedOptions) {
		if _, known := s.DefaultConfiguration[field]; !known {
			errs = append(errs, fmt.Errorf("allowed options declared for unknown field %q", field))
		}
	}
	for i, rule := range s.Rules {
		if rule.When == "" {
			errs = append(errs, fmt.Errorf("rule %s has no condition", rule.label(i)))
		}
		for _, field := range sortedKeys(rule.Set) {
			if _, known := s.DefaultConfiguration[field]; !known {
				errs = append(errs, fmt.Errorf("rule %s sets unknown field %q", rule.label(i), field))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSchema, errors.Join(errs...))
}

// DefaultSchema returns the schema of the multi-sensor device the wizard
// was built for: two required fields, four optional modules and four steps.
func DefaultSchema() Schema {
	return Schema{
		DefaultConfiguration: Configuration{
			"mounting": "",
			"power":    "",
			"airiq":    "none",
			"presence": "none",
			"comfort":  "none",
			"fan":      "none",
		},
		AllowedOptions: map[string][]string{
			"mounting": {"wall", "ceiling"},
			"power":    {"usb", "poe", "pwr"},
			"airiq":    {"none", "base", "pro"},
			"presence": {"none", "base", "pro"},
			"comfort":  {"none", "base"},
			"fan":      {"none", "pwm", "analog"},
		},
		TotalSteps: 4,
		Order:      []string{"mounting", "power", "airiq", "presence", "comfort", "fan"},
		Rules: []Rule{
			{
				Name: "fan-requires-wall",
				When: `mounting != "wall"`,
				Set:  map[string]string{"fan": "none"},
			},
		},
		Labels: map[string]map[string]string{
			"mounting": {"wall": "Wall", "ceiling": "Ceiling"},
			"power":    {"usb": "USB Power", "poe": "PoE Module", "pwr": "PWR Module"},
			"airiq":    {"base": "AirIQ Base", "pro": "AirIQ Pro"},
			"presence": {"base": "Presence Base", "pro": "Presence Pro"},
			"comfort":  {"base": "Comfort Base"},
			"fan":      {"pwm": "Fan PWM", "analog": "Fan Analog"},
		},
	}
}
