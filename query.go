package wizard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-wizard/layering"
)

// QueryVocabulary maps URL query parameters onto schema fields. Shared
// links use a shorter, older vocabulary than the wizard itself.
type QueryVocabulary struct {
	// Params lists the parameter names accepted for a field, first match
	// wins. Fields without an entry are read from their own name.
	Params map[string][]string
	// Values translates URL values into wizard values per field. Values
	// without an entry are used as given.
	Values map[string]map[string]string
}

// DefaultQueryVocabulary is the link vocabulary for DefaultSchema: "mount"
// for mounting, "ac" for PWR power and "base" for the PWM fan.
func DefaultQueryVocabulary() QueryVocabulary {
	return QueryVocabulary{
		Params: map[string][]string{
			"mounting": {"mount", "mounting"},
		},
		Values: map[string]map[string]string{
			"power": {"ac": "pwr"},
			"fan":   {"base": "pwm"},
		},
	}
}

func (v QueryVocabulary) params(field string) []string {
	if names := v.Params[field]; len(names) > 0 {
		return names
	}
	return []string{field}
}

// linkValues lists the values a link may carry for field, in schema order.
func (v QueryVocabulary) linkValues(field string, schema Schema) []string {
	reverse := make(map[string]string, len(v.Values[field]))
	for link, value := range v.Values[field] {
		reverse[value] = link
	}
	out := make([]string, 0, len(schema.AllowedOptions[field]))
	for _, value := range schema.AllowedOptions[field] {
		if link, ok := reverse[value]; ok {
			value = link
		}
		out = append(out, value)
	}
	return out
}

// QueryIssueKind classifies a problem found in a query.
type QueryIssueKind string

const (
	// QueryMissing reports a required field without a usable parameter.
	QueryMissing QueryIssueKind = "missing"
	// QueryInvalid reports a parameter whose value is not allowed.
	QueryInvalid QueryIssueKind = "invalid"
)

// QueryIssue describes one rejected or missing parameter.
type QueryIssue struct {
	Kind    QueryIssueKind `json:"type"`
	Field   string         `json:"field"`
	Param   string         `json:"param,omitempty"`
	Value   string         `json:"value,omitempty"`
	Allowed []string       `json:"allowed,omitempty"`
}

func (i QueryIssue) Error() string {
	if i.Kind == QueryMissing {
		return fmt.Sprintf("missing required parameter: %s", i.Field)
	}
	return fmt.Sprintf("invalid value for %s: %q, expected one of: %s", i.Param, i.Value, strings.Join(i.Allowed, ", "))
}

// QueryResult is the outcome of ParseQuery.
type QueryResult struct {
	// Configuration holds the accepted values only, keyed by field.
	Configuration map[string]any `json:"configuration"`
	// Present lists the fields whose parameter appeared, even if rejected.
	Present []string     `json:"present,omitempty"`
	Issues  []QueryIssue `json:"issues,omitempty"`
}

// Valid reports whether every required field was supplied and no value
// was rejected.
func (r QueryResult) Valid() bool {
	return len(r.Issues) == 0
}

// Layer wraps the accepted values as the strongest resolution layer.
func (r QueryResult) Layer() layering.Layer {
	return layering.Layer{Source: layering.SourceQuery, Snapshot: r.Configuration}
}

// ParseQuery reads wizard selections from URL query values. Values are
// trimmed and lower-cased, translated through the vocabulary and checked
// against the schema. Rejected values are reported and left out, so a
// query never overrides a weaker layer with an illegal value.
func ParseQuery(values url.Values, schema Schema, vocabulary QueryVocabulary) QueryResult {
	result := QueryResult{Configuration: map[string]any{}}
	for _, field := range schema.Fields() {
		param, raw, present := lookupParam(values, vocabulary.params(field))
		if present {
			result.Present = append(result.Present, field)
		}
		value := strings.ToLower(strings.TrimSpace(raw))
		if value == "" {
			if schema.IsRequired(field) {
				result.Issues = append(result.Issues, QueryIssue{Kind: QueryMissing, Field: field})
			}
			continue
		}
		if translated, ok := vocabulary.Values[field][value]; ok {
			value = translated
		}
		if !schema.Allows(field, value) {
			result.Issues = append(result.Issues, QueryIssue{
				Kind:    QueryInvalid,
				Field:   field,
				Param:   param,
				Value:   strings.TrimSpace(raw),
				Allowed: vocabulary.linkValues(field, schema),
			})
			continue
		}
		result.Configuration[field] = value
	}
	return result
}

func lookupParam(values url.Values, names []string) (string, string, bool) {
	for _, name := range names {
		if values.Has(name) {
			return name, values.Get(name), true
		}
	}
	return "", "", false
}
