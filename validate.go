package wizard

import "slices"

// ValidateField coerces raw into a legal value for field. Only string
// members of allowed[field] are accepted; anything else yields the field's
// default, which is the empty (unset) value for required fields.
func ValidateField(field string, raw any, allowed map[string][]string, defaults Configuration) string {
	if value, ok := raw.(string); ok && value != "" && slices.Contains(allowed[field], value) {
		return value
	}
	return defaults[field]
}

// ValidateField coerces raw into a legal value for field under s.
func (s Schema) ValidateField(field string, raw any) string {
	return ValidateField(field, raw, s.AllowedOptions, s.DefaultConfiguration)
}
