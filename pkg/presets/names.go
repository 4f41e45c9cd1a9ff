package presets

import (
	"strings"
	"unicode/utf8"

	wizard "github.com/goliatone/go-wizard"
)

// NoneValue marks an optional module that is not fitted.
const NoneValue = "none"

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
}

// SuggestName builds a display name from the labels of every chosen value,
// for example "Wall / USB Power / AirIQ Pro". Unset fields and modules set
// to "none" are skipped.
func SuggestName(configuration wizard.Configuration, schema wizard.Schema) string {
	parts := make([]string, 0, len(configuration))
	for _, field := range schema.Fields() {
		value, ok := configuration.Get(field)
		if !ok || value == NoneValue {
			continue
		}
		parts = append(parts, schema.Label(field, value))
	}
	return cleanName(strings.Join(parts, " / "))
}
