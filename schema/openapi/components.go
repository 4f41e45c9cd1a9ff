package openapi

import (
	"fmt"
	"regexp"
)

// componentRegistry publishes named schemas under components/schemas and
// hands out references to them. Structurally equal nodes share one entry.
type componentRegistry struct {
	byDigest map[string]string
	schemas  map[string]map[string]any
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		byDigest: map[string]string{},
		schemas:  map[string]map[string]any{},
	}
}

// add registers node under name and returns a node referencing it.
func (r *componentRegistry) add(name string, node *schemaNode) *schemaNode {
	digest := node.Digest()
	if existing, ok := r.byDigest[digest]; ok && digest != "" {
		return refNode(componentRef(existing))
	}
	name = r.uniqueName(name)
	r.schemas[name] = node.inline()
	if digest != "" {
		r.byDigest[digest] = name
	}
	return refNode(componentRef(name))
}

func (r *componentRegistry) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Schema"
	}
	if _, exists := r.schemas[safe]; !exists {
		return safe
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s%d", safe, suffix)
		if _, exists := r.schemas[candidate]; !exists {
			return candidate
		}
	}
}

func (r *componentRegistry) componentsMap() map[string]any {
	if len(r.schemas) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.schemas))
	for name, schema := range r.schemas {
		out[name] = schema
	}
	return out
}

func componentRef(name string) string {
	return "#/components/schemas/" + name
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	for len(name) > 0 && name[0] == '_' {
		name = name[1:]
	}
	for len(name) > 0 && name[len(name)-1] == '_' {
		name = name[:len(name)-1]
	}
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
