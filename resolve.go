package wizard

import "github.com/goliatone/go-wizard/layering"

// ResolveLayers merges several raw snapshots, strongest first, into one
// normalized state. Only legal values take part in the merge, so an invalid
// or unset value in a stronger layer never hides a valid one underneath.
// The step comes from the first layer that carries a usable one.
func ResolveLayers(schema Schema, layers ...any) WizardState {
	return ResolveLayersWith(schema, layers)
}

// ResolveLayersWith is ResolveLayers with normalization options.
func ResolveLayersWith(schema Schema, layers []any, opts ...Option) WizardState {
	configurations := make([]map[string]any, 0, len(layers))
	var step *int
	for _, layer := range layers {
		kind, object := ClassifySnapshot(layer)
		var fields map[string]any
		switch kind {
		case SnapshotStructured:
			fields, _ = asObject(object["configuration"])
			if step == nil {
				if value, ok := integerStep(object["currentStep"]); ok {
					step = &value
				}
			}
		case SnapshotLegacy:
			fields = object
		default:
			continue
		}
		configurations = append(configurations, legalFields(fields, schema))
	}
	merged := layering.MergeLayers(configurations...)
	if merged == nil {
		merged = map[string]any{}
	}
	return Normalize(Snapshot(merged, step), schema, opts...)
}

// ResolveSources orders layers by source precedence before resolving them.
func ResolveSources(schema Schema, layers []layering.Layer, opts ...Option) (WizardState, error) {
	ordered, err := layering.Order(layers)
	if err != nil {
		return WizardState{}, err
	}
	return ResolveLayersWith(schema, layering.Snapshots(ordered), opts...), nil
}

func legalFields(fields map[string]any, schema Schema) map[string]any {
	out := make(map[string]any, len(fields))
	for field, raw := range fields {
		value, ok := raw.(string)
		if ok && schema.Allows(field, value) {
			out[field] = value
		}
	}
	return out
}
