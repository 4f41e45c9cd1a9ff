package layering

import (
	"fmt"
	"slices"
)

// Source identifies where a snapshot layer came from. Higher sources
// override lower ones when layering.
type Source int

const (
	// SourceUnknown marks a layer without provenance.
	SourceUnknown Source = iota
	// SourceDefaults is the weakest layer, usually the schema defaults.
	SourceDefaults
	// SourceRemembered holds the opt-in remembered snapshot.
	SourceRemembered
	// SourcePreset holds the applied preset.
	SourcePreset
	// SourceQuery holds explicit selections passed in by the caller, such as
	// URL query parameters.
	SourceQuery
)

func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceRemembered:
		return "remembered"
	case SourcePreset:
		return "preset"
	case SourceQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ParseSource converts a name into a Source. Unrecognised names yield
// SourceUnknown.
func ParseSource(value string) Source {
	switch value {
	case "defaults":
		return SourceDefaults
	case "remembered":
		return SourceRemembered
	case "preset":
		return SourcePreset
	case "query":
		return SourceQuery
	default:
		return SourceUnknown
	}
}

// Layer pairs a raw snapshot with its source.
type Layer struct {
	Source   Source
	Snapshot any
}

// Order returns layers sorted strongest first. Layers from the same source
// keep their relative order.
func Order(layers []Layer) ([]Layer, error) {
	for i, layer := range layers {
		if layer.Source == SourceUnknown {
			return nil, fmt.Errorf("layering: layer %d has no source", i)
		}
	}
	ordered := slices.Clone(layers)
	slices.SortStableFunc(ordered, func(a, b Layer) int {
		return int(b.Source) - int(a.Source)
	})
	return ordered, nil
}

// Snapshots returns the raw snapshots of layers in order.
func Snapshots(layers []Layer) []any {
	out := make([]any, len(layers))
	for i, layer := range layers {
		out[i] = layer.Snapshot
	}
	return out
}
