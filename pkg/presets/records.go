package presets

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-wizard/internal/hydrate"
)

// record is the stored form of a preset. State keeps whatever was persisted
// so a schema change never destroys stored choices.
type record struct {
	Name      string    `json:"name"`
	State     any       `json:"state"`
	IsApplied bool      `json:"isApplied"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	AppliedAt time.Time `json:"appliedAt"`
	Seq       int64     `json:"seq"`
}

type collection struct {
	records map[string]*record
	nextSeq int64
	// migrated is set when the stored layout was rewritten on load.
	migrated bool
}

var recordDecoder = hydrate.NewDecoder[record](
	hydrate.WithPreHook[record](sanitizeRecord),
	hydrate.WithPreHook[record](wrapLegacyState),
	hydrate.WithPostHook[record](requireRecordName),
)

func newCollection() *collection {
	return &collection{records: map[string]*record{}, nextSeq: 1}
}

func (s *Store) decodeCollection(raw any) *collection {
	out := newCollection()
	switch typed := raw.(type) {
	case nil:
		return out
	case []any:
		s.decodeLegacy(out, typed)
		return out
	}

	object, ok := hydrate.Object(raw)
	if !ok {
		s.logger.Warn("discarding preset collection with unexpected shape", "key", s.key, "type", fmt.Sprintf("%T", raw))
		return out
	}

	var unsequenced []string
	for id, item := range object {
		rec, ok := s.decodeRecord(id, item)
		if !ok {
			out.migrated = true
			continue
		}
		out.records[id] = rec
		if rec.Seq <= 0 {
			unsequenced = append(unsequenced, id)
			continue
		}
		out.nextSeq = max(out.nextSeq, rec.Seq+1)
	}

	slices.SortFunc(unsequenced, func(a, b string) int {
		if c := out.records[a].CreatedAt.Compare(out.records[b].CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	for _, id := range unsequenced {
		out.records[id].Seq = out.nextSeq
		out.nextSeq++
		out.migrated = true
	}
	return out
}

// decodeLegacy reads the early array layout where each entry carried its
// own id. Entries without one get an id derived from their position so
// repeated reads agree before the collection is rewritten.
func (s *Store) decodeLegacy(out *collection, items []any) {
	out.migrated = true
	for i, item := range items {
		object, ok := hydrate.Object(item)
		if !ok {
			s.logger.Warn("discarding legacy preset entry", "key", s.key, "type", fmt.Sprintf("%T", item))
			continue
		}
		id, _ := object["id"].(string)
		id = strings.TrimSpace(id)
		if id == "" {
			id = fmt.Sprintf("legacy-%d", i+1)
		}
		if _, taken := out.records[id]; taken {
			fresh, err := s.uniqueID(out)
			if err != nil {
				s.logger.Warn("discarding legacy preset entry", "key", s.key, "id", id, "error", err)
				continue
			}
			id = fresh
		}
		rec, ok := s.decodeRecord(id, object)
		if !ok {
			continue
		}
		rec.Seq = out.nextSeq
		out.nextSeq++
		out.records[id] = rec
	}
}

func (s *Store) decodeRecord(id string, item any) (*record, bool) {
	object, ok := hydrate.Object(item)
	if !ok {
		s.logger.Warn("discarding preset record", "key", s.key, "id", id, "type", fmt.Sprintf("%T", item))
		return nil, false
	}
	rec, err := recordDecoder.Decode(hydrate.Context{Source: s.key, Key: id}, object)
	if err != nil {
		s.logger.Warn("discarding preset record", "key", s.key, "id", id, "error", err)
		return nil, false
	}
	return &rec, true
}

func (c *collection) ordered() []string {
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if n := cmp.Compare(c.records[a].Seq, c.records[b].Seq); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
	return ids
}

func (c *collection) encode() map[string]any {
	out := make(map[string]any, len(c.records))
	for id, rec := range c.records {
		entry := map[string]any{
			"name":      rec.Name,
			"state":     rec.State,
			"isApplied": rec.IsApplied,
			"seq":       rec.Seq,
		}
		if !rec.CreatedAt.IsZero() {
			entry["createdAt"] = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		if !rec.UpdatedAt.IsZero() {
			entry["updatedAt"] = rec.UpdatedAt.UTC().Format(time.RFC3339Nano)
		}
		if !rec.AppliedAt.IsZero() {
			entry["appliedAt"] = rec.AppliedAt.UTC().Format(time.RFC3339Nano)
		}
		out[id] = entry
	}
	return out
}

// sanitizeRecord drops fields that would make strict decoding fail and
// converts epoch millisecond timestamps to RFC 3339.
func sanitizeRecord(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["name"].(string); !ok {
		delete(payload, "name")
	}
	if _, ok := payload["isApplied"].(bool); !ok {
		delete(payload, "isApplied")
	}
	if number, ok := payload["seq"].(json.Number); !ok {
		delete(payload, "seq")
	} else if _, err := number.Int64(); err != nil {
		delete(payload, "seq")
	}
	for _, field := range []string{"createdAt", "updatedAt", "appliedAt"} {
		stamp, ok := timestamp(payload[field])
		if !ok {
			delete(payload, field)
			continue
		}
		payload[field] = stamp.UTC().Format(time.RFC3339Nano)
	}
	return payload, nil
}

func timestamp(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(typed))
		return parsed, err == nil
	case json.Number:
		if millis, err := typed.Int64(); err == nil {
			return time.UnixMilli(millis), true
		}
		millis, err := typed.Float64()
		if err != nil || math.IsNaN(millis) || math.IsInf(millis, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(millis)), true
	default:
		return time.Time{}, false
	}
}

// wrapLegacyState builds a state for entries that stored the configuration
// next to the name instead of under "state".
func wrapLegacyState(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["state"]; ok {
		return payload, nil
	}
	if configuration, ok := payload["configuration"]; ok {
		payload["state"] = map[string]any{
			"configuration": configuration,
			"currentStep":   payload["currentStep"],
		}
		return payload, nil
	}
	flat := make(map[string]any, len(payload))
	for field, value := range payload {
		flat[field] = value
	}
	payload["state"] = flat
	return payload, nil
}

func requireRecordName(_ hydrate.Context, rec *record) error {
	rec.Name = cleanName(rec.Name)
	if rec.Name == "" {
		return errors.New("name is blank")
	}
	return nil
}
