package usersink

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-wizard/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook records wizard lifecycle events in a go-users ActivitySink. Actor,
// user and tenant ids that are not UUIDs are recorded as uuid.Nil and kept
// verbatim in the record data.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       maps.Clone(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	keepRawID(&record, "actor_id", normalized.ActorID, record.ActorID)
	keepRawID(&record, "user_id", normalized.UserID, record.UserID)
	keepRawID(&record, "tenant_id", normalized.TenantID, record.TenantID)

	return h.Sink.Log(ctx, record)
}

func keepRawID(record *usertypes.ActivityRecord, key, raw string, parsed uuid.UUID) {
	if raw == "" || parsed != uuid.Nil {
		return
	}
	if record.Data == nil {
		record.Data = map[string]any{}
	}
	record.Data[key] = raw
}

func parseUUID(input string) uuid.UUID {
	value := strings.TrimSpace(input)
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
