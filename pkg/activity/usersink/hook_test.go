package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-wizard/pkg/activity"
	"github.com/goliatone/go-wizard/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsPresetEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	presetID := uuid.New().String()

	event := activity.BuildPresetRenamedEvent(activity.PresetEventInput{
		Actor:        activity.Actor{ActorID: actorID.String(), UserID: "kiosk-7", TenantID: tenantID.String()},
		PresetID:     presetID,
		Name:         "Hallway",
		PreviousName: "Kitchen",
		Channel:      "wizard",
		OccurredAt:   now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: actor=%s tenant=%s", record.ActorID, record.TenantID)
	}
	if record.UserID != uuid.Nil || record.Data["user_id"] != "kiosk-7" {
		t.Fatalf("expected non-uuid user kept in data, got %s / %v", record.UserID, record.Data["user_id"])
	}
	if record.Verb != activity.VerbPresetRenamed || record.ObjectType != activity.ObjectPreset || record.ObjectID != presetID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "wizard" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["name"] != "Hallway" || record.Data["previous_name"] != "Kitchen" {
		t.Fatalf("expected metadata passthrough, got %v", record.Data)
	}
	if _, ok := record.Data["actor_id"]; ok {
		t.Fatalf("parsed ids must not be duplicated into data")
	}
}

func TestHookNotifySkipsInvalidEvents(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "preset.created"})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for incomplete event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("hook without sink should be a no-op, got %v", err)
	}
}

func TestHookNotifyPropagatesSinkErrors(t *testing.T) {
	sinkErr := errors.New("sink down")
	sink := &recordingSink{err: sinkErr}
	hooks := activity.Hooks{usersink.Hook{Sink: sink}}

	err := hooks.Notify(context.Background(), activity.BuildRememberEnabledEvent(activity.RememberEventInput{Key: "flag"}))
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
