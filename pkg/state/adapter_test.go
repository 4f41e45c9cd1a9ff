package state_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/goliatone/go-wizard/pkg/state"
)

var codecs = []state.Codec{state.JSONCodec{}, state.CBORCodec{}}

func TestAdapterSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, codec := range codecs {
		codec := codec
		t.Run(codec.Name(), func(t *testing.T) {
			adapter := state.NewAdapter(state.NewMemoryBackend(), state.WithCodec(codec))

			got, err := adapter.ReadSnapshot(ctx)
			if err != nil || got != nil {
				t.Fatalf("expected empty snapshot, got %v (%v)", got, err)
			}

			snapshot := map[string]any{
				"configuration": map[string]any{"mounting": "wall", "power": nil},
				"currentStep":   3,
			}
			if err := adapter.WriteSnapshot(ctx, snapshot); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err = adapter.ReadSnapshot(ctx)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			object, ok := got.(map[string]any)
			if !ok {
				t.Fatalf("expected object, got %T", got)
			}
			cfg, ok := object["configuration"].(map[string]any)
			if !ok || cfg["mounting"] != "wall" || cfg["power"] != nil {
				t.Fatalf("unexpected configuration %#v", object["configuration"])
			}
			if !isThree(object["currentStep"]) {
				t.Fatalf("unexpected step %#v", object["currentStep"])
			}

			if err := adapter.ClearSnapshot(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if got, _ := adapter.ReadSnapshot(ctx); got != nil {
				t.Fatalf("expected cleared snapshot, got %v", got)
			}
		})
	}
}

func isThree(value any) bool {
	switch v := value.(type) {
	case json.Number:
		return v.String() == "3"
	case uint64:
		return v == 3
	case int64:
		return v == 3
	default:
		return false
	}
}

func TestAdapterFlagDefaultsToFalse(t *testing.T) {
	ctx := context.Background()
	for _, codec := range codecs {
		adapter := state.NewAdapter(nil, state.WithCodec(codec))
		enabled, err := adapter.ReadEnabledFlag(ctx)
		if err != nil || enabled {
			t.Fatalf("%s: expected absent flag to read false, got %v (%v)", codec.Name(), enabled, err)
		}
		if err := adapter.WriteEnabledFlag(ctx, true); err != nil {
			t.Fatalf("%s: write flag: %v", codec.Name(), err)
		}
		enabled, err = adapter.ReadEnabledFlag(ctx)
		if err != nil || !enabled {
			t.Fatalf("%s: expected true, got %v (%v)", codec.Name(), enabled, err)
		}
	}
}

func TestAdapterTreatsCorruptionAsAbsent(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	for _, codec := range codecs {
		backend := state.NewMemoryBackend()
		adapter := state.NewAdapter(backend, state.WithCodec(codec), state.WithLogger(logger))
		_ = backend.Set(ctx, adapter.SnapshotKey(), []byte("{not valid"))
		_ = backend.Set(ctx, adapter.FlagKey(), []byte("\xff\xfe"))

		got, err := adapter.ReadSnapshot(ctx)
		if err != nil || got != nil {
			t.Fatalf("%s: expected corrupt snapshot to read as absent, got %v (%v)", codec.Name(), got, err)
		}
		enabled, err := adapter.ReadEnabledFlag(ctx)
		if err != nil || enabled {
			t.Fatalf("%s: expected corrupt flag to read false, got %v (%v)", codec.Name(), enabled, err)
		}
	}
	if !strings.Contains(logs.String(), "discarding undecodable value") {
		t.Fatalf("expected warn log, got %q", logs.String())
	}
}

func TestAdapterNonBooleanFlagIsFalse(t *testing.T) {
	ctx := context.Background()
	backend := state.NewMemoryBackend()
	adapter := state.NewAdapter(backend)
	_ = backend.Set(ctx, adapter.FlagKey(), []byte(`"yes"`))
	enabled, err := adapter.ReadEnabledFlag(ctx)
	if err != nil || enabled {
		t.Fatalf("expected false for non-boolean flag, got %v (%v)", enabled, err)
	}
}

func TestAdapterWriteNilClears(t *testing.T) {
	ctx := context.Background()
	backend := state.NewMemoryBackend()
	adapter := state.NewAdapter(backend, state.WithSnapshotKey("custom.snapshot"), state.WithFlagKey("custom.flag"))
	if adapter.SnapshotKey() != "custom.snapshot" || adapter.FlagKey() != "custom.flag" {
		t.Fatalf("custom keys not applied")
	}
	_ = adapter.WriteSnapshot(ctx, map[string]any{"mounting": "wall"})
	if backend.Len() != 1 {
		t.Fatalf("expected one stored key")
	}
	if err := adapter.WriteSnapshot(ctx, nil); err != nil {
		t.Fatalf("write nil: %v", err)
	}
	if backend.Len() != 0 {
		t.Fatalf("expected nil write to clear the snapshot")
	}
}

type failingBackend struct{ err error }

func (b failingBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, b.err }
func (b failingBackend) Set(context.Context, string, []byte) error         { return b.err }
func (b failingBackend) Delete(context.Context, string) error              { return b.err }

func TestAdapterReturnsBackendErrors(t *testing.T) {
	ctx := context.Background()
	diskErr := errors.New("disk gone")
	adapter := state.NewAdapter(failingBackend{err: diskErr})

	if _, err := adapter.ReadSnapshot(ctx); !errors.Is(err, diskErr) {
		t.Fatalf("expected backend error from read, got %v", err)
	}
	if err := adapter.WriteSnapshot(ctx, map[string]any{}); !errors.Is(err, diskErr) {
		t.Fatalf("expected backend error from write, got %v", err)
	}
	if err := adapter.ClearSnapshot(ctx); !errors.Is(err, diskErr) || !strings.HasPrefix(err.Error(), "state:") {
		t.Fatalf("expected prefixed backend error from clear, got %v", err)
	}
	if _, err := adapter.ReadEnabledFlag(ctx); !errors.Is(err, diskErr) {
		t.Fatalf("expected backend error from flag read, got %v", err)
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "cbor"} {
		if _, err := state.CodecByName(name); err != nil {
			t.Fatalf("codec %q: %v", name, err)
		}
	}
	if _, err := state.CodecByName("xml"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestJSONCodecRejectsTrailingData(t *testing.T) {
	if _, err := (state.JSONCodec{}).Unmarshal([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatalf("expected error for trailing data")
	}
}
