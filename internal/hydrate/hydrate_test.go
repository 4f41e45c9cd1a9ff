package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_records.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[storedRecord](buildOptions(tc)...)

			result, err := decoder.Decode(Context{Source: tc.Source, Key: tc.Key}, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded record mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeRejectsNilPayload(t *testing.T) {
	_, err := NewDecoder[storedRecord]().Decode(Context{Source: "presets"}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"name": "  Kitchen  ", "createdAt": float64(1735689600000)}
	decoder := NewDecoder[storedRecord](
		WithPreHook[storedRecord](trimNamePreHook),
		WithPreHook[storedRecord](epochMillisPreHook),
	)
	if _, err := decoder.Decode(Context{Source: "presets", Key: "a"}, input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if input["name"] != "  Kitchen  " || input["createdAt"] != float64(1735689600000) {
		t.Fatalf("input was mutated: %#v", input)
	}
}

func TestObject(t *testing.T) {
	if out, ok := Object(map[any]any{"a": 1}); !ok || out["a"] != 1 {
		t.Fatalf("expected conversion of string keys, got %#v %v", out, ok)
	}
	if _, ok := Object(map[any]any{1: "a"}); ok {
		t.Fatalf("expected non-string keys to be rejected")
	}
	if _, ok := Object([]any{}); ok {
		t.Fatalf("expected arrays to be rejected")
	}
}

func TestContextString(t *testing.T) {
	if got := (Context{Source: "wizard.presets", Key: "abc"}).String(); got != "wizard.presets#abc" {
		t.Fatalf("unexpected context label %q", got)
	}
	if got := (Context{Source: "schema.yaml"}).String(); got != "schema.yaml" {
		t.Fatalf("unexpected context label %q", got)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[storedRecord] {
	options := []DecoderOption[storedRecord]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[storedRecord]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[storedRecord]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "epoch_millis":
			options = append(options, WithPreHook[storedRecord](epochMillisPreHook))
		case "trim_name":
			options = append(options, WithPreHook[storedRecord](trimNamePreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "require_name":
			options = append(options, WithPostHook[storedRecord](requireNamePostHook))
		case "tag_source":
			options = append(options, WithPostHook[storedRecord](tagSourcePostHook))
		}
	}

	if tc.CustomDecoder == "pair" {
		options = append(options, WithCustomDecoder[storedRecord](pairDecoder))
	}

	return options
}

func epochMillisPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	number, ok := payload["createdAt"].(json.Number)
	if !ok {
		return payload, nil
	}
	millis, err := number.Int64()
	if err != nil {
		return nil, fmt.Errorf("invalid epoch timestamp %q", number)
	}
	payload["createdAt"] = time.UnixMilli(millis).UTC().Format(time.RFC3339)
	return payload, nil
}

func trimNamePreHook(_ Context, payload map[string]any) (map[string]any, error) {
	if name, ok := payload["name"].(string); ok {
		payload["name"] = strings.TrimSpace(name)
	}
	return payload, nil
}

func requireNamePostHook(_ Context, record *storedRecord) error {
	if record == nil || record.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func tagSourcePostHook(ctx Context, record *storedRecord) error {
	if len(record.Tags) == 0 {
		record.Tags = []string{ctx.String()}
	}
	return nil
}

func pairDecoder(ctx Context, payload map[string]any) (storedRecord, error) {
	pair, ok := payload["pair"].([]any)
	if !ok || len(pair) != 2 {
		return storedRecord{}, fmt.Errorf("missing pair for %q", ctx)
	}
	name, _ := pair[0].(string)
	createdAt, _ := pair[1].(string)
	return storedRecord{Name: name, CreatedAt: createdAt}, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string         `json:"name"`
	Source        string         `json:"source"`
	Key           string         `json:"key"`
	Input         map[string]any `json:"input"`
	Expect        storedRecord   `json:"expect"`
	ExpectErr     string         `json:"expectErr"`
	PreHooks      []string       `json:"preHooks"`
	PostHooks     []string       `json:"postHooks"`
	Options       []string       `json:"options"`
	CustomDecoder string         `json:"customDecoder"`
}

type storedRecord struct {
	Name      string   `json:"name"`
	IsApplied bool     `json:"isApplied"`
	CreatedAt string   `json:"createdAt"`
	Seq       int64    `json:"seq"`
	Tags      []string `json:"tags"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
