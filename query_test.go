package wizard_test

import (
	"net/url"
	"slices"
	"testing"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/layering"
)

func parseQuery(t *testing.T, raw string) wizard.QueryResult {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return wizard.ParseQuery(values, wizard.DefaultSchema(), wizard.DefaultQueryVocabulary())
}

func TestParseQueryTranslatesLinkVocabulary(t *testing.T) {
	result := parseQuery(t, "mount=wall&power=ac&fan=base")
	if !result.Valid() {
		t.Fatalf("expected valid query, got %v", result.Issues)
	}
	want := map[string]any{"mounting": "wall", "power": "pwr", "fan": "pwm"}
	for field, value := range want {
		if result.Configuration[field] != value {
			t.Fatalf("%s: expected %v, got %v", field, value, result.Configuration[field])
		}
	}
	if !slices.Equal(result.Present, []string{"mounting", "power", "fan"}) {
		t.Fatalf("unexpected present fields %v", result.Present)
	}
}

func TestParseQueryAcceptsAliasesAndLegacyValues(t *testing.T) {
	cases := []struct {
		query string
		field string
		want  string
	}{
		{query: "mounting=ceiling&power=usb", field: "mounting", want: "ceiling"},
		{query: "mount=wall&power=pwr", field: "power", want: "pwr"},
		{query: "mount=wall&power=usb&fan=pwm", field: "fan", want: "pwm"},
		{query: "mount=wall&power=usb&fan=analog", field: "fan", want: "analog"},
		{query: "mount=%20WALL%20&power=PoE", field: "mounting", want: "wall"},
	}
	for _, tc := range cases {
		result := parseQuery(t, tc.query)
		if !result.Valid() {
			t.Fatalf("%s: unexpected issues %v", tc.query, result.Issues)
		}
		if result.Configuration[tc.field] != tc.want {
			t.Fatalf("%s: expected %s=%s, got %v", tc.query, tc.field, tc.want, result.Configuration[tc.field])
		}
	}
}

func TestParseQueryReportsMissingRequired(t *testing.T) {
	result := parseQuery(t, "airiq=base&power=")
	if result.Valid() {
		t.Fatalf("expected invalid query")
	}
	var missing []string
	for _, issue := range result.Issues {
		if issue.Kind == wizard.QueryMissing {
			missing = append(missing, issue.Field)
		}
	}
	if !slices.Equal(missing, []string{"mounting", "power"}) {
		t.Fatalf("expected mounting and power missing, got %v", result.Issues)
	}
	if result.Configuration["airiq"] != "base" {
		t.Fatalf("expected optional value accepted, got %v", result.Configuration)
	}
}

func TestParseQueryReportsInvalidValues(t *testing.T) {
	result := parseQuery(t, "mount=wall&power=usb&fan=linear")
	if result.Valid() || len(result.Issues) != 1 {
		t.Fatalf("expected one issue, got %v", result.Issues)
	}
	issue := result.Issues[0]
	if issue.Kind != wizard.QueryInvalid || issue.Field != "fan" || issue.Value != "linear" {
		t.Fatalf("unexpected issue %+v", issue)
	}
	if !slices.Equal(issue.Allowed, []string{"none", "base", "analog"}) {
		t.Fatalf("expected link vocabulary in allowed values, got %v", issue.Allowed)
	}
	if _, ok := result.Configuration["fan"]; ok {
		t.Fatalf("rejected value must not reach the layer")
	}
	if !slices.Contains(result.Present, "fan") {
		t.Fatalf("rejected parameter should still count as present")
	}
}

func TestQueryLayerOverridesRememberedState(t *testing.T) {
	schema := wizard.DefaultSchema()
	query := parseQuery(t, "mount=ceiling&power=bogus&fan=base")
	remembered := layering.Layer{
		Source:   layering.SourceRemembered,
		Snapshot: map[string]any{"configuration": map[string]any{"mounting": "wall", "power": "poe", "airiq": "pro"}, "currentStep": 2},
	}

	got, err := wizard.ResolveSources(schema, []layering.Layer{remembered, query.Layer()})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Configuration["mounting"] != "ceiling" || got.Configuration["power"] != "poe" || got.Configuration["airiq"] != "pro" {
		t.Fatalf("unexpected resolved configuration %v", got.Configuration)
	}
	// ceiling mounts drop the fan even when the link asks for one
	if got.Configuration["fan"] != "none" {
		t.Fatalf("expected fan cleared by the mounting rule, got %q", got.Configuration["fan"])
	}
	if got.CurrentStep == nil || *got.CurrentStep != 2 {
		t.Fatalf("expected remembered step, got %v", got.CurrentStep)
	}
}
