//go:build js_eval

package wizard

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSRuleTimeoutIsSkipped(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	schema := DefaultSchema()
	schema.Rules = []Rule{
		{Name: "spin", When: `(function(){ while (true) {} })()`, Set: map[string]string{"fan": "none"}},
	}

	var events []EvaluatorLogEvent
	logger := EvaluatorLoggerFunc(func(event EvaluatorLogEvent) { events = append(events, event) })
	got := Normalize(map[string]any{"mounting": "wall", "fan": "pwm"}, schema,
		WithEvaluator(evaluator), WithEvaluatorLogger(logger))

	if got.Configuration["fan"] != "pwm" {
		t.Fatalf("interrupted rule must not apply, got %q", got.Configuration["fan"])
	}
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected one failed evaluation, got %+v", events)
	}
	var evalErr *EvaluationError
	if !errors.As(events[0].Err, &evalErr) || !strings.Contains(events[0].Err.Error(), "exceeded") {
		t.Fatalf("expected interrupted evaluation error, got %v", events[0].Err)
	}
}
