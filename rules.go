package wizard

import (
	"fmt"
	"time"
)

// Rule is a cross-field constraint applied after every field has been
// validated. When the When expression evaluates to true, each Set entry is
// assigned through the allow-list validator.
type Rule struct {
	Name string            `json:"name,omitempty" yaml:"name,omitempty"`
	When string            `json:"when" yaml:"when"`
	Set  map[string]string `json:"set" yaml:"set"`
}

func (r Rule) label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", index)
}

type namedEngine interface {
	engineName() string
}

func (*exprEvaluator) engineName() string { return "expr" }
func (*celEvaluator) engineName() string  { return "cel" }

func evaluatorEngineName(e Evaluator) string {
	if named, ok := e.(namedEngine); ok {
		return named.engineName()
	}
	return "custom"
}

// applyRules runs the rules in declaration order until a full pass changes
// nothing, so that normalizing the result again is a no-op. Rules that fail
// to compile or evaluate are skipped. A schema whose rules keep rewriting
// each other stops after len(Rules)+1 passes and the last pass is reported
// to the evaluator logger as an error.
func applyRules(configuration Configuration, schema Schema, cfg optionsConfig, trace *Trace) {
	if len(schema.Rules) == 0 {
		return
	}
	evaluator := cfg.ruleEvaluator()
	engine := evaluatorEngineName(evaluator)
	logger := cfg.evaluatorLogger()

	maxPasses := len(schema.Rules) + 1
	for pass := 1; pass <= maxPasses; pass++ {
		if trace != nil {
			trace.Rules = trace.Rules[:0]
			trace.RulePasses = pass
		}
		if !applyRulePass(configuration, schema, cfg, evaluator, engine, logger, trace) {
			return
		}
	}
	logger.LogEvaluation(EvaluatorLogEvent{
		Engine: engine,
		Rule:   "*",
		Err:    fmt.Errorf("%w after %d passes", ErrRulesUnstable, maxPasses),
	})
}

// applyRulePass evaluates every rule once and reports whether any field
// changed.
func applyRulePass(configuration Configuration, schema Schema, cfg optionsConfig, evaluator Evaluator, engine string, logger EvaluatorLogger, trace *Trace) bool {
	changed := false
	for i, rule := range schema.Rules {
		name := rule.label(i)
		start := time.Now()
		matched, err := evaluateRule(evaluator, cfg.ruleContext(configuration.AsMap(), name), rule.When)
		logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     rule.When,
			Rule:     name,
			Duration: time.Since(start),
			Err:      err,
		})
		if trace != nil {
			trace.recordRule(name, matched, err)
		}
		if err != nil || !matched {
			continue
		}
		for _, field := range sortedKeys(rule.Set) {
			if _, known := schema.DefaultConfiguration[field]; !known {
				continue
			}
			next := schema.ValidateField(field, rule.Set[field])
			if configuration[field] == next {
				continue
			}
			configuration[field] = next
			changed = true
			if trace != nil {
				trace.recordConstraint(field, next, name)
			}
		}
	}
	return changed
}

func evaluateRule(evaluator Evaluator, ctx RuleContext, expression string) (bool, error) {
	if evaluator == nil {
		return false, wrapEvaluatorError("rule", fmt.Errorf("no evaluator configured"))
	}
	compiled, err := evaluator.Compile(expression)
	if err != nil {
		return false, err
	}
	result, err := compiled.Evaluate(ctx)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError(evaluatorEngineName(evaluator), expression, ctx.Rule,
			fmt.Errorf("rule must evaluate to a boolean, got %T", result))
	}
	return matched, nil
}
