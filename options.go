package wizard

// WithEvaluator selects the engine used for constraint rules. The default
// is the expr evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = e
	}
}

// EvaluatorFor builds an engine by name ("expr", "cel" or "js") wired to
// the shared program cache and the given registry.
func EvaluatorFor(engine string, registry *FunctionRegistry) (Evaluator, error) {
	switch engine {
	case "", "expr":
		return NewExprEvaluator(ExprWithProgramCache(defaultProgramCache), ExprWithFunctionRegistry(registry)), nil
	case "cel":
		return NewCELEvaluator(CELWithProgramCache(defaultProgramCache), CELWithFunctionRegistry(registry)), nil
	case "js":
		if !JSEvaluatorAvailable() {
			return nil, ErrEngineUnavailable
		}
		return NewJSEvaluator(JSWithProgramCache(defaultProgramCache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, ErrUnknownEngine
	}
}

func (cfg optionsConfig) ruleEvaluator() Evaluator {
	if cfg.evaluator != nil {
		return cfg.evaluator
	}
	cache := cfg.programCache
	if cache == nil {
		cache = defaultProgramCache
	}
	return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(cfg.functions))
}
