package main

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	wizard "github.com/goliatone/go-wizard"
)

func runNormalize(_ context.Context, g *globals, args []string) error {
	flagSet := pflag.NewFlagSet("normalize", pflag.ContinueOnError)
	flagSet.SetOutput(g.env.stderr)
	trace := flagSet.Bool("trace", false, "print the normalization trace instead of the state")
	engine := flagSet.String("engine", "expr", "rule engine: expr, cel or js")
	query := flagSet.String("query", "", "URL query such as mount=wall&power=ac, layered above every input")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usagef("normalize: %v", err)
	}

	schema, err := g.loadSchema()
	if err != nil {
		return err
	}
	evaluator, err := wizard.EvaluatorFor(*engine, nil)
	if err != nil {
		return usagef("normalize: %v", err)
	}
	opts := []wizard.Option{
		wizard.WithEvaluator(evaluator),
		wizard.WithEvaluatorLogger(wizard.SlogEvaluatorLogger(g.logger)),
	}

	inputs := flagSet.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	if *trace && (len(inputs) > 1 || *query != "") {
		return usagef("normalize: --trace accepts a single input and no --query")
	}

	layers := make([]any, 0, len(inputs)+1)
	if *query != "" {
		values, err := url.ParseQuery(strings.TrimPrefix(*query, "?"))
		if err != nil {
			return usagef("normalize: --query: %v", err)
		}
		parsed := wizard.ParseQuery(values, schema, wizard.DefaultQueryVocabulary())
		for _, issue := range parsed.Issues {
			g.logger.Warn("query issue", "field", issue.Field, "issue", issue.Error())
		}
		layers = append(layers, parsed.Configuration)
	}
	for _, input := range inputs {
		raw, err := g.readInput(input)
		if err != nil {
			return err
		}
		layers = append(layers, raw)
	}

	if *trace {
		_, t := wizard.NormalizeWithTrace(layers[0], schema, opts...)
		return g.writeJSON(t)
	}
	if len(layers) == 1 {
		return g.writeJSON(wizard.Normalize(layers[0], schema, opts...))
	}
	return g.writeJSON(wizard.ResolveLayersWith(schema, layers, opts...))
}
