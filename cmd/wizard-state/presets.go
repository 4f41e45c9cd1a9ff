package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/presets"
)

func runPresets(ctx context.Context, g *globals, args []string) (err error) {
	flagSet := pflag.NewFlagSet("presets", pflag.ContinueOnError)
	flagSet.SetOutput(g.env.stderr)
	flagSet.SetInterspersed(false)
	dbPath := flagSet.String("db", "", "SQLite database holding the presets (required)")
	key := flagSet.String("key", presets.DefaultKey, "storage key of the preset collection")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usagef("presets: %v", err)
	}
	if *dbPath == "" {
		return usagef("presets: --db is required")
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		return usagef("presets: missing action")
	}

	schema, err := g.loadSchema()
	if err != nil {
		return err
	}
	codec, err := g.storageCodec()
	if err != nil {
		return err
	}
	backend, closeBackend, err := g.openBackend(*dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeBackend(); err == nil {
			err = closeErr
		}
	}()

	store := presets.New(backend,
		presets.WithKey(*key),
		presets.WithCodec(codec),
		presets.WithLogger(g.logger),
	)
	action, params := rest[0], rest[1:]

	switch action {
	case "list":
		list, err := store.List(ctx, schema)
		if err != nil {
			return err
		}
		return g.writeJSON(list)
	case "applied":
		applied, err := store.Applied(ctx, schema)
		if err != nil {
			return err
		}
		return g.writeJSON(applied)
	case "show":
		id, err := oneArg(action, params)
		if err != nil {
			return err
		}
		preset, err := store.Get(ctx, id, schema)
		if err != nil {
			return err
		}
		return g.writeJSON(preset)
	case "save":
		return savePreset(ctx, g, store, schema, params)
	case "rename":
		if len(params) != 2 {
			return usagef("presets rename: expected <id> <name>")
		}
		preset, err := store.Rename(ctx, params[0], params[1], schema)
		if err != nil {
			return err
		}
		return g.writeJSON(preset)
	case "delete":
		id, err := oneArg(action, params)
		if err != nil {
			return err
		}
		removed, err := store.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: %s", presets.ErrNotFound, id)
		}
		return g.writeJSON(map[string]any{"deleted": id})
	case "apply":
		applyFlags := pflag.NewFlagSet("presets apply", pflag.ContinueOnError)
		applyFlags.SetOutput(g.env.stderr)
		step := applyFlags.Int("step", 0, "record this wizard step on the applied preset")
		if err := applyFlags.Parse(params); err != nil {
			return usagef("presets apply: %v", err)
		}
		id, err := oneArg(action, applyFlags.Args())
		if err != nil {
			return err
		}
		var opts []presets.ApplyOption
		if applyFlags.Changed("step") {
			opts = append(opts, presets.WithAppliedStep(*step))
		}
		preset, err := store.MarkApplied(ctx, id, schema, opts...)
		if err != nil {
			return err
		}
		if preset == nil {
			return fmt.Errorf("%w: %s (every preset was cleared)", presets.ErrNotFound, id)
		}
		return g.writeJSON(preset)
	case "clear":
		if _, err := store.MarkApplied(ctx, "", schema); err != nil {
			return err
		}
		return g.writeJSON(map[string]any{"applied": nil})
	default:
		return usagef("presets: unknown action %q", action)
	}
}

func savePreset(ctx context.Context, g *globals, store *presets.Store, schema wizard.Schema, args []string) error {
	flagSet := pflag.NewFlagSet("presets save", pflag.ContinueOnError)
	flagSet.SetOutput(g.env.stderr)
	name := flagSet.String("name", "", "preset name; defaults to a name built from the configuration")
	step := flagSet.Int("step", 0, "current wizard step; clamped into the schema's range")
	if err := flagSet.Parse(args); err != nil {
		return usagef("presets save: %v", err)
	}
	input := "-"
	if flagSet.NArg() > 0 {
		input = flagSet.Arg(0)
	}

	raw, err := g.readInput(input)
	if err != nil {
		return err
	}
	// Accept either a bare configuration or a full {configuration, currentStep}
	// snapshot. An explicit --step wins and is clamped by the store.
	normalized := wizard.Normalize(raw, schema)
	var stepPtr *int
	switch {
	case flagSet.Changed("step"):
		stepPtr = step
	case normalized.CurrentStep != nil:
		stepPtr = normalized.CurrentStep
	}

	if *name == "" {
		*name = presets.SuggestName(normalized.Configuration, schema)
	}
	preset, err := store.Save(ctx, *name, normalized.Configuration, stepPtr, schema)
	if err != nil {
		return err
	}
	return g.writeJSON(preset)
}

func oneArg(action string, params []string) (string, error) {
	if len(params) != 1 {
		return "", usagef("presets %s: expected exactly one <id>", action)
	}
	return params[0], nil
}
