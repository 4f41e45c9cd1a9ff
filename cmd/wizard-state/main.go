// wizard-state inspects and edits wizard state outside the browser.
//
// It normalizes snapshots against a schema, prints the schema as an OpenAPI
// or JSON Schema document and manages the preset collection stored in a
// SQLite database, optionally encrypted with an age identity.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/pkg/state"
	"github.com/goliatone/go-wizard/schema/source"
)

// usageError marks mistakes in the command line; they exit with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }
func (e usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	env := environment{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(context.Background(), os.Args[1:], env); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// globals holds flags shared by every subcommand.
type globals struct {
	schemaPath  string
	codec       string
	ageIdentity string
	logLevel    string

	env    environment
	logger *slog.Logger
}

func run(ctx context.Context, args []string, env environment) error {
	g := &globals{env: env}
	flagSet := pflag.NewFlagSet("wizard-state", pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&g.schemaPath, "schema", "", "schema file (YAML, JSON or JSONC); defaults to the built-in device schema")
	flagSet.StringVar(&g.codec, "codec", "json", "storage codec: json or cbor")
	flagSet.StringVar(&g.ageIdentity, "age-identity", "", "age identity file used to encrypt stored values")
	flagSet.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(env.stderr, flagSet)
			return nil
		}
		return usagef("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(env.stderr, flagSet)
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return usagef("invalid --log-level %q", g.logLevel)
	}
	g.logger = slog.New(slog.NewTextHandler(env.stderr, &slog.HandlerOptions{Level: level}))

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(env.stderr, flagSet)
		return usagef("missing command")
	}
	switch rest[0] {
	case "normalize":
		return runNormalize(ctx, g, rest[1:])
	case "schema":
		return runSchema(g, rest[1:])
	case "presets":
		return runPresets(ctx, g, rest[1:])
	default:
		return usagef("unknown command %q", rest[0])
	}
}

func (g *globals) loadSchema() (wizard.Schema, error) {
	if g.schemaPath == "" {
		return wizard.DefaultSchema(), nil
	}
	return source.Load(g.schemaPath, source.WithLogger(g.logger))
}

func (g *globals) storageCodec() (state.Codec, error) {
	codec, err := state.CodecByName(strings.ToLower(g.codec))
	if err != nil {
		return nil, usagef("invalid --codec %q", g.codec)
	}
	return codec, nil
}

// openBackend opens the SQLite database at path, wrapped in age encryption
// when an identity is configured. The returned close function releases it.
func (g *globals) openBackend(path string) (state.Backend, func() error, error) {
	sqliteBackend, err := state.OpenSQLite(state.SQLiteConfig{Path: path, Logger: g.logger})
	if err != nil {
		return nil, nil, err
	}
	if g.ageIdentity == "" {
		return sqliteBackend, sqliteBackend.Close, nil
	}
	identity, err := state.LoadIdentityFile(g.ageIdentity)
	if err != nil {
		sqliteBackend.Close()
		return nil, nil, err
	}
	encrypted, err := state.NewEncryptedBackend(sqliteBackend, identity)
	if err != nil {
		sqliteBackend.Close()
		return nil, nil, err
	}
	return encrypted, sqliteBackend.Close, nil
}

func (g *globals) writeJSON(value any) error {
	encoder := json.NewEncoder(g.env.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// readInput reads a JSON document from path, or from stdin for "-".
func (g *globals) readInput(path string) (any, error) {
	var reader io.Reader = g.env.stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		reader = file
	}
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return value, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `wizard-state inspects and edits wizard configuration state.

Usage:
  wizard-state [global flags] <command> [flags] [args]

Commands:
  normalize [--trace] [--engine e] [--query q] [file|- ...]
                                                  normalize snapshots; several files are layered, strongest first
  schema [--format openapi|jsonschema]            print the schema as a document
  presets --db path <action> [args]               manage stored presets
      list | applied | show <id> | save [--name n] [--step n] [file|-]
      rename <id> <name> | delete <id> | apply [--step n] <id> | clear

Global flags:
`)
	flagSet.PrintDefaults()
}
