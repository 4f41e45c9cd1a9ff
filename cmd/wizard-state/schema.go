package main

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-wizard/schema/openapi"
)

func runSchema(g *globals, args []string) error {
	flagSet := pflag.NewFlagSet("schema", pflag.ContinueOnError)
	flagSet.SetOutput(g.env.stderr)
	format := flagSet.String("format", "openapi", "document format: openapi or jsonschema")
	title := flagSet.String("title", "", "OpenAPI info title")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usagef("schema: %v", err)
	}

	schema, err := g.loadSchema()
	if err != nil {
		return err
	}
	switch *format {
	case "openapi":
		document, err := openapi.Document(schema, openapi.WithInfo(*title, ""))
		if err != nil {
			return err
		}
		return g.writeJSON(document)
	case "jsonschema":
		document, err := openapi.StateSchema(schema)
		if err != nil {
			return err
		}
		return g.writeJSON(document)
	default:
		return usagef("schema: unknown format %q", *format)
	}
}
