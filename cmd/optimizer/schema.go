package main

import (
	"context"
	"fmt"

	engine "github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-optimizer/internal/optimizer"
	"github.com/rxtech-lab/argo-optimizer/internal/strategy"
	"github.com/urfave/cli/v3"
)

var schemaKinds = []string{"engine", "search", "strategy"}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the JSON schema of a config",
		ArgsUsage: fmt.Sprintf("%v", schemaKinds),
		Action:    schemaAction,
	}
}

func generateSchema(kind string) (string, error) {
	switch kind {
	case "engine":
		config := engine.EmptyConfig()

		return config.GenerateSchemaJSON()
	case "search":
		config := optimizer.DefaultSearchConfig()

		return config.GenerateSchemaJSON()
	case "strategy":
		config := strategy.DefaultMomentumBreakoutConfig()

		return config.GenerateSchemaJSON()
	default:
		return "", fmt.Errorf("unknown schema %q, expected one of %v", kind, schemaKinds)
	}
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	kinds := schemaKinds
	if cmd.Args().Present() {
		kinds = cmd.Args().Slice()
	}

	for _, kind := range kinds {
		schema, err := generateSchema(kind)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.Root().Writer, schema)
	}

	return nil
}
