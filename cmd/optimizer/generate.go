package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-optimizer/internal/writer"
	"github.com/rxtech-lab/argo-optimizer/mocks"
	"github.com/urfave/cli/v3"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write synthetic fast and slow bar files with indicator columns",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output directory",
				Value: "data",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of fast bars",
				Value: 10000,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 42,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: fmt.Sprintf("Output format (%s or %s)", writer.FormatParquet, writer.FormatCSV),
				Value: string(writer.FormatParquet),
			},
		},
		Action: generateAction,
	}
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.String("out")
	format := cmd.String("format")

	config := mocks.DefaultConfig()
	config.Count = int(cmd.Int("count"))

	fast, slow, err := mocks.NewDataGenerator(int64(cmd.Int("seed"))).GenerateSeries(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fastPath := filepath.Join(out, "fast."+format)
	slowPath := filepath.Join(out, "slow."+format)

	if err := writer.WriteBarSeries(fastPath, fast); err != nil {
		return err
	}

	if err := writer.WriteBarSeries(slowPath, slow); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %d fast bars to %s and %d slow bars to %s\n",
		fast.Len(), fastPath, slow.Len(), slowPath)

	return nil
}
