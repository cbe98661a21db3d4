package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-optimizer/internal/strategy"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/internal/writer"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run a single backtest with one parameter set",
		Flags: append(inputFlags(),
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Strategy parameter as name=value, repeatable",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Directory for result.yaml and trades.parquet",
			},
		),
		Action: backtestAction,
	}
}

func parseParameters(raw []string) (types.ParameterSet, error) {
	params := types.ParameterSet{}

	for _, r := range raw {
		name, value, err := types.ParseParameter(r)
		if err != nil {
			return nil, err
		}

		params[name] = value
	}

	return params, nil
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config, err := loadEngineConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	params, err := parseParameters(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	agent, err := strategy.NewMomentumBreakoutFactory()(params)
	if err != nil {
		return err
	}

	fast, slow, err := loadInputs(cmd, log)
	if err != nil {
		return err
	}

	eng, err := engine_v1.NewBacktestEngineV1(config, log)
	if err != nil {
		return err
	}

	var trades []types.ClosedTrade

	onTradeClosed := engine.OnTradeClosedCallback(func(trade types.ClosedTrade) error {
		trades = append(trades, trade)

		return nil
	})

	result, err := eng.Run(ctx, fast, slow, agent, engine.LifecycleCallbacks{
		OnRunStart:    nil,
		OnProcessData: nil,
		OnTradeClosed: &onTradeClosed,
		OnRunEnd:      nil,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, renderResult(params, result))

	out := cmd.String("out")
	if out == "" {
		return nil
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := types.WriteBacktestResult(filepath.Join(out, "result.yaml"), result); err != nil {
		return err
	}

	if err := writer.WriteTrades(filepath.Join(out, "trades.parquet"), result.ID, trades); err != nil {
		return err
	}

	log.Info("Backtest written", zap.String("out", out), zap.Int("trades", len(trades)))

	return nil
}
