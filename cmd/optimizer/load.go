package main

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-optimizer/internal/indicator"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/urfave/cli/v3"
)

// loadSeries reads a whole bar file. Time bounds are applied by the engine so
// bars before start_time stay available as history.
func loadSeries(ds datasource.DataSource, path string, interval types.Interval, computeIndicators bool) (*types.BarSeries, error) {
	if err := ds.Initialize(path); err != nil {
		return nil, err
	}

	series, err := ds.Load(interval, optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if !computeIndicators {
		return series, nil
	}

	return indicator.NewMomentumBreakoutRegistry().Apply(series)
}

func loadInputs(cmd *cli.Command, log *logger.Logger) (*types.BarSeries, *types.BarSeries, error) {
	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, nil, err
	}
	defer ds.Close()

	fast, err := loadSeries(ds, cmd.String("fast"), types.Interval5m, cmd.Bool("compute-indicators"))
	if err != nil {
		return nil, nil, err
	}

	slow, err := loadSeries(ds, cmd.String("slow"), types.Interval15m, cmd.Bool("compute-indicators"))
	if err != nil {
		return nil, nil, err
	}

	return fast, slow, nil
}

func loadEngineConfig(path string) (engine.BacktestEngineV1Config, error) {
	if path == "" {
		return engine.EmptyConfig(), nil
	}

	return engine.LoadConfig(path)
}
