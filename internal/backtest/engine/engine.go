package engine

import (
	"context"

	"github.com/rxtech-lab/argo-optimizer/internal/strategy"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// Lifecycle callback types for a backtest run.
// Callbacks with an error return abort the run when they return an error.

// OnRunStartCallback is called once before the first bar. runID identifies
// the run and totalBars is the number of fast bars in range.
type OnRunStartCallback func(runID string, totalBars int) error

// OnProcessDataCallback is called after each fast bar is processed.
type OnProcessDataCallback func(current int, total int) error

// OnTradeClosedCallback is called each time a position is closed.
type OnTradeClosedCallback func(trade types.ClosedTrade) error

// OnRunEndCallback is called when the run ends (always called via defer).
type OnRunEndCallback func(result types.BacktestResult, err error)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnTradeClosed *OnTradeClosedCallback
	OnRunEnd      *OnRunEndCallback
}

// Engine simulates an Agent over a fast and a slow bar series.
type Engine interface {
	// Run simulates agent over fast, consulting slow bars at or before each
	// fast bar's time. Every call starts from a fresh ledger. The context is
	// checked before each bar; a cancelled run returns an error and no result.
	Run(ctx context.Context, fast *types.BarSeries, slow *types.BarSeries, agent strategy.Agent, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
