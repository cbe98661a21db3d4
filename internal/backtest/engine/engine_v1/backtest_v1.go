package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/strategy"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"go.uber.org/zap"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	log           *logger.Logger
	commissionFee commission_fee.CommissionFee
}

// NewBacktestEngineV1 validates config and returns an engine. The engine
// keeps no state between runs.
func NewBacktestEngineV1(config BacktestEngineV1Config, log *logger.Logger) (engine.Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:        config,
		log:           log,
		commissionFee: commission_fee.GetCommissionFeeHandler(config.Broker, config.FeeRate),
	}, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(
	ctx context.Context,
	fast *types.BarSeries,
	slow *types.BarSeries,
	agent strategy.Agent,
	callbacks engine.LifecycleCallbacks,
) (result types.BacktestResult, err error) {
	defer func() {
		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(result, err)
		}
	}()

	if err := b.preRunCheck(fast, slow, agent); err != nil {
		return types.BacktestResult{}, err
	}

	runID := uuid.New().String()
	first, last := fast.IndexRange(b.config.StartTime, b.config.EndTime)
	total := last - first

	b.log.Debug("Running backtest",
		zap.String("run_id", runID),
		zap.String("agent", agent.Name()),
		zap.Int("fast_bars", total),
		zap.Int("slow_bars", slow.Len()),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, total); err != nil {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	state := NewBacktestState(b.config.InitialCapital, b.commissionFee, b.log)

	for i := first; i < last; i++ {
		if err := ctx.Err(); err != nil {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", err)
		}

		trade, err := b.processBar(state, fast, slow, i, agent)
		if err != nil {
			return types.BacktestResult{}, err
		}

		if trade != nil && callbacks.OnTradeClosed != nil {
			if err := (*callbacks.OnTradeClosed)(*trade); err != nil {
				return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "trade closed callback failed", err)
			}
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i-first+1, total); err != nil {
				return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	result = b.buildResult(runID, state, total)

	b.log.Debug("Backtest finished",
		zap.String("run_id", runID),
		zap.Float64("final_balance", result.FinalBalance),
		zap.Int("total_trades", result.TotalTrades),
		zap.Bool("open_position", result.OpenPosition),
	)

	return result, nil
}

// processBar runs one step of the loop for fast bar i. It returns the trade
// closed on this bar, if any.
//
// An open position is first checked against the bar's range, then the agent
// is consulted. An opposing decision closes a position that survived the
// range check, and an entry opens only when the slot is empty.
func (b *BacktestEngineV1) processBar(
	state *BacktestState,
	fast *types.BarSeries,
	slow *types.BarSeries,
	i int,
	agent strategy.Agent,
) (*types.ClosedTrade, error) {
	defer state.RecordEquity()

	bar := fast.Bars[i]

	closed, err := b.checkStops(state, bar)
	if err != nil {
		return nil, err
	}

	fastWindow := fast.Window(i, b.config.FastLookback)
	slowEnd := slow.IndexAtOrBefore(bar.Time)

	if len(fastWindow) < b.config.MinFastBars || slowEnd+1 < b.config.MinSlowBars {
		return closed, nil
	}

	decision, err := agent.Decide(fastWindow, slow.Window(slowEnd, b.config.SlowLookback))
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeUnknown {
			return nil, fmt.Errorf("agent %s failed at %s: %w", agent.Name(), bar.Time.Format(time.RFC3339), err)
		}

		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err,
			"agent %s failed at %s", agent.Name(), bar.Time.Format(time.RFC3339))
	}

	if err := validateDecision(decision); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidSignal, err,
			"agent %s returned an invalid decision at %s", agent.Name(), bar.Time.Format(time.RFC3339))
	}

	if state.HasPosition() && state.Position().Unwrap().Direction.Opposes(decision.Action) {
		trade, err := state.ClosePosition(bar.Time, bar.Close, types.ExitReasonOpposingSignal)
		if err != nil {
			return nil, err
		}

		closed = &trade
	}

	if !state.HasPosition() && decision.Action.IsEntry() {
		if err := b.enter(state, bar, decision); err != nil {
			return closed, err
		}
	}

	return closed, nil
}

// checkStops closes the open position when the bar touches its stop-loss or
// take-profit. Stop-loss wins when both levels are inside the bar's range.
func (b *BacktestEngineV1) checkStops(state *BacktestState, bar types.Bar) (*types.ClosedTrade, error) {
	if !state.HasPosition() {
		return nil, nil
	}

	position := state.Position().Unwrap()
	slippage := b.config.Slippage

	var (
		price  float64
		reason types.ExitReason
	)

	switch {
	case position.Direction == types.DirectionLong && bar.Low <= position.StopLoss:
		price, reason = position.StopLoss-slippage, types.ExitReasonStopLoss
	case position.Direction == types.DirectionLong && bar.High >= position.TakeProfit:
		price, reason = position.TakeProfit-slippage, types.ExitReasonTakeProfit
	case position.Direction == types.DirectionShort && bar.High >= position.StopLoss:
		price, reason = position.StopLoss+slippage, types.ExitReasonStopLoss
	case position.Direction == types.DirectionShort && bar.Low <= position.TakeProfit:
		price, reason = position.TakeProfit+slippage, types.ExitReasonTakeProfit
	default:
		return nil, nil
	}

	trade, err := state.ClosePosition(bar.Time, price, reason)
	if err != nil {
		return nil, err
	}

	return &trade, nil
}

func (b *BacktestEngineV1) enter(state *BacktestState, bar types.Bar, decision types.Decision) error {
	direction := decision.Action.Direction().Unwrap()

	price := bar.Close + b.config.Slippage
	if direction == types.DirectionShort {
		price = bar.Close - b.config.Slippage
	}

	_, err := state.OpenPosition(direction, bar.Time, price, decision.StopLoss.Unwrap(), decision.TakeProfit.Unwrap())

	return err
}

func (b *BacktestEngineV1) buildResult(runID string, state *BacktestState, barsProcessed int) types.BacktestResult {
	trades := state.Trades()

	return types.BacktestResult{
		ID:             runID,
		Timestamp:      time.Now(),
		InitialBalance: b.config.InitialCapital,
		FinalBalance:   state.RealizedEquity(),
		TotalTrades:    len(trades),
		WinningTrades:  countWins(trades),
		WinRate:        WinRate(trades),
		SharpeRatio:    SharpeRatio(trades),
		MaxDrawdown:    MaxDrawdown(b.config.InitialCapital, state.EquityCurve()),
		TotalFees:      state.TotalFees(),
		OpenPosition:   state.HasPosition(),
		BarsProcessed:  barsProcessed,
	}
}

// validateDecision rejects unknown actions and entries without usable levels.
func validateDecision(decision types.Decision) error {
	if !decision.Action.IsValid() {
		return fmt.Errorf("unknown action %q", decision.Action)
	}

	if !decision.Action.IsEntry() {
		return nil
	}

	if decision.StopLoss.IsNone() || decision.TakeProfit.IsNone() {
		return fmt.Errorf("%s without stop loss and take profit", decision.Action)
	}

	for _, level := range []float64{decision.StopLoss.Unwrap(), decision.TakeProfit.Unwrap()} {
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return fmt.Errorf("%s with non-finite level %v", decision.Action, level)
		}
	}

	return nil
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck(fast *types.BarSeries, slow *types.BarSeries, agent strategy.Agent) error {
	if agent == nil {
		b.log.Error("No agent loaded")

		return errors.New(errors.ErrCodeStrategyNotLoaded, "no agent loaded")
	}

	if fast == nil || slow == nil {
		b.log.Error("Missing bar series")

		return errors.New(errors.ErrCodeBacktestInvalidSeries, "fast and slow series are required")
	}

	if err := fast.Validate(); err != nil {
		return err
	}

	return slow.Validate()
}
