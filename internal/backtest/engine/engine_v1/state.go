package engine

import (
	"math"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BacktestState is the trade ledger of a single run: the open position slot,
// the closed trades, the cash balance and the realized equity curve.
// It is owned by one run and is not safe for concurrent use.
type BacktestState struct {
	logger        *logger.Logger
	commissionFee commission_fee.CommissionFee
	balance       float64
	position      optional.Option[types.Position]
	trades        []types.ClosedTrade
	equity        []float64
}

func NewBacktestState(initialBalance float64, commissionFee commission_fee.CommissionFee, logger *logger.Logger) *BacktestState {
	state := &BacktestState{
		logger:        logger,
		commissionFee: commissionFee,
		balance:       0,
		position:      optional.None[types.Position](),
		trades:        nil,
		equity:        nil,
	}
	state.Reset(initialBalance)

	return state
}

// Reset clears the ledger and sets the balance.
func (b *BacktestState) Reset(initialBalance float64) {
	b.balance = initialBalance
	b.position = optional.None[types.Position]()
	b.trades = nil
	b.equity = nil
}

// Balance is the uncommitted cash. It is zero while a position is open.
func (b *BacktestState) Balance() float64 {
	return b.balance
}

// RealizedEquity is the balance, or the capital at entry while a position is open.
func (b *BacktestState) RealizedEquity() float64 {
	if b.position.IsSome() {
		return b.position.Unwrap().CapitalAtEntry
	}

	return b.balance
}

func (b *BacktestState) Position() optional.Option[types.Position] {
	return b.position
}

func (b *BacktestState) HasPosition() bool {
	return b.position.IsSome()
}

// OpenPosition commits the whole balance to a new position at price.
func (b *BacktestState) OpenPosition(direction types.Direction, at time.Time, price, stopLoss, takeProfit float64) (types.Position, error) {
	if b.position.IsSome() {
		return types.Position{}, errors.New(errors.ErrCodeBacktestConfigError, "a position is already open")
	}

	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return types.Position{}, errors.Newf(errors.ErrCodeInvalidSignal, "invalid entry price %v", price)
	}

	if b.balance <= 0 {
		return types.Position{}, errors.Newf(errors.ErrCodeBacktestConfigError, "cannot open a position with balance %v", b.balance)
	}

	position := types.Position{
		Direction:      direction,
		EntryTime:      at,
		EntryPrice:     price,
		StopLoss:       stopLoss,
		TakeProfit:     takeProfit,
		Size:           b.balance / price,
		CapitalAtEntry: b.balance,
	}

	b.position = optional.Some(position)
	b.balance = 0

	b.logger.Debug("Position opened",
		zap.String("direction", string(direction)),
		zap.Time("time", at),
		zap.Float64("price", price),
		zap.Float64("stop_loss", stopLoss),
		zap.Float64("take_profit", takeProfit),
		zap.Float64("size", position.Size),
	)

	return position, nil
}

// ClosePosition exits the open position at price, charges the fee and
// credits the balance.
func (b *BacktestState) ClosePosition(at time.Time, price float64, reason types.ExitReason) (types.ClosedTrade, error) {
	if b.position.IsNone() {
		return types.ClosedTrade{}, errors.New(errors.ErrCodeBacktestConfigError, "no open position to close")
	}

	position := b.position.Unwrap()

	entryDec := decimal.NewFromFloat(position.EntryPrice)
	exitDec := decimal.NewFromFloat(price)
	sizeDec := decimal.NewFromFloat(position.Size)

	profitDec := exitDec.Sub(entryDec).Mul(sizeDec)
	if position.Direction == types.DirectionShort {
		profitDec = profitDec.Neg()
	}

	fee := b.commissionFee.Calculate(position.CapitalAtEntry)
	pnlDec := profitDec.Sub(decimal.NewFromFloat(fee))
	closingDec := decimal.NewFromFloat(position.CapitalAtEntry).Add(pnlDec)

	trade := types.ClosedTrade{
		Position:       position,
		ExitTime:       at,
		ExitPrice:      price,
		ExitReason:     reason,
		Fee:            fee,
		PnL:            pnlDec.InexactFloat64(),
		ClosingBalance: closingDec.InexactFloat64(),
	}

	b.trades = append(b.trades, trade)
	b.balance = trade.ClosingBalance
	b.position = optional.None[types.Position]()

	b.logger.Debug("Position closed",
		zap.String("direction", string(position.Direction)),
		zap.String("reason", string(reason)),
		zap.Time("time", at),
		zap.Float64("price", price),
		zap.Float64("pnl", trade.PnL),
		zap.Float64("balance", b.balance),
	)

	return trade, nil
}

// RecordEquity appends the current realized equity to the equity curve.
func (b *BacktestState) RecordEquity() {
	b.equity = append(b.equity, b.RealizedEquity())
}

// Trades returns a copy of the closed trades in closing order.
func (b *BacktestState) Trades() []types.ClosedTrade {
	return slices.Clone(b.trades)
}

// EquityCurve returns a copy of the recorded equity values.
func (b *BacktestState) EquityCurve() []float64 {
	return slices.Clone(b.equity)
}

// TotalFees sums the fees of all closed trades.
func (b *BacktestState) TotalFees() float64 {
	total := decimal.Zero
	for _, trade := range b.trades {
		total = total.Add(decimal.NewFromFloat(trade.Fee))
	}

	return total.InexactFloat64()
}
