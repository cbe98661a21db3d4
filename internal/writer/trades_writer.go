package writer

import (
	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// TradesWriter exports the closed-trade ledger of a backtest run.
type TradesWriter struct {
	duckDBTable
	runID string
}

// NewTradesWriter creates a writer that tags every trade with runID.
func NewTradesWriter(outputPath string, runID string) Writer[types.ClosedTrade] {
	return &TradesWriter{
		duckDBTable: newDuckDBTable("trades", outputPath),
		runID:       runID,
	}
}

func (w *TradesWriter) Initialize() error {
	return w.open(
		[]string{
			"run_id", "direction", "entry_time", "entry_price", "stop_loss", "take_profit", "size",
			"capital_at_entry", "exit_time", "exit_price", "exit_reason", "fee", "pnl", "closing_balance",
		},
		[]string{
			"run_id TEXT",
			"direction TEXT",
			"entry_time TIMESTAMP",
			"entry_price DOUBLE",
			"stop_loss DOUBLE",
			"take_profit DOUBLE",
			"size DOUBLE",
			"capital_at_entry DOUBLE",
			"exit_time TIMESTAMP",
			"exit_price DOUBLE",
			"exit_reason TEXT",
			"fee DOUBLE",
			"pnl DOUBLE",
			"closing_balance DOUBLE",
		},
	)
}

func (w *TradesWriter) Write(trade types.ClosedTrade) error {
	return w.insert(
		w.runID,
		string(trade.Position.Direction),
		trade.Position.EntryTime.UTC(),
		trade.Position.EntryPrice,
		trade.Position.StopLoss,
		trade.Position.TakeProfit,
		trade.Position.Size,
		trade.Position.CapitalAtEntry,
		trade.ExitTime.UTC(),
		trade.ExitPrice,
		string(trade.ExitReason),
		trade.Fee,
		trade.PnL,
		trade.ClosingBalance,
	)
}

func (w *TradesWriter) Finalize() (string, error) {
	return w.finalize()
}

func (w *TradesWriter) Close() error {
	return w.close()
}

func (w *TradesWriter) GetOutputPath() string {
	return w.outputPath
}

// WriteTrades writes a complete trade ledger to path.
func WriteTrades(path string, runID string, trades []types.ClosedTrade) error {
	return writeAll(NewTradesWriter(path, runID), trades)
}
