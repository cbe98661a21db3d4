package types

import "time"

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Opposes reports whether the action enters against this direction.
func (d Direction) Opposes(action Action) bool {
	switch d {
	case DirectionLong:
		return action == ActionEnterShort
	case DirectionShort:
		return action == ActionEnterLong
	default:
		return false
	}
}

type ExitReason string

const (
	ExitReasonStopLoss       ExitReason = "stop_loss"
	ExitReasonTakeProfit     ExitReason = "take_profit"
	ExitReasonOpposingSignal ExitReason = "opposing_signal"
)

// Position is the single open trade of a run. Prices are fixed at entry.
type Position struct {
	Direction      Direction `yaml:"direction" json:"direction"`
	EntryTime      time.Time `yaml:"entry_time" json:"entry_time"`
	EntryPrice     float64   `yaml:"entry_price" json:"entry_price"`
	StopLoss       float64   `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit     float64   `yaml:"take_profit" json:"take_profit"`
	Size           float64   `yaml:"size" json:"size"`
	CapitalAtEntry float64   `yaml:"capital_at_entry" json:"capital_at_entry"`
}

// ClosedTrade is a position that has been exited.
type ClosedTrade struct {
	Position       Position   `yaml:"position" json:"position"`
	ExitTime       time.Time  `yaml:"exit_time" json:"exit_time"`
	ExitPrice      float64    `yaml:"exit_price" json:"exit_price"`
	ExitReason     ExitReason `yaml:"exit_reason" json:"exit_reason"`
	Fee            float64    `yaml:"fee" json:"fee"`
	PnL            float64    `yaml:"pnl" json:"pnl"`
	ClosingBalance float64    `yaml:"closing_balance" json:"closing_balance"`
}

// IsWin reports whether the exit price beat the entry price in the
// trade's direction. Fees are not considered.
func (t ClosedTrade) IsWin() bool {
	return t.Return() > 0
}

// Return is the per-trade price return: exit/entry - 1 for longs and
// entry/exit - 1 for shorts. Fees are not included.
func (t ClosedTrade) Return() float64 {
	if t.Position.EntryPrice == 0 || t.ExitPrice == 0 {
		return 0
	}

	if t.Position.Direction == DirectionShort {
		return t.Position.EntryPrice/t.ExitPrice - 1
	}

	return t.ExitPrice/t.Position.EntryPrice - 1
}

// HoldingTime is the time between entry and exit.
func (t ClosedTrade) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.Position.EntryTime)
}
