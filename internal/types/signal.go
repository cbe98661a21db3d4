package types

import (
	"github.com/moznion/go-optional"
)

// Action is what an Agent wants to do on the current bar.
type Action string

const (
	ActionEnterLong  Action = "enter_long"
	ActionEnterShort Action = "enter_short"
	ActionHold       Action = "hold"
)

var AllActions = []any{
	ActionEnterLong,
	ActionEnterShort,
	ActionHold,
}

func (a Action) IsValid() bool {
	switch a {
	case ActionEnterLong, ActionEnterShort, ActionHold:
		return true
	default:
		return false
	}
}

// IsEntry reports whether the action opens a position.
func (a Action) IsEntry() bool {
	return a == ActionEnterLong || a == ActionEnterShort
}

// Direction returns the position direction the action opens.
// Hold maps to None.
func (a Action) Direction() optional.Option[Direction] {
	switch a {
	case ActionEnterLong:
		return optional.Some(DirectionLong)
	case ActionEnterShort:
		return optional.Some(DirectionShort)
	default:
		return optional.None[Direction]()
	}
}

// Decision is an Agent's output for one bar. Entries carry stop-loss and
// take-profit levels; Hold carries none.
type Decision struct {
	Action     Action
	StopLoss   optional.Option[float64]
	TakeProfit optional.Option[float64]
	// Reason is free text for logs.
	Reason string
}

func Hold() Decision {
	return Decision{
		Action:     ActionHold,
		StopLoss:   optional.None[float64](),
		TakeProfit: optional.None[float64](),
		Reason:     "",
	}
}

func EnterLong(stopLoss, takeProfit float64) Decision {
	return Decision{
		Action:     ActionEnterLong,
		StopLoss:   optional.Some(stopLoss),
		TakeProfit: optional.Some(takeProfit),
		Reason:     "",
	}
}

func EnterShort(stopLoss, takeProfit float64) Decision {
	return Decision{
		Action:     ActionEnterShort,
		StopLoss:   optional.Some(stopLoss),
		TakeProfit: optional.Some(takeProfit),
		Reason:     "",
	}
}

// WithReason returns a copy of d with the given reason.
func (d Decision) WithReason(reason string) Decision {
	d.Reason = reason

	return d
}
