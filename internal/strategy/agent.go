package strategy

import (
	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// Agent decides what to do on the latest bar of a window.
//
// fast and slow hold only bars at or before the current time, oldest first.
// When there is not enough history the Agent returns types.Hold() and no
// error. Agents must not modify the windows and must not keep state between
// calls, so one Agent may serve many runs.
type Agent interface {
	// Name returns the name of the strategy.
	Name() string
	// Decide returns the decision for the last bar of fast.
	Decide(fast []types.Bar, slow []types.Bar) (types.Decision, error)
}

// Factory builds a fresh Agent from a parameter set.
type Factory func(params types.ParameterSet) (Agent, error)

// Validator rejects parameter sets that must never be simulated.
type Validator func(params types.ParameterSet) error
