package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// EMA is the exponential moving average of the close.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20, // Default period
	}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	period, err := configurePeriod(params)
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Compute seeds the average with the first close and smooths with
// alpha = 2 / (period + 1).
func (e *EMA) Compute(bars []types.Bar) ([]float64, error) {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return exponentialAverage(closes, 2/float64(e.period+1)), nil
}

func exponentialAverage(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))

	for i, value := range values {
		if i == 0 {
			out[i] = value

			continue
		}

		out[i] = alpha*value + (1-alpha)*out[i-1]
	}

	return out
}
