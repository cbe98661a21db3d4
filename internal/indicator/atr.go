package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14, // Default period
	}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := configurePeriod(params)
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Compute smooths the true range with Wilder's average (alpha = 1/period).
// The first bar has no previous close, so its true range is its high-low range.
func (a *ATR) Compute(bars []types.Bar) ([]float64, error) {
	ranges := make([]float64, len(bars))

	for i, bar := range bars {
		if i == 0 {
			ranges[i] = bar.High - bar.Low

			continue
		}

		ranges[i] = trueRange(bar, bars[i-1].Close)
	}

	return exponentialAverage(ranges, 1/float64(a.period)), nil
}
