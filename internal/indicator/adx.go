package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// ADX is Wilder's Average Directional Index.
type ADX struct {
	period int
}

// NewADX creates a new ADX indicator with default configuration.
func NewADX() Indicator {
	return &ADX{
		period: 14, // Default period
	}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX_%d", a.period)
}

// Config configures the ADX indicator. Expected parameters: period (int).
func (a *ADX) Config(params ...any) error {
	period, err := configurePeriod(params)
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Compute smooths +DM, -DM and the true range with Wilder's average, derives
// DX = 100 * |+DI - -DI| / (+DI + -DI) and smooths DX again. The first bar
// has no directional movement and yields 0.
func (a *ADX) Compute(bars []types.Bar) ([]float64, error) {
	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	ranges := make([]float64, n)

	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low

		if up > down && up > 0 {
			plusDM[i] = up
		}

		if down > up && down > 0 {
			minusDM[i] = down
		}

		ranges[i] = trueRange(bars[i], bars[i-1].Close)
	}

	alpha := 1 / float64(a.period)
	smoothedPlus := exponentialAverage(plusDM, alpha)
	smoothedMinus := exponentialAverage(minusDM, alpha)
	smoothedRange := exponentialAverage(ranges, alpha)

	dx := make([]float64, n)

	for i := range n {
		if smoothedRange[i] == 0 {
			continue
		}

		plusDI := 100 * smoothedPlus[i] / smoothedRange[i]
		minusDI := 100 * smoothedMinus[i] / smoothedRange[i]

		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	return exponentialAverage(dx, alpha), nil
}
