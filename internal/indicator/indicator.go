package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// Indicator computes one indicator column over a bar series.
type Indicator interface {
	// Name returns the column name the values are stored under, e.g. "ATR_14".
	Name() string
	// Config configures the indicator. The parameters depend on the indicator.
	Config(params ...any) error
	// Compute returns one value per bar. Values only depend on the bar itself
	// and the bars before it.
	Compute(bars []types.Bar) ([]float64, error)
}

// configurePeriod parses the single period parameter every indicator takes.
func configurePeriod(params []any) (int, error) {
	if len(params) != 1 {
		return 0, errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a positive integer, got %d", period)
	}

	return period, nil
}

// trueRange is the largest of the bar's range and the gaps to the previous close.
func trueRange(bar types.Bar, prevClose float64) float64 {
	return max(
		bar.High-bar.Low,
		math.Abs(bar.High-prevClose),
		math.Abs(bar.Low-prevClose),
	)
}
