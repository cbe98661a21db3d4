package optimizer

import (
	"cmp"
	"slices"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// SortKey names the metric SortResults orders by.
type SortKey string

const (
	SortByFinalBalance SortKey = "final_balance"
	SortBySharpeRatio  SortKey = "sharpe_ratio"
	SortByWinRate      SortKey = "win_rate"
	SortByMaxDrawdown  SortKey = "max_drawdown"
	SortByTotalTrades  SortKey = "total_trades"
)

var AllSortKeys = []SortKey{
	SortByFinalBalance,
	SortBySharpeRatio,
	SortByWinRate,
	SortByMaxDrawdown,
	SortByTotalTrades,
}

// SortResults orders results best first in place. Max drawdown sorts
// ascending, every other key descending. Ties keep the parameter key order.
func SortResults(results []types.SearchResult, by SortKey) error {
	var metric func(types.BacktestResult) float64

	descending := true

	switch by {
	case SortByFinalBalance:
		metric = func(r types.BacktestResult) float64 { return r.FinalBalance }
	case SortBySharpeRatio:
		metric = func(r types.BacktestResult) float64 { return r.SharpeRatio }
	case SortByWinRate:
		metric = func(r types.BacktestResult) float64 { return r.WinRate }
	case SortByMaxDrawdown:
		metric = func(r types.BacktestResult) float64 { return r.MaxDrawdown }
		descending = false
	case SortByTotalTrades:
		metric = func(r types.BacktestResult) float64 { return float64(r.TotalTrades) }
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown sort key %q", by)
	}

	slices.SortStableFunc(results, func(a, b types.SearchResult) int {
		c := cmp.Compare(metric(a.Result), metric(b.Result))
		if descending {
			c = -c
		}

		if c != 0 {
			return c
		}

		return cmp.Compare(a.Parameters.Key(), b.Parameters.Key())
	})

	return nil
}
