package engine

import (
	"math"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// TradingDaysPerYear annualizes the per-trade Sharpe ratio.
const TradingDaysPerYear = 252

// WinRate is the share of trades with positive profit, in percent.
func WinRate(trades []types.ClosedTrade) float64 {
	if len(trades) == 0 {
		return 0
	}

	return float64(countWins(trades)) / float64(len(trades)) * 100
}

func countWins(trades []types.ClosedTrade) int {
	wins := 0

	for _, trade := range trades {
		if trade.IsWin() {
			wins++
		}
	}

	return wins
}

// SharpeRatio is mean over population standard deviation of per-trade
// returns, scaled by sqrt(252). Fewer than two trades or zero variance give 0.
func SharpeRatio(trades []types.ClosedTrade) float64 {
	if len(trades) < 2 {
		return 0
	}

	n := float64(len(trades))
	mean := 0.0

	for _, trade := range trades {
		mean += trade.Return()
	}

	mean /= n

	variance := 0.0

	for _, trade := range trades {
		d := trade.Return() - mean
		variance += d * d
	}

	std := math.Sqrt(variance / n)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown is the largest fall from a running peak of the equity curve,
// in percent of that peak. The peak starts at the initial balance.
func MaxDrawdown(initialBalance float64, equity []float64) float64 {
	peak := initialBalance
	maxDrawdown := 0.0

	for _, value := range equity {
		if value > peak {
			peak = value
		}

		if peak <= 0 {
			continue
		}

		if drawdown := (peak - value) / peak * 100; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}
