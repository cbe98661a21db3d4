package engine

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func trade(direction types.Direction, entry, exit float64) types.ClosedTrade {
	return types.ClosedTrade{
		Position: types.Position{
			Direction:  direction,
			EntryPrice: entry,
		},
		ExitPrice: exit,
	}
}

func (suite *MetricsTestSuite) TestWinRate() {
	tests := []struct {
		name     string
		trades   []types.ClosedTrade
		expected float64
	}{
		{name: "no trades", trades: nil, expected: 0},
		{name: "all wins", trades: []types.ClosedTrade{
			trade(types.DirectionLong, 100, 101),
			trade(types.DirectionShort, 100, 99),
		}, expected: 100},
		{name: "half", trades: []types.ClosedTrade{
			trade(types.DirectionLong, 100, 101),
			trade(types.DirectionLong, 100, 99),
		}, expected: 50},
		{name: "flat exit is not a win", trades: []types.ClosedTrade{
			trade(types.DirectionLong, 100, 100),
		}, expected: 0},
		{name: "short above entry loses", trades: []types.ClosedTrade{
			trade(types.DirectionShort, 100, 101),
			trade(types.DirectionShort, 100, 98),
			trade(types.DirectionShort, 100, 102),
			trade(types.DirectionShort, 100, 97),
		}, expected: 50},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, WinRate(tc.trades), 1e-9)
		})
	}
}

func (suite *MetricsTestSuite) TestSharpeRatio() {
	suite.Equal(0.0, SharpeRatio(nil))
	suite.Equal(0.0, SharpeRatio([]types.ClosedTrade{trade(types.DirectionLong, 100, 110)}))

	// identical returns have no variance
	suite.Equal(0.0, SharpeRatio([]types.ClosedTrade{
		trade(types.DirectionLong, 100, 110),
		trade(types.DirectionLong, 100, 110),
	}))

	// returns 0.1 and -0.05: mean 0.025, population std 0.075
	expected := 0.025 / 0.075 * math.Sqrt(252)
	suite.InDelta(expected, SharpeRatio([]types.ClosedTrade{
		trade(types.DirectionLong, 100, 110),
		trade(types.DirectionLong, 100, 95),
	}), 1e-9)
}

func (suite *MetricsTestSuite) TestMaxDrawdown() {
	tests := []struct {
		name     string
		initial  float64
		equity   []float64
		expected float64
	}{
		{name: "empty", initial: 100, equity: nil, expected: 0},
		{name: "only rising", initial: 100, equity: []float64{100, 110, 120}, expected: 0},
		{name: "below initial", initial: 100, equity: []float64{90, 95}, expected: 10},
		{name: "peak then fall", initial: 100, equity: []float64{100, 120, 90, 130, 117}, expected: 25},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, MaxDrawdown(tc.initial, tc.equity), 1e-9)
		})
	}
}
