package types

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestReturn() {
	long := ClosedTrade{
		Position:  Position{Direction: DirectionLong, EntryPrice: 100},
		ExitPrice: 110,
	}
	suite.InDelta(0.10, long.Return(), 1e-12)

	short := ClosedTrade{
		Position:  Position{Direction: DirectionShort, EntryPrice: 110},
		ExitPrice: 100,
	}
	suite.InDelta(0.10, short.Return(), 1e-12)

	suite.Equal(0.0, ClosedTrade{}.Return())
}

func (suite *TradeTestSuite) TestIsWin() {
	long := Position{Direction: DirectionLong, EntryPrice: 100}
	short := Position{Direction: DirectionShort, EntryPrice: 100}

	suite.True(ClosedTrade{Position: long, ExitPrice: 100.5}.IsWin())
	suite.False(ClosedTrade{Position: long, ExitPrice: 100}.IsWin())
	suite.False(ClosedTrade{Position: long, ExitPrice: 99}.IsWin())
	suite.True(ClosedTrade{Position: short, ExitPrice: 99}.IsWin())
	suite.False(ClosedTrade{Position: short, ExitPrice: 101}.IsWin())

	// price win with a fee larger than the move still counts
	suite.True(ClosedTrade{Position: long, ExitPrice: 100.01, PnL: -1}.IsWin())
}

func (suite *TradeTestSuite) TestHoldingTime() {
	entry := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	trade := ClosedTrade{
		Position: Position{EntryTime: entry},
		ExitTime: entry.Add(25 * time.Minute),
	}
	suite.Equal(25*time.Minute, trade.HoldingTime())
}

func (suite *TradeTestSuite) TestDirectionOpposes() {
	suite.True(DirectionLong.Opposes(ActionEnterShort))
	suite.False(DirectionLong.Opposes(ActionEnterLong))
	suite.False(DirectionLong.Opposes(ActionHold))
	suite.True(DirectionShort.Opposes(ActionEnterLong))
	suite.False(DirectionShort.Opposes(ActionEnterShort))
}

func (suite *TradeTestSuite) TestActions() {
	suite.True(ActionEnterLong.IsValid())
	suite.True(ActionHold.IsValid())
	suite.False(Action("BUY CALL").IsValid())

	suite.True(ActionEnterShort.IsEntry())
	suite.False(ActionHold.IsEntry())

	suite.Equal(DirectionLong, ActionEnterLong.Direction().Unwrap())
	suite.Equal(DirectionShort, ActionEnterShort.Direction().Unwrap())
	suite.True(ActionHold.Direction().IsNone())

	hold := Hold()
	suite.True(hold.StopLoss.IsNone())
	suite.True(hold.TakeProfit.IsNone())

	entry := EnterShort(105, 90).WithReason("breakout")
	suite.Equal(105.0, entry.StopLoss.Unwrap())
	suite.Equal(90.0, entry.TakeProfit.Unwrap())
	suite.Equal("breakout", entry.Reason)
}

func (suite *TradeTestSuite) TestWriteAndReadBacktestResult() {
	path := filepath.Join(suite.T().TempDir(), "result.yaml")
	result := BacktestResult{
		ID:             "run-1",
		Timestamp:      time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
		InitialBalance: 10000,
		FinalBalance:   10500,
		TotalTrades:    4,
		WinningTrades:  3,
		WinRate:        75,
		SharpeRatio:    1.2,
		MaxDrawdown:    2.5,
		TotalFees:      4,
		OpenPosition:   false,
		BarsProcessed:  100,
	}

	suite.NoError(WriteBacktestResult(path, result))

	read, err := ReadBacktestResult(path)
	suite.NoError(err)
	suite.Equal(result, read)
	suite.InDelta(5.0, read.ProfitPercent(), 1e-9)
}
