package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/optimizer"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/internal/version"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type WriterTestSuite struct {
	suite.Suite
	dir   string
	start time.Time
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.start = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
}

func (suite *WriterTestSuite) query(path string, query string) *sql.Rows {
	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { db.Close() })

	rows, err := db.Query(fmt.Sprintf(query, path))
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { rows.Close() })

	return rows
}

func (suite *WriterTestSuite) bars() *types.BarSeries {
	return types.NewBarSeries(types.Interval5m, []types.Bar{
		{Time: suite.start, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
			Indicators: map[string]float64{"ATR_14": 0.5, "EMA_20": 100.1}},
		{Time: suite.start.Add(5 * time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 1200,
			Indicators: map[string]float64{"ATR_14": 0.6}},
	})
}

func (suite *WriterTestSuite) TestFormatFromPath() {
	format, err := FormatFromPath("out/results.PARQUET")
	suite.NoError(err)
	suite.Equal(FormatParquet, format)

	format, err = FormatFromPath("results.csv")
	suite.NoError(err)
	suite.Equal(FormatCSV, format)

	_, err = FormatFromPath("results.json")
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *WriterTestSuite) TestBarSeriesRoundTrip() {
	for _, name := range []string{"bars.parquet", "bars.csv"} {
		suite.Run(name, func() {
			path := filepath.Join(suite.dir, name)
			suite.Require().NoError(WriteBarSeries(path, suite.bars()))

			ds, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
			suite.Require().NoError(err)

			defer ds.Close()

			suite.Require().NoError(ds.Initialize(path))

			series, err := ds.Load(types.Interval5m, optional.None[time.Time](), optional.None[time.Time]())
			suite.Require().NoError(err)
			suite.Require().Equal(2, series.Len())

			suite.True(series.Bars[0].Time.Equal(suite.start))
			suite.Equal(100.5, series.Bars[0].Close)
			suite.Equal(map[string]float64{"ATR_14": 0.5, "EMA_20": 100.1}, series.Bars[0].Indicators)
			// missing indicator is written as NULL and read back as absent
			suite.Equal(map[string]float64{"ATR_14": 0.6}, series.Bars[1].Indicators)
		})
	}
}

func (suite *WriterTestSuite) TestWriteBarSeriesNil() {
	err := WriteBarSeries(filepath.Join(suite.dir, "bars.parquet"), nil)
	suite.Equal(errors.ErrCodeBacktestInvalidSeries, errors.GetCode(err))
}

func (suite *WriterTestSuite) TestUnsupportedFormat() {
	w := NewBarsWriter(filepath.Join(suite.dir, "bars.json"), nil)

	err := w.Initialize()
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
	suite.NoError(w.Close())
}

func (suite *WriterTestSuite) TestWriteBeforeInitialize() {
	w := NewTradesWriter(filepath.Join(suite.dir, "trades.parquet"), "run")

	err := w.Write(types.ClosedTrade{})
	suite.Equal(errors.ErrCodeReportWriteFailed, errors.GetCode(err))

	_, err = w.Finalize()
	suite.Equal(errors.ErrCodeReportWriteFailed, errors.GetCode(err))
}

func (suite *WriterTestSuite) TestTradesWriter() {
	path := filepath.Join(suite.dir, "trades.parquet")
	trades := []types.ClosedTrade{
		{
			Position: types.Position{
				Direction:      types.DirectionLong,
				EntryTime:      suite.start,
				EntryPrice:     100.01,
				StopLoss:       99,
				TakeProfit:     103,
				Size:           99.99,
				CapitalAtEntry: 10000,
			},
			ExitTime:       suite.start.Add(5 * time.Minute),
			ExitPrice:      98.99,
			ExitReason:     types.ExitReasonStopLoss,
			Fee:            1,
			PnL:            -102.99,
			ClosingBalance: 9897.01,
		},
		{
			Position: types.Position{
				Direction:      types.DirectionShort,
				EntryTime:      suite.start.Add(10 * time.Minute),
				EntryPrice:     99,
				StopLoss:       100,
				TakeProfit:     97,
				Size:           99.97,
				CapitalAtEntry: 9897.01,
			},
			ExitTime:       suite.start.Add(15 * time.Minute),
			ExitPrice:      97.01,
			ExitReason:     types.ExitReasonTakeProfit,
			Fee:            1,
			PnL:            197.9,
			ClosingBalance: 10094.91,
		},
	}

	w := NewTradesWriter(path, "run-1")
	suite.Equal(path, w.GetOutputPath())
	suite.Require().NoError(w.Initialize())

	for _, trade := range trades {
		suite.Require().NoError(w.Write(trade))
	}

	out, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Equal(path, out)
	suite.NoError(w.Close())

	rows := suite.query(path, `SELECT run_id, direction, exit_reason, pnl FROM read_parquet('%s') ORDER BY entry_time`)

	var got []string

	for rows.Next() {
		var (
			runID, direction, reason string
			pnl                      float64
		)

		suite.Require().NoError(rows.Scan(&runID, &direction, &reason, &pnl))
		got = append(got, fmt.Sprintf("%s %s %s %.2f", runID, direction, reason, pnl))
	}

	suite.Equal([]string{
		"run-1 LONG stop_loss -102.99",
		"run-1 SHORT take_profit 197.90",
	}, got)
}

func (suite *WriterTestSuite) TestWriteTradesEmpty() {
	path := filepath.Join(suite.dir, "trades.csv")
	suite.Require().NoError(WriteTrades(path, "run", nil))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), "run_id,direction")
}

func (suite *WriterTestSuite) results() []types.SearchResult {
	return []types.SearchResult{
		{
			Parameters: types.ParameterSet{"breakout_window": 20, "atr_multiplier_sl": 2.5, "ema_trend_filter": true},
			Result:     types.BacktestResult{ID: "a", InitialBalance: 10000, FinalBalance: 11000, TotalTrades: 4, WinningTrades: 3, WinRate: 75},
		},
		{
			Parameters: types.ParameterSet{"breakout_window": 30, "atr_multiplier_sl": 3, "ema_trend_filter": false},
			Result:     types.BacktestResult{ID: "b", InitialBalance: 10000, FinalBalance: 9000, TotalTrades: 2, WinningTrades: 0},
		},
	}
}

func (suite *WriterTestSuite) TestResultsWriter() {
	path := filepath.Join(suite.dir, "results.parquet")
	suite.Require().NoError(WriteResults(path, suite.results()))

	rows := suite.query(path, `SELECT atr_multiplier_sl, breakout_window, ema_trend_filter, run_id, profit_percent, total_trades FROM read_parquet('%s') ORDER BY run_id`)

	type row struct {
		sl        float64
		window    float64
		ema       bool
		runID     string
		profit    float64
		numTrades int64
	}

	var got []row

	for rows.Next() {
		var r row
		suite.Require().NoError(rows.Scan(&r.sl, &r.window, &r.ema, &r.runID, &r.profit, &r.numTrades))
		got = append(got, r)
	}

	suite.Equal([]row{
		{sl: 2.5, window: 20, ema: true, runID: "a", profit: 10, numTrades: 4},
		{sl: 3, window: 30, ema: false, runID: "b", profit: -10, numTrades: 2},
	}, got)
}

func (suite *WriterTestSuite) TestResultsWriterMixedKinds() {
	path := filepath.Join(suite.dir, "results.csv")
	results := []types.SearchResult{
		{Parameters: types.ParameterSet{"mode": 1}, Result: types.BacktestResult{ID: "a"}},
		{Parameters: types.ParameterSet{"mode": "fast"}, Result: types.BacktestResult{ID: "b"}},
		{Parameters: types.ParameterSet{}, Result: types.BacktestResult{ID: "c"}},
	}
	suite.Require().NoError(WriteResults(path, results))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), "mode,run_id")
	suite.Contains(string(data), "fast,b")
}

func (suite *WriterTestSuite) TestKinds() {
	suite.Equal("BOOLEAN", kindOf(true))
	suite.Equal("DOUBLE", kindOf(2))
	suite.Equal("DOUBLE", kindOf(2.5))
	suite.Equal("TEXT", kindOf("x"))
	suite.Equal("DOUBLE", mergeKind("", "DOUBLE"))
	suite.Equal("TEXT", mergeKind("DOUBLE", "BOOLEAN"))
}

func (suite *WriterTestSuite) TestSearchReport() {
	path := filepath.Join(suite.dir, "report.yaml")
	summary := optimizer.Summary{RunID: "search-1", Total: 3, Rejected: 1, Succeeded: 2, Duration: 3 * time.Second}

	report := NewSearchReport(summary, suite.results())
	suite.Equal(version.GetVersion(), report.Version)
	suite.Equal("search-1", report.RunID)
	suite.Require().NoError(WriteSearchReport(path, report))

	read, err := ReadSearchReport(path)
	suite.Require().NoError(err)
	suite.Equal(summary, read.Summary)
	suite.Len(read.Results, 2)
	suite.Equal(11000.0, read.Results[0].Result.FinalBalance)

	// keys survive the yaml round trip so a resumed search skips these sets
	suite.Equal(report.Keys(), read.Keys())
	suite.Equal("atr_multiplier_sl=2.5,breakout_window=20,ema_trend_filter=true", read.Keys()[0])
}

func (suite *WriterTestSuite) TestReadSearchReportErrors() {
	_, err := ReadSearchReport(filepath.Join(suite.dir, "missing.yaml"))
	suite.Equal(errors.ErrCodeReportReadFailed, errors.GetCode(err))

	invalid := filepath.Join(suite.dir, "invalid.yaml")
	suite.Require().NoError(os.WriteFile(invalid, []byte("results: ["), 0o600))
	_, err = ReadSearchReport(invalid)
	suite.Equal(errors.ErrCodeReportReadFailed, errors.GetCode(err))

	old := filepath.Join(suite.dir, "old.yaml")
	suite.Require().NoError(os.WriteFile(old, []byte("version: v0.1.0\nrun_id: x\n"), 0o600))
	_, err = ReadSearchReport(old)
	suite.Equal(errors.ErrCodeReportVersionMismatch, errors.GetCode(err))
}
