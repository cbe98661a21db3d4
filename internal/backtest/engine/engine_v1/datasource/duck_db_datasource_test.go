package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const barsCSV = `time,open,high,low,close,volume,ATR_14,EMA_20,label
2024-01-01T09:30:00Z,100,101,99,100.5,1000,0.5,100.1,a
2024-01-01T09:35:00Z,100.5,102,100,101.5,1200,0.6,100.3,b
2024-01-01T09:40:00Z,101.5,103,101,102.5,1500,0.7,100.6,c
2024-01-01T09:45:00Z,102.5,103,101.5,102,900,0.65,100.8,d
`

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	dir        string
	dataSource DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	dataSource, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.dataSource = dataSource
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.NoError(suite.dataSource.Close())
}

func (suite *DuckDBDataSourceTestSuite) writeFile(name string, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

// writeParquet converts a csv file to parquet with a separate DuckDB connection.
func (suite *DuckDBDataSourceTestSuite) writeParquet(csvPath string) string {
	path := strings.TrimSuffix(csvPath, ".csv") + ".parquet"

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	_, err = db.Exec(fmt.Sprintf(`COPY (SELECT * FROM read_csv_auto('%s')) TO '%s' (FORMAT PARQUET)`, csvPath, path))
	suite.Require().NoError(err)

	return path
}

func (suite *DuckDBDataSourceTestSuite) TestLoadCSV() {
	path := suite.writeFile("bars.csv", barsCSV)
	suite.Require().NoError(suite.dataSource.Initialize(path))

	series, err := suite.dataSource.Load(types.Interval5m, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Equal(4, series.Len())
	suite.Equal(types.Interval5m, series.Interval)

	first := series.Bars[0]
	suite.True(first.Time.Equal(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)))
	suite.Equal(100.0, first.Open)
	suite.Equal(101.0, first.High)
	suite.Equal(99.0, first.Low)
	suite.Equal(100.5, first.Close)
	suite.Equal(1000.0, first.Volume)

	atr, ok := first.Indicator("ATR_14")
	suite.True(ok)
	suite.Equal(0.5, atr)

	// non-numeric extra columns are not indicators
	_, ok = first.Indicator("label")
	suite.False(ok)
	suite.Len(first.Indicators, 2)
}

func (suite *DuckDBDataSourceTestSuite) TestLoadParquet() {
	path := suite.writeParquet(suite.writeFile("bars.csv", barsCSV))
	suite.Require().NoError(suite.dataSource.Initialize(path))

	series, err := suite.dataSource.Load(types.Interval5m, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Equal(4, series.Len())
	suite.Equal(102.0, series.Bars[3].Close)

	ema, err := series.Bars[3].RequireIndicator("EMA_20")
	suite.NoError(err)
	suite.Equal(100.8, ema)
}

func (suite *DuckDBDataSourceTestSuite) TestRange() {
	path := suite.writeFile("bars.csv", barsCSV)
	suite.Require().NoError(suite.dataSource.Initialize(path))

	start := optional.Some(time.Date(2024, 1, 1, 9, 35, 0, 0, time.UTC))
	end := optional.Some(time.Date(2024, 1, 1, 9, 40, 0, 0, time.UTC))

	count, err := suite.dataSource.Count(start, end)
	suite.NoError(err)
	suite.Equal(2, count)

	count, err = suite.dataSource.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(4, count)

	series, err := suite.dataSource.Load(types.Interval5m, start, end)
	suite.Require().NoError(err)
	suite.Require().Equal(2, series.Len())
	suite.Equal(101.5, series.Bars[0].Close)
	suite.Equal(102.5, series.Bars[1].Close)
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllStopsEarly() {
	path := suite.writeFile("bars.csv", barsCSV)
	suite.Require().NoError(suite.dataSource.Initialize(path))

	read := 0

	for bar, err := range suite.dataSource.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)
		suite.NotZero(bar.Close)

		read++
		if read == 2 {
			break
		}
	}

	suite.Equal(2, read)
}

func (suite *DuckDBDataSourceTestSuite) TestReinitialize() {
	first := suite.writeFile("first.csv", barsCSV)
	second := suite.writeFile("second.csv", "time,open,high,low,close,volume\n2024-02-01T00:00:00Z,1,2,0.5,1.5,10\n")

	suite.Require().NoError(suite.dataSource.Initialize(first))
	suite.Require().NoError(suite.dataSource.Initialize(second))

	count, err := suite.dataSource.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(1, count)
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeErrors() {
	tests := []struct {
		name string
		path func() string
		code errors.ErrorCode
	}{
		{
			name: "missing file",
			path: func() string { return filepath.Join(suite.dir, "missing.csv") },
			code: errors.ErrCodeDataNotFound,
		},
		{
			name: "unsupported extension",
			path: func() string { return suite.writeFile("bars.json", "{}") },
			code: errors.ErrCodeInvalidParameter,
		},
		{
			name: "missing volume column",
			path: func() string {
				return suite.writeFile("novolume.csv", "time,open,high,low,close\n2024-01-01T09:30:00Z,1,2,0.5,1.5\n")
			},
			code: errors.ErrCodeInvalidParameter,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := suite.dataSource.Initialize(tc.path())
			suite.Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (suite *DuckDBDataSourceTestSuite) TestLoadRejectsDuplicateTimes() {
	path := suite.writeFile("dup.csv", "time,open,high,low,close,volume\n"+
		"2024-01-01T09:30:00Z,1,2,0.5,1.5,10\n"+
		"2024-01-01T09:30:00Z,1,2,0.5,1.5,10\n")
	suite.Require().NoError(suite.dataSource.Initialize(path))

	_, err := suite.dataSource.Load(types.Interval5m, optional.None[time.Time](), optional.None[time.Time]())
	suite.Equal(errors.ErrCodeBacktestInvalidSeries, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestBarFromRow() {
	columns := []string{"time", "open", "high", "low", "close", "volume", "ADX_14", "note"}
	values := []any{"2024-01-01T09:30:00Z", 1.0, int64(2), float32(0.5), int32(1), 10.0, nil, "x"}

	bar, err := barFromRow(columns, values)
	suite.Require().NoError(err)
	suite.Equal(2.0, bar.High)
	suite.Equal(0.5, bar.Low)
	suite.Equal(1.0, bar.Close)
	suite.Empty(bar.Indicators)

	values[1] = "not a number"
	_, err = barFromRow(columns, values)
	suite.Equal(errors.ErrCodeInvalidType, errors.GetCode(err))

	values[1] = 1.0
	values[0] = 42
	_, err = barFromRow(columns, values)
	suite.Equal(errors.ErrCodeInvalidType, errors.GetCode(err))
}
