package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	path   string
}

// NewDataSource opens a DuckDB database at path (":memory:" for an
// in-memory database). Bar files are attached later with Initialize.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		path:   "",
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "bar file %s not found", path)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported bar file type %s", filepath.Ext(path))
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// CREATE VIEW is not supported by squirrel
	query := fmt.Sprintf(`CREATE VIEW bars AS SELECT * FROM %s('%s');`, reader, strings.ReplaceAll(path, "'", "''"))
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}

	d.path = path

	return d.checkColumns()
}

func (d *DuckDBDataSource) checkColumns() error {
	rows, err := d.db.Query(`SELECT * FROM bars LIMIT 0`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect bar columns", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to get columns", err)
	}

	for _, required := range RequiredColumns {
		if !slices.Contains(columns, required) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "bar file %s has no %s column", d.path, required)
		}
	}

	return nil
}

func (d *DuckDBDataSource) withRange(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return builder
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, params, err := d.withRange(d.sq.Select("COUNT(*)").From("bars"), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		query, params, err := d.withRange(d.sq.Select("*").From("bars"), start, end).OrderBy("time ASC").ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err))

			return
		}

		rows, err := d.db.Query(query, params...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get columns", err))

			return
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		for rows.Next() {
			if err := rows.Scan(valuePtrs...); err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err))

				return
			}

			bar, err := barFromRow(columns, values)
			if err != nil {
				yield(types.Bar{}, err)

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err))
		}
	}
}

// Load implements DataSource.
func (d *DuckDBDataSource) Load(interval types.Interval, start optional.Option[time.Time], end optional.Option[time.Time]) (*types.BarSeries, error) {
	var bars []types.Bar

	for bar, err := range d.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	series := types.NewBarSeries(interval, bars)
	if err := series.Validate(); err != nil {
		return nil, err
	}

	d.logger.Debug("Bars loaded",
		zap.String("path", d.path),
		zap.String("interval", string(interval)),
		zap.Int("count", series.Len()),
	)

	return series, nil
}

// barFromRow maps a scanned row to a Bar. NULL and non-numeric extra
// columns are skipped.
func barFromRow(columns []string, values []any) (types.Bar, error) {
	bar := types.Bar{
		Time:       time.Time{},
		Open:       0,
		High:       0,
		Low:        0,
		Close:      0,
		Volume:     0,
		Indicators: make(map[string]float64, len(columns)-len(RequiredColumns)),
	}

	for i, column := range columns {
		value := values[i]

		if column == "time" {
			t, err := toTime(value)
			if err != nil {
				return bar, err
			}

			bar.Time = t

			continue
		}

		number, ok := toFloat(value)

		switch column {
		case "open", "high", "low", "close", "volume":
			if !ok {
				return bar, errors.Newf(errors.ErrCodeInvalidType, "column %s is %T, not a number", column, value)
			}
		}

		switch column {
		case "open":
			bar.Open = number
		case "high":
			bar.High = number
		case "low":
			bar.Low = number
		case "close":
			bar.Close = number
		case "volume":
			bar.Volume = number
		default:
			if ok {
				bar.Indicators[column] = number
			}
		}
	}

	return bar, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case int:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	default:
		return 0, false
	}
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, errors.Wrapf(errors.ErrCodeInvalidType, err, "invalid time %q", v)
		}

		return t, nil
	default:
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidType, "time column is %T", value)
	}
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}
