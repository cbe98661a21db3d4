package writer

import (
	"maps"
	"slices"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// BarsWriter exports bars with their indicator columns, in the layout the
// DuckDB data source reads back.
type BarsWriter struct {
	duckDBTable
	indicators []string
}

// NewBarsWriter creates a writer for bars carrying the given indicator columns.
// Bars missing one of the indicators get NULL in that column.
func NewBarsWriter(outputPath string, indicators []string) Writer[types.Bar] {
	return &BarsWriter{
		duckDBTable: newDuckDBTable("bars", outputPath),
		indicators:  slices.Sorted(slices.Values(indicators)),
	}
}

func (w *BarsWriter) Initialize() error {
	columns := []string{"time", "open", "high", "low", "close", "volume"}
	definitions := []string{"time TIMESTAMP", "open DOUBLE", "high DOUBLE", "low DOUBLE", "close DOUBLE", "volume DOUBLE"}

	for _, name := range w.indicators {
		columns = append(columns, name)
		definitions = append(definitions, quote(name)+" DOUBLE")
	}

	return w.open(columns, definitions)
}

func (w *BarsWriter) Write(bar types.Bar) error {
	values := []any{bar.Time.UTC(), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume}

	for _, name := range w.indicators {
		if value, ok := bar.Indicators[name]; ok {
			values = append(values, value)
		} else {
			values = append(values, nil)
		}
	}

	return w.insert(values...)
}

func (w *BarsWriter) Finalize() (string, error) {
	return w.finalize()
}

func (w *BarsWriter) Close() error {
	return w.close()
}

func (w *BarsWriter) GetOutputPath() string {
	return w.outputPath
}

// WriteBarSeries writes every bar of series to path. The indicator columns
// are the union of the indicators found on the bars.
func WriteBarSeries(path string, series *types.BarSeries) error {
	if series == nil {
		return errors.New(errors.ErrCodeBacktestInvalidSeries, "series is nil")
	}

	names := make(map[string]struct{})
	for _, bar := range series.Bars {
		for name := range bar.Indicators {
			names[name] = struct{}{}
		}
	}

	return writeAll(NewBarsWriter(path, slices.Collect(maps.Keys(names))), series.Bars)
}

// writeAll initializes w, writes every record and finalizes.
func writeAll[T any](w Writer[T], records []T) error {
	if err := w.Initialize(); err != nil {
		return err
	}
	defer w.Close()

	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	_, err := w.Finalize()

	return err
}
