package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// Columns every bar file must provide. Any other numeric column is read as
// an indicator.
var RequiredColumns = []string{"time", "open", "high", "low", "close", "volume"}

type DataSource interface {
	// Initialize points the data source at a parquet or csv bar file
	Initialize(path string) error
	// ReadAll reads the bars in time order and yields them to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Load reads the bars into a validated series
	Load(interval types.Interval, start optional.Option[time.Time], end optional.Option[time.Time]) (*types.BarSeries, error)
	// Count returns the number of bars in the range
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}
