package types

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

// Bar is one OHLCV record with the indicator columns that were computed
// upstream. Bars are never mutated once loaded.
type Bar struct {
	Time       time.Time          `yaml:"time" json:"time"`
	Open       float64            `yaml:"open" json:"open"`
	High       float64            `yaml:"high" json:"high"`
	Low        float64            `yaml:"low" json:"low"`
	Close      float64            `yaml:"close" json:"close"`
	Volume     float64            `yaml:"volume" json:"volume"`
	Indicators map[string]float64 `yaml:"indicators" json:"indicators"`
}

// Indicator returns the named indicator value and whether it exists.
func (b Bar) Indicator(name string) (float64, bool) {
	value, ok := b.Indicators[name]

	return value, ok
}

// RequireIndicator returns the named indicator value or an
// ErrCodeIndicatorNotFound error.
func (b Bar) RequireIndicator(name string) (float64, error) {
	value, ok := b.Indicators[name]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeIndicatorNotFound,
			"indicator %s not found on bar at %s", name, b.Time.Format(time.RFC3339))
	}

	return value, nil
}

// BarSeries is an ordered sequence of bars at one interval.
type BarSeries struct {
	Interval Interval
	Bars     []Bar
}

func NewBarSeries(interval Interval, bars []Bar) *BarSeries {
	return &BarSeries{
		Interval: interval,
		Bars:     bars,
	}
}

func (s *BarSeries) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Bars)
}

// Validate checks that timestamps are strictly increasing.
func (s *BarSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.After(s.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeBacktestInvalidSeries,
				"%s series is not strictly increasing at index %d (%s after %s)",
				s.Interval, i, s.Bars[i].Time.Format(time.RFC3339), s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// Window returns the bars up to and including index end. A positive
// lookback keeps only the last lookback bars. The returned slice has its
// capacity clipped, so appending to it never writes into the series.
func (s *BarSeries) Window(end int, lookback int) []Bar {
	if end < 0 || len(s.Bars) == 0 {
		return nil
	}

	if end >= len(s.Bars) {
		end = len(s.Bars) - 1
	}

	hi := end + 1
	lo := 0

	if lookback > 0 && hi-lookback > 0 {
		lo = hi - lookback
	}

	return s.Bars[lo:hi:hi]
}

// IndexAtOrBefore returns the index of the last bar with Time <= t,
// or -1 when every bar is later than t.
func (s *BarSeries) IndexAtOrBefore(t time.Time) int {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Time.After(t)
	})

	return idx - 1
}

// IndexRange returns the half-open index range [lo, hi) of bars inside
// [start, end]. Missing bounds are open.
func (s *BarSeries) IndexRange(start optional.Option[time.Time], end optional.Option[time.Time]) (int, int) {
	lo := 0
	hi := len(s.Bars)

	if start.IsSome() {
		startTime := start.Unwrap()
		lo = sort.Search(len(s.Bars), func(i int) bool {
			return !s.Bars[i].Time.Before(startTime)
		})
	}

	if end.IsSome() {
		hi = s.IndexAtOrBefore(end.Unwrap()) + 1
	}

	if hi < lo {
		hi = lo
	}

	return lo, hi
}

// Between returns a series restricted to [start, end]. Missing bounds are open.
func (s *BarSeries) Between(start optional.Option[time.Time], end optional.Option[time.Time]) *BarSeries {
	lo, hi := s.IndexRange(start, end)

	return NewBarSeries(s.Interval, s.Bars[lo:hi:hi])
}
