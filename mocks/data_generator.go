package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-optimizer/internal/indicator"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// DataGenerator generates synthetic bar series for tests and the generate command.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartTime is the time of the first fast bar
	StartTime time.Time
	// Interval is the duration between fast bars
	Interval time.Duration
	// FastInterval labels the fast series
	FastInterval types.Interval
	// SlowInterval labels the slow series
	SlowInterval types.Interval
	// SlowFactor is the number of fast bars aggregated into one slow bar
	SlowFactor int
	// Count is the number of fast bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical volatility per bar)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:       5 * time.Minute,
		FastInterval:   types.Interval5m,
		SlowInterval:   types.Interval15m,
		SlowFactor:     3,
		Count:          10000,
		InitialPrice:   100.0,
		Volatility:     0.002, // 0.2% per bar
		Trend:          0.0,   // neutral
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates fast bars without indicator columns.
// The generated data follows a geometric Brownian motion model for realistic price movements.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal sample
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count) // Distribute trend across bars

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99 // Prevent negative prices
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance

		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:       currentTime,
			Open:       roundToDecimals(open, 4),
			High:       roundToDecimals(high, 4),
			Low:        roundToDecimals(low, 4),
			Close:      roundToDecimals(close, 4),
			Volume:     roundToDecimals(volume, 2),
			Indicators: nil,
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// GenerateSeries generates a fast series and the slow series aggregated from
// it, both carrying the momentum breakout indicator columns.
func (g *DataGenerator) GenerateSeries(config GeneratorConfig) (*types.BarSeries, *types.BarSeries, error) {
	bars := g.Generate(config)
	registry := indicator.NewMomentumBreakoutRegistry()

	fast, err := registry.Apply(types.NewBarSeries(config.FastInterval, bars))
	if err != nil {
		return nil, nil, err
	}

	slow, err := registry.Apply(types.NewBarSeries(config.SlowInterval, Aggregate(bars, config.SlowFactor)))
	if err != nil {
		return nil, nil, err
	}

	return fast, slow, nil
}

// Aggregate merges every factor consecutive bars into one. A slow bar is
// stamped with the time of its last fast bar, so it is only visible once
// complete. A trailing partial group is dropped.
func Aggregate(bars []types.Bar, factor int) []types.Bar {
	if factor <= 1 {
		return append([]types.Bar(nil), bars...)
	}

	out := make([]types.Bar, 0, len(bars)/factor)

	for start := 0; start+factor <= len(bars); start += factor {
		group := bars[start : start+factor]
		merged := types.Bar{
			Time:       group[factor-1].Time,
			Open:       group[0].Open,
			High:       group[0].High,
			Low:        group[0].Low,
			Close:      group[factor-1].Close,
			Volume:     0,
			Indicators: nil,
		}

		for _, bar := range group {
			merged.High = math.Max(merged.High, bar.High)
			merged.Low = math.Min(merged.Low, bar.Low)
			merged.Volume += bar.Volume
		}

		merged.Volume = roundToDecimals(merged.Volume, 2)
		out = append(out, merged)
	}

	return out
}

// Generate10K is a convenience function to generate 10,000 fast bars and
// their slow series with default settings.
func Generate10K() (*types.BarSeries, *types.BarSeries, error) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 10000

	return gen.GenerateSeries(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
