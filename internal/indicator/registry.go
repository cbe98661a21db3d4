package indicator

import (
	"maps"
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// IndicatorRegistry manages the indicators attached to bar series.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name string) (Indicator, error)
	ListIndicators() []string
	RemoveIndicator(name string) error
	// Apply returns a copy of series with every registered indicator added as
	// a column. The input series is not modified.
	Apply(series *types.BarSeries) (*types.BarSeries, error)
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[string]Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[string]Indicator),
		mu:         sync.RWMutex{},
	}
}

// NewMomentumBreakoutRegistry registers the columns the momentum breakout
// strategy reads: ATR_14, ADX_14, EMA_20 and EMA_50.
func NewMomentumBreakoutRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()

	ema50 := NewEMA()
	// period 50 is always valid
	_ = ema50.Config(50)

	for _, indicator := range []Indicator{NewATR(), NewADX(), NewEMA(), ema50} {
		// names are distinct
		_ = registry.RegisterIndicator(indicator)
	}

	return registry
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "RegisterIndicator: indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name string) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "GetIndicator: indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the registered indicator names in sorted order.
func (r *IndicatorRegistryV1) ListIndicators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.indicators))
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}

func (r *IndicatorRegistryV1) Apply(series *types.BarSeries) (*types.BarSeries, error) {
	if series == nil {
		return nil, errors.New(errors.ErrCodeBacktestInvalidSeries, "series is nil")
	}

	bars := make([]types.Bar, len(series.Bars))
	for i, bar := range series.Bars {
		bar.Indicators = maps.Clone(bar.Indicators)
		if bar.Indicators == nil {
			bar.Indicators = make(map[string]float64)
		}

		bars[i] = bar
	}

	for _, name := range r.ListIndicators() {
		indicator, err := r.GetIndicator(name)
		if err != nil {
			return nil, err
		}

		values, err := indicator.Compute(series.Bars)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to compute %s", name)
		}

		for i, value := range values {
			bars[i].Indicators[name] = value
		}
	}

	return types.NewBarSeries(series.Interval, bars), nil
}
