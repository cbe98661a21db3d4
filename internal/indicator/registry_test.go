package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockIndicator is a simple mock indicator for testing the registry
type mockIndicator struct {
	name  string
	value float64
	err   error
}

func (m *mockIndicator) Name() string {
	return m.name
}

func (m *mockIndicator) Config(params ...any) error {
	return nil
}

func (m *mockIndicator) Compute(bars []types.Bar) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}

	values := make([]float64, len(bars))
	for i := range values {
		values[i] = m.value
	}

	return values, nil
}

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestRegisterIndicator() {
	registry := NewIndicatorRegistry()

	indicator := &mockIndicator{name: "MOCK"}
	suite.NoError(registry.RegisterIndicator(indicator))

	retrieved, err := registry.GetIndicator("MOCK")
	suite.NoError(err)
	suite.Equal(indicator, retrieved)
}

func (suite *RegistryTestSuite) TestRegisterDuplicate() {
	registry := NewIndicatorRegistry()

	suite.NoError(registry.RegisterIndicator(&mockIndicator{name: "MOCK"}))
	err := registry.RegisterIndicator(&mockIndicator{name: "MOCK"})
	suite.Error(err)
	suite.Contains(err.Error(), "already registered")
}

func (suite *RegistryTestSuite) TestGetAndRemoveMissing() {
	registry := NewIndicatorRegistry()

	_, err := registry.GetIndicator("MISSING")
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))

	err = registry.RemoveIndicator("MISSING")
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}

func (suite *RegistryTestSuite) TestListAndRemove() {
	registry := NewIndicatorRegistry()
	suite.NoError(registry.RegisterIndicator(&mockIndicator{name: "B"}))
	suite.NoError(registry.RegisterIndicator(&mockIndicator{name: "A"}))

	suite.Equal([]string{"A", "B"}, registry.ListIndicators())

	suite.NoError(registry.RemoveIndicator("A"))
	suite.Equal([]string{"B"}, registry.ListIndicators())
}

func (suite *RegistryTestSuite) TestMomentumBreakoutRegistry() {
	registry := NewMomentumBreakoutRegistry()
	suite.Equal([]string{"ADX_14", "ATR_14", "EMA_20", "EMA_50"}, registry.ListIndicators())
}

func (suite *RegistryTestSuite) TestApply() {
	registry := NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(&mockIndicator{name: "MOCK", value: 7}))

	bars := testBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
	)
	bars[0].Indicators = map[string]float64{"EXISTING": 1}
	series := types.NewBarSeries(types.Interval1m, bars)

	enriched, err := registry.Apply(series)
	suite.Require().NoError(err)
	suite.Require().Equal(2, enriched.Len())

	suite.Equal(map[string]float64{"EXISTING": 1, "MOCK": 7}, enriched.Bars[0].Indicators)
	suite.Equal(map[string]float64{"MOCK": 7}, enriched.Bars[1].Indicators)

	// input untouched
	suite.Equal(map[string]float64{"EXISTING": 1}, series.Bars[0].Indicators)
	suite.Nil(series.Bars[1].Indicators)
}

func (suite *RegistryTestSuite) TestApplyErrors() {
	registry := NewIndicatorRegistry()

	_, err := registry.Apply(nil)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestInvalidSeries))

	suite.Require().NoError(registry.RegisterIndicator(&mockIndicator{name: "BROKEN", err: errors.New(errors.ErrCodeUnknown, "boom")}))

	_, err = registry.Apply(types.NewBarSeries(types.Interval1m, testBars([4]float64{1, 1, 1, 1})))
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorCalculation))
}
