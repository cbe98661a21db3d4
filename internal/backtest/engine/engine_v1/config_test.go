package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(0.01, config.Slippage)
	suite.Equal(commission_fee.BrokerFlatRate, config.Broker)
	suite.Equal(0.0001, config.FeeRate)
	suite.Equal(1, config.MinFastBars)
	suite.Equal(1, config.MinSlowBars)
	suite.Equal(0, config.FastLookback)
	suite.Equal(0, config.SlowLookback)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig(startTime, endTime, commission_fee.BrokerZero)

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(commission_fee.BrokerZero, config.Broker)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
}

func (suite *ConfigTestSuite) TestValidate() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		modify      func(c *BacktestEngineV1Config)
		expectError bool
	}{
		{name: "defaults", modify: func(c *BacktestEngineV1Config) {}, expectError: false},
		{name: "zero capital", modify: func(c *BacktestEngineV1Config) { c.InitialCapital = 0 }, expectError: true},
		{name: "negative slippage", modify: func(c *BacktestEngineV1Config) { c.Slippage = -0.01 }, expectError: true},
		{name: "unknown broker", modify: func(c *BacktestEngineV1Config) { c.Broker = "unknown" }, expectError: true},
		{name: "negative fee rate", modify: func(c *BacktestEngineV1Config) { c.FeeRate = -1 }, expectError: true},
		{name: "zero min fast bars", modify: func(c *BacktestEngineV1Config) { c.MinFastBars = 0 }, expectError: true},
		{name: "fast lookback below min bars", modify: func(c *BacktestEngineV1Config) {
			c.MinFastBars = 22
			c.FastLookback = 10
		}, expectError: true},
		{name: "slow lookback below min bars", modify: func(c *BacktestEngineV1Config) {
			c.MinSlowBars = 50
			c.SlowLookback = 20
		}, expectError: true},
		{name: "lookbacks cover min bars", modify: func(c *BacktestEngineV1Config) {
			c.MinFastBars = 22
			c.FastLookback = 22
			c.MinSlowBars = 50
			c.SlowLookback = 100
		}, expectError: false},
		{name: "end before start", modify: func(c *BacktestEngineV1Config) {
			c.StartTime = optional.Some(start)
			c.EndTime = optional.Some(start.Add(-time.Hour))
		}, expectError: true},
		{name: "end equals start", modify: func(c *BacktestEngineV1Config) {
			c.StartTime = optional.Some(start)
			c.EndTime = optional.Some(start)
		}, expectError: false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			tc.modify(&config)

			err := config.Validate()
			if tc.expectError {
				suite.Error(err)
				suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]any
	err = json.Unmarshal([]byte(schemaJSON), &result)
	suite.NoError(err)

	suite.Equal("backtest-engine-v1-config", result["title"])

	properties, ok := result["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "slippage")
	suite.Contains(properties, "min_slow_bars")

	broker, ok := properties["broker"].(map[string]any)
	suite.Require().True(ok)
	suite.ElementsMatch([]any{"flat_rate", "zero_commission"}, broker["enum"])
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
initial_capital: 50000
slippage: 0.05
broker: zero_commission
fee_rate: 0.001
min_fast_bars: 22
min_slow_bars: 50
fast_lookback: 100
slow_lookback: 200
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(50000.0, config.InitialCapital)
	suite.Equal(0.05, config.Slippage)
	suite.Equal(commission_fee.BrokerZero, config.Broker)
	suite.Equal(0.001, config.FeeRate)
	suite.Equal(22, config.MinFastBars)
	suite.Equal(50, config.MinSlowBars)
	suite.Equal(100, config.FastLookback)
	suite.Equal(200, config.SlowLookback)
	suite.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLKeepsDefaults() {
	yamlData := `
initial_capital: 25000
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(25000.0, config.InitialCapital)
	suite.Equal(0.01, config.Slippage)
	suite.Equal(commission_fee.BrokerFlatRate, config.Broker)
	suite.Equal(0.0001, config.FeeRate)
	suite.Equal(1, config.MinFastBars)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLOnlyStartTime() {
	yamlData := `
start_time: 2024-06-01T00:00:00Z
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.True(config.StartTime.IsSome())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_capital: not_a_number
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	dir := suite.T().TempDir()

	valid := filepath.Join(dir, "valid.yaml")
	suite.Require().NoError(os.WriteFile(valid, []byte("initial_capital: 2000\nbroker: zero_commission\n"), 0o600))

	config, err := LoadConfig(valid)
	suite.NoError(err)
	suite.Equal(2000.0, config.InitialCapital)
	suite.Equal(commission_fee.BrokerZero, config.Broker)

	invalid := filepath.Join(dir, "invalid.yaml")
	suite.Require().NoError(os.WriteFile(invalid, []byte("initial_capital: -1\n"), 0o600))

	_, err = LoadConfig(invalid)
	suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))
}
