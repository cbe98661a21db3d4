package engine

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting balance of every run,exclusiveMinimum=0,default=10000" validate:"gt=0"`
	Slippage       float64                    `yaml:"slippage" json:"slippage" jsonschema:"title=Slippage,description=Absolute price offset applied against the trader on entries and stop/target exits,minimum=0,default=0.01" validate:"gte=0"`
	Broker         commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations" validate:"oneof=flat_rate zero_commission"`
	FeeRate        float64                    `yaml:"fee_rate" json:"fee_rate" jsonschema:"title=Fee Rate,description=Fraction of the capital at entry charged per closed trade by the flat_rate broker,minimum=0,default=0.0001" validate:"gte=0"`
	MinFastBars    int                        `yaml:"min_fast_bars" json:"min_fast_bars" jsonschema:"title=Minimum Fast Bars,description=Fast bars required before the agent is asked for a decision,minimum=1,default=1" validate:"gte=1"`
	MinSlowBars    int                        `yaml:"min_slow_bars" json:"min_slow_bars" jsonschema:"title=Minimum Slow Bars,description=Slow bars at or before the current time required before the agent is asked for a decision,minimum=0,default=1" validate:"gte=0"`
	FastLookback   int                        `yaml:"fast_lookback" json:"fast_lookback" jsonschema:"title=Fast Lookback,description=Maximum fast bars passed to the agent (0 passes all history),minimum=0,default=0" validate:"gte=0"`
	SlowLookback   int                        `yaml:"slow_lookback" json:"slow_lookback" jsonschema:"title=Slow Lookback,description=Maximum slow bars passed to the agent (0 passes all history),minimum=0,default=0" validate:"gte=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML decodes the config on top of the defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	defaults := EmptyConfig()

	config := struct {
		InitialCapital float64               `yaml:"initial_capital"`
		Slippage       float64               `yaml:"slippage"`
		Broker         commission_fee.Broker `yaml:"broker"`
		FeeRate        float64               `yaml:"fee_rate"`
		MinFastBars    int                   `yaml:"min_fast_bars"`
		MinSlowBars    int                   `yaml:"min_slow_bars"`
		FastLookback   int                   `yaml:"fast_lookback"`
		SlowLookback   int                   `yaml:"slow_lookback"`
		StartTime      *time.Time            `yaml:"start_time"`
		EndTime        *time.Time            `yaml:"end_time"`
	}{
		InitialCapital: defaults.InitialCapital,
		Slippage:       defaults.Slippage,
		Broker:         defaults.Broker,
		FeeRate:        defaults.FeeRate,
		MinFastBars:    defaults.MinFastBars,
		MinSlowBars:    defaults.MinSlowBars,
		FastLookback:   defaults.FastLookback,
		SlowLookback:   defaults.SlowLookback,
		StartTime:      nil,
		EndTime:        nil,
	}

	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Slippage = config.Slippage
	c.Broker = config.Broker
	c.FeeRate = config.FeeRate
	c.MinFastBars = config.MinFastBars
	c.MinSlowBars = config.MinSlowBars
	c.FastLookback = config.FastLookback
	c.SlowLookback = config.SlowLookback
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks field ranges and the relation between lookbacks and minimum bars.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.FastLookback > 0 && c.FastLookback < c.MinFastBars {
		return errors.Newf(errors.ErrCodeBacktestConfigError,
			"fast_lookback %d is smaller than min_fast_bars %d", c.FastLookback, c.MinFastBars)
	}

	if c.SlowLookback > 0 && c.SlowLookback < c.MinSlowBars {
		return errors.Newf(errors.ErrCodeBacktestConfigError,
			"slow_lookback %d is smaller than min_slow_bars %d", c.SlowLookback, c.MinSlowBars)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time is before start_time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// LoadConfig reads and validates a yaml config file.
func LoadConfig(path string) (BacktestEngineV1Config, error) {
	config := EmptyConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to parse config %s", path)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: 10000,
		Slippage:       0.01,
		Broker:         commission_fee.BrokerFlatRate,
		FeeRate:        0.0001,
		MinFastBars:    1,
		MinSlowBars:    1,
		FastLookback:   0,
		SlowLookback:   0,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
