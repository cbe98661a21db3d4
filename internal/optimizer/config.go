package optimizer

import (
	"encoding/json"
	"os"
	"reflect"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SearchConfig describes which parameter sets a search evaluates and how.
type SearchConfig struct {
	Parameters      ParameterGrid `yaml:"parameters" json:"parameters" jsonschema:"title=Parameters,description=Candidate values per strategy parameter" validate:"required,min=1"`
	SampleSize      int           `yaml:"sample_size" json:"sample_size" jsonschema:"title=Sample Size,description=Number of distinct combinations drawn from the grid (0 evaluates all),minimum=0,default=100" validate:"gte=0"`
	Seed            uint64        `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Seed of the sampler,default=42"`
	MaxCombinations int           `yaml:"max_combinations" json:"max_combinations" jsonschema:"title=Max Combinations,description=Upper bound on the number of combinations a full enumeration may produce,minimum=1,default=10000" validate:"gte=1"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"title=Timeout,description=Wall-clock budget of one backtest (for example 60s),default=60s" validate:"gt=0"`
	Workers         int           `yaml:"workers" json:"workers" jsonschema:"title=Workers,description=Concurrent backtests (0 uses the CPU count minus one),minimum=0,default=0" validate:"gte=0"`
}

// DefaultSearchConfig returns the momentum breakout grid the strategy was
// originally tuned with.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Parameters: ParameterGrid{
			"breakout_window":       {10, 20, 30, 50},
			"ema_trend_filter":      {true},
			"atr_multiplier_sl":     {2.0, 2.5, 3.0, 4.0},
			"atr_multiplier_tp":     {2.5, 3.0, 4.0, 5.0},
			"min_candle_body_ratio": {0.3, 0.5, 0.7},
			"min_adx_15m":           {10, 20},
			"min_atr_threshold":     {0.05, 0.1, 0.2},
		},
		SampleSize:      100,
		Seed:            42,
		MaxCombinations: 10000,
		Timeout:         60 * time.Second,
		Workers:         0,
	}
}

// UnmarshalYAML decodes the config on top of the defaults. A parameters
// block replaces the default grid entirely.
func (c *SearchConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain SearchConfig

	config := plain(DefaultSearchConfig())
	config.Parameters = nil

	if err := value.Decode(&config); err != nil {
		return err
	}

	if config.Parameters == nil {
		config.Parameters = DefaultSearchConfig().Parameters
	}

	*c = SearchConfig(config)

	return nil
}

func (c *SearchConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid search config", err)
	}

	for _, name := range c.Parameters.Names() {
		if len(c.Parameters[name]) == 0 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "parameter %s has no values", name)
		}
	}

	return nil
}

// ResolveWorkers returns the configured worker count, or the CPU count
// minus one (at least one) when unset.
func (c *SearchConfig) ResolveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return max(runtime.NumCPU()-1, 1)
}

// GenerateSchemaJSON generates a JSON schema string for the SearchConfig.
func (c *SearchConfig) GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "search-config"
	schema.Description = "Configuration schema for a parameter search"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// LoadSearchConfig reads and validates a yaml search config.
func LoadSearchConfig(path string) (SearchConfig, error) {
	config := DefaultSearchConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read search config %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse search config %s", path)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}
