package strategy

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

const MomentumBreakoutName = "MomentumBreakout"

// Indicator columns read by the momentum breakout agent.
const (
	IndicatorATR14 = "ATR_14"
	IndicatorADX14 = "ADX_14"
	IndicatorEMA20 = "EMA_20"
	IndicatorEMA50 = "EMA_50"
)

// MomentumBreakoutConfig holds the tunable parameters of the momentum breakout agent.
type MomentumBreakoutConfig struct {
	BreakoutWindow     int     `yaml:"breakout_window" json:"breakout_window" jsonschema:"title=Breakout Window,description=Number of fast bars before the current one that define the breakout range,minimum=1,default=20" validate:"gt=0"`
	EMATrendFilter     bool    `yaml:"ema_trend_filter" json:"ema_trend_filter" jsonschema:"title=EMA Trend Filter,description=Require EMA_20 above EMA_50 on the slow bars for longs and below for shorts,default=true"`
	AtrMultiplierSL    float64 `yaml:"atr_multiplier_sl" json:"atr_multiplier_sl" jsonschema:"title=ATR Multiplier Stop Loss,description=Stop loss distance from entry in ATR units,exclusiveMinimum=0,default=1.5" validate:"gt=0,ltfield=AtrMultiplierTP"`
	AtrMultiplierTP    float64 `yaml:"atr_multiplier_tp" json:"atr_multiplier_tp" jsonschema:"title=ATR Multiplier Take Profit,description=Take profit distance from entry in ATR units,exclusiveMinimum=0,default=2.5" validate:"gt=0"`
	VolumeConfirmation bool    `yaml:"volume_confirmation" json:"volume_confirmation" jsonschema:"title=Volume Confirmation,description=Require volume above the mean of the breakout window,default=true"`
	MinCandleBodyRatio float64 `yaml:"min_candle_body_ratio" json:"min_candle_body_ratio" jsonschema:"title=Minimum Candle Body Ratio,description=Minimum body to range ratio of the current bar,minimum=0,maximum=1,default=0.6" validate:"gte=0,lte=1"`
	MinADX15m          float64 `yaml:"min_adx_15m" json:"min_adx_15m" jsonschema:"title=Minimum ADX,description=Minimum ADX_14 on the latest slow bar,minimum=0,default=20" validate:"gte=0"`
	MinATRThreshold    float64 `yaml:"min_atr_threshold" json:"min_atr_threshold" jsonschema:"title=Minimum ATR,description=ATR_14 on the current bar must exceed this value,minimum=0,default=0.1" validate:"gte=0"`
	SlippageAdjustment float64 `yaml:"slippage_adjustment" json:"slippage_adjustment" jsonschema:"title=Slippage Adjustment,description=Price offset added to the close when computing levels,minimum=0,default=0.01" validate:"gte=0"`
	MinSlowBars        int     `yaml:"min_slow_bars" json:"min_slow_bars" jsonschema:"title=Minimum Slow Bars,description=Slow bars required before any decision,minimum=1,default=50" validate:"gt=0"`
}

func DefaultMomentumBreakoutConfig() MomentumBreakoutConfig {
	return MomentumBreakoutConfig{
		BreakoutWindow:     20,
		EMATrendFilter:     true,
		AtrMultiplierSL:    1.5,
		AtrMultiplierTP:    2.5,
		VolumeConfirmation: true,
		MinCandleBodyRatio: 0.6,
		MinADX15m:          20,
		MinATRThreshold:    0.1,
		SlippageAdjustment: 0.01,
		MinSlowBars:        50,
	}
}

// Validate checks field ranges and that the stop loss multiplier is below
// the take profit multiplier.
func (c *MomentumBreakoutConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid momentum breakout config", err)
	}

	return nil
}

// MinFastBars is the fast history needed before the agent can signal.
func (c *MomentumBreakoutConfig) MinFastBars() int {
	return c.BreakoutWindow + 2
}

// GenerateSchemaJSON returns the JSON schema of the config.
func (c *MomentumBreakoutConfig) GenerateSchemaJSON() (string, error) {
	return ToJSONSchema(c)
}

// MomentumBreakoutAgent enters when the fast close breaks out of the range of
// the preceding breakout window, confirmed by slow trend, ADX, ATR, candle
// body and volume filters.
type MomentumBreakoutAgent struct {
	config MomentumBreakoutConfig
}

// NewMomentumBreakoutAgent validates config and returns the agent.
func NewMomentumBreakoutAgent(config MomentumBreakoutConfig) (*MomentumBreakoutAgent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MomentumBreakoutAgent{
		config: config,
	}, nil
}

func (a *MomentumBreakoutAgent) Name() string {
	return MomentumBreakoutName
}

func (a *MomentumBreakoutAgent) Config() MomentumBreakoutConfig {
	return a.config
}

// Decide implements Agent.
func (a *MomentumBreakoutAgent) Decide(fast []types.Bar, slow []types.Bar) (types.Decision, error) {
	cfg := a.config

	if len(fast) < cfg.MinFastBars() || len(slow) < cfg.MinSlowBars {
		return types.Hold(), nil
	}

	last := fast[len(fast)-1]
	lastSlow := slow[len(slow)-1]

	atr, err := last.RequireIndicator(IndicatorATR14)
	if err != nil {
		return types.Hold(), err
	}

	adx, err := lastSlow.RequireIndicator(IndicatorADX14)
	if err != nil {
		return types.Hold(), err
	}

	emaFast, err := lastSlow.RequireIndicator(IndicatorEMA20)
	if err != nil {
		return types.Hold(), err
	}

	emaSlow, err := lastSlow.RequireIndicator(IndicatorEMA50)
	if err != nil {
		return types.Hold(), err
	}

	breakoutHigh, breakoutLow, meanVolume := breakoutRange(fast[len(fast)-1-cfg.BreakoutWindow : len(fast)-1])

	trendLong := !cfg.EMATrendFilter || emaFast > emaSlow
	trendShort := !cfg.EMATrendFilter || emaFast < emaSlow

	candleRange := math.Abs(last.High - last.Low)
	validBody := candleRange != 0 && math.Abs(last.Close-last.Open)/candleRange >= cfg.MinCandleBodyRatio
	validVolume := !cfg.VolumeConfirmation || last.Volume > meanVolume

	if atr <= cfg.MinATRThreshold || adx < cfg.MinADX15m || !validBody || !validVolume {
		return types.Hold(), nil
	}

	if last.Close > breakoutHigh && trendLong {
		entry := last.Close + cfg.SlippageAdjustment

		return types.EnterLong(entry-cfg.AtrMultiplierSL*atr, entry+cfg.AtrMultiplierTP*atr).
			WithReason(fmt.Sprintf("close %.4f above breakout high %.4f", last.Close, breakoutHigh)), nil
	}

	if last.Close < breakoutLow && trendShort {
		entry := last.Close - cfg.SlippageAdjustment

		return types.EnterShort(entry+cfg.AtrMultiplierSL*atr, entry-cfg.AtrMultiplierTP*atr).
			WithReason(fmt.Sprintf("close %.4f below breakout low %.4f", last.Close, breakoutLow)), nil
	}

	return types.Hold(), nil
}

// breakoutRange returns the highest high, lowest low and mean volume of bars.
func breakoutRange(bars []types.Bar) (float64, float64, float64) {
	high := math.Inf(-1)
	low := math.Inf(1)
	volume := 0.0

	for _, bar := range bars {
		high = math.Max(high, bar.High)
		low = math.Min(low, bar.Low)
		volume += bar.Volume
	}

	return high, low, volume / float64(len(bars))
}

// NewMomentumBreakoutFactory returns a Factory that overlays a parameter set
// on the default config.
func NewMomentumBreakoutFactory() Factory {
	return func(params types.ParameterSet) (Agent, error) {
		config, err := momentumBreakoutConfigFrom(params)
		if err != nil {
			return nil, err
		}

		return NewMomentumBreakoutAgent(config)
	}
}

// ValidateMomentumBreakoutParameters is the Validator for the momentum
// breakout agent.
func ValidateMomentumBreakoutParameters(params types.ParameterSet) error {
	config, err := momentumBreakoutConfigFrom(params)
	if err != nil {
		return err
	}

	return config.Validate()
}

func momentumBreakoutConfigFrom(params types.ParameterSet) (MomentumBreakoutConfig, error) {
	config := DefaultMomentumBreakoutConfig()

	if err := params.Decode(&config); err != nil {
		return config, err
	}

	return config, nil
}
