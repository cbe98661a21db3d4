package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BacktestResult summarizes one simulation run.
type BacktestResult struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the run finished.
	Timestamp      time.Time `yaml:"timestamp" json:"timestamp"`
	InitialBalance float64   `yaml:"initial_balance" json:"initial_balance"`
	// FinalBalance is the realized balance. A position still open at the end
	// of the data is reported at its capital at entry.
	FinalBalance  float64 `yaml:"final_balance" json:"final_balance"`
	TotalTrades   int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades int     `yaml:"winning_trades" json:"winning_trades"`
	// WinRate in percent.
	WinRate     float64 `yaml:"win_rate" json:"win_rate"`
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdown in percent of the running equity peak.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	TotalFees   float64 `yaml:"total_fees" json:"total_fees"`
	// OpenPosition is true when the data ended with a position still open.
	// That position is not part of any metric.
	OpenPosition bool `yaml:"open_position" json:"open_position"`
	// BarsProcessed counts fast bars the loop visited.
	BarsProcessed int `yaml:"bars_processed" json:"bars_processed"`
}

// ProfitPercent is the change from initial to final balance in percent.
func (r BacktestResult) ProfitPercent() float64 {
	if r.InitialBalance == 0 {
		return 0
	}

	return (r.FinalBalance - r.InitialBalance) / r.InitialBalance * 100
}

// SearchResult pairs a parameter set with the result of its run.
type SearchResult struct {
	Parameters ParameterSet   `yaml:"parameters" json:"parameters"`
	Result     BacktestResult `yaml:"result" json:"result"`
}

func WriteBacktestResult(path string, result BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}

func ReadBacktestResult(path string) (BacktestResult, error) {
	var result BacktestResult

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read backtest result: %w", err)
	}

	if err := yaml.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal backtest result: %w", err)
	}

	return result, nil
}
