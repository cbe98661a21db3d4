package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-optimizer/internal/optimizer"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ProfitStyle and LossStyle color balances against the initial balance.
	ProfitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	LossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var tableHeaders = []string{"#", "Parameters", "Final Balance", "Profit %", "Trades", "Win Rate", "Sharpe", "Max DD"}

// FormatProfit formats a balance with an indicator based on comparison with
// the initial balance.
func FormatProfit(final, initial float64) string {
	balance := fmt.Sprintf("%.2f", final)

	switch {
	case final > initial:
		return ProfitStyle.Render(balance + " ▲")
	case final < initial:
		return LossStyle.Render(balance + " ▼")
	default:
		return balance
	}
}

func resultRow(rank int, result types.SearchResult) []string {
	r := result.Result

	return []string{
		strconv.Itoa(rank),
		result.Parameters.Key(),
		FormatProfit(r.FinalBalance, r.InitialBalance),
		fmt.Sprintf("%.2f", r.ProfitPercent()),
		strconv.Itoa(r.TotalTrades),
		fmt.Sprintf("%.1f%%", r.WinRate),
		fmt.Sprintf("%.3f", r.SharpeRatio),
		fmt.Sprintf("%.2f%%", r.MaxDrawdown),
	}
}

// renderTable renders the first top results, which must already be sorted.
func renderTable(results []types.SearchResult, top int) string {
	if len(results) == 0 {
		return HelpStyle.Render("No results")
	}

	if top > 0 && top < len(results) {
		results = results[:top]
	}

	rows := make([][]string, len(results))
	for i, result := range results {
		rows[i] = resultRow(i+1, result)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1)
		})

	return t.String()
}

func renderSummary(summary optimizer.Summary) string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("Search " + summary.RunID))
	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render(fmt.Sprintf(
		"candidates %d  succeeded %d  failed %d  timed out %d  rejected %d  skipped %d  in %s",
		summary.Total, summary.Succeeded, summary.Failed, summary.TimedOut,
		summary.Rejected, summary.Skipped, summary.Duration.Round(time.Millisecond),
	)))

	return sb.String()
}

func renderResult(params types.ParameterSet, result types.BacktestResult) string {
	lines := []string{
		TitleStyle.Render("Backtest " + result.ID),
		HelpStyle.Render(params.Key()),
		fmt.Sprintf("Final balance   %s", FormatProfit(result.FinalBalance, result.InitialBalance)),
		fmt.Sprintf("Profit          %.2f%%", result.ProfitPercent()),
		fmt.Sprintf("Trades          %d (%d winning, %.1f%%)", result.TotalTrades, result.WinningTrades, result.WinRate),
		fmt.Sprintf("Sharpe ratio    %.3f", result.SharpeRatio),
		fmt.Sprintf("Max drawdown    %.2f%%", result.MaxDrawdown),
		fmt.Sprintf("Fees            %.2f", result.TotalFees),
		fmt.Sprintf("Bars processed  %d", result.BarsProcessed),
	}

	if result.OpenPosition {
		lines = append(lines, HelpStyle.Render("A position was still open at the end of the data"))
	}

	return strings.Join(lines, "\n")
}
