package writer

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
)

// metricColumns follow the parameter columns in every results file.
var metricColumns = []string{
	"run_id", "initial_balance", "final_balance", "profit_percent", "total_trades", "winning_trades",
	"win_rate", "sharpe_ratio", "max_drawdown", "total_fees", "open_position", "bars_processed",
}

var metricDefinitions = []string{
	"run_id TEXT",
	"initial_balance DOUBLE",
	"final_balance DOUBLE",
	"profit_percent DOUBLE",
	"total_trades BIGINT",
	"winning_trades BIGINT",
	"win_rate DOUBLE",
	"sharpe_ratio DOUBLE",
	"max_drawdown DOUBLE",
	"total_fees DOUBLE",
	"open_position BOOLEAN",
	"bars_processed BIGINT",
}

// ResultsWriter exports search results, one row per parameter set.
type ResultsWriter struct {
	duckDBTable
	parameters []string
	kinds      map[string]string
}

// NewResultsWriter creates a writer for results whose parameter sets use
// the given parameter values. A parameter column is BOOLEAN when every
// value is a bool, DOUBLE when every value is a number, TEXT otherwise.
func NewResultsWriter(outputPath string, results []types.SearchResult) Writer[types.SearchResult] {
	kinds := make(map[string]string)

	for _, result := range results {
		for name, value := range result.Parameters {
			kinds[name] = mergeKind(kinds[name], kindOf(value))
		}
	}

	parameters := make([]string, 0, len(kinds))
	for name := range kinds {
		parameters = append(parameters, name)
	}

	slices.Sort(parameters)

	return &ResultsWriter{
		duckDBTable: newDuckDBTable("results", outputPath),
		parameters:  parameters,
		kinds:       kinds,
	}
}

func (w *ResultsWriter) Initialize() error {
	columns := slices.Clone(w.parameters)
	definitions := make([]string, 0, len(w.parameters)+len(metricDefinitions))

	for _, name := range w.parameters {
		definitions = append(definitions, quote(name)+" "+w.kinds[name])
	}

	columns = append(columns, metricColumns...)
	definitions = append(definitions, metricDefinitions...)

	return w.open(columns, definitions)
}

func (w *ResultsWriter) Write(result types.SearchResult) error {
	values := make([]any, 0, len(w.parameters)+len(metricColumns))

	for _, name := range w.parameters {
		value, ok := result.Parameters[name]

		switch {
		case !ok:
			values = append(values, nil)
		case w.kinds[name] == "DOUBLE":
			number, err := result.Parameters.Float(name)
			if err != nil {
				return err
			}

			values = append(values, number)
		case w.kinds[name] == "TEXT":
			values = append(values, fmt.Sprintf("%v", value))
		default:
			values = append(values, value)
		}
	}

	r := result.Result
	values = append(values,
		r.ID,
		r.InitialBalance,
		r.FinalBalance,
		r.ProfitPercent(),
		int64(r.TotalTrades),
		int64(r.WinningTrades),
		r.WinRate,
		r.SharpeRatio,
		r.MaxDrawdown,
		r.TotalFees,
		r.OpenPosition,
		int64(r.BarsProcessed),
	)

	return w.insert(values...)
}

func (w *ResultsWriter) Finalize() (string, error) {
	return w.finalize()
}

func (w *ResultsWriter) Close() error {
	return w.close()
}

func (w *ResultsWriter) GetOutputPath() string {
	return w.outputPath
}

// WriteResults writes search results to a csv or parquet file.
func WriteResults(path string, results []types.SearchResult) error {
	return writeAll(NewResultsWriter(path, results), results)
}

func kindOf(value any) string {
	switch value.(type) {
	case bool:
		return "BOOLEAN"
	case float64, float32, int, int64, int32, uint, uint64:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

func mergeKind(current string, next string) string {
	if current == "" || current == next {
		return next
	}

	return "TEXT"
}
