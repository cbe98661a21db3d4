package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-optimizer/internal/optimizer"
	"github.com/rxtech-lab/argo-optimizer/internal/strategy"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/internal/writer"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Backtest every parameter set of a grid in parallel",
		Flags: append(inputFlags(),
			&cli.StringFlag{
				Name:  "search",
				Usage: "Path to the search yaml config (defaults to the built-in grid)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Override the number of parallel backtests",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write all results to this csv or parquet file",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a yaml search report that can be resumed",
			},
			&cli.StringFlag{
				Name:  "resume",
				Usage: "Skip parameter sets already present in this search report",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: fmt.Sprintf("Metric to rank by (%v)", optimizer.AllSortKeys),
				Value: string(optimizer.SortByFinalBalance),
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of results to print",
				Value: 10,
			},
		),
		Action: searchAction,
	}
}

func loadSearchConfig(path string) (optimizer.SearchConfig, error) {
	if path == "" {
		return optimizer.DefaultSearchConfig(), nil
	}

	return optimizer.LoadSearchConfig(path)
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	engineConfig, err := loadEngineConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	searchConfig, err := loadSearchConfig(cmd.String("search"))
	if err != nil {
		return err
	}

	if workers := int(cmd.Int("workers")); workers > 0 {
		searchConfig.Workers = workers
	}

	sortKey := optimizer.SortKey(cmd.String("sort"))
	if !slices.Contains(optimizer.AllSortKeys, sortKey) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown sort key %q", sortKey)
	}

	opt, err := optimizer.NewOptimizer(
		searchConfig,
		strategy.NewMomentumBreakoutFactory(),
		strategy.ValidateMomentumBreakoutParameters,
		func() (engine.Engine, error) {
			return engine_v1.NewBacktestEngineV1(engineConfig, log)
		},
		log,
	)
	if err != nil {
		return err
	}

	var previous []types.SearchResult

	if resume := cmd.String("resume"); resume != "" {
		report, err := writer.ReadSearchReport(resume)
		if err != nil {
			return err
		}

		opt.SetSkip(report.Keys())
		previous = report.Results

		log.Info("Resuming search", zap.String("report", resume), zap.Int("evaluated", len(previous)))
	}

	candidates, err := opt.Candidates()
	if err != nil {
		return err
	}

	fast, slow, err := loadInputs(cmd, log)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetDescription("Searching"),
		progressbar.OptionSetWriter(cmd.Root().ErrWriter),
		progressbar.OptionShowCount(),
	)

	onProgress := optimizer.OnProgressCallback(func(p optimizer.Progress) {
		bar.ChangeMax(p.Total)
		_ = bar.Set(p.Completed)
	})

	results, summary, runErr := opt.Run(ctx, candidates, fast, slow, optimizer.Callbacks{
		OnProgress:   &onProgress,
		OnResult:     nil,
		OnUnitFailed: nil,
	})
	_ = bar.Finish()

	// an interrupted search still reports what it finished so it can be resumed
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}

	results = append(previous, results...)

	if err := optimizer.SortResults(results, sortKey); err != nil {
		return err
	}

	if out := cmd.String("out"); out != "" {
		if err := writer.WriteResults(out, results); err != nil {
			return err
		}
	}

	if path := cmd.String("report"); path != "" {
		if err := writer.WriteSearchReport(path, writer.NewSearchReport(summary, results)); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.Root().Writer, renderSummary(summary))
	fmt.Fprintln(cmd.Root().Writer, renderTable(results, int(cmd.Int("top"))))

	return runErr
}
