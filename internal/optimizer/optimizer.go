package optimizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-optimizer/internal/backtest/engine"
	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/strategy"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EngineFactory builds a fresh backtest engine for one unit of work.
type EngineFactory func() (engine.Engine, error)

// Progress is a snapshot of a running search.
type Progress struct {
	Completed int
	Total     int
	Succeeded int
	Failed    int
	TimedOut  int
	Elapsed   time.Duration
	// Remaining is estimated from the mean duration of completed units.
	Remaining time.Duration
}

// OnProgressCallback is called after each unit completes, whatever its outcome.
type OnProgressCallback func(progress Progress)

// OnResultCallback is called for each unit that produced a result.
type OnResultCallback func(result types.SearchResult)

// OnUnitFailedCallback is called for each unit that failed, timed out or panicked.
type OnUnitFailedCallback func(params types.ParameterSet, err error)

// Callbacks are invoked from worker goroutines, one at a time.
// All fields are pointers - nil means no callback will be invoked.
type Callbacks struct {
	OnProgress   *OnProgressCallback
	OnResult     *OnResultCallback
	OnUnitFailed *OnUnitFailedCallback
}

// Summary counts the outcome of every candidate of a search.
type Summary struct {
	RunID     string        `yaml:"run_id" json:"run_id"`
	Total     int           `yaml:"total" json:"total"`
	Rejected  int           `yaml:"rejected" json:"rejected"`
	Skipped   int           `yaml:"skipped" json:"skipped"`
	Succeeded int           `yaml:"succeeded" json:"succeeded"`
	Failed    int           `yaml:"failed" json:"failed"`
	TimedOut  int           `yaml:"timed_out" json:"timed_out"`
	Duration  time.Duration `yaml:"duration" json:"duration"`
}

// Optimizer evaluates parameter sets in parallel, one backtest per set.
type Optimizer struct {
	config        SearchConfig
	factory       strategy.Factory
	validator     strategy.Validator
	engineFactory EngineFactory
	log           *logger.Logger
	skip          map[string]struct{}
}

// NewOptimizer validates config and returns an optimizer. validator may be
// nil, in which case every candidate is scheduled.
func NewOptimizer(
	config SearchConfig,
	factory strategy.Factory,
	validator strategy.Validator,
	engineFactory EngineFactory,
	log *logger.Logger,
) (*Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if factory == nil || engineFactory == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "agent factory and engine factory are required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Optimizer{
		config:        config,
		factory:       factory,
		validator:     validator,
		engineFactory: engineFactory,
		log:           log,
		skip:          map[string]struct{}{},
	}, nil
}

// SetSkip marks parameter set keys that were already evaluated, for example
// by a previous search being resumed.
func (o *Optimizer) SetSkip(keys []string) {
	o.skip = make(map[string]struct{}, len(keys))
	for _, key := range keys {
		o.skip[key] = struct{}{}
	}
}

// Candidates returns the parameter sets described by the config: a seeded
// sample of the grid, or the full grid when no sample size is set.
func (o *Optimizer) Candidates() ([]types.ParameterSet, error) {
	if o.config.SampleSize > 0 {
		return o.config.Parameters.Sample(o.config.SampleSize, o.config.Seed, o.config.MaxCombinations)
	}

	return o.config.Parameters.Enumerate(o.config.MaxCombinations)
}

// Run backtests every accepted candidate over the same fast and slow series.
//
// Candidates rejected by the validator or present in the skip set are never
// scheduled. A unit that errors, panics or exceeds its timeout contributes no
// result and does not affect the others. Results are returned in completion
// order. When ctx is cancelled the search stops scheduling and returns the
// results collected so far together with ctx's error.
func (o *Optimizer) Run(
	ctx context.Context,
	candidates []types.ParameterSet,
	fast *types.BarSeries,
	slow *types.BarSeries,
	callbacks Callbacks,
) ([]types.SearchResult, Summary, error) {
	startedAt := time.Now()
	summary := Summary{
		RunID:     uuid.New().String(),
		Total:     len(candidates),
		Rejected:  0,
		Skipped:   0,
		Succeeded: 0,
		Failed:    0,
		TimedOut:  0,
		Duration:  0,
	}

	if len(candidates) == 0 {
		return nil, summary, errors.New(errors.ErrCodeSearchNoCandidates, "no candidates to evaluate")
	}

	accepted := o.filter(candidates, &summary)
	workers := o.config.ResolveWorkers()

	o.log.Info("Starting parameter search",
		zap.String("run_id", summary.RunID),
		zap.Int("candidates", summary.Total),
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped),
		zap.Int("workers", workers),
		zap.Duration("timeout", o.config.Timeout),
	)

	var (
		mu      sync.Mutex
		results = make([]types.SearchResult, 0, len(accepted))
	)

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, params := range accepted {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			result, err := o.runUnit(ctx, params, fast, slow)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				summary.Succeeded++
				results = append(results, result)

				if callbacks.OnResult != nil {
					(*callbacks.OnResult)(result)
				}
			case ctx.Err() != nil:
				// the whole search is stopping; not a unit failure
				return nil
			default:
				if errors.HasCode(err, errors.ErrCodeSearchTimeout) {
					summary.TimedOut++
				} else {
					summary.Failed++
				}

				o.log.Warn("Backtest unit failed",
					zap.Any("parameters", params),
					zap.Error(err),
				)

				if callbacks.OnUnitFailed != nil {
					(*callbacks.OnUnitFailed)(params, err)
				}
			}

			if callbacks.OnProgress != nil {
				(*callbacks.OnProgress)(progress(summary, len(accepted), startedAt))
			}

			return nil
		})
	}

	_ = g.Wait()

	summary.Duration = time.Since(startedAt)

	o.log.Info("Parameter search finished",
		zap.String("run_id", summary.RunID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("timed_out", summary.TimedOut),
		zap.Duration("duration", summary.Duration),
	)

	if err := ctx.Err(); err != nil {
		return results, summary, fmt.Errorf("parameter search interrupted: %w", err)
	}

	return results, summary, nil
}

func (o *Optimizer) filter(candidates []types.ParameterSet, summary *Summary) []types.ParameterSet {
	accepted := make([]types.ParameterSet, 0, len(candidates))

	for _, params := range candidates {
		if _, ok := o.skip[params.Key()]; ok {
			summary.Skipped++

			continue
		}

		if o.validator != nil {
			if err := o.validator(params); err != nil {
				summary.Rejected++

				o.log.Debug("Parameter set rejected",
					zap.Any("parameters", params),
					zap.Error(err),
				)

				continue
			}
		}

		accepted = append(accepted, params)
	}

	return accepted
}

type unitOutcome struct {
	result types.BacktestResult
	err    error
}

// runUnit backtests one parameter set with a fresh agent and engine under the
// unit timeout. The worker is released at the deadline even when an agent
// call is still running; the abandoned run stops at its next bar and its
// outcome is dropped. A run that finishes after the deadline has no result.
func (o *Optimizer) runUnit(
	ctx context.Context,
	params types.ParameterSet,
	fast *types.BarSeries,
	slow *types.BarSeries,
) (result types.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeSearchUnitPanic, "backtest panicked: %v", r)
		}
	}()

	agent, err := o.factory(params.Clone())
	if err != nil {
		return types.SearchResult{}, err
	}

	eng, err := o.engineFactory()
	if err != nil {
		return types.SearchResult{}, err
	}

	unitCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	done := make(chan unitOutcome, 1)

	go func() {
		var outcome unitOutcome

		defer func() {
			if r := recover(); r != nil {
				outcome = unitOutcome{
					result: types.BacktestResult{},
					err:    errors.Newf(errors.ErrCodeSearchUnitPanic, "backtest panicked: %v", r),
				}
			}

			done <- outcome
		}()

		outcome.result, outcome.err = eng.Run(unitCtx, fast, slow, agent, engine.LifecycleCallbacks{})
	}()

	var outcome unitOutcome

	select {
	case outcome = <-done:
	case <-unitCtx.Done():
		outcome = unitOutcome{result: types.BacktestResult{}, err: unitCtx.Err()}
	}

	if unitCtx.Err() != nil {
		if ctx.Err() != nil {
			return types.SearchResult{}, ctx.Err()
		}

		cause := outcome.err
		if cause == nil {
			cause = unitCtx.Err()
		}

		return types.SearchResult{}, errors.Wrapf(errors.ErrCodeSearchTimeout, cause,
			"backtest exceeded %s", o.config.Timeout)
	}

	if outcome.err != nil {
		return types.SearchResult{}, outcome.err
	}

	return types.SearchResult{
		Parameters: params,
		Result:     outcome.result,
	}, nil
}

func progress(summary Summary, total int, startedAt time.Time) Progress {
	completed := summary.Succeeded + summary.Failed + summary.TimedOut
	elapsed := time.Since(startedAt)

	remaining := time.Duration(0)
	if completed > 0 {
		remaining = elapsed / time.Duration(completed) * time.Duration(total-completed)
	}

	return Progress{
		Completed: completed,
		Total:     total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		TimedOut:  summary.TimedOut,
		Elapsed:   elapsed,
		Remaining: remaining,
	}
}
