package workflow

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result pairs a submitted input with its run. Err is set only when the input
// was rejected before a run could start.
type Result struct {
	Input RawInput
	Run   *Run
	Err   error
}

// ProcessAll runs every input through the pipeline with at most workers
// submissions in flight. Results are returned in input order. Each run is
// independent; one failing submission does not stop the others.
func (o *Orchestrator) ProcessAll(ctx context.Context, inputs []RawInput, workers int) []Result {
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			run, err := o.ProcessApplication(ctx, in)
			if err != nil {
				o.logger.Warn("submission rejected", zap.Int("index", i), zap.Error(err))
			}
			results[i] = Result{Input: in, Run: run, Err: err}
			return nil
		})
	}

	// Workers never return an error; failures live on each result.
	_ = g.Wait()

	return results
}
