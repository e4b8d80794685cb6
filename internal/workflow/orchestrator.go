package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/logger"
)

// Runner executes one stage against the outputs collected so far.
type Runner interface {
	Stage() Stage
	Execute(ctx context.Context, run View) (Output, error)
}

type Orchestrator struct {
	runners []Runner
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

type Option func(*Orchestrator)

// WithClock overrides the time source used for submission and duration stamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// New creates an orchestrator. runners must cover every stage exactly once,
// in execution order.
func New(runners []Runner, log *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if len(runners) != len(Stages) {
		return nil, fmt.Errorf("expected %d stage runners, got %d", len(Stages), len(runners))
	}
	for i, r := range runners {
		if r == nil {
			return nil, fmt.Errorf("runner for stage %s is nil", Stages[i])
		}
		if r.Stage() != Stages[i] {
			return nil, fmt.Errorf("runner %d serves stage %q, expected %q", i, r.Stage(), Stages[i])
		}
	}

	if log == nil {
		log = zap.NewNop()
	}

	o := &Orchestrator{
		runners: append([]Runner(nil), runners...),
		logger:  log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// ProcessApplication drives input through every stage and returns the run.
//
// Stage failures are reported on the returned run, not as an error. The error
// is non-nil only when input is empty, in which case no run is created.
// Cancellation of ctx is observed at stage boundaries: the stage in flight is
// allowed to return, but the next one is never started.
func (o *Orchestrator) ProcessApplication(ctx context.Context, input RawInput) (*Run, error) {
	if input.Empty() {
		return nil, fmt.Errorf("%w: resume text or file is required", ErrInvalidInput)
	}

	run := newRun(o.newID(), o.now().UTC(), input)
	log := logger.WithSubmission(o.logger, run.SubmissionID())
	log.Info("processing application")

	for _, r := range o.runners {
		stage := r.Stage()
		slog := logger.WithStage(log, string(stage))

		if err := run.begin(stage); err != nil {
			o.halt(slog, run, err)
			return run, nil
		}

		if err := ctx.Err(); err != nil {
			o.halt(slog, run, NewStageError(stage, ErrCanceled, err))
			return run, nil
		}

		slog.Debug("stage started")
		started := o.now()
		out, err := r.Execute(ctx, run)
		elapsed := o.now().Sub(started)

		if err != nil {
			o.halt(slog, run, err)
			return run, nil
		}

		if err := run.record(stage, out, elapsed); err != nil {
			o.halt(slog, run, NewStageError(stage, ErrMalformedOutput, err))
			return run, nil
		}

		slog.Info("stage completed", zap.Duration("elapsed", elapsed))
	}

	if err := run.complete(); err != nil {
		o.halt(log, run, err)
		return run, nil
	}

	log.Info("application processed")
	return run, nil
}

func (o *Orchestrator) halt(log *zap.Logger, run *Run, err error) {
	kind := KindOf(err)
	if ferr := run.fail(kind, err.Error()); ferr != nil {
		log.Error("failed to record stage failure", zap.Error(ferr), zap.NamedError("cause", err))
		return
	}
	log.Warn("stage failed",
		zap.String("error_kind", string(kind)),
		zap.Error(err),
	)
}
