// Package stages implements the pipeline stage runners: each one calls the
// analysis capability (or the scoring engine), normalizes the answer and
// validates it into a typed output.
package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/logger"
	"github.com/spigell/recruiter/internal/utils"
	"github.com/spigell/recruiter/internal/workflow"
)

const (
	DefaultTimeout      = 2 * time.Minute
	defaultMaxLogLength = 200
)

var validate = validator.New()

// base holds what every capability-backed runner shares.
type base struct {
	stage      workflow.Stage
	capability ai.Capability
	timeout    time.Duration
	maxLogLen  int
	logger     *zap.Logger
}

func newBase(stage workflow.Stage, capability ai.Capability, opts Options) base {
	timeout := opts.timeoutFor(stage)
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	log := logger.WithStage(opts.Logger, string(stage))
	if capability != nil {
		provider, model := ai.Describe(capability)
		log = logger.WithAI(log, provider, model)
	}

	return base{
		stage:      stage,
		capability: capability,
		timeout:    timeout,
		maxLogLen:  maxLogLen,
		logger:     log,
	}
}

func (b base) Stage() workflow.Stage { return b.stage }

type callResult[T any] struct {
	value T
	err   error
}

// callWithTimeout runs fn under a deadline of d. It returns once the deadline
// passes even if fn ignores its context; fn then finishes in the background.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(callCtx)
		done <- callResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}

// invoke calls the capability under the stage timeout. The timeout holds even
// when the capability ignores its context.
func (b base) invoke(ctx context.Context, submissionID, system, message string) (string, error) {
	if b.capability == nil {
		return "", workflow.NewStageError(b.stage, workflow.ErrCapabilityUnavailable, errors.New("analysis capability is not configured"))
	}

	log := logger.WithSubmission(b.logger, submissionID)
	log.Debug("invoking capability", zap.Duration("timeout", b.timeout))

	text, err := callWithTimeout(ctx, b.timeout, func(callCtx context.Context) (string, error) {
		return b.capability.GenerateContent(callCtx, system, message)
	})
	if err != nil {
		return "", b.classify(ctx, err)
	}

	log.Debug("capability answered",
		zap.String("response_preview", utils.TruncateForLog(text, b.maxLogLen)),
	)

	return text, nil
}

// classify maps a capability error onto the workflow taxonomy. A deadline is
// a timeout unless the caller itself went away.
func (b base) classify(parent context.Context, err error) error {
	var kind error
	switch {
	case parent.Err() != nil:
		kind = workflow.ErrCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = workflow.ErrCapabilityTimeout
	case errors.Is(err, context.Canceled):
		kind = workflow.ErrCanceled
	case errors.Is(err, ai.ErrEmptyResponse), errors.Is(err, ai.ErrBlocked):
		kind = workflow.ErrMalformedOutput
	default:
		kind = workflow.ErrCapabilityUnavailable
	}
	return workflow.NewStageError(b.stage, kind, err)
}

// decode normalizes raw model text, checks it against the stage schema and
// unmarshals it into out. Any failure is MalformedOutput.
func (b base) decode(raw string, out any) error {
	doc := StripFences(raw)
	if doc == "" {
		return b.malformed(errors.New("empty document"))
	}

	if err := validateSchema(b.stage, doc); err != nil {
		return b.malformed(err)
	}

	dec := json.NewDecoder(strings.NewReader(doc))
	if err := dec.Decode(out); err != nil {
		return b.malformed(fmt.Errorf("decode %s output: %w", b.stage, err))
	}

	if err := validate.Struct(out); err != nil {
		return b.malformed(err)
	}

	return nil
}

func (b base) malformed(err error) error {
	return workflow.NewStageError(b.stage, workflow.ErrMalformedOutput, err)
}

// priorOutput fetches the typed output of an earlier stage.
func priorOutput[T workflow.Output](run workflow.View, stage workflow.Stage) (T, error) {
	var zero T
	out, ok := run.Output(stage)
	if !ok {
		return zero, fmt.Errorf("%s output is missing", stage)
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s output has unexpected type %T", stage, out)
	}
	return typed, nil
}

func marshalMessage(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
