package workflow

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCapabilityUnavailable means the analysis capability is not configured or not reachable.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	// ErrCapabilityTimeout means a stage exceeded its time budget.
	ErrCapabilityTimeout = errors.New("capability timeout")
	// ErrMalformedOutput means the capability answered but the answer did not fit the stage schema.
	ErrMalformedOutput = errors.New("malformed output")
	// ErrCatalogUnavailable means the job catalog could not be queried.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrCanceled means the caller canceled the run before the stage could finish.
	ErrCanceled = errors.New("canceled")
	// ErrInvalidInput means the raw resume could not be read.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTerminal is returned when mutating a completed or failed run.
	ErrTerminal = errors.New("run is terminal")
	// ErrInvalidTransition is returned for a state change the pipeline does not allow.
	ErrInvalidTransition = errors.New("invalid transition")
)

// ErrorKind is the stable, serializable classification of a stage failure.
type ErrorKind string

const (
	KindCapabilityUnavailable ErrorKind = "capability_unavailable"
	KindCapabilityTimeout     ErrorKind = "capability_timeout"
	KindMalformedOutput       ErrorKind = "malformed_output"
	KindCatalogUnavailable    ErrorKind = "catalog_unavailable"
	KindCanceled              ErrorKind = "canceled"
	KindInvalidInput          ErrorKind = "invalid_input"
	KindInternal              ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCanceled, KindCanceled},
	{context.Canceled, KindCanceled},
	{ErrCapabilityTimeout, KindCapabilityTimeout},
	{context.DeadlineExceeded, KindCapabilityTimeout},
	{ErrCapabilityUnavailable, KindCapabilityUnavailable},
	{ErrCatalogUnavailable, KindCatalogUnavailable},
	{ErrMalformedOutput, KindMalformedOutput},
	{ErrInvalidInput, KindInvalidInput},
}

// KindOf classifies err. The Kind of a wrapped *StageError takes precedence
// over anything in its chain. Errors outside the taxonomy are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *StageError
	if errors.As(err, &se) && se.Kind != nil {
		err = se.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// StageError ties a classified failure to the stage it happened in.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStageError wraps err with a taxonomy sentinel for the given stage.
func NewStageError(stage Stage, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// Failure is the record kept on a failed run.
type Failure struct {
	Stage   Stage     `json:"failed_stage"`
	Kind    ErrorKind `json:"error_kind"`
	Message string    `json:"message"`
}

func (f Failure) String() string {
	return fmt.Sprintf("failed at %s (%s): %s", f.Stage, f.Kind, f.Message)
}
