package workflow

import (
	"fmt"
	"strings"
	"time"
)

// RawInput is the candidate resume as submitted: inline text or a file reference.
type RawInput struct {
	Text     string `json:"text,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

func (in RawInput) Empty() bool {
	return strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.FilePath) == ""
}

// Output is a stage result. Each stage defines its own concrete type.
type Output interface {
	Stage() Stage
}

// StageOutput is one entry of the run's output log.
type StageOutput struct {
	Stage    Stage         `json:"stage"`
	Output   Output        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// View is the read-only surface runners get to see.
type View interface {
	SubmissionID() string
	Input() RawInput
	Output(stage Stage) (Output, bool)
}

// Run carries one submission through the pipeline. Only the orchestrator
// mutates it; once completed or failed it never changes again.
//
// A Run is owned by a single ProcessApplication call and is not safe for
// concurrent mutation. Readers may inspect it after the call returns.
type Run struct {
	id          string
	submittedAt time.Time
	input       RawInput

	current Stage
	status  Status
	outputs []StageOutput
	failure *Failure
}

func newRun(id string, submittedAt time.Time, input RawInput) *Run {
	return &Run{
		id:          id,
		submittedAt: submittedAt,
		input:       input,
		current:     StageExtraction,
		status:      StatusInitiated,
	}
}

func (r *Run) SubmissionID() string { return r.id }

func (r *Run) SubmittedAt() time.Time { return r.submittedAt }

func (r *Run) Input() RawInput { return r.input }

func (r *Run) CurrentStage() Stage { return r.current }

func (r *Run) Status() Status { return r.status }

func (r *Run) IsTerminal() bool { return r.status.IsTerminal() }

func (r *Run) HasOutput(s Stage) bool {
	_, ok := r.Output(s)
	return ok
}

// Failure returns a copy of the failure record, or nil.
func (r *Run) Failure() *Failure {
	if r.failure == nil {
		return nil
	}
	f := *r.failure
	return &f
}

// Output returns the recorded output of a stage.
func (r *Run) Output(s Stage) (Output, bool) {
	for _, o := range r.outputs {
		if o.Stage == s {
			return o.Output, true
		}
	}
	return nil, false
}

// Outputs returns stage outputs in execution order.
func (r *Run) Outputs() []StageOutput {
	out := make([]StageOutput, len(r.outputs))
	copy(out, r.outputs)
	return out
}

// Durations reports elapsed time for every stage that produced an output.
func (r *Run) Durations() map[Stage]time.Duration {
	d := make(map[Stage]time.Duration, len(r.outputs))
	for _, o := range r.outputs {
		d[o.Stage] = o.Duration
	}
	return d
}

// begin moves the run onto stage. The stage must be the first one for a new
// run, or directly follow the last recorded output.
func (r *Run) begin(s Stage) error {
	if r.status.IsTerminal() {
		return ErrTerminal
	}
	if !isAllowedTransition(r, s) {
		return fmt.Errorf("%w: %s/%s -> %s", ErrInvalidTransition, r.status, r.current, s)
	}
	r.current = s
	r.status = StatusInProgress
	return nil
}

// record stores the output of the current stage.
func (r *Run) record(s Stage, out Output, elapsed time.Duration) error {
	if r.status.IsTerminal() {
		return ErrTerminal
	}
	if r.status != StatusInProgress || r.current != s {
		return fmt.Errorf("%w: cannot record %s while at %s/%s", ErrInvalidTransition, s, r.status, r.current)
	}
	if out == nil || out.Stage() != s {
		return fmt.Errorf("%w: output does not belong to stage %s", ErrInvalidTransition, s)
	}
	if r.HasOutput(s) {
		return fmt.Errorf("%w: output for %s already recorded", ErrInvalidTransition, s)
	}
	r.outputs = append(r.outputs, StageOutput{Stage: s, Output: out, Duration: elapsed})
	return nil
}

func (r *Run) complete() error {
	if r.status.IsTerminal() {
		return ErrTerminal
	}
	last := Stages[len(Stages)-1]
	if r.current != last || !r.HasOutput(last) {
		return fmt.Errorf("%w: cannot complete at %s", ErrInvalidTransition, r.current)
	}
	r.status = StatusCompleted
	return nil
}

func (r *Run) fail(kind ErrorKind, msg string) error {
	if r.status.IsTerminal() {
		return ErrTerminal
	}
	r.status = StatusFailed
	r.failure = &Failure{Stage: r.current, Kind: kind, Message: msg}
	return nil
}

func isAllowedTransition(r *Run, to Stage) bool {
	switch r.status {
	case StatusInitiated:
		return to == Stages[0]
	case StatusInProgress:
		if !r.HasOutput(r.current) {
			return false
		}
		next, ok := r.current.Next()
		return ok && next == to
	default:
		return false
	}
}
