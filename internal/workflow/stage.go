package workflow

import "fmt"

// Stage names one step of the pipeline.
type Stage string

const (
	StageExtraction     Stage = "extraction"
	StageAnalysis       Stage = "analysis"
	StageMatching       Stage = "matching"
	StageScreening      Stage = "screening"
	StageRecommendation Stage = "recommendation"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageExtraction,
	StageAnalysis,
	StageMatching,
	StageScreening,
	StageRecommendation,
}

// Index returns the position of s in the execution order, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the pipeline stages.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// Next returns the stage after s. The second value is false for the last stage.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i == len(Stages)-1 {
		return "", false
	}
	return Stages[i+1], true
}

// ParseStage converts a stage name, as used in config keys, into a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

// Status is the lifecycle state of a Run.
type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether a run in this status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
