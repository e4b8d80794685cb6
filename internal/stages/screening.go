package stages

import (
	"context"
	"fmt"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/workflow"
)

type Verdict string

const (
	VerdictAdvance Verdict = "advance"
	VerdictHold    Verdict = "hold"
	VerdictReject  Verdict = "reject"
)

type ScreeningOutput struct {
	Score     int      `json:"score" validate:"gte=0,lte=100"`
	Verdict   Verdict  `json:"verdict" validate:"oneof=advance hold reject"`
	Report    string   `json:"report" validate:"required"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
}

func (*ScreeningOutput) Stage() workflow.Stage { return workflow.StageScreening }

type screeningRequest struct {
	Profile  *ExtractionOutput `json:"profile"`
	Analysis *AnalysisOutput   `json:"analysis"`
	Matching *MatchingOutput   `json:"matching"`
}

type Screening struct {
	base
	system string
}

func NewScreening(capability ai.Capability, opts Options) *Screening {
	return &Screening{
		base:   newBase(workflow.StageScreening, capability, opts),
		system: systemPrompt(workflow.StageScreening),
	}
}

func (s *Screening) Execute(ctx context.Context, run workflow.View) (workflow.Output, error) {
	var (
		req screeningRequest
		err error
	)
	if req.Profile, err = priorOutput[*ExtractionOutput](run, workflow.StageExtraction); err != nil {
		return nil, err
	}
	if req.Analysis, err = priorOutput[*AnalysisOutput](run, workflow.StageAnalysis); err != nil {
		return nil, err
	}
	if req.Matching, err = priorOutput[*MatchingOutput](run, workflow.StageMatching); err != nil {
		return nil, err
	}

	message, err := marshalMessage(req)
	if err != nil {
		return nil, fmt.Errorf("marshal screening request: %w", err)
	}

	raw, err := s.invoke(ctx, run.SubmissionID(), s.system, message)
	if err != nil {
		return nil, err
	}

	out := &ScreeningOutput{}
	if err := s.decode(raw, out); err != nil {
		return nil, err
	}

	return out, nil
}
