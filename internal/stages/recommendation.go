package stages

import (
	"context"
	"fmt"
	"slices"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/workflow"
)

type Decision string

const (
	DecisionStrongHire Decision = "strong_hire"
	DecisionHire       Decision = "hire"
	DecisionConsider   Decision = "consider"
	DecisionReject     Decision = "reject"
)

type RecommendationOutput struct {
	Decision          Decision `json:"decision" validate:"oneof=strong_hire hire consider reject"`
	Recommendation    string   `json:"recommendation" validate:"required"`
	NextSteps         []string `json:"next_steps,omitempty"`
	RecommendedJobIDs []string `json:"recommended_job_ids,omitempty"`
}

func (*RecommendationOutput) Stage() workflow.Stage { return workflow.StageRecommendation }

type recommendationRequest struct {
	Analysis  *AnalysisOutput  `json:"analysis"`
	Matching  *MatchingOutput  `json:"matching"`
	Screening *ScreeningOutput `json:"screening"`
}

type Recommendation struct {
	base
	system string
}

func NewRecommendation(capability ai.Capability, opts Options) *Recommendation {
	return &Recommendation{
		base:   newBase(workflow.StageRecommendation, capability, opts),
		system: systemPrompt(workflow.StageRecommendation),
	}
}

func (r *Recommendation) Execute(ctx context.Context, run workflow.View) (workflow.Output, error) {
	var (
		req recommendationRequest
		err error
	)
	if req.Analysis, err = priorOutput[*AnalysisOutput](run, workflow.StageAnalysis); err != nil {
		return nil, err
	}
	if req.Matching, err = priorOutput[*MatchingOutput](run, workflow.StageMatching); err != nil {
		return nil, err
	}
	if req.Screening, err = priorOutput[*ScreeningOutput](run, workflow.StageScreening); err != nil {
		return nil, err
	}

	message, err := marshalMessage(req)
	if err != nil {
		return nil, fmt.Errorf("marshal recommendation request: %w", err)
	}

	raw, err := r.invoke(ctx, run.SubmissionID(), r.system, message)
	if err != nil {
		return nil, err
	}

	out := &RecommendationOutput{}
	if err := r.decode(raw, out); err != nil {
		return nil, err
	}

	// Recommended jobs must come from the computed matches.
	matched := req.Matching.JobIDs()
	for _, id := range out.RecommendedJobIDs {
		if !slices.Contains(matched, id) {
			return nil, r.malformed(fmt.Errorf("recommended job %q is not among the matches", id))
		}
	}

	return out, nil
}
