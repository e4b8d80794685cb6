package stages

import (
	"context"
	"fmt"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/catalog"
	"github.com/spigell/recruiter/internal/scoring"
	"github.com/spigell/recruiter/internal/workflow"
)

type EducationSummary struct {
	Level string `json:"level,omitempty"`
	Field string `json:"field,omitempty"`
}

// AnalysisOutput is the skills analysis of a candidate.
type AnalysisOutput struct {
	TechnicalSkills   []string         `json:"technical_skills"`
	YearsOfExperience float64          `json:"years_of_experience" validate:"gte=0"`
	Education         EducationSummary `json:"education"`
	KeyAchievements   []string         `json:"key_achievements,omitempty"`
	DomainExpertise   []string         `json:"domain_expertise,omitempty"`
	Confidence        float64          `json:"confidence" validate:"gte=0,lte=1"`

	// ReportedLevel is the level as the capability wrote it.
	ReportedLevel string `json:"experience_level,omitempty"`
	// ExperienceLevel is ReportedLevel normalized to a catalog level.
	ExperienceLevel catalog.ExperienceLevel `json:"-"`
}

func (*AnalysisOutput) Stage() workflow.Stage { return workflow.StageAnalysis }

// Profile is the candidate profile consumed by the scoring engine.
func (a *AnalysisOutput) Profile() scoring.CandidateProfile {
	return scoring.NewCandidateProfile(a.TechnicalSkills, string(a.ExperienceLevel))
}

type Analysis struct {
	base
	system string
}

func NewAnalysis(capability ai.Capability, opts Options) *Analysis {
	return &Analysis{
		base:   newBase(workflow.StageAnalysis, capability, opts),
		system: systemPrompt(workflow.StageAnalysis),
	}
}

func (a *Analysis) Execute(ctx context.Context, run workflow.View) (workflow.Output, error) {
	extracted, err := priorOutput[*ExtractionOutput](run, workflow.StageExtraction)
	if err != nil {
		return nil, err
	}

	message, err := marshalMessage(extracted)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction output: %w", err)
	}

	raw, err := a.invoke(ctx, run.SubmissionID(), a.system, message)
	if err != nil {
		return nil, err
	}

	out := &AnalysisOutput{}
	if err := a.decode(raw, out); err != nil {
		return nil, err
	}
	out.ExperienceLevel = catalog.NormalizeExperienceLevel(out.ReportedLevel)

	return out, nil
}
