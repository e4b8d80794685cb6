package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/workflow"
)

type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
}

// ExtractionOutput is the structured resume.
type ExtractionOutput struct {
	Name           string       `json:"name,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Location       string       `json:"location,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	Skills         []string     `json:"skills"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Certifications []string     `json:"certifications,omitempty"`

	// RawText is the resume text the profile was extracted from.
	RawText string `json:"-"`
}

func (*ExtractionOutput) Stage() workflow.Stage { return workflow.StageExtraction }

type Extraction struct {
	base
	source TextSource
	system string
}

func NewExtraction(capability ai.Capability, source TextSource, opts Options) *Extraction {
	if source == nil {
		source = PlainTextSource{}
	}
	return &Extraction{
		base:   newBase(workflow.StageExtraction, capability, opts),
		source: source,
		system: systemPrompt(workflow.StageExtraction),
	}
}

func (e *Extraction) Execute(ctx context.Context, run workflow.View) (workflow.Output, error) {
	text, err := e.resumeText(ctx, run.Input())
	if err != nil {
		return nil, err
	}

	raw, err := e.invoke(ctx, run.SubmissionID(), e.system, text)
	if err != nil {
		return nil, err
	}

	out := &ExtractionOutput{}
	if err := e.decode(raw, out); err != nil {
		return nil, err
	}
	out.RawText = text

	return out, nil
}

func (e *Extraction) resumeText(ctx context.Context, in workflow.RawInput) (string, error) {
	text := in.Text
	if strings.TrimSpace(text) == "" && in.FilePath != "" {
		var err error
		text, err = e.source.ReadText(ctx, in.FilePath)
		if err != nil {
			kind := workflow.ErrInvalidInput
			if ctx.Err() != nil {
				kind = workflow.ErrCanceled
			}
			return "", workflow.NewStageError(e.stage, kind, err)
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", workflow.NewStageError(e.stage, workflow.ErrInvalidInput, errors.New("resume is empty"))
	}
	return text, nil
}
