package stages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/catalog"
	"github.com/spigell/recruiter/internal/logger"
	"github.com/spigell/recruiter/internal/scoring"
	"github.com/spigell/recruiter/internal/workflow"
)

// MatchingOutput is the ranked list of job matches.
type MatchingOutput struct {
	ExperienceLevel catalog.ExperienceLevel `json:"experience_level"`
	Matches         []scoring.MatchResult   `json:"matches"`
	NumberOfMatches int                     `json:"number_of_matches"`
	MatchedAt       time.Time               `json:"matched_at"`
}

func (*MatchingOutput) Stage() workflow.Stage { return workflow.StageMatching }

// JobIDs returns the ids of the returned matches in rank order.
func (m *MatchingOutput) JobIDs() []string {
	ids := make([]string, 0, len(m.Matches))
	for _, match := range m.Matches {
		ids = append(ids, match.JobID)
	}
	return ids
}

// Matching scores the analyzed candidate against the job catalog. It reads
// only the analysis output and makes no capability call.
type Matching struct {
	engine  *scoring.Engine
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewMatching(engine *scoring.Engine, opts Options) *Matching {
	return &Matching{
		engine:  engine,
		timeout: opts.timeoutFor(workflow.StageMatching),
		logger:  logger.WithStage(opts.Logger, string(workflow.StageMatching)),
		now:     time.Now,
	}
}

func (m *Matching) Stage() workflow.Stage { return workflow.StageMatching }

func (m *Matching) Execute(ctx context.Context, run workflow.View) (workflow.Output, error) {
	analysis, err := priorOutput[*AnalysisOutput](run, workflow.StageAnalysis)
	if err != nil {
		return nil, err
	}
	if m.engine == nil {
		return nil, workflow.NewStageError(workflow.StageMatching, workflow.ErrCatalogUnavailable, errors.New("scoring engine is not configured"))
	}

	profile := analysis.Profile()

	result, err := callWithTimeout(ctx, m.timeout, func(callCtx context.Context) (*scoring.Result, error) {
		return m.engine.Match(callCtx, profile)
	})
	if err != nil {
		return nil, m.classify(ctx, err)
	}

	logger.WithSubmission(m.logger, run.SubmissionID()).Info("candidate matched",
		zap.String("experience_level", string(profile.ExperienceLevel)),
		zap.Int("skills", len(profile.Skills)),
		zap.Int("matches", result.NumberOfMatches),
	)

	return &MatchingOutput{
		ExperienceLevel: profile.ExperienceLevel,
		Matches:         result.Matches,
		NumberOfMatches: result.NumberOfMatches,
		MatchedAt:       m.now().UTC(),
	}, nil
}

func (m *Matching) classify(parent context.Context, err error) error {
	var kind error
	switch {
	case parent.Err() != nil:
		kind = workflow.ErrCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = workflow.ErrCapabilityTimeout
	default:
		kind = workflow.ErrCatalogUnavailable
	}
	return workflow.NewStageError(workflow.StageMatching, kind, fmt.Errorf("query job catalog: %w", err))
}
