package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/headhunter"
)

// VacancySource is the subset of the hh.ru client used to build a snapshot.
type VacancySource interface {
	Search(ctx context.Context, params *headhunter.SearchParams) (*headhunter.Vacancies, error)
	GetVacancy(ctx context.Context, id string) (*headhunter.Vacancy, error)
}

// LevelFromHeadhunter maps hh.ru experience ids onto experience levels.
func LevelFromHeadhunter(id string) (ExperienceLevel, bool) {
	switch id {
	case headhunter.ExperienceNone, headhunter.ExperienceBetween1And3:
		return Junior, true
	case headhunter.ExperienceBetween3And6:
		return MidLevel, true
	case headhunter.ExperienceMoreThan6:
		return Senior, true
	default:
		return "", false
	}
}

// PostingFromVacancy converts a detailed vacancy. It fails when the vacancy
// has no key skills or an unknown experience id, since such postings cannot be scored.
func PostingFromVacancy(v *headhunter.Vacancy) (JobPosting, error) {
	level, ok := LevelFromHeadhunter(v.Experience.ID)
	if !ok {
		return JobPosting{}, fmt.Errorf("vacancy %s: unknown experience %q", v.ID, v.Experience.ID)
	}

	posting := JobPosting{
		ID:              "hh-" + v.ID,
		Title:           strings.TrimSpace(v.Name),
		Company:         strings.TrimSpace(v.Employer.Name),
		Location:        v.Area.Name,
		Type:            v.Employment.Name,
		ExperienceLevel: level,
		Requirements:    v.Skills(),
		SalaryRange:     v.SalaryRange(),
		Description:     v.Snippet.Responsibility,
	}

	if err := posting.Validate(); err != nil {
		return JobPosting{}, err
	}

	return posting, nil
}

// SnapshotHeadhunter searches hh.ru once, fetches details for each vacancy and
// returns an in-memory catalog in search result order. Vacancies that cannot be
// converted are skipped and logged.
func SnapshotHeadhunter(ctx context.Context, source VacancySource, params *headhunter.SearchParams, logger *zap.Logger) (*Memory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	found, err := source.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: search vacancies: %w", ErrUnavailable, err)
	}

	postings := make([]JobPosting, 0, found.Len())
	seen := make(map[string]struct{}, found.Len())
	for _, item := range found.Items {
		if item.Archived {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}

		detailed, err := source.GetVacancy(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("fetching detailed vacancy failed. It will be skipped.",
				zap.String("vacancy_id", item.ID),
				zap.Error(err),
			)
			continue
		}

		posting, err := PostingFromVacancy(detailed)
		if err != nil {
			logger.Debug("vacancy skipped", zap.String("vacancy_id", item.ID), zap.Error(err))
			continue
		}

		postings = append(postings, posting)
	}

	logger.Info("headhunter catalog snapshot",
		zap.Int("found", found.Len()),
		zap.Int("postings", len(postings)),
	)

	return NewMemory(postings)
}
