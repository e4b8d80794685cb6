// Package scoring ranks job postings against a candidate skill set.
//
// Scores are integer percentages of a posting's requirements covered by the
// candidate's skills, truncated toward zero. Postings below the threshold are
// dropped, the rest are ordered by score with catalog order breaking ties, and
// only the top entries are returned.
package scoring

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/recruiter/internal/catalog"
)

// Defaults applied when Config leaves a field unset.
const (
	DefaultThreshold = 30
	DefaultLimit     = 3
)

// CandidateProfile is the part of the analysis the engine consumes.
type CandidateProfile struct {
	Skills          []string                `json:"skills"`
	ExperienceLevel catalog.ExperienceLevel `json:"experience_level"`
}

// NewCandidateProfile normalizes an unknown or empty level to Mid-level.
func NewCandidateProfile(skills []string, level string) CandidateProfile {
	return CandidateProfile{
		Skills:          slices.Clone(skills),
		ExperienceLevel: catalog.NormalizeExperienceLevel(level),
	}
}

// MatchResult is one scored posting. It is built fresh per ranking and never
// mutated afterwards.
type MatchResult struct {
	JobID             string   `json:"job_id"`
	Title             string   `json:"title"`
	Company           string   `json:"company"`
	Location          string   `json:"location"`
	SalaryRange       string   `json:"salary_range,omitempty"`
	MatchScorePercent int      `json:"match_score_percent"`
	Requirements      []string `json:"requirements"`
}

// Result holds the capped match list. NumberOfMatches counts every posting
// that passed the threshold, before the cap was applied.
type Result struct {
	Matches         []MatchResult `json:"matches"`
	NumberOfMatches int           `json:"number_of_matches"`
}

// Config tunes the ranking. A nil field means the default; zero is a valid
// threshold.
type Config struct {
	// Threshold is the inclusive minimum score, 0..100.
	Threshold *int `mapstructure:"threshold"`
	// Limit is the maximum number of returned matches, at least 1.
	Limit *int `mapstructure:"limit"`
}

// DefaultConfig returns a Config with both fields set to their defaults.
func DefaultConfig() Config {
	threshold, limit := DefaultThreshold, DefaultLimit
	return Config{Threshold: &threshold, Limit: &limit}
}

// Engine ranks catalog postings for a candidate. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	catalog   catalog.Catalog
	threshold int
	limit     int
}

// New creates an engine. Unset config fields fall back to the defaults.
func New(c catalog.Catalog, cfg Config) (*Engine, error) {
	if c == nil {
		return nil, fmt.Errorf("job catalog is required")
	}

	threshold, limit := DefaultThreshold, DefaultLimit
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	if cfg.Limit != nil {
		limit = *cfg.Limit
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("threshold must be within 0..100, got %d", threshold)
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	return &Engine{catalog: c, threshold: threshold, limit: limit}, nil
}

func (e *Engine) Threshold() int { return e.threshold }

func (e *Engine) Limit() int { return e.limit }

// Match scores every posting at the candidate's level. The caller is expected
// to pass a normalized level; an unknown level simply finds no postings.
func (e *Engine) Match(ctx context.Context, profile CandidateProfile) (*Result, error) {
	postings, err := e.catalog.FindByExperienceLevel(ctx, profile.ExperienceLevel)
	if err != nil {
		return nil, err
	}

	return Rank(postings, profile.Skills, e.threshold, e.limit), nil
}

// Rank applies the threshold, stable ordering and cap to the given postings.
func Rank(postings []catalog.JobPosting, skills []string, threshold, limit int) *Result {
	skillSet := toSet(skills)

	passed := make([]MatchResult, 0, len(postings))
	for _, p := range postings {
		score := scoreAgainst(p.Requirements, skillSet)
		if score < threshold {
			continue
		}
		passed = append(passed, MatchResult{
			JobID:             p.ID,
			Title:             p.Title,
			Company:           p.Company,
			Location:          p.Location,
			SalaryRange:       p.SalaryRange,
			MatchScorePercent: score,
			Requirements:      slices.Clone(p.Requirements),
		})
	}

	slices.SortStableFunc(passed, func(a, b MatchResult) int {
		return b.MatchScorePercent - a.MatchScorePercent
	})

	result := &Result{NumberOfMatches: len(passed), Matches: passed}
	if limit >= 0 && len(passed) > limit {
		result.Matches = passed[:limit]
	}

	return result
}

// Score returns floor(100 * |requirements ∩ skills| / |requirements|), or 0
// when there are no requirements.
func Score(requirements, skills []string) int {
	return scoreAgainst(requirements, toSet(skills))
}

func scoreAgainst(requirements []string, skills map[string]struct{}) int {
	required := toSet(requirements)
	if len(required) == 0 {
		return 0
	}

	overlap := 0
	for r := range required {
		if _, ok := skills[r]; ok {
			overlap++
		}
	}

	return overlap * 100 / len(required)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}
