// Package catalog holds job postings and answers read-only queries over them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("job catalog unavailable")

// ExperienceLevel is the seniority a posting targets.
type ExperienceLevel string

const (
	Junior   ExperienceLevel = "Junior"
	MidLevel ExperienceLevel = "Mid-level"
	Senior   ExperienceLevel = "Senior"
)

// Levels lists valid experience levels in ascending seniority.
var Levels = []ExperienceLevel{Junior, MidLevel, Senior}

// ParseExperienceLevel returns the level named by s. Matching is exact after trimming.
func ParseExperienceLevel(s string) (ExperienceLevel, bool) {
	s = strings.TrimSpace(s)
	for _, level := range Levels {
		if string(level) == s {
			return level, true
		}
	}
	return "", false
}

// NormalizeExperienceLevel falls back to Mid-level for empty or unknown input.
func NormalizeExperienceLevel(s string) ExperienceLevel {
	if level, ok := ParseExperienceLevel(s); ok {
		return level
	}
	return MidLevel
}

// JobPosting is a single open position.
type JobPosting struct {
	ID              string          `json:"id" yaml:"id" validate:"required"`
	Title           string          `json:"title" yaml:"title" validate:"required"`
	Company         string          `json:"company" yaml:"company" validate:"required"`
	Location        string          `json:"location" yaml:"location"`
	Type            string          `json:"type,omitempty" yaml:"type"`
	ExperienceLevel ExperienceLevel `json:"experience_level" yaml:"experience_level" validate:"required,oneof=Junior Mid-level Senior"`
	Requirements    []string        `json:"requirements" yaml:"requirements" validate:"required,min=1,dive,required"`
	SalaryRange     string          `json:"salary_range,omitempty" yaml:"salary_range"`
	Benefits        []string        `json:"benefits,omitempty" yaml:"benefits"`
	Description     string          `json:"description,omitempty" yaml:"description"`
}

var validate = validator.New()

// Validate checks that the posting is usable for scoring.
func (p *JobPosting) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("job posting %q: %w", p.ID, err)
	}
	return nil
}

// Catalog is the query surface consumed by the scoring engine.
// Implementations return postings in a stable order for a fixed catalog state
// and must be safe for concurrent readers.
type Catalog interface {
	FindByExperienceLevel(ctx context.Context, level ExperienceLevel) ([]JobPosting, error)
}
