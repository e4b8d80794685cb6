package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-process catalog. Postings keep their insertion order.
type Memory struct {
	mu       sync.RWMutex
	postings []JobPosting
	byLevel  map[ExperienceLevel][]int
}

// NewMemory validates the postings and indexes them by experience level.
func NewMemory(postings []JobPosting) (*Memory, error) {
	m := &Memory{}
	if err := m.Replace(postings); err != nil {
		return nil, err
	}
	return m, nil
}

// Replace swaps the catalog contents atomically.
func (m *Memory) Replace(postings []JobPosting) error {
	seen := make(map[string]struct{}, len(postings))
	byLevel := make(map[ExperienceLevel][]int)
	copied := make([]JobPosting, 0, len(postings))

	for i := range postings {
		p := clonePosting(postings[i])
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("duplicate job posting id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		byLevel[p.ExperienceLevel] = append(byLevel[p.ExperienceLevel], len(copied))
		copied = append(copied, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = copied
	m.byLevel = byLevel
	return nil
}

func (m *Memory) FindByExperienceLevel(ctx context.Context, level ExperienceLevel) ([]JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.byLevel[level]
	result := make([]JobPosting, 0, len(idx))
	for _, i := range idx {
		result = append(result, clonePosting(m.postings[i]))
	}
	return result, nil
}

// All returns every posting in insertion order.
func (m *Memory) All() []JobPosting {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]JobPosting, 0, len(m.postings))
	for _, p := range m.postings {
		result = append(result, clonePosting(p))
	}
	return result
}

// List returns every posting of c, grouped by level in ascending seniority
// with catalog order kept inside each level. A Memory catalog is listed in
// insertion order instead.
func List(ctx context.Context, c Catalog) ([]JobPosting, error) {
	if m, ok := c.(*Memory); ok {
		return m.All(), nil
	}

	var all []JobPosting
	for _, level := range Levels {
		postings, err := c.FindByExperienceLevel(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("list %s postings: %w", level, err)
		}
		all = append(all, postings...)
	}
	return all, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings)
}

func clonePosting(p JobPosting) JobPosting {
	p.Requirements = slices.Clone(p.Requirements)
	p.Benefits = slices.Clone(p.Benefits)
	return p
}
