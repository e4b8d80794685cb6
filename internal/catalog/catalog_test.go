package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExperienceLevel(t *testing.T) {
	assert.Equal(t, Senior, NormalizeExperienceLevel("Senior"))
	assert.Equal(t, Junior, NormalizeExperienceLevel("  Junior "))
	assert.Equal(t, MidLevel, NormalizeExperienceLevel(""))
	assert.Equal(t, MidLevel, NormalizeExperienceLevel("Principal"))
	assert.Equal(t, MidLevel, NormalizeExperienceLevel("senior"))
}

func TestJobPostingValidate(t *testing.T) {
	valid := JobPosting{ID: "1", Title: "t", Company: "c", ExperienceLevel: Senior, Requirements: []string{"Go"}}
	require.NoError(t, valid.Validate())

	noReqs := valid
	noReqs.Requirements = nil
	assert.Error(t, noReqs.Validate())

	badLevel := valid
	badLevel.ExperienceLevel = "Entry-level"
	assert.Error(t, badLevel.Validate())

	blankReq := valid
	blankReq.Requirements = []string{"Go", ""}
	assert.Error(t, blankReq.Validate())
}

func TestMemoryPreservesOrder(t *testing.T) {
	m, err := NewMemory([]JobPosting{
		{ID: "a", Title: "A", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
		{ID: "b", Title: "B", Company: "X", ExperienceLevel: Junior, Requirements: []string{"Go"}},
		{ID: "c", Title: "C", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
	})
	require.NoError(t, err)

	postings, err := m.FindByExperienceLevel(context.Background(), Senior)
	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, "a", postings[0].ID)
	assert.Equal(t, "c", postings[1].ID)

	empty, err := m.FindByExperienceLevel(context.Background(), MidLevel)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// levelOnly hides the concrete catalog so List has to query level by level.
type levelOnly struct {
	Catalog
	failAt ExperienceLevel
}

func (c levelOnly) FindByExperienceLevel(ctx context.Context, level ExperienceLevel) ([]JobPosting, error) {
	if level == c.failAt {
		return nil, ErrUnavailable
	}
	return c.Catalog.FindByExperienceLevel(ctx, level)
}

func TestList(t *testing.T) {
	m, err := NewMemory([]JobPosting{
		{ID: "a", Title: "A", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
		{ID: "b", Title: "B", Company: "X", ExperienceLevel: Junior, Requirements: []string{"Go"}},
		{ID: "c", Title: "C", Company: "X", ExperienceLevel: MidLevel, Requirements: []string{"Go"}},
	})
	require.NoError(t, err)

	all, err := List(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(all))

	byLevel, err := List(context.Background(), levelOnly{Catalog: m})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(byLevel))

	_, err = List(context.Background(), levelOnly{Catalog: m, failAt: MidLevel})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func ids(postings []JobPosting) []string {
	out := make([]string, 0, len(postings))
	for _, p := range postings {
		out = append(out, p.ID)
	}
	return out
}

func TestMemoryReturnsCopies(t *testing.T) {
	m, err := NewMemory([]JobPosting{
		{ID: "a", Title: "A", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
	})
	require.NoError(t, err)

	postings, err := m.FindByExperienceLevel(context.Background(), Senior)
	require.NoError(t, err)
	postings[0].Requirements[0] = "Rust"

	again, err := m.FindByExperienceLevel(context.Background(), Senior)
	require.NoError(t, err)
	assert.Equal(t, "Go", again[0].Requirements[0])
}

func TestMemoryRejectsDuplicates(t *testing.T) {
	_, err := NewMemory([]JobPosting{
		{ID: "a", Title: "A", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
		{ID: "a", Title: "A", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
	})
	assert.ErrorContains(t, err, "duplicate")
}

func TestMemoryConcurrentReads(t *testing.T) {
	m, err := NewMemoryFromFile("testdata/jobs.yaml")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			postings, err := m.FindByExperienceLevel(context.Background(), MidLevel)
			assert.NoError(t, err)
			assert.Len(t, postings, 2)
		}()
	}
	wg.Wait()
}

func TestMemoryHonoursCanceledContext(t *testing.T) {
	m, err := NewMemory(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.FindByExperienceLevel(ctx, Senior)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	postings, err := LoadFile("testdata/jobs.yaml")
	require.NoError(t, err)
	require.Len(t, postings, 4)

	assert.Equal(t, "senior-swe", postings[0].ID)
	assert.Equal(t, Senior, postings[0].ExperienceLevel)
	assert.Equal(t, []string{"Python", "JavaScript", "React", "AWS", "Kubernetes"}, postings[0].Requirements)
	assert.Equal(t, "$120,000 - $180,000", postings[0].SalaryRange)
	assert.Empty(t, postings[1].Benefits)
}

func TestLoadFileInvalid(t *testing.T) {
	_, err := LoadFile("testdata/invalid.yaml")
	assert.Error(t, err)

	_, err = LoadFile("testdata/missing.yaml")
	assert.Error(t, err)
}
