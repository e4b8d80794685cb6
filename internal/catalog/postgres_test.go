package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pg, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer pg.Close()

	require.NoError(t, pg.EnsureSchema(ctx))
	_, err = pg.pool.Exec(ctx, "DELETE FROM job_postings WHERE id LIKE 'test-%'")
	require.NoError(t, err)

	n, err := pg.Upsert(ctx, []JobPosting{
		{ID: "test-b", Title: "B", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go"}},
		{ID: "test-a", Title: "A", Company: "X", ExperienceLevel: Senior, Requirements: []string{"Go", "SQL"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	postings, err := pg.FindByExperienceLevel(ctx, Senior)
	require.NoError(t, err)

	var ids []string
	for _, p := range postings {
		if len(p.ID) > 5 && p.ID[:5] == "test-" {
			ids = append(ids, p.ID)
		}
	}
	assert.Equal(t, []string{"test-b", "test-a"}, ids)
}

func TestConnectUnavailable(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	_, err := Connect(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.ErrorIs(t, err, ErrUnavailable)
}
