package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const selectByLevel = `SELECT id, title, company, location, type, experience_level,
        requirements, salary_range, benefits, description
 FROM job_postings
 WHERE experience_level = $1
 ORDER BY position, id`

// Postgres serves postings from a job_postings table.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// EnsureSchema creates the job_postings table when it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", wrapUnavailable(err))
	}
	return nil
}

func (p *Postgres) FindByExperienceLevel(ctx context.Context, level ExperienceLevel) ([]JobPosting, error) {
	rows, err := p.pool.Query(ctx, selectByLevel, string(level))
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", wrapUnavailable(err))
	}
	defer rows.Close()

	var postings []JobPosting
	for rows.Next() {
		var jp JobPosting
		var lvl string
		if err := rows.Scan(&jp.ID, &jp.Title, &jp.Company, &jp.Location, &jp.Type, &lvl,
			&jp.Requirements, &jp.SalaryRange, &jp.Benefits, &jp.Description); err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		jp.ExperienceLevel = ExperienceLevel(lvl)
		postings = append(postings, jp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job postings: %w", wrapUnavailable(err))
	}

	return postings, nil
}

// Upsert inserts or updates postings in a single transaction. New rows are
// appended in slice order so FindByExperienceLevel keeps that order.
func (p *Postgres) Upsert(ctx context.Context, postings []JobPosting) (int, error) {
	for i := range postings {
		if err := postings[i].Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", wrapUnavailable(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, jp := range postings {
		benefits := jp.Benefits
		if benefits == nil {
			benefits = []string{}
		}
		batch.Queue(
			`INSERT INTO job_postings (id, title, company, location, type, experience_level,
			                           requirements, salary_range, benefits, description)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
			     title = EXCLUDED.title, company = EXCLUDED.company, location = EXCLUDED.location,
			     type = EXCLUDED.type, experience_level = EXCLUDED.experience_level,
			     requirements = EXCLUDED.requirements, salary_range = EXCLUDED.salary_range,
			     benefits = EXCLUDED.benefits, description = EXCLUDED.description`,
			jp.ID, jp.Title, jp.Company, jp.Location, jp.Type, string(jp.ExperienceLevel),
			jp.Requirements, jp.SalaryRange, benefits, jp.Description,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to upsert job postings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit job postings: %w", wrapUnavailable(err))
	}

	return len(postings), nil
}

// wrapUnavailable tags connection-level failures with ErrUnavailable so callers
// can tell them apart from data errors.
func wrapUnavailable(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
