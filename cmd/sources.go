package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/ai/gemini"
	"github.com/spigell/recruiter/internal/catalog"
	"github.com/spigell/recruiter/internal/headhunter"
	"github.com/spigell/recruiter/internal/secrets"
)

const (
	sourceFile       = "file"
	sourcePostgres   = "postgres"
	sourceHeadhunter = "headhunter"
)

// openCatalog builds the job catalog selected by config. The returned close
// function is never nil.
func openCatalog(ctx context.Context, cfg *CatalogConfig, logger *zap.Logger) (catalog.Catalog, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, errors.New("catalog configuration is required")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case sourceFile, "":
		mem, err := catalog.NewMemoryFromFile(cfg.File)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
		}
		logger.Info("job catalog loaded", zap.String("source", sourceFile), zap.String("file", cfg.File), zap.Int("postings", mem.Len()))
		return mem, noop, nil

	case sourcePostgres:
		db, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("job catalog connected", zap.String("source", sourcePostgres))
		return db, db.Close, nil

	case sourceHeadhunter:
		mem, err := snapshotHeadhunter(ctx, cfg.Headhunter, logger)
		if err != nil {
			return nil, noop, err
		}
		return mem, noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported catalog source: %s", cfg.Source)
	}
}

func connectPostgres(ctx context.Context, cfg *CatalogConfig) (*catalog.Postgres, error) {
	url, err := secrets.Load(secrets.Source{
		Name: "database url",
		File: cfg.DatabaseURLFile,
		Env:  "DATABASE_URL",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set catalog.database-url-file, DATABASE_URL_FILE or DATABASE_URL)", err)
	}

	db, err := catalog.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func snapshotHeadhunter(ctx context.Context, cfg *HeadhunterConfig, logger *zap.Logger) (*catalog.Memory, error) {
	if cfg == nil {
		cfg = &HeadhunterConfig{}
	}

	// Vacancy search works without a token; it only raises rate limits.
	token, err := secrets.Load(secrets.Source{Name: "headhunter token", File: cfg.TokenFile, Env: "HH_TOKEN"})
	if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
		return nil, err
	}

	hh := headhunter.New(logger, token)
	if cfg.UserAgent != "" {
		hh.UserAgent = cfg.UserAgent
	}

	params := cfg.Search
	if params == nil {
		params = &headhunter.SearchParams{}
	}
	if params.Limit == 0 {
		params.Limit = cfg.MaxVacancies
	}

	logger.Info("taking headhunter catalog snapshot", zap.String("search", params.Text), zap.Int("limit", params.Limit))

	return catalog.SnapshotHeadhunter(ctx, hh, params, logger)
}

// newCapability builds the analysis capability. A configuration problem is
// returned as an error; callers decide whether runs should proceed without it.
func newCapability(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Capability, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: ai configuration is missing", ai.ErrUnavailable)
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", ai.ErrUnavailable, err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        cfg.Gemini.Model,
		MaxRetries:   cfg.Gemini.MaxRetries,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}, logger)
	if err != nil {
		return nil, err
	}

	return generator, nil
}
