// Package headhunter is a small client for the public hh.ru vacancies API.
package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/recruiter (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. The token is optional: vacancy search works anonymously.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// GetVacancy returns the full vacancy including key skills, which search results omit.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var vacancy Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	return &vacancy, nil
}
