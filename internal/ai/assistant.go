// Package ai defines the boundary to the natural-language analysis capability.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the capability is not configured or cannot be reached.
	ErrUnavailable = errors.New("ai capability unavailable")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("ai capability returned empty response")
	// ErrBlocked is returned when the provider refused to answer the prompt.
	ErrBlocked = errors.New("ai capability blocked the response")
)

// Capability turns a system instruction and a message into model text.
type Capability interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Describer is implemented by capabilities that can name their provider and model for logs.
type Describer interface {
	Provider() string
	Model() string
}

// Describe returns provider and model for c, or empty strings.
func Describe(c Capability) (provider, model string) {
	if d, ok := c.(Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}
