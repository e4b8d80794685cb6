package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spigell/recruiter/internal/workflow"
)

// TextSource turns a resume file reference into plain text.
type TextSource interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// MaxResumeBytes bounds resume files read from disk.
const MaxResumeBytes = 1 << 20

// PlainTextSource reads UTF-8 text files. Binary formats such as PDF need a
// dedicated source.
type PlainTextSource struct{}

func (PlainTextSource) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".doc", ".docx":
		return "", fmt.Errorf("%w: %s files are not supported, convert to text first", workflow.ErrInvalidInput, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", workflow.ErrInvalidInput, err)
	}
	if info.Size() > MaxResumeBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", workflow.ErrInvalidInput, path, MaxResumeBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", workflow.ErrInvalidInput, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", workflow.ErrInvalidInput, path)
	}

	return string(data), nil
}
