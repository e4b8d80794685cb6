package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a catalog seed file.
type File struct {
	Jobs []JobPosting `yaml:"jobs"`
}

// LoadFile reads postings from a YAML file, preserving their order.
func LoadFile(path string) ([]JobPosting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %q: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog file %q: %w", path, err)
	}

	for i := range f.Jobs {
		if err := f.Jobs[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog file %q: %w", path, err)
		}
	}

	return f.Jobs, nil
}

// NewMemoryFromFile is a convenience wrapper around LoadFile and NewMemory.
func NewMemoryFromFile(path string) (*Memory, error) {
	postings, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(postings)
}
