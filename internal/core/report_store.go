package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxYAMLFileSize caps the size of a YAML file the store will read (1 MB).
// Merge reports for even very large bundles stay well under 1 MB.
const maxYAMLFileSize = 1 << 20

// YAMLStore provides generic YAML file I/O for any serializable type.
// The merge report uses it; it also backs report round-trips in tests.
type YAMLStore[T any] struct {
	rootDir      string
	filename     string
	allowMissing bool // If true, missing file returns zero value instead of error
}

// NewYAMLStore creates a new YAML store for type T.
func NewYAMLStore[T any](rootDir, filename string, allowMissing bool) *YAMLStore[T] {
	return &YAMLStore[T]{
		rootDir:      rootDir,
		filename:     filename,
		allowMissing: allowMissing,
	}
}

// Path returns the full file path
func (s *YAMLStore[T]) Path() string {
	return filepath.Join(s.rootDir, s.filename)
}

// Load reads and unmarshals the YAML file into type T, rejecting files over
// maxYAMLFileSize.
func (s *YAMLStore[T]) Load() (T, error) {
	var result T

	info, err := os.Stat(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return result, nil
		}
		return result, err
	}
	if info.Size() > maxYAMLFileSize {
		return result, fmt.Errorf("%s exceeds maximum size (%d bytes > %d byte limit)", s.filename, info.Size(), maxYAMLFileSize)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return result, nil
		}
		return result, err
	}

	if err := yaml.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("invalid %s: %w", s.filename, err)
	}
	return result, nil
}

// Save marshals and writes type T to the YAML file
func (s *YAMLStore[T]) Save(data T) error {
	bytes, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.filename, err)
	}
	if err := os.WriteFile(s.Path(), bytes, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.filename, err)
	}
	return nil
}
