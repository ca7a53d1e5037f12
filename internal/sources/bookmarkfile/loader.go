// Package bookmarkfile imports links from a YAML file into the store
// at startup. Categories are matched by name and links by URL, so
// re-running the import is a no-op for entries that already exist.
package bookmarkfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of the import YAML file
type Loader struct {
	filePath string
}

// NewLoader creates a new import file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the import file
func (l *Loader) Load() (*ImportConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var config ImportConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse import yaml: %w", err)
	}

	return &config, nil
}
