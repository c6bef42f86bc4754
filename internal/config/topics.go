package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTopics reads the coverage topic table from a YAML file mapping topic
// names to keyword lists. A missing file is not an error; callers fall back
// to the built-in table.
func LoadTopics(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var topics map[string][]string
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}
	return topics, nil
}
