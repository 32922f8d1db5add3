package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// LoadCatalog reads a YAML topic catalog override. The file holds a list of
// topics:
//
//	- name: naming conventions
//	  meeting_minutes: 30
//	  urgency: surprisingly urgent
func LoadCatalog(path string) ([]types.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML catalog data and validates every entry.
func ParseCatalog(data []byte) ([]types.Topic, error) {
	var topics []types.Topic
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(topics) == 0 {
		return nil, &ConfigError{Input: "catalog-file", Reason: "catalog is empty"}
	}
	for i, topic := range topics {
		if topic.Name == "" {
			return nil, &ConfigError{Input: "catalog-file", Reason: fmt.Sprintf("topic %d has no name", i)}
		}
		if topic.MeetingMinutes <= 0 {
			return nil, &ConfigError{Input: "catalog-file", Reason: fmt.Sprintf("topic %q has non-positive meeting length", topic.Name)}
		}
	}
	return topics, nil
}
