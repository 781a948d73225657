package config

import (
	"fmt"
	"os"

	"github.com/shopalloy/ratewise/pkg/rating"
	"gopkg.in/yaml.v3"
)

// LoadCatalog reads the rating configuration (locations, profiles, boxes,
// rules, fees) from a YAML file and validates every record. The host admin
// system owns the file; this service only consumes it.
func LoadCatalog(path string) (*rating.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var cfg rating.Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if err := rating.ValidateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return &cfg, nil
}
