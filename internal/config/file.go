package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// parseFile reads a JSON or YAML configuration file. JSON documents are
// valid YAML, so one decoder serves both. Durations are written as strings
// such as "30s".
func parseFile(path string) (*StructuredConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a config file: %w", err)
	}
	defer f.Close()

	cfg := &StructuredConfig{}
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
	}

	return cfg, nil
}
