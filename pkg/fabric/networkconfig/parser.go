package networkconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a connection profile from a YAML or JSON file
func LoadFromFile(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection profile %s: %w", path, err)
	}
	return config, nil
}

// LoadFromBytes loads a connection profile from a byte slice. JSON profiles
// parse as YAML.
func LoadFromBytes(data []byte) (*NetworkConfig, error) {
	var config NetworkConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveToFile saves a connection profile to a YAML file
func (c *NetworkConfig) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
