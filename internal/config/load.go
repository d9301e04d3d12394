// internal/config/load.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigJSON holds an inline JSON configuration and wins over any file.
	EnvConfigJSON = "MODBUS_CONFIG_JSON"

	// DefaultFile is read from the working directory when nothing else is given.
	DefaultFile = "points.json"
)

// Resolve picks the configuration source: env MODBUS_CONFIG_JSON, then the
// first argument as a file path, then points.json.
// It returns the parsed config and a description of where it came from.
func Resolve(getenv func(string) string, args []string) (*Config, string, error) {
	if inline := getenv(EnvConfigJSON); inline != "" {
		cfg, err := ParseJSON([]byte(inline))
		if err != nil {
			return nil, "", fmt.Errorf("env %s: %w", EnvConfigJSON, err)
		}
		return cfg, "env:" + EnvConfigJSON, nil
	}

	path := DefaultFile
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Load reads a config file. .yaml and .yml are decoded as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	default:
		cfg, err := ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
}

// ParseJSON decodes a JSON document.
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ParseYAML decodes a YAML document.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
