package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file and returns the config with its raw bytes.
// KnownFields(true) makes a typo or stale field an immediate error
// instead of a silently ignored parameter.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read strategy config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("parse strategy config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, data, fmt.Errorf("invalid strategy config: %w", err)
	}

	return &cfg, data, nil
}

// Hash generates a SHA-256 over the canonical JSON of the config.
// Structs marshal in field order, so equal configs hash equal.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
