/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in configuration.
const (
	ProviderMemtable = "memtable"
	ProviderDynamo   = "dynamo"
)

// Dynamo holds the AWS settings of the DynamoDB provider.
type Dynamo struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// Config selects and parameterizes a table provider.
type Config struct {
	Provider string `yaml:"provider"`
	Table    string `yaml:"table"`
	Dynamo   Dynamo `yaml:"dynamo"`
}

// Default returns the zero-configuration setup: an in-memory table named
// "entities".
func Default() Config {
	return Config{
		Provider: ProviderMemtable,
		Table:    "entities",
	}
}

// Load reads configuration in ascending precedence: defaults, an optional
// YAML file, then environment variables. A .env file next to the process is
// folded into the environment first, when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TABLESTORE_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("TABLESTORE_TABLE"); v != "" {
		cfg.Table = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Dynamo.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY"); v != "" {
		cfg.Dynamo.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_KEY"); v != "" {
		cfg.Dynamo.SecretKey = v
	}
}

// Validate checks provider selection and the fields it requires.
func (c Config) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("config: table name is required")
	}
	switch c.Provider {
	case ProviderMemtable:
		return nil
	case ProviderDynamo:
		if c.Dynamo.Region == "" {
			return fmt.Errorf("config: dynamo provider requires a region")
		}
		return nil
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
}
