package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RegistryConfig is optional server-side configuration for the bundled
// models: per-model pool sizes, whether to enable the shared-memory
// endpoints, and an optional evaluation audit log backend. It has nothing
// to do with umbridge.Config, which is per-request and model-defined; this
// configures the server process itself.
type RegistryConfig struct {
	ShMem     bool             `json:"shmem" yaml:"shmem"`
	PoolSizes map[string]int64 `json:"poolSizes" yaml:"poolSizes"`
	EvalLog   struct {
		Driver string `json:"driver" yaml:"driver"` // "sqlite" or "postgres"
		DSN    string `json:"dsn" yaml:"dsn"`
	} `json:"evalLog" yaml:"evalLog"`
}

// LoadConfig reads and parses a RegistryConfig from path. Supported
// formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*RegistryConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading server config file: %w", err)
	}

	var cfg RegistryConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML server config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON server config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported server config file extension %q: use .json, .yaml, or .yml", ext)
	}

	return &cfg, nil
}

// Options turns a loaded RegistryConfig into server.Option values. The
// eval log backend is not constructed here (it needs a live DB handle);
// callers apply RegistryConfig.EvalLog themselves after Options.
func (c *RegistryConfig) Options() []Option {
	if c == nil {
		return nil
	}
	var opts []Option
	if c.ShMem {
		opts = append(opts, WithShMem(true))
	}
	for model, size := range c.PoolSizes {
		opts = append(opts, WithPoolSize(model, size))
	}
	return opts
}
