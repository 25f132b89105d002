// Package config provides configuration loading and validation for timelog.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"timelog/pkg/timestamp"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// ChunkSize is the window size below which the search switches to a
	// linear scan. Tune it to the log's line density: several lines with
	// distinct times should fit in one chunk.
	ChunkSize int64 `yaml:"chunk_size"`

	// TrailingChunks bounds how many chunks the search may scan backward
	// over malformed trailing lines at the right edge of a window.
	TrailingChunks int `yaml:"trailing_chunks"`

	// ViewerArgs are extra arguments appended to the viewer (less) command.
	ViewerArgs []string `yaml:"viewer_args,omitempty"`

	// ExtractArgs are extra arguments appended to the extraction (dd)
	// command.
	ExtractArgs []string `yaml:"extract_args,omitempty"`
}

// Load reads and validates a configuration file. An empty path yields the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors.
func Validate(cfg *Config) error {
	// A chunk must hold at least a few full timestamps for the search
	// margins to make sense.
	if cfg.ChunkSize < 4*timestamp.Width {
		return fmt.Errorf("chunk_size: must be at least %d bytes, got %d", 4*timestamp.Width, cfg.ChunkSize)
	}
	if cfg.TrailingChunks < 1 {
		return errors.New("trailing_chunks: must be at least 1")
	}
	return nil
}
