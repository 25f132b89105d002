package config

import (
	"os"
	"strconv"

	"timelog/pkg/search"
)

// Environment variable names.
const (
	EnvChunkSize      = "TIMELOG_CHUNK_SIZE"
	EnvTrailingChunks = "TIMELOG_TRAILING_CHUNKS"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:      search.DefaultChunkSize,
		TrailingChunks: search.DefaultTrailingChunks,
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. Unparseable values are ignored in favor of the configured ones.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvChunkSize); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv(EnvTrailingChunks); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TrailingChunks = n
		}
	}
}
