// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package config defines the Guidepost configuration structure and loads it
// via Koanf v2 from layered sources (defaults, optional YAML file,
// environment variables).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Guidepost match engine.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Match    MatchConfig    `koanf:"match"`
	Rarity   RarityConfig   `koanf:"rarity"`
	Sweep    SweepConfig    `koanf:"sweep"`
	Events   EventsConfig   `koanf:"events"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory database.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`

	// SeedMockData populates a small development population on startup.
	SeedMockData bool `koanf:"seed_mock_data"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MatchConfig holds recalculation pipeline settings.
type MatchConfig struct {
	// ChunkSize is the number of candidates written per cache chunk.
	ChunkSize int `koanf:"chunk_size"`

	// ChunkDelay is an optional pause between chunk writes. 0 = no delay.
	ChunkDelay time.Duration `koanf:"chunk_delay"`

	// WritesPerSecond throttles chunk writes against the storage backend.
	// 0 = unlimited.
	WritesPerSecond float64 `koanf:"writes_per_second"`

	// MaxParallelSubjects bounds concurrent subject recalculations in a sweep.
	MaxParallelSubjects int `koanf:"max_parallel_subjects"`

	// BulkBatchSize is the id-batch size for bulk attribute resolution.
	BulkBatchSize int `koanf:"bulk_batch_size"`

	// Algorithms lists the algorithm versions to register. Scoring
	// parameters are pinned by each version, not configurable: the same
	// version must always produce the same score for the same inputs.
	Algorithms []string `koanf:"algorithms"`
}

// RarityConfig holds attribute rarity index settings.
type RarityConfig struct {
	// RefreshInterval is how often the usage-count snapshot is rebuilt.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// HighMaxUsage is the exclusive upper bound of the high-weight band.
	HighMaxUsage int `koanf:"high_max_usage"`

	// MidMaxUsage is the inclusive upper bound of the mid-weight band.
	MidMaxUsage int `koanf:"mid_max_usage"`

	HighWeight    float64 `koanf:"high_weight"`
	MidWeight     float64 `koanf:"mid_weight"`
	LowWeight     float64 `koanf:"low_weight"`
	DefaultWeight float64 `koanf:"default_weight"`
}

// SweepConfig holds population sweep scheduler settings.
type SweepConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval"`
	RunOnStartup bool          `koanf:"run_on_startup"`
}

// EventsConfig holds profile-change event routing settings.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// BufferSize is the in-process channel buffer for profile.updated messages.
	BufferSize int `koanf:"buffer_size"`
}

// APIConfig holds read-path API settings.
type APIConfig struct {
	DefaultLimit    int           `koanf:"default_limit"`
	MaxLimit        int           `koanf:"max_limit"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Match.ChunkSize < 1 {
		return fmt.Errorf("match.chunk_size must be >= 1, got %d", c.Match.ChunkSize)
	}
	if c.Match.MaxParallelSubjects < 1 {
		return fmt.Errorf("match.max_parallel_subjects must be >= 1, got %d", c.Match.MaxParallelSubjects)
	}
	if c.Match.BulkBatchSize < 1 {
		return fmt.Errorf("match.bulk_batch_size must be >= 1, got %d", c.Match.BulkBatchSize)
	}
	if c.Match.WritesPerSecond < 0 {
		return fmt.Errorf("match.writes_per_second must be >= 0, got %f", c.Match.WritesPerSecond)
	}
	if len(c.Match.Algorithms) == 0 {
		return fmt.Errorf("match.algorithms must name at least one algorithm version")
	}
	if c.Rarity.HighMaxUsage < 1 || c.Rarity.MidMaxUsage <= c.Rarity.HighMaxUsage {
		return fmt.Errorf("rarity bands invalid: high_max_usage=%d mid_max_usage=%d",
			c.Rarity.HighMaxUsage, c.Rarity.MidMaxUsage)
	}
	if c.API.DefaultLimit < 1 || c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api limits invalid: default=%d max=%d", c.API.DefaultLimit, c.API.MaxLimit)
	}
	return nil
}
