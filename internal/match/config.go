// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"fmt"
	"time"
)

// Config holds recalculation pipeline settings for the Engine.
type Config struct {
	// ChunkSize is the number of candidates scored and written per cache
	// chunk. Default: 100.
	ChunkSize int

	// ChunkDelay is an optional pause between chunk writes to bound write
	// throughput against the storage backend. Default: 0 (no delay).
	ChunkDelay time.Duration

	// WritesPerSecond rate-limits chunk writes. 0 = unlimited.
	WritesPerSecond float64

	// MaxParallelSubjects bounds how many subjects a population sweep
	// recalculates concurrently. Default: 4.
	MaxParallelSubjects int
}

// DefaultConfig returns pipeline defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:           100,
		ChunkDelay:          0,
		WritesPerSecond:     0,
		MaxParallelSubjects: 4,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be >= 1, got %d", c.ChunkSize)
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("chunk delay must be >= 0, got %v", c.ChunkDelay)
	}
	if c.WritesPerSecond < 0 {
		return fmt.Errorf("writes per second must be >= 0, got %f", c.WritesPerSecond)
	}
	if c.MaxParallelSubjects < 1 {
		return fmt.Errorf("max parallel subjects must be >= 1, got %d", c.MaxParallelSubjects)
	}
	return nil
}

// SweepOptions override pipeline settings for one population sweep. Zero
// values fall back to the engine configuration.
type SweepOptions struct {
	ChunkSize  int
	ChunkDelay time.Duration
}

// SweepStatus reports the state of the most recent population sweep. It is
// the out-of-band signal callers can use to distinguish "computing in
// progress" from "zero matches".
type SweepStatus struct {
	// Running indicates whether a sweep is currently in progress.
	Running bool `json:"running"`

	// StartedAt is when the current or last sweep began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the last sweep finished.
	CompletedAt time.Time `json:"completed_at"`

	// DurationMS is how long the last sweep took.
	DurationMS int64 `json:"duration_ms"`

	// Subjects is the population size of the last sweep.
	Subjects int `json:"subjects"`

	// FailedSubjects counts subjects whose recalculation reported errors.
	FailedSubjects int `json:"failed_subjects"`

	// SkippedSubjects counts subjects that vanished mid-sweep or were
	// coalesced with an in-flight recalculation.
	SkippedSubjects int `json:"skipped_subjects"`

	// FailedChunks counts cache chunk writes that failed across the sweep.
	FailedChunks int `json:"failed_chunks"`

	// LastError holds the terminal error of the last sweep, if any.
	LastError string `json:"last_error,omitempty"`
}

// SweepReport summarizes one completed population sweep. Partial progress is
// strictly better than none: per-subject failures are counted here, never
// allowed to abort the sweep.
type SweepReport struct {
	Subjects        int           `json:"subjects"`
	FailedSubjects  int           `json:"failed_subjects"`
	SkippedSubjects int           `json:"skipped_subjects"`
	FailedChunks    int           `json:"failed_chunks"`
	Duration        time.Duration `json:"duration"`
}
