// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/guidepost-dev/guidepost/internal/match"
)

// Sweeper runs full population recalculations. Implemented by match.Engine.
type Sweeper interface {
	RecalculateAll(ctx context.Context, opts match.SweepOptions) (*match.SweepReport, error)
}

// SweepServiceConfig holds the periodic sweep schedule.
type SweepServiceConfig struct {
	// RunOnStartup triggers one sweep when the service starts.
	RunOnStartup bool

	// Interval is how often to re-sweep the population.
	Interval time.Duration
}

// SweepService runs scheduled population sweeps under supervision. Sweep
// failures are logged and retried on the next tick; they never crash the
// service.
type SweepService struct {
	sweeper Sweeper
	config  SweepServiceConfig
	logger  zerolog.Logger
}

// NewSweepService creates the sweep scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSweepService(sweeper Sweeper, cfg SweepServiceConfig, logger zerolog.Logger) *SweepService {
	return &SweepService{
		sweeper: sweeper,
		config:  cfg,
		logger:  logger.With().Str("service", "sweep").Logger(),
	}
}

// Serve implements suture.Service.
func (s *SweepService) Serve(ctx context.Context) error {
	interval := s.config.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", interval).
		Msg("Sweep service starting")

	if s.config.RunOnStartup {
		s.sweep(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Sweep service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SweepService) sweep(ctx context.Context) {
	report, err := s.sweeper.RecalculateAll(ctx, match.SweepOptions{})
	switch {
	case errors.Is(err, match.ErrSweepRunning):
		s.logger.Debug().Msg("Sweep already in progress, skipping scheduled run")
	case err != nil:
		s.logger.Warn().Err(err).Msg("Scheduled sweep failed, will retry next tick")
	default:
		s.logger.Info().
			Int("subjects", report.Subjects).
			Int("failed_subjects", report.FailedSubjects).
			Int("failed_chunks", report.FailedChunks).
			Msg("Scheduled sweep finished")
	}
}

func (s *SweepService) String() string {
	return "sweep-service"
}
