// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reloader refreshes the rarity index from usage counts. Implemented by
// rarity.Loader.
type Reloader interface {
	Reload(ctx context.Context) error
}

// RarityService periodically refreshes attribute rarity weights. A failed
// reload keeps the previous snapshot, so failures are logged and retried
// on the next tick.
type RarityService struct {
	reloader Reloader
	interval time.Duration
	logger   zerolog.Logger
}

// NewRarityService creates the rarity refresh scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRarityService(reloader Reloader, interval time.Duration, logger zerolog.Logger) *RarityService {
	return &RarityService{
		reloader: reloader,
		interval: interval,
		logger:   logger.With().Str("service", "rarity").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RarityService) Serve(ctx context.Context) error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	s.logger.Info().Dur("interval", interval).Msg("Rarity refresh service starting")

	s.reload(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Rarity refresh service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.reload(ctx)
		}
	}
}

func (s *RarityService) reload(ctx context.Context) {
	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Rarity reload failed, previous snapshot kept")
		return
	}
	s.logger.Debug().Msg("Rarity index refreshed")
}

func (s *RarityService) String() string {
	return "rarity-service"
}
