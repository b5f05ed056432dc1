// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package rarity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/guidepost-dev/guidepost/internal/match"
	"github.com/guidepost-dev/guidepost/internal/metrics"
)

// UsageCountSource supplies population-wide attribute usage counts. The
// source may fail or be unavailable; the loader degrades to a heuristic
// fallback instead of propagating the failure into scoring.
type UsageCountSource interface {
	GetAttributeUsageCounts(ctx context.Context) (map[string]int, error)
}

const breakerName = "usage-counts"

// Loader builds rarity snapshots from the usage-count source and hands out
// the current one. Snapshots are immutable; a reload swaps the pointer, so
// in-flight recalculation runs keep scoring against the snapshot they
// started with.
type Loader struct {
	source  UsageCountSource
	bands   Bands
	breaker *gobreaker.CircuitBreaker[map[string]int]
	current atomic.Pointer[Index]
	logger  zerolog.Logger
}

// NewLoader creates a rarity loader. The initial snapshot is the heuristic
// fallback; call Reload to replace it with real usage counts.
func NewLoader(source UsageCountSource, bands Bands, logger zerolog.Logger) *Loader {
	log := logger.With().Str("component", "rarity_loader").Logger()

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[map[string]int](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Usage-count circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	l := &Loader{
		source:  source,
		bands:   bands,
		breaker: breaker,
		logger:  log,
	}
	l.install(NewFallbackIndex(bands))
	return l
}

// Reload rebuilds the snapshot from the usage-count source. On failure the
// previous snapshot stays in place, so Reload can never leave scoring
// without weights; the error is returned for the caller's logging.
func (l *Loader) Reload(ctx context.Context) error {
	counts, err := l.breaker.Execute(func() (map[string]int, error) {
		return l.source.GetAttributeUsageCounts(ctx)
	})
	if err != nil {
		current := l.current.Load()
		l.logger.Warn().Err(err).
			Str("kept", current.Source()).
			Int("entries", current.Size()).
			Msg("Usage-count query failed, keeping previous rarity snapshot")
		return err
	}

	l.install(NewIndex(counts, l.bands))
	l.logger.Info().Int("entries", len(counts)).Msg("Rarity index rebuilt from usage counts")
	return nil
}

// Snapshot returns the current immutable rarity index. Implements
// match.SnapshotProvider.
func (l *Loader) Snapshot() match.RarityIndex {
	return l.current.Load()
}

// Current returns the current snapshot as its concrete type.
func (l *Loader) Current() *Index {
	return l.current.Load()
}

func (l *Loader) install(idx *Index) {
	l.current.Store(idx)
	metrics.RarityReloads.WithLabelValues(idx.Source()).Inc()
	metrics.RarityIndexSize.Set(float64(idx.Size()))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
