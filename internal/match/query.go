// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultMatchLimit is the number of matches returned when the caller
	// does not ask for a specific count.
	DefaultMatchLimit = 20

	// MaxMatchLimit caps how many matches a single query may return.
	MaxMatchLimit = 100
)

// QueryService serves cached match scores. It never computes scores itself;
// reads that find nothing return an empty result, and the sweep status is
// the signal for "not computed yet".
type QueryService struct {
	cache        CacheStore
	store        AttributeStore
	registry     *Registry
	defaultLimit int
	maxLimit     int
	logger       zerolog.Logger
}

// NewQueryService creates a read-path service over the match cache.
// defaultLimit and maxLimit fall back to the package defaults when
// non-positive.
func NewQueryService(cache CacheStore, store AttributeStore, registry *Registry, defaultLimit, maxLimit int, logger zerolog.Logger) *QueryService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultMatchLimit
	}
	if maxLimit < defaultLimit {
		maxLimit = MaxMatchLimit
	}
	return &QueryService{
		cache:        cache,
		store:        store,
		registry:     registry,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger.With().Str("component", "match_query").Logger(),
	}
}

// FindMatches returns the top cached matches for a user under one algorithm
// version, best score first. The user's role decides which cache column to
// scan: receiving-role users are stored as subjects, the opposite role as
// candidates. Returns ErrUserNotFound for unknown or inactive users and
// ErrUnknownAlgorithm for unregistered versions.
func (s *QueryService) FindMatches(ctx context.Context, userID uuid.UUID, version string, limit, minScore int) ([]Result, error) {
	if _, err := s.registry.Get(version); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if minScore < 0 {
		minScore = 0
	}

	user, _, err := s.store.GetUserAttributes(ctx, userID)
	if err != nil {
		return nil, err
	}

	asSubject := user.Role == ReceivingRole
	results, err := s.cache.TopMatches(ctx, userID, asSubject, version, limit, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for %s: %w", userID, err)
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Str("version", version).
		Int("results", len(results)).
		Msg("Match query served")

	return results, nil
}

// ExplainMatch returns the cached score and explanation for one pair under
// one algorithm version, regardless of argument order. Returns
// ErrMatchNotFound when no row exists; with the cache alone that is
// indistinguishable from "scored zero", so callers should treat both as
// "no meaningful match".
func (s *QueryService) ExplainMatch(ctx context.Context, userA, userB uuid.UUID, version string) (*Row, error) {
	if _, err := s.registry.Get(version); err != nil {
		return nil, err
	}

	result, err := s.cache.GetPair(ctx, userA, userB, version)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAlgorithms describes every registered algorithm version.
func (s *QueryService) ListAlgorithms() []AlgorithmInfo {
	return s.registry.List()
}
