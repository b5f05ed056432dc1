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

// Fetcher resolves effective attribute sets: the deduplicated union of a
// user's personal attributes and, for affiliated mentors, the attributes
// inherited from their organization.
//
// The bulk path batches ids so that a population sweep costs a small
// constant multiple of (population / batchSize) queries instead of one
// round-trip per user.
type Fetcher struct {
	store     AttributeStore
	batchSize int
	logger    zerolog.Logger
}

// NewFetcher creates a Fetcher over the given store. batchSize bounds the
// id count per batched query; values below 1 fall back to 100.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFetcher(store AttributeStore, batchSize int, logger zerolog.Logger) *Fetcher {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Fetcher{
		store:     store,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "fetcher").Logger(),
	}
}

// ResolveProfile returns one user's effective profile.
func (f *Fetcher) ResolveProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	record, personal, err := f.store.GetUserAttributes(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("get user attributes: %w", err)
	}

	var inherited []Attribute
	if record.Role == RoleMentor && record.AffiliationID != nil {
		inherited, err = f.store.GetAffiliationAttributes(ctx, *record.AffiliationID)
		if err != nil {
			return Profile{}, fmt.Errorf("get affiliation attributes: %w", err)
		}
	}

	return Profile{
		UserID:     record.ID,
		Role:       record.Role,
		Attributes: mergeAttributes(personal, inherited),
	}, nil
}

// ResolveProfilesBulk returns effective profiles for a population. Ids are
// split into fixed-size batches; each batch costs one users query, one
// personal-attributes query, and one organization-attributes query. Unknown
// ids are absent from the result map.
func (f *Fetcher) ResolveProfilesBulk(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Profile, error) {
	profiles := make(map[uuid.UUID]Profile, len(ids))

	for start := 0; start < len(ids); start += f.batchSize {
		end := start + f.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		if err := f.resolveBatch(ctx, ids[start:end], profiles); err != nil {
			return nil, fmt.Errorf("resolve batch [%d:%d]: %w", start, end, err)
		}
	}

	f.logger.Debug().
		Int("requested", len(ids)).
		Int("resolved", len(profiles)).
		Msg("bulk profile resolution complete")

	return profiles, nil
}

// resolveBatch fetches one id batch and merges results into out.
func (f *Fetcher) resolveBatch(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID]Profile) error {
	records, err := f.store.GetUsersBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("get users: %w", err)
	}

	personal, err := f.store.GetUserAttributesBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("get user attributes: %w", err)
	}

	// Organization attributes are fetched once per distinct affiliation.
	orgIDs := make([]uuid.UUID, 0, len(records))
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, rec := range records {
		if rec.Role != RoleMentor || rec.AffiliationID == nil {
			continue
		}
		if _, ok := seen[*rec.AffiliationID]; ok {
			continue
		}
		seen[*rec.AffiliationID] = struct{}{}
		orgIDs = append(orgIDs, *rec.AffiliationID)
	}

	var orgAttrs map[uuid.UUID][]Attribute
	if len(orgIDs) > 0 {
		orgAttrs, err = f.store.GetAffiliationAttributesBatch(ctx, orgIDs)
		if err != nil {
			return fmt.Errorf("get affiliation attributes: %w", err)
		}
	}

	for id, rec := range records {
		var inherited []Attribute
		if rec.Role == RoleMentor && rec.AffiliationID != nil {
			inherited = orgAttrs[*rec.AffiliationID]
		}
		out[id] = Profile{
			UserID:     rec.ID,
			Role:       rec.Role,
			Attributes: mergeAttributes(personal[id], inherited),
		}
	}

	return nil
}

// mergeAttributes unions attribute slices, deduplicating by value and
// keeping the first-seen category for each value.
func mergeAttributes(personal, inherited []Attribute) []Attribute {
	merged := make([]Attribute, 0, len(personal)+len(inherited))
	seen := make(map[string]struct{}, len(personal)+len(inherited))

	for _, set := range [2][]Attribute{personal, inherited} {
		for _, attr := range set {
			if _, ok := seen[attr.Value]; ok {
				continue
			}
			seen[attr.Value] = struct{}{}
			merged = append(merged, attr)
		}
	}

	return merged
}
