// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory AttributeStore for engine and fetcher tests.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]UserRecord
	personal map[uuid.UUID][]Attribute
	orgs     map[uuid.UUID][]Attribute

	activeErr  error
	batchCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]UserRecord),
		personal: make(map[uuid.UUID][]Attribute),
		orgs:     make(map[uuid.UUID][]Attribute),
	}
}

func (s *fakeStore) addUser(role Role, affiliation *uuid.UUID, values ...string) uuid.UUID {
	id := uuid.New()
	s.users[id] = UserRecord{ID: id, Role: role, AffiliationID: affiliation}
	attrs := make([]Attribute, len(values))
	for i, v := range values {
		attrs[i] = Attribute{Value: v, Category: "skill"}
	}
	s.personal[id] = attrs
	return id
}

func (s *fakeStore) removeUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	delete(s.personal, id)
}

func (s *fakeStore) GetUserAttributes(_ context.Context, userID uuid.UUID) (UserRecord, []Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return UserRecord{}, nil, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	return rec, s.personal[userID], nil
}

func (s *fakeStore) GetAffiliationAttributes(_ context.Context, orgID uuid.UUID) ([]Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orgs[orgID], nil
}

func (s *fakeStore) GetActiveUsersByRole(_ context.Context, role Role) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	var ids []uuid.UUID
	for id, rec := range s.users {
		if rec.Role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeStore) GetUsersBatch(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	out := make(map[uuid.UUID]UserRecord, len(ids))
	for _, id := range ids {
		if rec, ok := s.users[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (s *fakeStore) GetUserAttributesBatch(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID][]Attribute, len(ids))
	for _, id := range ids {
		if attrs, ok := s.personal[id]; ok {
			out[id] = attrs
		}
	}
	return out, nil
}

func (s *fakeStore) GetAffiliationAttributesBatch(_ context.Context, orgIDs []uuid.UUID) (map[uuid.UUID][]Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID][]Attribute, len(orgIDs))
	for _, id := range orgIDs {
		if attrs, ok := s.orgs[id]; ok {
			out[id] = attrs
		}
	}
	return out, nil
}

// fakeCache is an in-memory CacheStore recording chunk writes.
type fakeCache struct {
	mu         sync.Mutex
	rows       map[string]Row
	chunkSizes []int
	failChunks map[int]error // chunk call index -> error
	pruneErr   error

	lastTopArgs struct {
		userID    uuid.UUID
		asSubject bool
		version   string
		limit     int
		minScore  int
	}
	topResults []Result
}

func newFakeCache() *fakeCache {
	return &fakeCache{rows: make(map[string]Row)}
}

func rowKey(subject, candidate uuid.UUID, version string) string {
	return subject.String() + "|" + candidate.String() + "|" + version
}

func (c *fakeCache) ReplaceChunk(_ context.Context, version string, pairs []PairKey, rows []Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := len(c.chunkSizes)
	c.chunkSizes = append(c.chunkSizes, len(pairs))
	if err, ok := c.failChunks[call]; ok {
		return err
	}

	for _, p := range pairs {
		delete(c.rows, rowKey(p.SubjectID, p.CandidateID, version))
	}
	for _, r := range rows {
		c.rows[rowKey(r.SubjectID, r.CandidateID, version)] = r
	}
	return nil
}

func (c *fakeCache) TopMatches(_ context.Context, userID uuid.UUID, asSubject bool, version string, limit, minScore int) ([]Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastTopArgs.userID = userID
	c.lastTopArgs.asSubject = asSubject
	c.lastTopArgs.version = version
	c.lastTopArgs.limit = limit
	c.lastTopArgs.minScore = minScore
	return c.topResults, nil
}

func (c *fakeCache) GetPair(_ context.Context, a, b uuid.UUID, version string) (*Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row, ok := c.rows[rowKey(a, b, version)]; ok {
		return &row, nil
	}
	if row, ok := c.rows[rowKey(b, a, version)]; ok {
		return &row, nil
	}
	return nil, ErrMatchNotFound
}

func (c *fakeCache) PruneStale(_ context.Context, version string, userID uuid.UUID, asSubject bool, cutoff time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pruneErr != nil {
		return 0, c.pruneErr
	}
	var pruned int64
	for key, row := range c.rows {
		if row.AlgorithmVersion != version || !row.CalculatedAt.Before(cutoff) {
			continue
		}
		owner := row.CandidateID
		if asSubject {
			owner = row.SubjectID
		}
		if owner == userID {
			delete(c.rows, key)
			pruned++
		}
	}
	return pruned, nil
}

func (c *fakeCache) rowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// stubAlgorithm scores by shared attribute value count, ten points each.
type stubAlgorithm struct {
	version string
}

func (a stubAlgorithm) Version() string     { return a.version }
func (a stubAlgorithm) MaxScore() int       { return 60 }
func (a stubAlgorithm) Description() string { return "shared value count" }

func (a stubAlgorithm) Score(subject, candidate Profile, _ RarityIndex) (int, Explanation) {
	values := make(map[string]struct{}, len(subject.Attributes))
	for _, attr := range subject.Attributes {
		values[attr.Value] = struct{}{}
	}
	shared := 0
	for _, attr := range candidate.Attributes {
		if _, ok := values[attr.Value]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0, Explanation{Summary: "no shared attributes"}
	}
	return shared * 10, Explanation{Summary: fmt.Sprintf("%d shared", shared)}
}

// flatRarity returns the same weight for every value.
type flatRarity struct{}

func (flatRarity) Weight(string) float64 { return 1.0 }

// staticProvider hands out a fixed rarity index.
type staticProvider struct{ idx RarityIndex }

func (p staticProvider) Snapshot() RarityIndex { return p.idx }
