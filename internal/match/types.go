// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Note: This package has no dependencies on other internal packages.
// The AttributeStore and CacheStore interfaces allow integration with the
// database package without creating circular imports.

// Role identifies which side of the mentor/mentee pairing a user is on.
type Role string

const (
	// RoleMentor is the offering side. Mentors may be affiliated with an
	// organization and inherit its attributes.
	RoleMentor Role = "mentor"

	// RoleMentee is the receiving side. Cache rows are normalized so the
	// stored subject is always the mentee-role id.
	RoleMentee Role = "mentee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMentor || r == RoleMentee
}

// Opposite returns the complementary role.
func (r Role) Opposite() Role {
	if r == RoleMentor {
		return RoleMentee
	}
	return RoleMentor
}

// Attribute is a categorized classification value attached to a user or
// organization. Attributes are identified by their stable value string.
type Attribute struct {
	// Value is the stable identifier (e.g. "react", "fintech").
	Value string `json:"value"`

	// Category groups the value within the taxonomy (e.g. "technology",
	// "industry").
	Category string `json:"category"`
}

// Profile is a user's effective matching input: role plus the deduplicated
// union of personal and inherited attributes.
type Profile struct {
	UserID uuid.UUID `json:"user_id"`

	Role Role `json:"role"`

	// Attributes is the effective attribute set. A profile with zero
	// attributes is valid and scores 0 against everyone.
	Attributes []Attribute `json:"attributes"`
}

// Explanation is the human-readable justification stored alongside a score.
type Explanation struct {
	// Summary is a tiered one-line description ("Strong match: ...").
	Summary string `json:"summary"`

	// SharedAttributes lists the top shared attributes that produced the
	// score, rarest first.
	SharedAttributes []Attribute `json:"shared_attributes,omitempty"`
}

// Row is one persisted match cache entry. SubjectID always denotes the
// mentee-role side regardless of which user triggered the recalculation.
type Row struct {
	SubjectID        uuid.UUID   `json:"subject_id"`
	CandidateID      uuid.UUID   `json:"candidate_id"`
	AlgorithmVersion string      `json:"algorithm_version"`
	Score            int         `json:"score"`
	Explanation      Explanation `json:"explanation"`
	CalculatedAt     time.Time   `json:"calculated_at"`
}

// PairKey identifies one stored (subject, candidate) pair.
type PairKey struct {
	SubjectID   uuid.UUID
	CandidateID uuid.UUID
}

// Result is one entry of a read-path match listing. CandidateID is always
// the counterpart of the queried user, whichever side of the stored row
// that user occupies.
type Result struct {
	CandidateID  uuid.UUID   `json:"candidate_id"`
	Score        int         `json:"score"`
	Explanation  Explanation `json:"explanation"`
	CalculatedAt time.Time   `json:"calculated_at"`
}

// AlgorithmInfo describes one registered scoring algorithm for callers that
// offer algorithm selection.
type AlgorithmInfo struct {
	Version     string `json:"version"`
	MaxScore    int    `json:"max_score"`
	Description string `json:"description"`
}

// RarityIndex supplies per-attribute weights to scoring algorithms. Lookups
// for unknown values return a default weight, never an error.
type RarityIndex interface {
	Weight(value string) float64
}

// SnapshotProvider hands out the current immutable rarity snapshot. Rebuilds
// swap in a new snapshot; in-flight scoring keeps the one it started with.
type SnapshotProvider interface {
	Snapshot() RarityIndex
}

// Algorithm is one versioned scoring implementation. Score must be a pure
// function of its inputs: identical profiles and rarity index produce an
// identical (score, explanation) pair.
type Algorithm interface {
	// Version returns the algorithm identifier stored in cache rows
	// (e.g. "tag-overlap-v1").
	Version() string

	// MaxScore returns the highest score this algorithm can produce. The
	// cache schema reserves headroom to 100 for versions that add other
	// signal types; callers must not assume 100 is reachable.
	MaxScore() int

	// Description returns a short human-readable summary.
	Description() string

	// Score computes the compatibility score between two profiles.
	Score(subject, candidate Profile, rarity RarityIndex) (int, Explanation)
}

// UserRecord is the stored identity of a user, without attributes.
type UserRecord struct {
	ID            uuid.UUID
	Role          Role
	AffiliationID *uuid.UUID
}

// AttributeStore is the read-only attribute-fetch interface owned by the
// surrounding application. The batch methods take pre-sized id groups; the
// Fetcher is responsible for splitting larger populations.
type AttributeStore interface {
	// GetUserAttributes returns an active user's record and personal
	// attributes. Missing or inactive users yield ErrUserNotFound.
	GetUserAttributes(ctx context.Context, userID uuid.UUID) (UserRecord, []Attribute, error)

	// GetAffiliationAttributes returns the attributes of an organization.
	GetAffiliationAttributes(ctx context.Context, orgID uuid.UUID) ([]Attribute, error)

	// GetActiveUsersByRole returns the bounded candidate population.
	GetActiveUsersByRole(ctx context.Context, role Role) ([]uuid.UUID, error)

	// GetUsersBatch returns records for the given ids in one query.
	// Missing ids are simply absent from the result map.
	GetUsersBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserRecord, error)

	// GetUserAttributesBatch returns personal attributes keyed by user id.
	GetUserAttributesBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Attribute, error)

	// GetAffiliationAttributesBatch returns organization attributes keyed
	// by organization id.
	GetAffiliationAttributesBatch(ctx context.Context, orgIDs []uuid.UUID) (map[uuid.UUID][]Attribute, error)
}

// CacheStore persists and serves match cache rows.
type CacheStore interface {
	// ReplaceChunk atomically replaces the cache state of every pair in
	// the chunk for one algorithm version: all pairs are deleted, then the
	// surviving rows (score > 0) are inserted. Either the whole chunk
	// applies or none of it does.
	ReplaceChunk(ctx context.Context, version string, pairs []PairKey, rows []Row) error

	// TopMatches returns up to limit rows for a user ordered by score
	// descending. When asSubject is true the user is matched on the
	// stored subject column, otherwise on the candidate column; the
	// returned Result.CandidateID is always the counterpart. Rows below
	// minScore are excluded. No rows is an empty slice, not an error.
	TopMatches(ctx context.Context, userID uuid.UUID, asSubject bool, version string, limit, minScore int) ([]Result, error)

	// GetPair returns the cache row for a pair regardless of which id was
	// stored as subject. Missing rows yield ErrMatchNotFound.
	GetPair(ctx context.Context, a, b uuid.UUID, version string) (*Row, error)

	// PruneStale deletes rows for one user and algorithm version whose
	// calculated_at predates cutoff. A full recalculation stamps every
	// row it writes with one timestamp, so pruning at that cutoff evicts
	// exactly the candidates that left the population since the previous
	// run. asSubject selects which stored column holds the user.
	PruneStale(ctx context.Context, version string, userID uuid.UUID, asSubject bool, cutoff time.Time) (int64, error)
}

// Sentinel errors for the taxonomy in the error-handling design: not-found
// aborts one unit of work, unknown-algorithm rejects the single request.
var (
	// ErrUserNotFound indicates the subject or candidate does not exist or
	// is inactive.
	ErrUserNotFound = errors.New("user not found")

	// ErrMatchNotFound indicates no cache row exists for the requested
	// pair and version. Indistinguishable from "computed and scored zero"
	// because zero-score rows are not persisted.
	ErrMatchNotFound = errors.New("match not found")

	// ErrUnknownAlgorithm indicates the requested algorithm version is not
	// registered.
	ErrUnknownAlgorithm = errors.New("unknown algorithm version")

	// ErrSweepRunning indicates a population sweep is already in progress.
	ErrSweepRunning = errors.New("sweep already in progress")
)
