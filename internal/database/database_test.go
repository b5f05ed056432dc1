// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/config"
	"github.com/guidepost-dev/guidepost/internal/match"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db
}

func TestNewAndPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	// Second run must not fail on existing tables.
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Errorf("repeat RunMigrations failed: %v", err)
	}
}

func TestUserAttributeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	orgID, err := db.CreateOrganization(ctx, "Lumen Fintech")
	if err != nil {
		t.Fatalf("CreateOrganization failed: %v", err)
	}
	if err := db.SetOrganizationAttributes(ctx, orgID, []match.Attribute{
		{Value: "fintech", Category: "industry"},
	}); err != nil {
		t.Fatalf("SetOrganizationAttributes failed: %v", err)
	}

	userID, err := db.CreateUser(ctx, "Priya N.", match.RoleMentor, &orgID)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := db.SetUserAttributes(ctx, userID, []match.Attribute{
		{Value: "react", Category: "skill"},
		{Value: "leadership", Category: "skill"},
	}); err != nil {
		t.Fatalf("SetUserAttributes failed: %v", err)
	}

	record, attrs, err := db.GetUserAttributes(ctx, userID)
	if err != nil {
		t.Fatalf("GetUserAttributes failed: %v", err)
	}
	if record.Role != match.RoleMentor {
		t.Errorf("role = %q, want mentor", record.Role)
	}
	if record.AffiliationID == nil || *record.AffiliationID != orgID {
		t.Errorf("affiliation = %v, want %s", record.AffiliationID, orgID)
	}
	if len(attrs) != 2 {
		t.Errorf("personal attributes = %d, want 2", len(attrs))
	}

	orgAttrs, err := db.GetAffiliationAttributes(ctx, orgID)
	if err != nil {
		t.Fatalf("GetAffiliationAttributes failed: %v", err)
	}
	if len(orgAttrs) != 1 || orgAttrs[0].Value != "fintech" {
		t.Errorf("org attributes = %+v, want fintech", orgAttrs)
	}
}

func TestGetUserAttributesNotFound(t *testing.T) {
	db := newTestDB(t)

	_, _, err := db.GetUserAttributes(context.Background(), uuid.New())
	if !errors.Is(err, match.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestInactiveUsersExcluded(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, "Jordan T.", match.RoleMentee, nil)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := db.SetUserActive(ctx, userID, false); err != nil {
		t.Fatalf("SetUserActive failed: %v", err)
	}

	if _, _, err := db.GetUserAttributes(ctx, userID); !errors.Is(err, match.ErrUserNotFound) {
		t.Errorf("inactive user lookup = %v, want ErrUserNotFound", err)
	}

	ids, err := db.GetActiveUsersByRole(ctx, match.RoleMentee)
	if err != nil {
		t.Fatalf("GetActiveUsersByRole failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("active mentees = %d, want 0", len(ids))
	}
}

func TestGetUsersBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.CreateUser(ctx, "A", match.RoleMentee, nil)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	b, err := db.CreateUser(ctx, "B", match.RoleMentor, nil)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	missing := uuid.New()

	records, err := db.GetUsersBatch(ctx, []uuid.UUID{a, b, missing})
	if err != nil {
		t.Fatalf("GetUsersBatch failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("batch records = %d, want 2", len(records))
	}
	if _, ok := records[missing]; ok {
		t.Error("missing id should be absent from batch result")
	}
}

func TestAttributeUsageCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	orgID, err := db.CreateOrganization(ctx, "Orbital Labs")
	if err != nil {
		t.Fatalf("CreateOrganization failed: %v", err)
	}
	if err := db.SetOrganizationAttributes(ctx, orgID, []match.Attribute{
		{Value: "embedded", Category: "industry"},
	}); err != nil {
		t.Fatalf("SetOrganizationAttributes failed: %v", err)
	}

	// Mentor carries "embedded" both personally and through the org: must
	// count once.
	mentor, err := db.CreateUser(ctx, "M", match.RoleMentor, &orgID)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := db.SetUserAttributes(ctx, mentor, []match.Attribute{
		{Value: "embedded", Category: "skill"},
		{Value: "rust", Category: "skill"},
	}); err != nil {
		t.Fatalf("SetUserAttributes failed: %v", err)
	}

	mentee, err := db.CreateUser(ctx, "E", match.RoleMentee, nil)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := db.SetUserAttributes(ctx, mentee, []match.Attribute{
		{Value: "rust", Category: "skill"},
	}); err != nil {
		t.Fatalf("SetUserAttributes failed: %v", err)
	}

	counts, err := db.GetAttributeUsageCounts(ctx)
	if err != nil {
		t.Fatalf("GetAttributeUsageCounts failed: %v", err)
	}
	if counts["rust"] != 2 {
		t.Errorf("rust count = %d, want 2", counts["rust"])
	}
	if counts["embedded"] != 1 {
		t.Errorf("embedded count = %d, want 1 (personal and inherited dedupe)", counts["embedded"])
	}
}

func TestSeedMockDataIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	mentees, err := db.GetActiveUsersByRole(ctx, match.RoleMentee)
	if err != nil {
		t.Fatalf("GetActiveUsersByRole failed: %v", err)
	}
	if len(mentees) != 3 {
		t.Errorf("seeded mentees = %d, want 3 (seed must not duplicate)", len(mentees))
	}
}

func testRow(subject, candidate uuid.UUID, version string, score int) match.Row {
	return match.Row{
		SubjectID:        subject,
		CandidateID:      candidate,
		AlgorithmVersion: version,
		Score:            score,
		Explanation: match.Explanation{
			Summary: "Moderate match: 2 shared tags (react, fintech)",
			SharedAttributes: []match.Attribute{
				{Value: "react", Category: "skill"},
				{Value: "fintech", Category: "industry"},
			},
		},
		CalculatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestReplaceChunkAndTopMatches(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const version = "tag-overlap-v1"

	subject := uuid.New()
	candidates := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	pairs := make([]match.PairKey, len(candidates))
	rows := []match.Row{
		testRow(subject, candidates[0], version, 46),
		testRow(subject, candidates[1], version, 29),
		// candidates[2] scored zero: pair deleted, no row inserted.
	}
	for i, c := range candidates {
		pairs[i] = match.PairKey{SubjectID: subject, CandidateID: c}
	}

	if err := db.ReplaceChunk(ctx, version, pairs, rows); err != nil {
		t.Fatalf("ReplaceChunk failed: %v", err)
	}

	results, err := db.TopMatches(ctx, subject, true, version, 10, 0)
	if err != nil {
		t.Fatalf("TopMatches failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (zero score row never persisted)", len(results))
	}
	if results[0].Score != 46 || results[1].Score != 29 {
		t.Errorf("scores = [%d, %d], want descending [46, 29]", results[0].Score, results[1].Score)
	}
	if results[0].Explanation.Summary == "" {
		t.Error("explanation did not survive the round trip")
	}

	// Candidate-side lookup returns the subject as counterpart.
	fromCandidate, err := db.TopMatches(ctx, candidates[0], false, version, 10, 0)
	if err != nil {
		t.Fatalf("TopMatches(candidate) failed: %v", err)
	}
	if len(fromCandidate) != 1 || fromCandidate[0].CandidateID != subject {
		t.Errorf("candidate-side result = %+v, want counterpart %s", fromCandidate, subject)
	}
}

func TestReplaceChunkOverwritesStaleRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const version = "tag-overlap-v1"

	subject := uuid.New()
	candidate := uuid.New()
	pair := []match.PairKey{{SubjectID: subject, CandidateID: candidate}}

	if err := db.ReplaceChunk(ctx, version, pair, []match.Row{testRow(subject, candidate, version, 46)}); err != nil {
		t.Fatalf("first ReplaceChunk failed: %v", err)
	}

	// Re-scored to zero: the stale row must disappear.
	if err := db.ReplaceChunk(ctx, version, pair, nil); err != nil {
		t.Fatalf("second ReplaceChunk failed: %v", err)
	}

	if _, err := db.GetPair(ctx, subject, candidate, version); !errors.Is(err, match.ErrMatchNotFound) {
		t.Errorf("stale row lookup = %v, want ErrMatchNotFound", err)
	}
}

func TestPruneStale(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const version = "tag-overlap-v1"

	subject := uuid.New()
	departed := uuid.New()
	current := uuid.New()
	cutoff := time.Now().UTC().Truncate(time.Millisecond)

	stale := testRow(subject, departed, version, 29)
	stale.CalculatedAt = cutoff.Add(-time.Hour)
	fresh := testRow(subject, current, version, 46)
	fresh.CalculatedAt = cutoff

	pairs := []match.PairKey{
		{SubjectID: subject, CandidateID: departed},
		{SubjectID: subject, CandidateID: current},
	}
	if err := db.ReplaceChunk(ctx, version, pairs, []match.Row{stale, fresh}); err != nil {
		t.Fatalf("ReplaceChunk failed: %v", err)
	}

	pruned, err := db.PruneStale(ctx, version, subject, true, cutoff)
	if err != nil {
		t.Fatalf("PruneStale failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	if _, err := db.GetPair(ctx, subject, departed, version); !errors.Is(err, match.ErrMatchNotFound) {
		t.Errorf("stale row lookup = %v, want ErrMatchNotFound", err)
	}
	// Rows stamped at the cutoff itself belong to the current run.
	if _, err := db.GetPair(ctx, subject, current, version); err != nil {
		t.Errorf("fresh row lost: %v", err)
	}
}

func TestPruneStaleCandidateColumn(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const version = "tag-overlap-v1"

	mentor := uuid.New()
	menteeA := uuid.New()
	menteeB := uuid.New()
	cutoff := time.Now().UTC().Truncate(time.Millisecond)

	// The mentor sits in the candidate column of both rows.
	stale := testRow(menteeA, mentor, version, 29)
	stale.CalculatedAt = cutoff.Add(-time.Hour)
	fresh := testRow(menteeB, mentor, version, 46)
	fresh.CalculatedAt = cutoff

	pairs := []match.PairKey{
		{SubjectID: menteeA, CandidateID: mentor},
		{SubjectID: menteeB, CandidateID: mentor},
	}
	if err := db.ReplaceChunk(ctx, version, pairs, []match.Row{stale, fresh}); err != nil {
		t.Fatalf("ReplaceChunk failed: %v", err)
	}

	pruned, err := db.PruneStale(ctx, version, mentor, false, cutoff)
	if err != nil {
		t.Fatalf("PruneStale failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	if _, err := db.GetPair(ctx, menteeA, mentor, version); !errors.Is(err, match.ErrMatchNotFound) {
		t.Errorf("stale row lookup = %v, want ErrMatchNotFound", err)
	}
	if _, err := db.GetPair(ctx, menteeB, mentor, version); err != nil {
		t.Errorf("fresh row lost: %v", err)
	}
}

func TestTopMatchesMinScoreFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const version = "tag-overlap-v1"

	subject := uuid.New()
	low, high := uuid.New(), uuid.New()
	pairs := []match.PairKey{
		{SubjectID: subject, CandidateID: low},
		{SubjectID: subject, CandidateID: high},
	}
	rows := []match.Row{
		testRow(subject, low, version, 12),
		testRow(subject, high, version, 46),
	}
	if err := db.ReplaceChunk(ctx, version, pairs, rows); err != nil {
		t.Fatalf("ReplaceChunk failed: %v", err)
	}

	results, err := db.TopMatches(ctx, subject, true, version, 10, 20)
	if err != nil {
		t.Fatalf("TopMatches failed: %v", err)
	}
	if len(results) != 1 || results[0].CandidateID != high {
		t.Errorf("minScore filter returned %+v, want only the 46-score row", results)
	}
}

func TestGetPairUndirected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const version = "tag-overlap-v1"

	subject := uuid.New()
	candidate := uuid.New()
	if err := db.ReplaceChunk(ctx, version,
		[]match.PairKey{{SubjectID: subject, CandidateID: candidate}},
		[]match.Row{testRow(subject, candidate, version, 29)}); err != nil {
		t.Fatalf("ReplaceChunk failed: %v", err)
	}

	for _, order := range [][2]uuid.UUID{{subject, candidate}, {candidate, subject}} {
		row, err := db.GetPair(ctx, order[0], order[1], version)
		if err != nil {
			t.Fatalf("GetPair(%s, %s) failed: %v", order[0], order[1], err)
		}
		if row.Score != 29 {
			t.Errorf("score = %d, want 29", row.Score)
		}
		if row.SubjectID != subject {
			t.Errorf("stored subject = %s, want %s regardless of lookup order", row.SubjectID, subject)
		}
	}

	// A different algorithm version has no row.
	if _, err := db.GetPair(ctx, subject, candidate, "tag-overlap-v2"); !errors.Is(err, match.ErrMatchNotFound) {
		t.Errorf("other version lookup = %v, want ErrMatchNotFound", err)
	}
}

func TestVersionsCoexist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	subject := uuid.New()
	candidate := uuid.New()
	pair := []match.PairKey{{SubjectID: subject, CandidateID: candidate}}

	if err := db.ReplaceChunk(ctx, "tag-overlap-v1", pair,
		[]match.Row{testRow(subject, candidate, "tag-overlap-v1", 29)}); err != nil {
		t.Fatalf("v1 ReplaceChunk failed: %v", err)
	}
	if err := db.ReplaceChunk(ctx, "tag-overlap-v2", pair,
		[]match.Row{testRow(subject, candidate, "tag-overlap-v2", 52)}); err != nil {
		t.Fatalf("v2 ReplaceChunk failed: %v", err)
	}

	v1, err := db.GetPair(ctx, subject, candidate, "tag-overlap-v1")
	if err != nil {
		t.Fatalf("GetPair v1 failed: %v", err)
	}
	v2, err := db.GetPair(ctx, subject, candidate, "tag-overlap-v2")
	if err != nil {
		t.Fatalf("GetPair v2 failed: %v", err)
	}
	if v1.Score != 29 || v2.Score != 52 {
		t.Errorf("scores = v1:%d v2:%d, want 29 and 52", v1.Score, v2.Score)
	}
}
