// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/match"
	"github.com/guidepost-dev/guidepost/internal/metrics"
)

// ReplaceChunk atomically replaces the cache state of one candidate chunk
// for one algorithm version: every pair in the chunk is deleted, then the
// surviving rows (score > 0) are inserted, all in one transaction. A reader
// observes the chunk either entirely old or entirely new.
func (db *DB) ReplaceChunk(ctx context.Context, version string, pairs []match.PairKey, rows []match.Row) error {
	if len(pairs) == 0 {
		return nil
	}

	start := time.Now()
	err := db.replaceChunk(ctx, version, pairs, rows)
	metrics.ObserveDBQuery("replace_chunk", "match_cache", start, err)
	return err
}

func (db *DB) replaceChunk(ctx context.Context, version string, pairs []match.PairKey, rows []match.Row) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	deleteStmt, err := tx.PrepareContext(ctx,
		`DELETE FROM match_cache WHERE subject_id = ? AND candidate_id = ? AND algorithm_version = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk delete: %w", err)
	}
	defer closeQuietly(deleteStmt)

	for _, p := range pairs {
		if _, err := deleteStmt.ExecContext(ctx, p.SubjectID, p.CandidateID, version); err != nil {
			return fmt.Errorf("failed to delete pair (%s, %s): %w", p.SubjectID, p.CandidateID, err)
		}
	}

	insertStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_cache (subject_id, candidate_id, algorithm_version, score, explanation, calculated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer closeQuietly(insertStmt)

	for _, r := range rows {
		explanation, err := json.Marshal(r.Explanation)
		if err != nil {
			return fmt.Errorf("failed to marshal explanation for (%s, %s): %w", r.SubjectID, r.CandidateID, err)
		}
		if _, err := insertStmt.ExecContext(ctx,
			r.SubjectID, r.CandidateID, r.AlgorithmVersion, r.Score, string(explanation), r.CalculatedAt); err != nil {
			return fmt.Errorf("failed to insert row (%s, %s): %w", r.SubjectID, r.CandidateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk: %w", err)
	}
	return nil
}

// TopMatches returns up to limit cache rows for one user ordered by score
// descending. asSubject selects which side of the stored row the user is
// matched on; the returned Result.CandidateID is always the counterpart.
func (db *DB) TopMatches(ctx context.Context, userID uuid.UUID, asSubject bool, version string, limit, minScore int) ([]match.Result, error) {
	column, counterpart := "subject_id", "candidate_id"
	if !asSubject {
		column, counterpart = "candidate_id", "subject_id"
	}

	query := fmt.Sprintf(
		`SELECT %s, score, explanation, calculated_at
		 FROM match_cache
		 WHERE %s = ? AND algorithm_version = ? AND score >= ?
		 ORDER BY score DESC, %s
		 LIMIT ?`, counterpart, column, counterpart)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, version, minScore, limit)
	metrics.ObserveDBQuery("select", "match_cache", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for %s: %w", userID, err)
	}
	defer closeWithLog(rows, "match_cache rows")

	results := make([]match.Result, 0, limit)
	for rows.Next() {
		var (
			result      match.Result
			explanation string
		)
		if err := rows.Scan(&result.CandidateID, &result.Score, &explanation, &result.CalculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if err := json.Unmarshal([]byte(explanation), &result.Explanation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal explanation: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// PruneStale deletes cache rows for one user and algorithm version whose
// calculated_at predates cutoff. Runs after a fully successful
// recalculation so candidates that left the active population do not
// survive in the cache. Returns the number of rows removed.
func (db *DB) PruneStale(ctx context.Context, version string, userID uuid.UUID, asSubject bool, cutoff time.Time) (int64, error) {
	column := "subject_id"
	if !asSubject {
		column = "candidate_id"
	}
	query := fmt.Sprintf(
		`DELETE FROM match_cache WHERE %s = ? AND algorithm_version = ? AND calculated_at < ?`, column)

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, userID, version, cutoff)
	metrics.ObserveDBQuery("delete", "match_cache", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale rows for %s: %w", userID, err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows for %s: %w", userID, err)
	}
	return pruned, nil
}

// GetPair returns the cache row for one pair under one algorithm version,
// checking both storage orders since the pair is logically undirected.
// Returns match.ErrMatchNotFound when no row exists.
func (db *DB) GetPair(ctx context.Context, a, b uuid.UUID, version string) (*match.Row, error) {
	const query = `
		SELECT subject_id, candidate_id, algorithm_version, score, explanation, calculated_at
		FROM match_cache
		WHERE algorithm_version = ?
		  AND ((subject_id = ? AND candidate_id = ?) OR (subject_id = ? AND candidate_id = ?))`

	start := time.Now()
	var (
		row         match.Row
		explanation string
	)
	err := db.conn.QueryRowContext(ctx, query, version, a, b, b, a).
		Scan(&row.SubjectID, &row.CandidateID, &row.AlgorithmVersion, &row.Score, &explanation, &row.CalculatedAt)
	metrics.ObserveDBQuery("select", "match_cache", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pair (%s, %s) version %s: %w", a, b, version, match.ErrMatchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pair (%s, %s): %w", a, b, err)
	}

	if err := json.Unmarshal([]byte(explanation), &row.Explanation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal explanation: %w", err)
	}
	return &row, nil
}
