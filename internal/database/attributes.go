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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/match"
	"github.com/guidepost-dev/guidepost/internal/metrics"
)

// GetUserAttributes returns an active user's record and personal attributes.
// Missing or inactive users yield match.ErrUserNotFound.
func (db *DB) GetUserAttributes(ctx context.Context, userID uuid.UUID) (match.UserRecord, []match.Attribute, error) {
	start := time.Now()

	var (
		record match.UserRecord
		role   string
		orgID  sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, role, organization_id FROM users WHERE id = ? AND active`,
		userID).Scan(&record.ID, &role, &orgID)
	metrics.ObserveDBQuery("select", "users", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return match.UserRecord{}, nil, fmt.Errorf("user %s: %w", userID, match.ErrUserNotFound)
	}
	if err != nil {
		return match.UserRecord{}, nil, fmt.Errorf("failed to query user %s: %w", userID, err)
	}

	record.Role = match.Role(role)
	if orgID.Valid {
		id, err := uuid.Parse(orgID.String)
		if err != nil {
			return match.UserRecord{}, nil, fmt.Errorf("invalid organization id for user %s: %w", userID, err)
		}
		record.AffiliationID = &id
	}

	attrs, err := db.queryAttributes(ctx,
		`SELECT value, category FROM user_attributes WHERE user_id = ?`,
		"user_attributes", userID)
	if err != nil {
		return match.UserRecord{}, nil, err
	}
	return record, attrs, nil
}

// GetAffiliationAttributes returns the attributes of one organization.
func (db *DB) GetAffiliationAttributes(ctx context.Context, orgID uuid.UUID) ([]match.Attribute, error) {
	return db.queryAttributes(ctx,
		`SELECT value, category FROM organization_attributes WHERE organization_id = ?`,
		"organization_attributes", orgID)
}

// GetActiveUsersByRole returns all active user ids with the given role.
func (db *DB) GetActiveUsersByRole(ctx context.Context, role match.Role) ([]uuid.UUID, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM users WHERE role = ? AND active ORDER BY id`, string(role))
	metrics.ObserveDBQuery("select", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by role %s: %w", role, err)
	}
	defer closeWithLog(rows, "users rows")

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetUsersBatch returns active user records keyed by id. Missing ids are
// absent from the result map.
func (db *DB) GetUsersBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]match.UserRecord, error) {
	out := make(map[uuid.UUID]match.UserRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT id, role, organization_id FROM users WHERE active AND id IN (` + placeholders(len(ids)) + `)`
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, idArgs(ids)...)
	metrics.ObserveDBQuery("select", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query user batch: %w", err)
	}
	defer closeWithLog(rows, "users rows")

	for rows.Next() {
		var (
			record match.UserRecord
			role   string
			orgID  sql.NullString
		)
		if err := rows.Scan(&record.ID, &role, &orgID); err != nil {
			return nil, fmt.Errorf("failed to scan user record: %w", err)
		}
		record.Role = match.Role(role)
		if orgID.Valid {
			id, err := uuid.Parse(orgID.String)
			if err != nil {
				return nil, fmt.Errorf("invalid organization id for user %s: %w", record.ID, err)
			}
			record.AffiliationID = &id
		}
		out[record.ID] = record
	}
	return out, rows.Err()
}

// GetUserAttributesBatch returns personal attributes keyed by user id.
func (db *DB) GetUserAttributesBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]match.Attribute, error) {
	return db.queryAttributesBatch(ctx,
		`SELECT user_id, value, category FROM user_attributes WHERE user_id IN (`,
		"user_attributes", ids)
}

// GetAffiliationAttributesBatch returns organization attributes keyed by
// organization id.
func (db *DB) GetAffiliationAttributesBatch(ctx context.Context, orgIDs []uuid.UUID) (map[uuid.UUID][]match.Attribute, error) {
	return db.queryAttributesBatch(ctx,
		`SELECT organization_id, value, category FROM organization_attributes WHERE organization_id IN (`,
		"organization_attributes", orgIDs)
}

// GetAttributeUsageCounts returns, for every attribute value, how many
// distinct active users carry it either personally or through their
// organization. Feeds the rarity index.
func (db *DB) GetAttributeUsageCounts(ctx context.Context) (map[string]int, error) {
	const query = `
		SELECT value, COUNT(DISTINCT user_id) AS usage_count FROM (
			SELECT ua.value, ua.user_id
			FROM user_attributes ua
			JOIN users u ON u.id = ua.user_id
			WHERE u.active
			UNION
			SELECT oa.value, u.id AS user_id
			FROM organization_attributes oa
			JOIN users u ON u.organization_id = oa.organization_id
			WHERE u.active AND u.role = 'mentor'
		) GROUP BY value`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	metrics.ObserveDBQuery("select", "attribute_usage", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribute usage counts: %w", err)
	}
	defer closeWithLog(rows, "usage count rows")

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value string
			count int
		)
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage count: %w", err)
		}
		counts[value] = count
	}
	return counts, rows.Err()
}

func (db *DB) queryAttributes(ctx context.Context, query, table string, id uuid.UUID) ([]match.Attribute, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, id)
	metrics.ObserveDBQuery("select", table, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer closeWithLog(rows, table+" rows")

	var attrs []match.Attribute
	for rows.Next() {
		var attr match.Attribute
		if err := rows.Scan(&attr.Value, &attr.Category); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, rows.Err()
}

func (db *DB) queryAttributesBatch(ctx context.Context, queryPrefix, table string, ids []uuid.UUID) (map[uuid.UUID][]match.Attribute, error) {
	out := make(map[uuid.UUID][]match.Attribute, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := queryPrefix + placeholders(len(ids)) + `)`
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, idArgs(ids)...)
	metrics.ObserveDBQuery("select", table, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s batch: %w", table, err)
	}
	defer closeWithLog(rows, table+" rows")

	for rows.Next() {
		var (
			owner uuid.UUID
			attr  match.Attribute
		)
		if err := rows.Scan(&owner, &attr.Value, &attr.Category); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		out[owner] = append(out[owner], attr)
	}
	return out, rows.Err()
}

// placeholders returns "?, ?, ..." with n entries for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
