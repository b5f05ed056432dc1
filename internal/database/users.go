// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/match"
	"github.com/guidepost-dev/guidepost/internal/metrics"
)

// CreateOrganization inserts an organization and returns its id.
func (db *DB) CreateOrganization(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO organizations (id, name) VALUES (?, ?)`, id, name)
	metrics.ObserveDBQuery("insert", "organizations", start, err)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create organization %q: %w", name, err)
	}
	return id, nil
}

// CreateUser inserts an active user and returns their id. organizationID may
// be nil for unaffiliated users.
func (db *DB) CreateUser(ctx context.Context, displayName string, role match.Role, organizationID *uuid.UUID) (uuid.UUID, error) {
	if !role.Valid() {
		return uuid.Nil, fmt.Errorf("invalid role %q", role)
	}

	id := uuid.New()
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, display_name, role, organization_id) VALUES (?, ?, ?, ?)`,
		id, displayName, string(role), organizationID)
	metrics.ObserveDBQuery("insert", "users", start, err)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user %q: %w", displayName, err)
	}
	return id, nil
}

// SetUserAttributes replaces a user's personal attribute set.
func (db *DB) SetUserAttributes(ctx context.Context, userID uuid.UUID, attrs []match.Attribute) error {
	start := time.Now()
	err := db.replaceAttributes(ctx, "user_attributes", "user_id", userID, attrs)
	metrics.ObserveDBQuery("replace", "user_attributes", start, err)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, userID)
	return err
}

// SetOrganizationAttributes replaces an organization's attribute set.
func (db *DB) SetOrganizationAttributes(ctx context.Context, orgID uuid.UUID, attrs []match.Attribute) error {
	start := time.Now()
	err := db.replaceAttributes(ctx, "organization_attributes", "organization_id", orgID, attrs)
	metrics.ObserveDBQuery("replace", "organization_attributes", start, err)
	return err
}

// SetUserActive flips a user's active flag. Inactive users drop out of the
// candidate population on the next recalculation.
func (db *DB) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, userID)
	metrics.ObserveDBQuery("update", "users", start, err)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("user %s: %w", userID, match.ErrUserNotFound)
	}
	return nil
}

func (db *DB) replaceAttributes(ctx context.Context, table, ownerColumn string, ownerID uuid.UUID, attrs []match.Attribute) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin attribute transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, ownerColumn), ownerID); err != nil {
		return fmt.Errorf("failed to clear %s for %s: %w", table, ownerID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, value, category) VALUES (?, ?, ?)`, table, ownerColumn))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer closeQuietly(stmt)

	seen := make(map[string]struct{}, len(attrs))
	for _, attr := range attrs {
		if _, dup := seen[attr.Value]; dup {
			continue
		}
		seen[attr.Value] = struct{}{}
		if _, err := stmt.ExecContext(ctx, ownerID, attr.Value, attr.Category); err != nil {
			return fmt.Errorf("failed to insert attribute %q: %w", attr.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attributes: %w", err)
	}
	return nil
}
