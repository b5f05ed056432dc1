// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Versioned schema migration support. Applied migrations are tracked in the
// schema_migrations table so each runs exactly once; the initial schema is
// idempotent CREATE IF NOT EXISTS and always executed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/guidepost-dev/guidepost/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// initialSchema holds the consolidated base schema. Migrations below start
// from version 1 for post-release changes.
const initialSchema = `
CREATE TABLE IF NOT EXISTS organizations (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	display_name TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('mentor', 'mentee')),
	organization_id UUID,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_attributes (
	user_id UUID NOT NULL,
	value TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, value)
);

CREATE TABLE IF NOT EXISTS organization_attributes (
	organization_id UUID NOT NULL,
	value TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (organization_id, value)
);

CREATE TABLE IF NOT EXISTS match_cache (
	subject_id UUID NOT NULL,
	candidate_id UUID NOT NULL,
	algorithm_version TEXT NOT NULL,
	score INTEGER NOT NULL,
	explanation TEXT NOT NULL,
	calculated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (subject_id, candidate_id, algorithm_version)
);

CREATE INDEX IF NOT EXISTS idx_users_role_active ON users (role, active);
CREATE INDEX IF NOT EXISTS idx_match_cache_subject ON match_cache (subject_id, algorithm_version, score);
CREATE INDEX IF NOT EXISTS idx_match_cache_candidate ON match_cache (candidate_id, algorithm_version, score);
`

// getMigrations returns all versioned migrations in order. Migrations are
// append-only: never modify or remove an entry once databases exist with it
// applied.
func (db *DB) getMigrations() []Migration {
	return []Migration{
		// Post-release migrations will be added here, starting from
		// version 1.
	}
}

// RunMigrations creates the base schema and applies any pending versioned
// migrations.
func (db *DB) RunMigrations(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, initialSchema); err != nil {
		return fmt.Errorf("failed to create base schema: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range db.getMigrations() {
		if _, done := applied[m.Version]; done {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		logging.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applied migration")
	}

	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "schema_migrations rows")

	applied := make(map[int]struct{})
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = struct{}{}
	}
	return applied, rows.Err()
}
