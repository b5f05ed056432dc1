// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/logging"
	"github.com/guidepost-dev/guidepost/internal/match"
)

// seedUser describes one mock user for development environments.
type seedUser struct {
	name   string
	role   match.Role
	org    string // organization name, empty for unaffiliated
	values []string
}

var seedOrganizations = []struct {
	name   string
	values []string
}{
	{"Lumen Fintech", []string{"fintech", "payments"}},
	{"Orbital Labs", []string{"aerospace", "embedded"}},
}

var seedUsers = []seedUser{
	{"Priya N.", match.RoleMentor, "Lumen Fintech", []string{"react", "typescript", "leadership"}},
	{"Marcus W.", match.RoleMentor, "Orbital Labs", []string{"rust", "c++"}},
	{"Elena K.", match.RoleMentor, "", []string{"python", "machine-learning", "fintech"}},
	{"Jordan T.", match.RoleMentee, "", []string{"react", "fintech"}},
	{"Sam O.", match.RoleMentee, "", []string{"rust", "embedded", "robotics"}},
	{"Ava L.", match.RoleMentee, "", []string{"python", "data-engineering"}},
}

// SeedMockData populates a small development population. Idempotent: a
// non-empty users table skips seeding.
func (db *DB) SeedMockData(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		logging.Debug().Int("users", count).Msg("Users present, skipping mock data seed")
		return nil
	}

	orgIDByName := make(map[string]uuid.UUID, len(seedOrganizations))
	for _, org := range seedOrganizations {
		id, err := db.CreateOrganization(ctx, org.name)
		if err != nil {
			return err
		}
		orgIDByName[org.name] = id

		attrs := make([]match.Attribute, len(org.values))
		for i, v := range org.values {
			attrs[i] = match.Attribute{Value: v, Category: "industry"}
		}
		if err := db.SetOrganizationAttributes(ctx, id, attrs); err != nil {
			return err
		}
	}

	for _, u := range seedUsers {
		var affiliation *uuid.UUID
		if u.org != "" {
			orgID, ok := orgIDByName[u.org]
			if !ok {
				return fmt.Errorf("seed user %q references unknown organization %q", u.name, u.org)
			}
			affiliation = &orgID
		}

		userID, err := db.CreateUser(ctx, u.name, u.role, affiliation)
		if err != nil {
			return err
		}

		attrs := make([]match.Attribute, len(u.values))
		for i, v := range u.values {
			attrs[i] = match.Attribute{Value: v, Category: "skill"}
		}
		if err := db.SetUserAttributes(ctx, userID, attrs); err != nil {
			return err
		}
	}

	logging.Info().
		Int("organizations", len(seedOrganizations)).
		Int("users", len(seedUsers)).
		Msg("Seeded mock development data")
	return nil
}
