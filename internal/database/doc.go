// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package database provides DuckDB-backed persistence for Guidepost: user
// and organization profiles, their attribute sets, and the match score
// cache. It implements the match.AttributeStore and match.CacheStore
// interfaces plus the usage-count source feeding the rarity index.
package database
