// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package algorithms provides versioned match scoring implementations.
//
// Every algorithm is a pure function over two attribute profiles and a
// rarity index. Versions are registered side by side in a match.Registry so
// the cache can hold rows for multiple algorithm generations at once.
package algorithms
