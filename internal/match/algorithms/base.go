// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package algorithms

// BaseAlgorithm provides the identity methods shared by all scoring
// algorithms.
type BaseAlgorithm struct {
	version     string
	maxScore    int
	description string
}

// NewBaseAlgorithm creates the common algorithm identity.
func NewBaseAlgorithm(version string, maxScore int, description string) BaseAlgorithm {
	return BaseAlgorithm{
		version:     version,
		maxScore:    maxScore,
		description: description,
	}
}

// Version returns the algorithm identifier stored in cache rows.
func (b BaseAlgorithm) Version() string {
	return b.version
}

// MaxScore returns the highest score this algorithm can produce.
func (b BaseAlgorithm) MaxScore() int {
	return b.maxScore
}

// Description returns a short human-readable summary.
func (b BaseAlgorithm) Description() string {
	return b.description
}
