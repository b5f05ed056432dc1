// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package rarity builds and serves the attribute rarity index: per-value
// scoring weights derived from population-wide usage counts, so scoring a
// pair never needs a database round-trip per attribute.
package rarity

import "strings"

// Bands holds the three-band weight thresholds. Values used by fewer than
// HighMaxUsage users are rare (high weight), values up to MidMaxUsage are
// mid, everything above is common (low weight).
type Bands struct {
	HighMaxUsage  int
	MidMaxUsage   int
	HighWeight    float64
	MidWeight     float64
	LowWeight     float64
	DefaultWeight float64
}

// DefaultBands returns the standard three-band thresholds.
func DefaultBands() Bands {
	return Bands{
		HighMaxUsage:  20,
		MidMaxUsage:   100,
		HighWeight:    2.0,
		MidWeight:     1.5,
		LowWeight:     1.0,
		DefaultWeight: 1.0,
	}
}

// weightFor maps one usage count to a band weight.
func (b Bands) weightFor(count int) float64 {
	switch {
	case count < b.HighMaxUsage:
		return b.HighWeight
	case count <= b.MidMaxUsage:
		return b.MidWeight
	default:
		return b.LowWeight
	}
}

// Index is an immutable rarity snapshot. Once built it is only read, so a
// single snapshot can be shared across concurrent scoring goroutines without
// locking.
type Index struct {
	weights       map[string]float64
	rareMarkers   []string
	rareWeight    float64
	defaultWeight float64
	source        string
}

// NewIndex builds a snapshot from population usage counts.
func NewIndex(counts map[string]int, bands Bands) *Index {
	weights := make(map[string]float64, len(counts))
	for value, count := range counts {
		weights[value] = bands.weightFor(count)
	}
	return &Index{
		weights:       weights,
		defaultWeight: bands.DefaultWeight,
		source:        "usage_counts",
	}
}

// Weight returns the scoring weight of one attribute value. Unknown values
// get the default weight, never an error.
func (i *Index) Weight(value string) float64 {
	if w, ok := i.weights[value]; ok {
		return w
	}
	for _, marker := range i.rareMarkers {
		if strings.Contains(strings.ToLower(value), marker) {
			return i.rareWeight
		}
	}
	return i.defaultWeight
}

// Size returns the number of attribute values carried by this snapshot.
func (i *Index) Size() int {
	return len(i.weights)
}

// Source describes how this snapshot was built: "usage_counts" or
// "fallback".
func (i *Index) Source() string {
	return i.source
}

// commonValues are attribute values known to be widespread across the
// population; they score low even when the usage-count source is down.
var commonValues = []string{
	"javascript", "python", "react", "java", "leadership",
	"communication", "management", "marketing", "agile", "sql",
}

// rareDomains are substrings marking niche specialities that stay high
// weight under the fallback.
var rareDomains = []string{
	"quantum", "embedded", "compiler", "bioinformatics", "cryptograph",
	"robotics", "aerospace", "formal-verification",
}

// NewFallbackIndex builds the static heuristic snapshot used when the
// usage-count source is unavailable. Known-common values score low, values
// containing a rare-domain marker score high, everything else mid.
func NewFallbackIndex(bands Bands) *Index {
	weights := make(map[string]float64, len(commonValues))
	for _, v := range commonValues {
		weights[v] = bands.LowWeight
	}
	return &Index{
		weights:       weights,
		rareMarkers:   rareDomains,
		rareWeight:    bands.HighWeight,
		defaultWeight: bands.MidWeight,
		source:        "fallback",
	}
}
