// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package algorithms

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guidepost-dev/guidepost/internal/match"
)

const (
	// TagOverlapVersion identifies the weighted tag-overlap algorithm.
	TagOverlapVersion = "tag-overlap-v1"

	// TagOverlapMaxScore is this version's score ceiling. The cache schema
	// reserves headroom to 100 for future versions that add other signal
	// types.
	TagOverlapMaxScore = 60

	// confidenceSaturation is the shared-attribute count at which the
	// confidence term reaches 1.0.
	confidenceSaturation = 5

	// maxExplainedAttributes bounds the shared-attribute list stored with
	// each explanation.
	maxExplainedAttributes = 5

	jaccardWeight    = 0.5
	confidenceWeight = 0.3
	diversityWeight  = 0.2
)

const (
	summaryNoAttributes = "no attributes available for matching"
	summaryNoOverlap    = "no shared attributes"
)

// TagOverlap scores a pair by rarity-weighted attribute overlap. The score
// blends three signals: a weighted Jaccard index over the attribute sets, a
// confidence term that dampens pairs with very few shared attributes, and a
// diversity term that penalizes badly asymmetric set sizes.
type TagOverlap struct {
	BaseAlgorithm
}

// NewTagOverlap creates the v1 weighted tag-overlap algorithm.
func NewTagOverlap() *TagOverlap {
	return &TagOverlap{
		BaseAlgorithm: NewBaseAlgorithm(
			TagOverlapVersion,
			TagOverlapMaxScore,
			"Rarity-weighted attribute overlap with confidence and diversity damping",
		),
	}
}

// Score computes the compatibility score between two profiles. It is a pure
// function: the same profiles and rarity index always yield the same result,
// and swapping subject and candidate yields the same numeric score.
func (a *TagOverlap) Score(subject, candidate match.Profile, rarity match.RarityIndex) (int, match.Explanation) {
	if len(subject.Attributes) == 0 || len(candidate.Attributes) == 0 {
		return 0, match.Explanation{Summary: summaryNoAttributes}
	}

	candidateByValue := make(map[string]match.Attribute, len(candidate.Attributes))
	for _, attr := range candidate.Attributes {
		if _, seen := candidateByValue[attr.Value]; !seen {
			candidateByValue[attr.Value] = attr
		}
	}

	// Shared attributes keep the subject's ordering so explanations read
	// the way the subject lists their interests. Duplicate values count
	// once everywhere: scoring operates on sets.
	var shared []match.Attribute
	var sharedWeight, unionWeight float64
	var subjectSize int
	seen := make(map[string]struct{}, len(subject.Attributes)+len(candidate.Attributes))
	for _, attr := range subject.Attributes {
		if _, dup := seen[attr.Value]; dup {
			continue
		}
		seen[attr.Value] = struct{}{}
		subjectSize++
		w := rarity.Weight(attr.Value)
		unionWeight += w
		if _, ok := candidateByValue[attr.Value]; ok {
			shared = append(shared, attr)
			sharedWeight += w
		}
	}
	for _, attr := range candidate.Attributes {
		if _, dup := seen[attr.Value]; dup {
			continue
		}
		seen[attr.Value] = struct{}{}
		unionWeight += rarity.Weight(attr.Value)
	}
	candidateSize := len(candidateByValue)

	if len(shared) == 0 {
		return 0, match.Explanation{Summary: summaryNoOverlap}
	}

	jaccard := sharedWeight / unionWeight
	confidence := math.Min(float64(len(shared)), confidenceSaturation) / confidenceSaturation
	smaller := math.Min(float64(subjectSize), float64(candidateSize))
	larger := math.Max(float64(subjectSize), float64(candidateSize))
	diversity := smaller / larger

	combined := jaccardWeight*jaccard + confidenceWeight*confidence + diversityWeight*diversity
	score := int(math.Round(combined * TagOverlapMaxScore))

	return score, a.explain(score, shared, rarity)
}

// explain builds the tiered summary and the top shared attributes, rarest
// first.
func (a *TagOverlap) explain(score int, shared []match.Attribute, rarity match.RarityIndex) match.Explanation {
	top := make([]match.Attribute, len(shared))
	copy(top, shared)
	sort.SliceStable(top, func(i, j int) bool {
		return rarity.Weight(top[i].Value) > rarity.Weight(top[j].Value)
	})
	if len(top) > maxExplainedAttributes {
		top = top[:maxExplainedAttributes]
	}

	tier := "Weak"
	switch {
	case score >= 40:
		tier = "Strong"
	case score >= 20:
		tier = "Moderate"
	}

	noun := "tags"
	if len(shared) == 1 {
		noun = "tag"
	}
	values := make([]string, len(top))
	for i, attr := range top {
		values[i] = attr.Value
	}

	return match.Explanation{
		Summary: fmt.Sprintf("%s match: %d shared %s (%s)",
			tier, len(shared), noun, strings.Join(values, ", ")),
		SharedAttributes: top,
	}
}
