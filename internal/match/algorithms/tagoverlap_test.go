// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package algorithms

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/match"
)

// mapRarity is a fixed-weight rarity index for tests.
type mapRarity map[string]float64

func (m mapRarity) Weight(value string) float64 {
	if w, ok := m[value]; ok {
		return w
	}
	return 1.0
}

func profileWith(role match.Role, values ...string) match.Profile {
	attrs := make([]match.Attribute, len(values))
	for i, v := range values {
		attrs[i] = match.Attribute{Value: v, Category: "skill"}
	}
	return match.Profile{UserID: uuid.New(), Role: role, Attributes: attrs}
}

func TestTagOverlapScore(t *testing.T) {
	alg := NewTagOverlap()

	tests := []struct {
		name        string
		subject     match.Profile
		candidate   match.Profile
		rarity      mapRarity
		wantScore   int
		wantSummary string
	}{
		{
			name:        "common tags partial overlap",
			subject:     profileWith(match.RoleMentee, "react", "fintech"),
			candidate:   profileWith(match.RoleMentor, "react", "fintech", "saas"),
			rarity:      mapRarity{},
			wantScore:   29,
			wantSummary: "Moderate match: 2 shared tags (react, fintech)",
		},
		{
			name:        "single rare shared attribute",
			subject:     profileWith(match.RoleMentee, "quantum-annealing"),
			candidate:   profileWith(match.RoleMentor, "quantum-annealing"),
			rarity:      mapRarity{"quantum-annealing": 2.0},
			wantScore:   46,
			wantSummary: "Strong match: 1 shared tag (quantum-annealing)",
		},
		{
			name:        "subject has no attributes",
			subject:     profileWith(match.RoleMentee),
			candidate:   profileWith(match.RoleMentor, "react"),
			rarity:      mapRarity{},
			wantScore:   0,
			wantSummary: "no attributes available for matching",
		},
		{
			name:        "candidate has no attributes",
			subject:     profileWith(match.RoleMentee, "react"),
			candidate:   profileWith(match.RoleMentor),
			rarity:      mapRarity{},
			wantScore:   0,
			wantSummary: "no attributes available for matching",
		},
		{
			name:        "disjoint attribute sets",
			subject:     profileWith(match.RoleMentee, "rust", "embedded"),
			candidate:   profileWith(match.RoleMentor, "marketing", "sales"),
			rarity:      mapRarity{},
			wantScore:   0,
			wantSummary: "no shared attributes",
		},
		{
			name:        "identical sets score full jaccard",
			subject:     profileWith(match.RoleMentee, "go", "grpc", "postgres", "kafka", "terraform"),
			candidate:   profileWith(match.RoleMentor, "go", "grpc", "postgres", "kafka", "terraform"),
			rarity:      mapRarity{},
			wantScore:   60,
			wantSummary: "Strong match: 5 shared tags (go, grpc, postgres, kafka, terraform)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, explanation := alg.Score(tt.subject, tt.candidate, tt.rarity)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if explanation.Summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", explanation.Summary, tt.wantSummary)
			}
		})
	}
}

func TestTagOverlapDeterminism(t *testing.T) {
	alg := NewTagOverlap()
	subject := profileWith(match.RoleMentee, "react", "fintech", "devops")
	candidate := profileWith(match.RoleMentor, "react", "devops", "saas")
	rarity := mapRarity{"devops": 1.5}

	score1, expl1 := alg.Score(subject, candidate, rarity)
	score2, expl2 := alg.Score(subject, candidate, rarity)

	if score1 != score2 {
		t.Errorf("scores differ across calls: %d vs %d", score1, score2)
	}
	if expl1.Summary != expl2.Summary {
		t.Errorf("summaries differ across calls: %q vs %q", expl1.Summary, expl2.Summary)
	}
	if len(expl1.SharedAttributes) != len(expl2.SharedAttributes) {
		t.Fatalf("shared attribute counts differ: %d vs %d",
			len(expl1.SharedAttributes), len(expl2.SharedAttributes))
	}
	for i := range expl1.SharedAttributes {
		if expl1.SharedAttributes[i] != expl2.SharedAttributes[i] {
			t.Errorf("shared attribute %d differs: %+v vs %+v",
				i, expl1.SharedAttributes[i], expl2.SharedAttributes[i])
		}
	}
}

func TestTagOverlapSymmetry(t *testing.T) {
	alg := NewTagOverlap()
	a := profileWith(match.RoleMentee, "react", "fintech")
	b := profileWith(match.RoleMentor, "react", "fintech", "saas")
	rarity := mapRarity{"fintech": 1.5}

	forward, _ := alg.Score(a, b, rarity)
	backward, _ := alg.Score(b, a, rarity)

	if forward != backward {
		t.Errorf("score is not symmetric: %d vs %d", forward, backward)
	}
}

func TestTagOverlapExplanationRarestFirst(t *testing.T) {
	alg := NewTagOverlap()
	values := []string{"a", "b", "c", "d", "e", "f", "g"}
	subject := profileWith(match.RoleMentee, values...)
	candidate := profileWith(match.RoleMentor, values...)
	rarity := mapRarity{"g": 2.0, "f": 1.5}

	_, explanation := alg.Score(subject, candidate, rarity)

	if len(explanation.SharedAttributes) != maxExplainedAttributes {
		t.Fatalf("shared attributes = %d, want %d",
			len(explanation.SharedAttributes), maxExplainedAttributes)
	}
	if explanation.SharedAttributes[0].Value != "g" {
		t.Errorf("first shared attribute = %q, want rarest %q",
			explanation.SharedAttributes[0].Value, "g")
	}
	if explanation.SharedAttributes[1].Value != "f" {
		t.Errorf("second shared attribute = %q, want %q",
			explanation.SharedAttributes[1].Value, "f")
	}
	if !strings.Contains(explanation.Summary, "7 shared tags") {
		t.Errorf("summary %q should report all 7 shared tags", explanation.Summary)
	}
}

func TestTagOverlapDuplicateValuesCountOnce(t *testing.T) {
	alg := NewTagOverlap()
	subject := match.Profile{
		UserID: uuid.New(),
		Role:   match.RoleMentee,
		Attributes: []match.Attribute{
			{Value: "react", Category: "skill"},
			{Value: "react", Category: "interest"},
			{Value: "fintech", Category: "industry"},
		},
	}
	candidate := profileWith(match.RoleMentor, "react", "fintech", "saas")

	score, _ := alg.Score(subject, candidate, mapRarity{})

	// Duplicate "react" must not inflate the weights or the diversity
	// term: scoring operates on sets.
	want := 29
	if score != want {
		t.Errorf("score = %d, want %d", score, want)
	}
}
