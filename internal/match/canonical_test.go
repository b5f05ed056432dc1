// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanonicalize(t *testing.T) {
	mentee := uuid.New()
	mentor := uuid.New()

	tests := []struct {
		name          string
		subjectID     uuid.UUID
		candidateID   uuid.UUID
		subjectRole   Role
		wantSubject   uuid.UUID
		wantCandidate uuid.UUID
	}{
		{
			name:          "mentee subject stored as-is",
			subjectID:     mentee,
			candidateID:   mentor,
			subjectRole:   RoleMentee,
			wantSubject:   mentee,
			wantCandidate: mentor,
		},
		{
			name:          "mentor subject swapped",
			subjectID:     mentor,
			candidateID:   mentee,
			subjectRole:   RoleMentor,
			wantSubject:   mentee,
			wantCandidate: mentor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject, gotCandidate := Canonicalize(tt.subjectID, tt.candidateID, tt.subjectRole)
			if gotSubject != tt.wantSubject {
				t.Errorf("stored subject = %s, want %s", gotSubject, tt.wantSubject)
			}
			if gotCandidate != tt.wantCandidate {
				t.Errorf("stored candidate = %s, want %s", gotCandidate, tt.wantCandidate)
			}
		})
	}
}

func TestCanonicalizeBothDirectionsAgree(t *testing.T) {
	mentee := uuid.New()
	mentor := uuid.New()

	s1, c1 := Canonicalize(mentee, mentor, RoleMentee)
	s2, c2 := Canonicalize(mentor, mentee, RoleMentor)

	if s1 != s2 || c1 != c2 {
		t.Errorf("recalculation direction changed storage order: (%s,%s) vs (%s,%s)", s1, c1, s2, c2)
	}
}
