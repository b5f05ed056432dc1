// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import "github.com/google/uuid"

// ReceivingRole is the role-fixed subject side of every cache row. Keeping
// one canonical direction avoids duplicate rows when either side's profile
// change triggers a recalculation.
const ReceivingRole = RoleMentee

// Canonicalize maps a scored pair onto cache storage order. The returned
// subject is always the ReceivingRole id: if the triggering subject already
// has that role the pair is stored as-is, otherwise subject and candidate
// are swapped.
func Canonicalize(subjectID, candidateID uuid.UUID, subjectRole Role) (storedSubject, storedCandidate uuid.UUID) {
	if subjectRole == ReceivingRole {
		return subjectID, candidateID
	}
	return candidateID, subjectID
}
