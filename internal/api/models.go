// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package api provides the HTTP surface for Guidepost: match queries,
// recalculation triggers, and operational endpoints, routed with Chi.
package api

import "time"

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Status   string    `json:"status"` // "success" or "error"
	Data     any       `json:"data,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response timing information.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a machine-readable error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes used across handlers.
const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeNotFound         = "NOT_FOUND"
	codeConflict         = "CONFLICT"
	codeInternal         = "INTERNAL_ERROR"
	codeUnknownAlgorithm = "UNKNOWN_ALGORITHM"
)
