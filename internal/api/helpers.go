// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/logging"
)

// respondJSON sends a success envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, &APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: &Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError sends an error envelope. err is logged, never exposed.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API error")
	}
	writeEnvelope(w, status, &APIResponse{
		Status:   "error",
		Metadata: &Metadata{Timestamp: time.Now().UTC()},
		Error:    &APIError{Code: code, Message: message},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// uuidParam parses a UUID path parameter. Responds 400 and returns false on
// failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest,
			name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// intQuery extracts an integer query parameter with a default.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
