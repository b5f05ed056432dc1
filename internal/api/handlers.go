// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/logging"
	"github.com/guidepost-dev/guidepost/internal/match"
)

// MatchQuerier serves cached match reads. Implemented by match.QueryService.
type MatchQuerier interface {
	FindMatches(ctx context.Context, userID uuid.UUID, version string, limit, minScore int) ([]match.Result, error)
	ExplainMatch(ctx context.Context, userA, userB uuid.UUID, version string) (*match.Row, error)
	ListAlgorithms() []match.AlgorithmInfo
}

// Recalculator triggers recalculation runs. Implemented by match.Engine.
type Recalculator interface {
	RecalculateForUser(ctx context.Context, userID uuid.UUID) error
	RecalculateAll(ctx context.Context, opts match.SweepOptions) (*match.SweepReport, error)
	Status() match.SweepStatus
}

// RarityReloader rebuilds the rarity index. Implemented by rarity.Loader.
type RarityReloader interface {
	Reload(ctx context.Context) error
}

// Pinger checks storage liveness for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	querier        MatchQuerier
	recalc         Recalculator
	rarity         RarityReloader
	db             Pinger
	defaultVersion string
	recalcTimeout  time.Duration
	validate       *validator.Validate
}

// NewHandler creates the API handler set. defaultVersion is the algorithm
// used when a request does not name one.
func NewHandler(querier MatchQuerier, recalc Recalculator, rarity RarityReloader, db Pinger, defaultVersion string) *Handler {
	return &Handler{
		querier:        querier,
		recalc:         recalc,
		rarity:         rarity,
		db:             db,
		defaultVersion: defaultVersion,
		recalcTimeout:  10 * time.Minute,
		validate:       validator.New(),
	}
}

// matchesRequest holds validated query parameters for match listings.
type matchesRequest struct {
	Limit    int `validate:"gte=0,lte=1000"`
	MinScore int `validate:"gte=0,lte=100"`
}

// Matches handles GET /api/v1/matches/{userID}.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	req := matchesRequest{
		Limit:    intQuery(r, "limit", 0),
		MinScore: intQuery(r, "min_score", 0),
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest,
			"limit and min_score must be non-negative and within bounds", nil)
		return
	}
	version := h.version(r)

	results, err := h.querier.FindMatches(r.Context(), userID, version, req.Limit, req.MinScore)
	switch {
	case errors.Is(err, match.ErrUnknownAlgorithm):
		respondError(w, http.StatusBadRequest, codeUnknownAlgorithm,
			"unknown algorithm version "+version, nil)
		return
	case errors.Is(err, match.ErrUserNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, "user not found", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, codeInternal,
			"failed to query matches", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"version": version,
		"matches": results,
	})
}

// Explain handles GET /api/v1/matches/{userID}/{otherID}.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	userA, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	userB, ok := uuidParam(w, r, "otherID")
	if !ok {
		return
	}
	version := h.version(r)

	row, err := h.querier.ExplainMatch(r.Context(), userA, userB, version)
	switch {
	case errors.Is(err, match.ErrUnknownAlgorithm):
		respondError(w, http.StatusBadRequest, codeUnknownAlgorithm,
			"unknown algorithm version "+version, nil)
		return
	case errors.Is(err, match.ErrMatchNotFound):
		// Absence is ambiguous with "scored zero"; both mean no
		// meaningful match for the caller.
		respondError(w, http.StatusNotFound, codeNotFound,
			"no cached match for this pair", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, codeInternal,
			"failed to query match", err)
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// Algorithms handles GET /api/v1/algorithms.
func (h *Handler) Algorithms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"algorithms": h.querier.ListAlgorithms(),
	})
}

// RecalculateUser handles POST /api/v1/recalculate/{userID}. The run happens
// asynchronously; the response only acknowledges the trigger.
func (h *Handler) RecalculateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.recalcTimeout)
		defer cancel()
		if err := h.recalc.RecalculateForUser(ctx, userID); err != nil {
			logging.Error().Err(err).
				Str("user_id", userID.String()).
				Msg("Triggered recalculation failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"user_id":   userID,
		"triggered": true,
	})
}

// RecalculateAll handles POST /api/v1/recalculate: a full population sweep.
// Returns 409 when a sweep is already in progress.
func (h *Handler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	if h.recalc.Status().Running {
		respondError(w, http.StatusConflict, codeConflict,
			"a population sweep is already running", nil)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.recalcTimeout)
		defer cancel()
		report, err := h.recalc.RecalculateAll(ctx, match.SweepOptions{})
		if err != nil && !errors.Is(err, match.ErrSweepRunning) {
			logging.Error().Err(err).Msg("Triggered sweep failed")
			return
		}
		if report != nil {
			logging.Info().
				Int("subjects", report.Subjects).
				Int("failed_subjects", report.FailedSubjects).
				Msg("Triggered sweep finished")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{"triggered": true})
}

// RecalculateStatus handles GET /api/v1/recalculate/status.
func (h *Handler) RecalculateStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.recalc.Status())
}

// RarityReload handles POST /api/v1/rarity/reload: the manual rarity index
// rebuild entry point.
func (h *Handler) RarityReload(w http.ResponseWriter, r *http.Request) {
	if err := h.rarity.Reload(r.Context()); err != nil {
		// The previous snapshot stays active; report the degradation.
		respondError(w, http.StatusServiceUnavailable, codeInternal,
			"usage-count source unavailable, previous snapshot kept", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reloaded": true})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready: checks storage reachability.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeInternal,
			"database not reachable", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) version(r *http.Request) string {
	if v := r.URL.Query().Get("version"); v != "" {
		return v
	}
	return h.defaultVersion
}
