// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/config"
	"github.com/guidepost-dev/guidepost/internal/match"
)

type fakeQuerier struct {
	results    []match.Result
	row        *match.Row
	findErr    error
	explainErr error
}

func (f *fakeQuerier) FindMatches(_ context.Context, _ uuid.UUID, _ string, _, _ int) ([]match.Result, error) {
	return f.results, f.findErr
}

func (f *fakeQuerier) ExplainMatch(_ context.Context, _, _ uuid.UUID, _ string) (*match.Row, error) {
	return f.row, f.explainErr
}

func (f *fakeQuerier) ListAlgorithms() []match.AlgorithmInfo {
	return []match.AlgorithmInfo{{Version: "tag-overlap-v1", MaxScore: 60, Description: "test"}}
}

type fakeRecalc struct {
	status    match.SweepStatus
	userCalls chan uuid.UUID
}

func (f *fakeRecalc) RecalculateForUser(_ context.Context, userID uuid.UUID) error {
	if f.userCalls != nil {
		f.userCalls <- userID
	}
	return nil
}

func (f *fakeRecalc) RecalculateAll(_ context.Context, _ match.SweepOptions) (*match.SweepReport, error) {
	return &match.SweepReport{}, nil
}

func (f *fakeRecalc) Status() match.SweepStatus { return f.status }

type fakeReloader struct{ err error }

func (f *fakeReloader) Reload(_ context.Context) error { return f.err }

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

type testServer struct {
	querier  *fakeQuerier
	recalc   *fakeRecalc
	reloader *fakeReloader
	pinger   *fakePinger
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		querier:  &fakeQuerier{},
		recalc:   &fakeRecalc{},
		reloader: &fakeReloader{},
		pinger:   &fakePinger{},
	}
	h := NewHandler(s.querier, s.recalc, s.reloader, s.pinger, "tag-overlap-v1")
	s.handler = NewRouter(h, &config.APIConfig{
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var envelope APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return envelope
}

func TestMatchesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.querier.results = []match.Result{
		{CandidateID: uuid.New(), Score: 46},
		{CandidateID: uuid.New(), Score: 29},
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/matches/"+uuid.NewString())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Status != "success" {
		t.Errorf("envelope status = %q, want success", envelope.Status)
	}
}

func TestMatchesEndpointBadUUID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/matches/not-a-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMatchesEndpointNegativeLimit(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/matches/"+uuid.NewString()+"?limit=-3")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMatchesEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown version", match.ErrUnknownAlgorithm, http.StatusBadRequest, codeUnknownAlgorithm},
		{"unknown user", match.ErrUserNotFound, http.StatusNotFound, codeNotFound},
		{"storage failure", errors.New("io error"), http.StatusInternalServerError, codeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			srv.querier.findErr = tt.err

			rec := srv.do(t, http.MethodGet, "/api/v1/matches/"+uuid.NewString())
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			envelope := decodeEnvelope(t, rec)
			if envelope.Error == nil || envelope.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", envelope.Error, tt.wantCode)
			}
		})
	}
}

func TestExplainEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.querier.row = &match.Row{
		SubjectID:        uuid.New(),
		CandidateID:      uuid.New(),
		AlgorithmVersion: "tag-overlap-v1",
		Score:            29,
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/matches/"+uuid.NewString()+"/"+uuid.NewString())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestExplainEndpointNotFound(t *testing.T) {
	srv := newTestServer(t)
	srv.querier.explainErr = match.ErrMatchNotFound

	rec := srv.do(t, http.MethodGet, "/api/v1/matches/"+uuid.NewString()+"/"+uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAlgorithmsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/algorithms")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRecalculateUserEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.recalc.userCalls = make(chan uuid.UUID, 1)
	userID := uuid.New()

	rec := srv.do(t, http.MethodPost, "/api/v1/recalculate/"+userID.String())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case got := <-srv.recalc.userCalls:
		if got != userID {
			t.Errorf("recalculated user = %s, want %s", got, userID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("recalculation was not triggered within 5s")
	}
}

func TestRecalculateAllEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/recalculate")
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestRecalculateAllConflictWhenRunning(t *testing.T) {
	srv := newTestServer(t)
	srv.recalc.status = match.SweepStatus{Running: true}

	rec := srv.do(t, http.MethodPost, "/api/v1/recalculate")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRecalculateStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.recalc.status = match.SweepStatus{Subjects: 42}

	rec := srv.do(t, http.MethodGet, "/api/v1/recalculate/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRarityReloadEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/rarity/reload")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	srv.reloader.err = errors.New("source down")
	rec = srv.do(t, http.MethodPost, "/api/v1/rarity/reload")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when source is down", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if rec := srv.do(t, http.MethodGet, "/api/v1/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/api/v1/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	srv.pinger.err = errors.New("connection refused")
	if rec := srv.do(t, http.MethodGet, "/api/v1/health/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503 when db is down", rec.Code)
	}
}
