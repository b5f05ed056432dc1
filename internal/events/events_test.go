// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
)

type recordingRecalculator struct {
	mu    sync.Mutex
	calls []uuid.UUID
	done  chan struct{}
}

func (r *recordingRecalculator) RecalculateForUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID)
	select {
	case r.done <- struct{}{}:
	default:
	}
	return nil
}

func TestProfileUpdateTriggersRecalculation(t *testing.T) {
	logger := watermill.NopLogger{}
	bus := NewBus(8, logger)
	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Errorf("bus close failed: %v", err)
		}
	})

	recalc := &recordingRecalculator{done: make(chan struct{}, 1)}
	router, err := NewRouter(bus, recalc, logger)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := router.Run(ctx); err != nil {
			t.Errorf("router run failed: %v", err)
		}
	}()
	<-router.Running()

	userID := uuid.New()
	if err := bus.PublishProfileUpdated(userID); err != nil {
		t.Fatalf("PublishProfileUpdated failed: %v", err)
	}

	select {
	case <-recalc.done:
	case <-time.After(5 * time.Second):
		t.Fatal("recalculation was not triggered within 5s")
	}

	recalc.mu.Lock()
	defer recalc.mu.Unlock()
	if len(recalc.calls) != 1 || recalc.calls[0] != userID {
		t.Errorf("recalculated users = %v, want [%s]", recalc.calls, userID)
	}
}

func TestBusPublishAfterCloseFails(t *testing.T) {
	bus := NewBus(8, watermill.NopLogger{})
	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := bus.PublishProfileUpdated(uuid.New()); err == nil {
		t.Error("publish on a closed bus should fail")
	}
}
