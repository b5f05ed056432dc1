// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package services

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventRouterService runs the watermill message router under supervision.
// Run blocks until the context is cancelled, then drains handlers within
// the router's close timeout.
type EventRouterService struct {
	router *message.Router
}

// NewEventRouterService wraps a configured router.
func NewEventRouterService(router *message.Router) *EventRouterService {
	return &EventRouterService{router: router}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	return s.router.Run(ctx)
}

func (s *EventRouterService) String() string {
	return "event-router"
}
