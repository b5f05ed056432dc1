// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/guidepost-dev/guidepost/internal/match"
)

// Recalculator triggers a single-subject recalculation. Implemented by
// match.Engine.
type Recalculator interface {
	RecalculateForUser(ctx context.Context, userID uuid.UUID) error
}

// NewRouter builds the event router: profile-update messages trigger a
// recalculation for the affected user. Panics are recovered and failed
// handlers retried with backoff before the message is dropped.
func NewRouter(bus *Bus, recalc Recalculator, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		Logger:          logger,
	}.Middleware)

	router.AddNoPublisherHandler(
		"recalculate-on-profile-update",
		TopicProfileUpdated,
		bus.Subscriber(),
		func(msg *message.Message) error {
			var event ProfileUpdated
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				// Malformed payloads can never succeed; drop instead
				// of retrying.
				logger.Error("Dropping malformed profile event", err, watermill.LogFields{
					"message_id": msg.UUID,
				})
				return nil
			}

			err := recalc.RecalculateForUser(msg.Context(), event.UserID)
			if errors.Is(err, match.ErrUserNotFound) {
				// User deleted between event and processing.
				logger.Debug("Profile event for missing user, skipping", watermill.LogFields{
					"user_id": event.UserID,
				})
				return nil
			}
			return err
		},
	)

	return router, nil
}
