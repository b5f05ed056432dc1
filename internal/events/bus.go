// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package events carries profile-change notifications from the write path to
// the recalculation engine over an in-process Watermill channel, decoupling
// HTTP handlers from recalculation latency.
package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicProfileUpdated carries ProfileUpdated payloads.
const TopicProfileUpdated = "profile.updated"

// ProfileUpdated signals that a user's attributes, role, or active flag
// changed and their cached matches are stale.
type ProfileUpdated struct {
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Bus is the in-process pub/sub channel for domain events.
type Bus struct {
	channel *gochannel.GoChannel
}

// NewBus creates the event bus. Buffering keeps publishers non-blocking up
// to the buffer size when the recalculation handler falls behind.
func NewBus(bufferSize int, logger watermill.LoggerAdapter) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Bus{
		channel: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
		}, logger),
	}
}

// PublishProfileUpdated emits a profile-change event for one user.
func (b *Bus) PublishProfileUpdated(userID uuid.UUID) error {
	payload, err := json.Marshal(ProfileUpdated{
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal profile event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.channel.Publish(TopicProfileUpdated, msg); err != nil {
		return fmt.Errorf("failed to publish profile event: %w", err)
	}
	return nil
}

// Subscriber exposes the bus for router wiring.
func (b *Bus) Subscriber() message.Subscriber {
	return b.channel
}

// Close shuts the bus down; pending messages are dropped.
func (b *Bus) Close() error {
	return b.channel.Close()
}
