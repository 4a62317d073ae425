// Package storage holds the relay's Redis-backed side channels. Room state is
// never written here; Redis only carries the outbound event mirror.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher publishes one mirrored event.
type Publisher interface {
	PublishEvent(ctx context.Context, event MirroredEvent) error
}

// MirroredEvent is what external observers receive on the mirror channel.
// Room is empty for globally broadcast events.
type MirroredEvent struct {
	Room  string          `json:"room,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Service publishes mirrored events to a Redis channel.
type Service struct {
	Redis   *redis.Client
	Channel string
}

// NewStorageService Constructor
func NewStorageService(rdb *redis.Client, channel string) *Service {
	return &Service{Redis: rdb, Channel: channel}
}

// PublishEvent publishes the event as JSON on the configured channel.
func (s *Service) PublishEvent(ctx context.Context, event MirroredEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal mirrored event: %w", err)
	}
	if err := s.Redis.Publish(ctx, s.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.Channel, err)
	}
	return nil
}

// Subscribe opens a subscription on the mirror channel. Used by observers
// and tests; the relay itself only publishes.
func (s *Service) Subscribe(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, s.Channel)
}
