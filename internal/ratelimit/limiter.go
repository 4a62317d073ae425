// Package ratelimit throttles inbound websocket events per connection.
package ratelimit

import "context"

// Limiter decides whether one more event for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Forget drops any state kept for key.
	Forget(ctx context.Context, key string)
}

// Unlimited allows everything.
type Unlimited struct{}

// Allow implements Limiter.
func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

// Forget implements Limiter.
func (Unlimited) Forget(context.Context, string) {}
