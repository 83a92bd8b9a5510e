package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares one credential between every terminal pointed at the same
// Redis and profile. Writes are announced on a Pub/Sub channel so watchers
// react without waiting for their next poll.
type RedisStore struct {
	rdb     *redis.Client
	profile string
}

// Key returns the Redis key holding the credential for profile.
func Key(profile string) string {
	return fmt.Sprintf("nesa:%s:credential", profile)
}

// EventsChannel returns the Pub/Sub channel announcing credential changes for profile.
func EventsChannel(profile string) string {
	return fmt.Sprintf("nesa:%s:credential_events", profile)
}

// NewRedisStore creates a store for profile. profile must not be empty.
func NewRedisStore(opts *redis.Options, profile string) (*RedisStore, error) {
	if profile == "" {
		return nil, fmt.Errorf("profile cannot be empty")
	}
	return &RedisStore{rdb: redis.NewClient(opts), profile: profile}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Load returns the stored credential, or "" when the key does not exist.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.rdb.Get(ctx, Key(s.profile)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential from Redis: %w", err)
	}
	return token, nil
}

// Save stores token and announces the change.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("credential cannot be empty")
	}
	if err := s.rdb.Set(ctx, Key(s.profile), token, 0).Err(); err != nil {
		return fmt.Errorf("failed to write credential to Redis: %w", err)
	}
	if err := s.rdb.Publish(ctx, EventsChannel(s.profile), "saved").Err(); err != nil {
		return fmt.Errorf("failed to publish credential change: %w", err)
	}
	return nil
}

// Clear deletes the credential and announces the change.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, Key(s.profile)).Err(); err != nil {
		return fmt.Errorf("failed to delete credential from Redis: %w", err)
	}
	if err := s.rdb.Publish(ctx, EventsChannel(s.profile), "cleared").Err(); err != nil {
		return fmt.Errorf("failed to publish credential change: %w", err)
	}
	return nil
}

// Changes is an active subscription to credential change announcements.
// Caller must call Close() when done.
type Changes struct {
	events <-chan struct{}
	cancel func()
	once   sync.Once
}

// Events fires once per announced change. It is closed when the subscription ends.
func (c *Changes) Events() <-chan struct{} {
	return c.events
}

// Close stops the subscription. Safe to call multiple times.
func (c *Changes) Close() error {
	c.once.Do(c.cancel)
	return nil
}

// SubscribeChanges subscribes to change announcements for this profile.
// Context cancellation also stops the subscription.
func (s *RedisStore) SubscribeChanges(ctx context.Context) (*Changes, error) {
	pubsub := s.rdb.Subscribe(ctx, EventsChannel(s.profile))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to credential changes: %w", err)
	}

	events := make(chan struct{}, 1)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// Coalesce: one pending signal is enough, the watcher reloads anyway.
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return &Changes{events: events, cancel: cancel}, nil
}
