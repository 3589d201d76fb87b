package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// redisChannelPrefix namespaces this application's pub/sub channels so a
// shared Redis instance can host other consumers safely.
const redisChannelPrefix = "reflector:broadcast:"

// RedisTransport is the broker-backed half of the swappable pub/sub
// transport (spec.md §9), used once a deployment runs more than one
// worker pod and in-process fanout alone is no longer sufficient.
type RedisTransport struct {
	client *redis.Client

	mu    sync.Mutex
	pubs  map[string]*redis.PubSub
	onMsg func(room string, event []byte)
}

// NewRedisTransport constructs a RedisTransport over an already-configured
// *redis.Client (constructed from config.BroadcastConfig.RedisAddr in
// cmd/reflector-worker).
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{
		client: client,
		pubs:   make(map[string]*redis.PubSub),
	}
}

func channelName(room string) string {
	return redisChannelPrefix + room
}

func (t *RedisTransport) Publish(ctx context.Context, room string, event []byte) error {
	return t.client.Publish(ctx, channelName(room), event).Err()
}

func (t *RedisTransport) Subscribe(ctx context.Context, room string) error {
	t.mu.Lock()
	if _, exists := t.pubs[room]; exists {
		t.mu.Unlock()
		return nil
	}
	sub := t.client.Subscribe(ctx, channelName(room))
	t.pubs[room] = sub
	cb := t.onMsg
	t.mu.Unlock()

	if _, err := sub.Receive(ctx); err != nil {
		t.mu.Lock()
		delete(t.pubs, room)
		t.mu.Unlock()
		return fmt.Errorf("subscribe to room %s: %w", room, err)
	}

	go func() {
		for msg := range sub.Channel() {
			if cb != nil {
				cb(room, []byte(msg.Payload))
			}
		}
	}()

	return nil
}

func (t *RedisTransport) Unsubscribe(ctx context.Context, room string) error {
	t.mu.Lock()
	sub, exists := t.pubs[room]
	delete(t.pubs, room)
	t.mu.Unlock()

	if !exists {
		return nil
	}
	if err := sub.Unsubscribe(ctx, channelName(room)); err != nil {
		slog.Warn("redis unsubscribe failed", "room", room, "error", err)
	}
	return sub.Close()
}

func (t *RedisTransport) OnMessage(cb func(room string, event []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMsg = cb
}
