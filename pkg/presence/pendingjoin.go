package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingJoinPrefix matches spec.md §4.8's key convention:
// pending_join:<meeting_id>:<connection_id>.
const pendingJoinPrefix = "pending_join:"

// PendingJoinRegistry is the Redis-backed implementation of PendingJoins,
// sharing the same client pkg/broadcast uses for its Redis transport.
// A reservation is a plain TTL key: no value is read back, only existence.
type PendingJoinRegistry struct {
	client *redis.Client
}

// NewPendingJoinRegistry constructs a PendingJoinRegistry over an
// already-configured *redis.Client.
func NewPendingJoinRegistry(client *redis.Client) *PendingJoinRegistry {
	return &PendingJoinRegistry{client: client}
}

func pendingJoinKey(meetingID, connectionID string) string {
	return fmt.Sprintf("%s%s:%s", pendingJoinPrefix, meetingID, connectionID)
}

// Create reserves a join slot for connectionID, keyed so that multiple
// concurrent joins for the same meeting create distinct keys. The
// reservation expires naturally after ttl (JOIN_GRACE_SECONDS) if Joined
// is never called.
func (r *PendingJoinRegistry) Create(ctx context.Context, meetingID, connectionID string, ttl time.Duration) error {
	return r.client.Set(ctx, pendingJoinKey(meetingID, connectionID), "1", ttl).Err()
}

// Joined deletes the reservation on a successful join, before its TTL
// would otherwise expire it.
func (r *PendingJoinRegistry) Joined(ctx context.Context, meetingID, connectionID string) error {
	return r.client.Del(ctx, pendingJoinKey(meetingID, connectionID)).Err()
}

// Exists reports whether any pending-join reservation exists for a
// meeting, across all connection IDs.
func (r *PendingJoinRegistry) Exists(ctx context.Context, meetingID string) (bool, error) {
	pattern := pendingJoinPrefix + meetingID + ":*"
	iter := r.client.Scan(ctx, 0, pattern, 10).Iterator()
	if iter.Next(ctx) {
		return true, nil
	}
	if err := iter.Err(); err != nil {
		return false, err
	}
	return false, nil
}
