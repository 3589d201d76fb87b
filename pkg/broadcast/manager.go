package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reflector-core/reflector/pkg/metrics"
)

// Sink is anything that can receive a raw event payload for one
// subscriber. The teacher's Connection wrapped a *websocket.Conn
// directly; since this repository has no HTTP/WS surface (the REST/WS
// client transport is out of scope — see DESIGN.md Non-goals), Sink
// keeps the manager transport-agnostic. A future WS handler implements
// Sink by writing to the socket; this package's tests implement it with a
// buffered channel.
type Sink interface {
	Send(ctx context.Context, data []byte) error
	Close() error
}

// Subscriber is a single registered consumer of one or more rooms.
//
// subscriptions is accessed without a lock, matching the teacher's
// Connection: every read/write happens on the single goroutine that owns
// this subscriber (its read loop and deferred cleanup).
type Subscriber struct {
	ID            string
	Sink          Sink
	subscriptions map[string]bool
	ctx           context.Context
	cancel        context.CancelFunc
}

// Manager fans events out to subscribers and replays history on
// subscribe, generalizing the teacher's ConnectionManager. One Manager
// instance exists per process; Transport carries events published by one
// process to the others (see transport.go).
type Manager struct {
	subscribers map[string]*Subscriber
	mu          sync.RWMutex

	rooms   map[string]map[string]bool // room -> set of subscriber IDs
	roomsMu sync.RWMutex

	catchup   CatchupQuerier
	transport Transport

	writeTimeout time.Duration
}

// NewManager constructs a Manager. transport may be nil, in which case
// Broadcast only fans out to subscribers registered on this process (the
// in-memory single-process mode).
func NewManager(catchup CatchupQuerier, transport Transport, writeTimeout time.Duration) *Manager {
	m := &Manager{
		subscribers:  make(map[string]*Subscriber),
		rooms:        make(map[string]map[string]bool),
		catchup:      catchup,
		transport:    transport,
		writeTimeout: writeTimeout,
	}
	if transport != nil {
		transport.OnMessage(m.deliverLocal)
	}
	return m
}

// Register creates a Subscriber wrapping sink and starts its catchup-free
// lifecycle bookkeeping; callers call Subscribe per room afterward.
func (m *Manager) Register(parentCtx context.Context, sink Sink) *Subscriber {
	ctx, cancel := context.WithCancel(parentCtx)
	s := &Subscriber{
		ID:            uuid.New().String(),
		Sink:          sink,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}

	m.mu.Lock()
	m.subscribers[s.ID] = s
	m.mu.Unlock()

	return s
}

// Unregister removes a subscriber from every room it joined and closes its
// sink, mirroring the teacher's unregisterConnection.
func (m *Manager) Unregister(s *Subscriber) {
	for room := range s.subscriptions {
		m.leave(s, room)
	}

	m.mu.Lock()
	delete(m.subscribers, s.ID)
	m.mu.Unlock()

	s.cancel()
	_ = s.Sink.Close()
}

// Subscribe joins a room and replays history since sinceSeq, matching the
// teacher's subscribe+handleCatchup pairing (auto-catchup on subscribe).
func (m *Manager) Subscribe(ctx context.Context, s *Subscriber, transcriptID string, sinceSeq int64) error {
	room := Room(transcriptID)

	m.roomsMu.Lock()
	needsSubscribe := false
	if _, exists := m.rooms[room]; !exists {
		m.rooms[room] = make(map[string]bool)
		needsSubscribe = true
	}
	m.rooms[room][s.ID] = true
	m.roomsMu.Unlock()

	if needsSubscribe && m.transport != nil {
		if err := m.transport.Subscribe(ctx, room); err != nil {
			m.leave(s, room)
			return err
		}
	}

	s.subscriptions[room] = true
	m.handleCatchup(ctx, s, transcriptID, sinceSeq)
	return nil
}

// Unsubscribe leaves a room without tearing down the subscriber itself.
func (m *Manager) Unsubscribe(transcriptID string, s *Subscriber) {
	m.leave(s, Room(transcriptID))
	delete(s.subscriptions, Room(transcriptID))
}

func (m *Manager) leave(s *Subscriber, room string) {
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()

	if subs, exists := m.rooms[room]; exists {
		delete(subs, s.ID)
		if len(subs) == 0 {
			delete(m.rooms, room)
			if m.transport != nil {
				go func() {
					if err := m.transport.Unsubscribe(context.Background(), room); err != nil {
						slog.Error("failed to unsubscribe room", "room", room, "error", err)
					}
				}()
			}
		}
	}
}

// Publish sends event to every subscriber of transcriptID's room on this
// process, and — if a Transport is configured — to every other process
// subscribed to the same room.
func (m *Manager) Publish(ctx context.Context, transcriptID string, event []byte) error {
	room := Room(transcriptID)
	metrics.BroadcastEventsPublishedTotal.WithLabelValues(eventTag(event)).Inc()
	m.deliverLocal(room, event)

	if m.transport != nil {
		return m.transport.Publish(ctx, room, event)
	}
	return nil
}

// eventTag extracts the "type" field for metric labeling without fully
// decoding the payload into its typed event struct.
func eventTag(event []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(event, &envelope); err != nil || envelope.Type == "" {
		return "unknown"
	}
	return envelope.Type
}

// deliverLocal fans event out to this process's subscribers of room,
// matching the teacher's Broadcast: snapshot subscriber pointers under
// lock, then send outside the lock so a slow write doesn't stall
// register/unregister.
func (m *Manager) deliverLocal(room string, event []byte) {
	m.roomsMu.RLock()
	ids, exists := m.rooms[room]
	if !exists {
		m.roomsMu.RUnlock()
		return
	}
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}
	m.roomsMu.RUnlock()

	m.mu.RLock()
	subs := make([]*Subscriber, 0, len(idList))
	for _, id := range idList {
		if s, ok := m.subscribers[id]; ok {
			subs = append(subs, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range subs {
		if err := m.send(s, event); err != nil {
			slog.Warn("failed to deliver event to subscriber", "subscriber_id", s.ID, "room", room, "error", err)
		}
	}
}

// handleCatchup replays events since sinceSeq, capping at catchupLimit and
// signalling overflow exactly like the teacher's handleCatchup.
func (m *Manager) handleCatchup(ctx context.Context, s *Subscriber, transcriptID string, sinceSeq int64) {
	if m.catchup == nil {
		return
	}

	events, err := m.catchup.GetEventsSince(ctx, transcriptID, sinceSeq, catchupLimit+1)
	if err != nil {
		slog.Error("catchup query failed", "transcript_id", transcriptID, "error", err)
		return
	}

	hasMore := len(events) > catchupLimit
	if hasMore {
		events = events[:catchupLimit]
	}
	events = supersedeDagStatus(events)

	for _, evt := range events {
		payload, err := json.Marshal(map[string]any{
			"type":            evt.EventType,
			"sequence_number": evt.SequenceNumber,
			"data":            evt.Data,
		})
		if err != nil {
			continue
		}
		if err := m.send(s, payload); err != nil {
			slog.Warn("failed to send catchup event", "subscriber_id", s.ID, "error", err)
			return
		}
	}

	if hasMore {
		overflow, _ := json.Marshal(map[string]any{
			"type":          "catchup.overflow",
			"transcript_id": transcriptID,
			"has_more":      true,
		})
		_ = m.send(s, overflow)
	}
}

func (m *Manager) send(s *Subscriber, data []byte) error {
	ctx, cancel := context.WithTimeout(s.ctx, m.writeTimeout)
	defer cancel()
	return s.Sink.Send(ctx, data)
}

// SubscriberCount returns the number of subscribers currently joined to a
// transcript's room, used by tests instead of sleeping.
func (m *Manager) SubscriberCount(transcriptID string) int {
	m.roomsMu.RLock()
	defer m.roomsMu.RUnlock()
	return len(m.rooms[Room(transcriptID)])
}
