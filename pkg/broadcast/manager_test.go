package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSink is a test Sink backed by a buffered channel, standing in for a
// real WebSocket connection (out of scope — see DESIGN.md).
type chanSink struct {
	messages chan []byte
	closed   chan struct{}
}

func newChanSink() *chanSink {
	return &chanSink{messages: make(chan []byte, 16), closed: make(chan struct{})}
}

func (s *chanSink) Send(_ context.Context, data []byte) error {
	s.messages <- data
	return nil
}

func (s *chanSink) Close() error {
	close(s.closed)
	return nil
}

func (s *chanSink) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case data := <-s.messages:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

type mockCatchupQuerier struct {
	events []CatchupEvent
	err    error
}

func (m *mockCatchupQuerier) GetEventsSince(_ context.Context, _ string, _ int64, limit int) ([]CatchupEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

func TestManager_SubscribeReplaysHistory(t *testing.T) {
	catchup := &mockCatchupQuerier{events: []CatchupEvent{
		{SequenceNumber: 1, EventType: EventStatus, Data: map[string]any{"status": "processing"}},
		{SequenceNumber: 2, EventType: EventTopic, Data: map[string]any{"title": "intro"}},
	}}
	m := NewManager(catchup, nil, 5*time.Second)

	sink := newChanSink()
	sub := m.Register(context.Background(), sink)
	require.NoError(t, m.Subscribe(context.Background(), sub, "t1", 0))

	first := sink.next(t)
	assert.Equal(t, EventStatus, first["type"])
	second := sink.next(t)
	assert.Equal(t, EventTopic, second["type"])
}

func TestManager_BroadcastFansOutToSubscribersOnly(t *testing.T) {
	m := NewManager(&mockCatchupQuerier{}, nil, 5*time.Second)

	subA := m.Register(context.Background(), newChanSink())
	require.NoError(t, m.Subscribe(context.Background(), subA, "t1", 0))

	subB := m.Register(context.Background(), newChanSink())
	require.NoError(t, m.Subscribe(context.Background(), subB, "t2", 0))

	payload, _ := json.Marshal(map[string]string{"type": EventStatus})
	require.NoError(t, m.Publish(context.Background(), "t1", payload))

	got := subA.Sink.(*chanSink).next(t)
	assert.Equal(t, EventStatus, got["type"])

	select {
	case <-subB.Sink.(*chanSink).messages:
		t.Fatal("subscriber of a different room should not receive the event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManager_CatchupOverflow(t *testing.T) {
	events := make([]CatchupEvent, catchupLimit+5)
	for i := range events {
		events[i] = CatchupEvent{SequenceNumber: int64(i), EventType: EventWaveform, Data: map[string]any{}}
	}
	m := NewManager(&mockCatchupQuerier{events: events}, nil, 5*time.Second)

	sink := newChanSink()
	sub := m.Register(context.Background(), sink)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Subscribe(context.Background(), sub, "t1", 0) }()

	for i := 0; i < catchupLimit; i++ {
		sink.next(t)
	}
	overflow := sink.next(t)
	assert.Equal(t, "catchup.overflow", overflow["type"])
	require.NoError(t, <-errCh)
}

func TestManager_UnregisterStopsDelivery(t *testing.T) {
	m := NewManager(&mockCatchupQuerier{}, nil, 5*time.Second)
	sink := newChanSink()
	sub := m.Register(context.Background(), sink)
	require.NoError(t, m.Subscribe(context.Background(), sub, "t1", 0))

	m.Unregister(sub)
	assert.Equal(t, 0, m.SubscriberCount("t1"))

	payload, _ := json.Marshal(map[string]string{"type": EventStatus})
	require.NoError(t, m.Publish(context.Background(), "t1", payload))

	select {
	case <-sink.messages:
		t.Fatal("unregistered subscriber should not receive further events")
	case <-time.After(100 * time.Millisecond):
	}
}
