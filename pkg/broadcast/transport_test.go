package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransport_FanOutAcrossProcesses(t *testing.T) {
	peers := NewMemoryBus(3)

	var mu sync.Mutex
	received := make([][]byte, 0)
	for i, p := range peers {
		if i == 0 {
			continue // peer 0 publishes; does not subscribe
		}
		p := p
		p.OnMessage(func(room string, event []byte) {
			mu.Lock()
			received = append(received, event)
			mu.Unlock()
		})
		require.NoError(t, p.Subscribe(context.Background(), "ts:t1"))
	}

	require.NoError(t, peers[0].Publish(context.Background(), "ts:t1", []byte("hello")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryTransport_UnsubscribeStopsDelivery(t *testing.T) {
	peers := NewMemoryBus(2)
	var received int
	var mu sync.Mutex
	peers[1].OnMessage(func(_ string, _ []byte) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	require.NoError(t, peers[1].Subscribe(context.Background(), "ts:t1"))
	require.NoError(t, peers[1].Unsubscribe(context.Background(), "ts:t1"))
	require.NoError(t, peers[0].Publish(context.Background(), "ts:t1", []byte("hello")))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, received)
}
