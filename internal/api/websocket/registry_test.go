package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddRemove(t *testing.T) {
	registry := NewRegistry()

	registry.AddConnection(1, "conn-a")
	assert.Equal(t, []string{"conn-a"}, registry.GetConnections(1))
	assert.True(t, registry.IsOnline(1))

	registry.RemoveConnection(1, "conn-a")
	assert.Empty(t, registry.GetConnections(1))
	assert.False(t, registry.IsOnline(1))
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	registry := NewRegistry()

	registry.AddConnection(1, "conn-a")
	registry.AddConnection(1, "conn-a")
	require.Len(t, registry.GetConnections(1), 1)

	// One removal is enough, the duplicate add did not count twice.
	registry.RemoveConnection(1, "conn-a")
	assert.Empty(t, registry.GetConnections(1))
}

func TestRegistry_MultipleConnectionsPerUser(t *testing.T) {
	registry := NewRegistry()

	registry.AddConnection(1, "desktop")
	registry.AddConnection(1, "phone")
	assert.ElementsMatch(t, []string{"desktop", "phone"}, registry.GetConnections(1))

	registry.RemoveConnection(1, "desktop")
	assert.Equal(t, []string{"phone"}, registry.GetConnections(1))
	assert.True(t, registry.IsOnline(1))
}

func TestRegistry_RemoveUnknownIsNoOp(t *testing.T) {
	registry := NewRegistry()

	registry.RemoveConnection(42, "ghost")

	registry.AddConnection(1, "conn-a")
	registry.RemoveConnection(1, "other")
	assert.Equal(t, []string{"conn-a"}, registry.GetConnections(1))
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	registry := NewRegistry()
	registry.AddConnection(1, "conn-a")

	snapshot := registry.GetConnections(1)
	snapshot[0] = "mutated"

	assert.Equal(t, []string{"conn-a"}, registry.GetConnections(1))
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	registry := NewRegistry()

	const users = 8
	const connsPerUser = 50

	var wg sync.WaitGroup
	for u := uint(1); u <= users; u++ {
		for c := 0; c < connsPerUser; c++ {
			wg.Add(1)
			go func(userID uint, n int) {
				defer wg.Done()
				handle := fmt.Sprintf("conn-%d", n)
				registry.AddConnection(userID, handle)
				if n%2 == 0 {
					registry.RemoveConnection(userID, handle)
				}
			}(u, c)
		}
	}
	wg.Wait()

	// Odd-numbered handles survive, even-numbered ones were removed.
	for u := uint(1); u <= users; u++ {
		assert.Len(t, registry.GetConnections(u), connsPerUser/2)
	}
}

func TestRegistry_ConcurrentAddRemoveSameUser(t *testing.T) {
	registry := NewRegistry()

	// Hammer a single user's entry to chase lost updates around the
	// empty-set deletion path.
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			handle := fmt.Sprintf("conn-%d", n)
			registry.AddConnection(1, handle)
			registry.RemoveConnection(1, handle)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, registry.GetConnections(1))
	assert.False(t, registry.IsOnline(1))
}
