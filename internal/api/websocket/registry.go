package websocket

import "sync"

// Registry tracks the live connection handles of each user. A user with
// several tabs or devices open has several handles. Entries are created on
// first connection and removed once the last handle goes away, so the map
// does not grow with user churn.
//
// Locking is two-level: the outer RWMutex guards the user map, each entry
// carries its own mutex so concurrent updates to different users never
// block each other.
type Registry struct {
	mu    sync.RWMutex
	users map[uint]*connSet
}

type connSet struct {
	mu      sync.Mutex
	handles map[string]struct{}
	// dead marks an entry that RemoveConnection emptied and is about to
	// delete from the map. AddConnection must not resurrect it.
	dead bool
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[uint]*connSet)}
}

// AddConnection inserts the handle into the user's set. Adding the same
// handle twice is a no-op.
func (slf *Registry) AddConnection(userID uint, handle string) {
	for {
		slf.mu.RLock()
		set, ok := slf.users[userID]
		slf.mu.RUnlock()

		if !ok {
			slf.mu.Lock()
			set, ok = slf.users[userID]
			if !ok {
				slf.users[userID] = &connSet{handles: map[string]struct{}{handle: {}}}
				slf.mu.Unlock()
				return
			}
			slf.mu.Unlock()
		}

		set.mu.Lock()
		if set.dead {
			// Lost a race with the removal of the last handle; the entry
			// is gone from the map, retry against a fresh one.
			set.mu.Unlock()
			continue
		}
		set.handles[handle] = struct{}{}
		set.mu.Unlock()
		return
	}
}

// RemoveConnection removes the handle and drops the user's entry when the
// set becomes empty. Unknown users and handles are a no-op.
func (slf *Registry) RemoveConnection(userID uint, handle string) {
	slf.mu.RLock()
	set, ok := slf.users[userID]
	slf.mu.RUnlock()
	if !ok {
		return
	}

	set.mu.Lock()
	delete(set.handles, handle)
	empty := len(set.handles) == 0
	if empty {
		set.dead = true
	}
	set.mu.Unlock()

	if empty {
		slf.mu.Lock()
		if current, ok := slf.users[userID]; ok && current == set {
			delete(slf.users, userID)
		}
		slf.mu.Unlock()
	}
}

// GetConnections returns a snapshot of the user's handles, never the live
// set. Empty slice when the user has no open connection.
func (slf *Registry) GetConnections(userID uint) []string {
	slf.mu.RLock()
	set, ok := slf.users[userID]
	slf.mu.RUnlock()
	if !ok {
		return []string{}
	}

	set.mu.Lock()
	handles := make([]string, 0, len(set.handles))
	for handle := range set.handles {
		handles = append(handles, handle)
	}
	set.mu.Unlock()
	return handles
}

// IsOnline reports whether the user has at least one open connection.
func (slf *Registry) IsOnline(userID uint) bool {
	slf.mu.RLock()
	defer slf.mu.RUnlock()
	_, ok := slf.users[userID]
	return ok
}
