package core

import "sync"

// Registry maps authenticated user IDs to their live connection.
// At most one connection is registered per user at any time; a newer
// connection for the same user replaces the older one.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Register stores the client as the live connection for userID.
// If another client was registered for the same user it is displaced and
// returned so the caller can shut it down.
func (r *Registry) Register(userID int64, c *Client) (displaced *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[userID]
	r.clients[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Unregister removes the entry for userID only if it still points at c.
// A stale connection closing late must not evict the connection that
// superseded it.
func (r *Registry) Unregister(userID int64, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[userID] != c {
		return false
	}
	delete(r.clients, userID)
	return true
}

// OnlineUsers returns a snapshot of the user IDs with a live connection.
func (r *Registry) OnlineUsers() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// Online reports whether userID has a live connection.
func (r *Registry) Online(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}
