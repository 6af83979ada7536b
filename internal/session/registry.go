package session

import (
	"context"
	"sync"
	"time"
)

// Registry maps client IDs to their Client, creating clients on first use.
type Registry struct {
	deps    Deps
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:    deps,
		clients: make(map[string]*Client),
	}
}

func (r *Registry) Get(ctx context.Context, id string) *Client {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	if ok {
		c.touch()
		return c
	}

	// Restoring the session reads the store, so the client is built
	// before taking the write lock.
	fresh := NewClient(context.WithoutCancel(ctx), id, r.deps)
	fresh.moved = r.move

	r.mu.Lock()
	// Double-check after acquiring write lock.
	if c, ok := r.clients[id]; ok {
		r.mu.Unlock()
		fresh.Close()
		c.touch()
		return c
	}
	r.clients[id] = fresh
	r.mu.Unlock()
	return fresh
}

// move re-files c under its new ID after a sign-in or sign-out. The old ID
// no longer resolves to c.
func (r *Registry) move(prev, next string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[prev] == c {
		delete(r.clients, prev)
	}
	r.clients[next] = c
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Evict closes and drops every client that is not held and has not been
// seen for longer than idle. A signed-in client that is evicted is restored
// from its stored session on its next request.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	var stale []*Client
	r.mu.Lock()
	for id, c := range r.clients {
		if c.idleSince(cutoff) {
			stale = append(stale, c)
			delete(r.clients, id)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

// RunEviction evicts idle clients until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, idle time.Duration) error {
	if idle <= 0 {
		return nil
	}
	ticker := time.NewTicker(max(idle/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				r.deps.Logger.Debug("evicted idle clients", "count", n, "remaining", r.Len())
			}
		}
	}
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
	return nil
}
