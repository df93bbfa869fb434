// Package session tracks the MCP sessions a server currently has open.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Info describes one open session.
type Info struct {
	ID        string    `json:"id"`
	Transport string    `json:"transport"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Registry is a concurrency-safe set of open sessions. The zero value is not
// usable; create one with NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Info
	onChange func(n int)
	now      func() time.Time
}

// NewRegistry creates an empty registry. onChange, if non-nil, is called with
// the new session count after every insert or removal.
func NewRegistry(onChange func(n int)) *Registry {
	return &Registry{
		sessions: make(map[string]Info),
		onChange: onChange,
		now:      time.Now,
	}
}

// Add records a session and returns its id. An empty id gets a fresh UUID.
// Adding an id twice keeps the first record and reports inserted as false.
func (r *Registry) Add(id, transport string) (string, bool) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	_, exists := r.sessions[id]
	if !exists {
		r.sessions[id] = Info{ID: id, Transport: transport, OpenedAt: r.now()}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !exists {
		r.notify(n)
	}
	return id, !exists
}

// Remove forgets a session. It reports whether the session was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.notify(n)
	}
	return ok
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.sessions[id]
	return info, ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns the open sessions, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.sessions))
	for _, info := range r.sessions {
		out = append(out, info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

func (r *Registry) notify(n int) {
	if r.onChange != nil {
		r.onChange(n)
	}
}
