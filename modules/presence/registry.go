package presence

import (
	"strings"
	"sync"
)

// Registry maps live connection IDs to announced display names. A connection
// has an entry if and only if it has announced a non-empty name and has not
// disconnected. Names carry no identity beyond the string itself; two
// connections may share a name.
type Registry struct {
	mu    sync.RWMutex
	names map[string]string // connection ID -> display name
	order []string          // connection IDs in announce order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]string),
	}
}

// SetName records or overwrites the display name for a connection.
// Empty and whitespace-only names are absorbed silently; the return value
// reports whether the registry changed.
func (r *Registry) SetName(connID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.names[connID]; !known {
		r.order = append(r.order, connID)
	}
	r.names[connID] = name
	return true
}

// Remove deletes the entry for a connection if present. Idempotent; the
// return value reports whether an entry existed.
func (r *Registry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.names[connID]; !known {
		return false
	}
	delete(r.names, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Roster returns the current display names, one per registered connection,
// in announce order. Duplicate names across connections are preserved as
// separate entries.
func (r *Registry) Roster() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make([]string, 0, len(r.order))
	for _, id := range r.order {
		roster = append(roster, r.names[id])
	}
	return roster
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
