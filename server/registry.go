package server

import (
	"sort"
	"sync"

	c "github.com/mxd-net/mxd-core/common/ctx"
	"github.com/mxd-net/mxd-core/common/session"
	"github.com/mxd-net/mxd-core/privilege"
)

// Registry tracks the sessions of currently connected clients. It backs the
// user-list reply and lets an operator see who is online.
type Registry struct {
	mu       sync.RWMutex
	sessions map[c.ID]*session.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[c.ID]*session.Session),
	}
}

// Add registers a session.
func (r *Registry) Add(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
}

// Remove unregisters a session.
func (r *Registry) Remove(id c.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}

// Count returns the number of connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// VisibleNames lists the display names of authenticated sessions holding the
// show-in-list privilege, ordered by name ascending.
func (r *Registry) VisibleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, s := range r.sessions {
		if !s.Authenticated() || !s.Privileges.Has(privilege.ShowInList) {
			continue
		}
		name := s.Nickname
		if name == "" {
			name = s.Username
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
