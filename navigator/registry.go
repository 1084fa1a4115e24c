package navigator

import (
	"sync"
)

// Registry holds one navigator session per admin. The cascade delete
// orchestrator notifies it after deletes so no session keeps pointing at a
// removed id.
type Registry struct {
	mu       sync.Mutex
	loader   Loader
	sessions map[uint]*Session // keyed by admin principal id
}

// NewRegistry creates a registry backed by a shared loader
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader:   loader,
		sessions: make(map[uint]*Session),
	}
}

// Session returns the admin's session, creating it on first use
func (r *Registry) Session(adminID, universityID uint) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[adminID]; ok && s.universityID == universityID {
		return s
	}
	s := NewSession(universityID, r.loader)
	r.sessions[adminID] = s
	return s
}

// Drop removes an admin's session (e.g., on logout)
func (r *Registry) Drop(adminID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, adminID)
}

// NotifyDeleted clears a deleted id from every session of the university
func (r *Registry) NotifyDeleted(universityID uint, level Level, id uint) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.universityID == universityID {
			sessions = append(sessions, s)
		}
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.ClearDeleted(level, id)
	}
}
