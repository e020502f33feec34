package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/shared"
)

// session holds the mutable state of one migration run. Status is mutated
// only by the session's own goroutine (and Stop); reads always go through a
// copy under the lock.
type session struct {
	mu     sync.Mutex
	status models.MigrationStatus
	report *models.MigrationReport
	cancel context.CancelFunc
}

// Registry stores migration sessions by opaque id. It is an explicit object
// owned by the orchestrator and injected where needed; there is no ambient
// package-level state. Sessions have no automatic expiry, callers prune or
// stop them explicitly.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

func (r *Registry) add(id string, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
}

func (r *Registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Snapshot returns a copy of the session's current status.
func (r *Registry) Snapshot(id string) (models.MigrationStatus, error) {
	s, ok := r.get(id)
	if !ok {
		return models.MigrationStatus{}, shared.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStatus(s.status), nil
}

// List returns a snapshot of every known session, ordered by session id.
func (r *Registry) List() []models.MigrationStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]models.MigrationStatus, 0, len(r.sessions))
	for _, s := range r.sessions {
		s.mu.Lock()
		statuses = append(statuses, cloneStatus(s.status))
		s.mu.Unlock()
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].SessionID < statuses[j].SessionID
	})
	return statuses
}

// Remove deletes a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// cloneStatus copies a status so callers never alias the session's slices.
func cloneStatus(st models.MigrationStatus) models.MigrationStatus {
	out := st
	out.Errors = make([]string, len(st.Errors))
	copy(out.Errors, st.Errors)
	return out
}

// update applies fn to the session state under its lock.
func (s *session) update(fn func(*models.MigrationStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

// stopped reports whether the session has reached a terminal state.
func (s *session) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Status.Terminal()
}
