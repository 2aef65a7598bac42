package workflow

import (
	"fmt"
	"sync"

	"patient-intake-server/internal/apperrors"

	"github.com/google/uuid"
)

// DefaultSessionLimit bounds the live sessions of a Manager.
const DefaultSessionLimit = 10000

// Manager holds the live sessions. Sessions never expire; they are removed
// only by Delete, and Start refuses new ones once limit are open.
type Manager struct {
	deps  Dependencies
	limit int

	mu       sync.RWMutex
	sessions map[string]*Workflow
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSessionLimit caps the live sessions. n <= 0 keeps the default.
func WithSessionLimit(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

// NewManager creates a Manager whose sessions share deps.
func NewManager(deps Dependencies, opts ...ManagerOption) *Manager {
	m := &Manager{deps: deps, limit: DefaultSessionLimit, sessions: make(map[string]*Workflow)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session for journey.
func (m *Manager) Start(journey Journey) (*Workflow, error) {
	if !journey.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown journey %q", journey), "journey")
	}
	w := New(uuid.New().String(), journey, m.deps)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.limit {
		return nil, fmt.Errorf("start %s session: %w", journey, apperrors.ErrCapacity)
	}
	m.sessions[w.ID()] = w
	return w, nil
}

// Get returns the session with id, or ErrNotFound.
func (m *Manager) Get(id string) (*Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	return w, nil
}

// Delete removes the session with id, or returns ErrNotFound.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	delete(m.sessions, id)
	return nil
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
