package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-collator/constants"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// Manager holds one controller per browser session.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

type sessionState struct {
	ctrl         *Controller
	lastAccessed time.Time
}

// NewManager creates a session manager whose controllers share deps.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps.withDefaults(),
		sessions: make(map[string]*sessionState),
	}
}

// Get returns the controller for id and refreshes its keep-alive.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	st.lastAccessed = time.Now()
	return st.ctrl, true
}

// GetOrCreate returns the controller for id, starting a new session when id is
// empty or unknown. The returned bool is true for a new session.
func (m *Manager) GetOrCreate(id string) (*Controller, bool) {
	if id != "" {
		if ctrl, ok := m.Get(id); ok {
			return ctrl, false
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.sessions[id]; ok {
		st.lastAccessed = time.Now()
		return st.ctrl, false
	}
	ctrl := NewController(id, m.deps)
	m.sessions[id] = &sessionState{ctrl: ctrl, lastAccessed: time.Now()}
	m.deps.Logger.Info("session.created", "session_id", id)
	return ctrl, true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions evicts sessions idle for longer than ttl. A session with a
// run in flight is never evicted. Returns the number removed.
func (m *Manager) CleanupOldSessions(ctx context.Context, ttl time.Duration) int {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	var evicted []string
	for id, st := range m.sessions {
		if st.lastAccessed.After(cutoff) || st.ctrl.State() == constants.RunStateLoading {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, id)
	}
	m.mu.Unlock()

	for _, id := range evicted {
		if m.deps.Journal != nil {
			if _, err := m.deps.Journal.DeleteSession(ctx, id); err != nil {
				m.deps.Logger.Warn("session.journal.cleanup_error", "session_id", id, "error", err)
			}
		}
		m.deps.Logger.Info("session.evicted", "session_id", id)
	}
	return len(evicted)
}

// RunCleanup evicts idle sessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupOldSessions(ctx, ttl)
		}
	}
}
