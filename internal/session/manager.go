// Package session tracks analyst sessions in memory. A session ties a
// sequence of analysis calls to one analyst so the dashboard can show
// per-session flag rates.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one analyst's working session.
type Session struct {
	ID           string    `json:"id"`
	AnalystID    string    `json:"analyst_id"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	Analyses     int       `json:"analyses"`
	Flagged      int       `json:"flagged"`
}

// Manager holds active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Start creates a new session for the analyst and returns it.
func (m *Manager) Start(analystID string) *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		AnalystID:    analystID,
		StartedAt:    now,
		LastActivity: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("Session started",
		zap.String("session_id", s.ID), zap.String("analyst_id", analystID))
	return s
}

// RecordAnalysis bumps the session counters. Unknown session IDs are
// ignored so analysis calls without a session still work.
func (m *Manager) RecordAnalysis(sessionID string, flagged bool) {
	if sessionID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}

	s.Analyses++
	if flagged {
		s.Flagged++
	}
	s.LastActivity = time.Now()
}

// Get returns one session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns all sessions, most recently active first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// End removes a session and returns its final state.
func (m *Manager) End(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	delete(m.sessions, id)

	m.logger.Info("Session ended",
		zap.String("session_id", id), zap.Int("analyses", s.Analyses))
	return s, true
}
