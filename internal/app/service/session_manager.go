package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"codequest_admin/internal/domain/repository"
	"codequest_admin/internal/platform/metrics"
)

// StoreFactory returns the store a session works against. Shared stores
// ignore the session id; the remote store binds it to the session's token.
type StoreFactory func(sessionID string) repository.RoomStore

type managedSession struct {
	game *GameSession
	// expiresAt mirrors the exp of the session's API token. Zero never expires.
	expiresAt time.Time
}

// SessionManager owns one GameSession per authenticated admin session.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	newStore StoreFactory
	notifier LeaderboardNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewSessionManager(newStore StoreFactory, notifier LeaderboardNotifier, m *metrics.Metrics, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*managedSession),
		newStore: newStore,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Open returns the session's state container, creating and loading it on
// first use. A failed initial load still registers the session so the admin
// can retry with a refresh. expiresAt only ever moves the expiry later.
func (m *SessionManager) Open(ctx context.Context, sessionID string, expiresAt time.Time) (*GameSession, error) {
	m.mu.Lock()
	if ms, ok := m.sessions[sessionID]; ok {
		if expiresAt.After(ms.expiresAt) {
			ms.expiresAt = expiresAt
		}
		m.mu.Unlock()
		return ms.game, nil
	}
	gs := NewGameSession(sessionID, m.newStore(sessionID), m.notifier, m.metrics, m.logger)
	m.sessions[sessionID] = &managedSession{game: gs, expiresAt: expiresAt}
	m.mu.Unlock()

	if err := gs.Refresh(ctx); err != nil {
		m.logger.WarnContext(ctx, "initial session load failed", "session_id", sessionID, "error", err)
		return gs, err
	}
	return gs, nil
}

func (m *SessionManager) Get(sessionID string) (*GameSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return ms.game, true
}

// Close forgets the session's state.
func (m *SessionManager) Close(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Expired removes and returns the sessions whose token expired before now.
func (m *SessionManager) Expired(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, ms := range m.sessions {
		if !ms.expiresAt.IsZero() && ms.expiresAt.Before(now) {
			delete(m.sessions, id)
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
