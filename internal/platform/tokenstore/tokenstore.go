package tokenstore

import (
	"context"
	"sync"
)

// KeyPrefix is the fixed key the bearer credential lives under. Each admin
// session gets its own suffix.
const KeyPrefix = "admin_token"

func Key(sessionID string) string {
	return KeyPrefix + ":" + sessionID
}

// Store reads, writes and clears the bearer credential of a session. Get
// returns "" when nothing is stored.
type Store interface {
	Save(ctx context.Context, sessionID, token string) error
	Get(ctx context.Context, sessionID string) (string, error)
	Remove(ctx context.Context, sessionID string) error
}

// Has reports whether a non-empty credential is stored for the session. A
// failed read is returned as an error, never as a missing credential.
func Has(ctx context.Context, s Store, sessionID string) (bool, error) {
	token, err := s.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Scoped binds a Store to one session.
type Scoped struct {
	store     Store
	sessionID string
}

func Bind(store Store, sessionID string) *Scoped {
	return &Scoped{store: store, sessionID: sessionID}
}

func (s *Scoped) SessionID() string { return s.sessionID }

func (s *Scoped) Save(ctx context.Context, token string) error {
	return s.store.Save(ctx, s.sessionID, token)
}

func (s *Scoped) Token(ctx context.Context) (string, error) {
	return s.store.Get(ctx, s.sessionID)
}

func (s *Scoped) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, s.sessionID)
}

type memoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemoryStore() Store {
	return &memoryStore{tokens: make(map[string]string)}
}

func (m *memoryStore) Save(ctx context.Context, sessionID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[Key(sessionID)] = token
	return nil
}

func (m *memoryStore) Get(ctx context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[Key(sessionID)], nil
}

func (m *memoryStore) Remove(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, Key(sessionID))
	return nil
}
