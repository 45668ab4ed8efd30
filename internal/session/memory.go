package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// sweepInterval — как часто Save вычищает истёкшие сессии.
const sweepInterval = time.Minute

// MemoryStore хранит сессии в памяти процесса. Истёкшие записи удаляются
// при чтении и периодической чисткой во время Save.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Save сохраняет копию сессии.
func (m *MemoryStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	const op = "session.MemoryStore.Save"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.Token == "" {
		return fmt.Errorf("%s: empty token", op)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
	}
	m.sessions[s.Token] = memoryEntry{session: *s, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for token, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, token)
		}
	}
	m.lastSweep = now
}

// Load возвращает копию сессии; истёкшие записи удаляются при чтении.
func (m *MemoryStore) Load(ctx context.Context, token string) (*Session, error) {
	const op = "session.MemoryStore.Load"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.sessions, token)
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	s := e.session
	return &s, nil
}

// Delete удаляет сессию.
func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	const op = "session.MemoryStore.Delete"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Len возвращает число хранимых сессий, включая ещё не вычищенные истёкшие.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
