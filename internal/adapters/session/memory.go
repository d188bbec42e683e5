package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/ports"
)

type memoryRecord struct {
	session   entities.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions expire after ttl
// without a Save.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryRecord
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryRecord),
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ ports.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) New(ctx context.Context) (*entities.Session, error) {
	return entities.NewSession(uuid.New().String()), nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*entities.Session, error) {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, entities.ErrSessionNotFound
	}

	if s.ttl > 0 && s.now().After(rec.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, entities.ErrSessionNotFound
	}

	sess := rec.session
	sess.MarkClean()
	return &sess, nil
}

func (s *MemoryStore) Save(ctx context.Context, session *entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = memoryRecord{
		session:   *session,
		expiresAt: s.now().Add(s.ttl),
	}
	session.MarkClean()
	return nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return entities.ErrSessionNotFound
	}
	rec.expiresAt = s.now().Add(s.ttl)
	s.sessions[id] = rec
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Sweep removes expired sessions and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.sessions {
		if now.After(rec.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
