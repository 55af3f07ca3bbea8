package repository

import (
	"context"
	"sync"
	"time"

	"talento/internal/models"
)

type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type memoryEntry struct {
	session   models.Session
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, slot string) (*models.Session, error) {
	val, ok := r.sessions.Load(slotKey(slot))
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(slotKey(slot))
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, slot string, session *models.Session) error {
	entry := &memoryEntry{session: *session}
	if r.ttl > 0 {
		entry.expiresAt = time.Now().Add(r.ttl)
	}
	r.sessions.Store(slotKey(slot), entry)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, slot string) error {
	r.sessions.Delete(slotKey(slot))
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, _ := r.rateLimits.LoadOrStore(userID, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++

	return entry.count <= limit, nil
}
