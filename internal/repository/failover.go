package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository prefers the primary store and degrades to the
// fallback while the primary is failing. Recovery is retried once a minute.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// shouldProbe reports whether the primary should be retried while down.
func (r *FailoverSessionRepository) shouldProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > time.Minute {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, slot string) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, slot)
		if err == nil {
			return session, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		session, err := r.primary.GetSession(ctx, slot)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary session repository recovered")
			return session, nil
		}
	}

	return r.fallback.GetSession(ctx, slot)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, slot string, session *models.Session) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, slot, session)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSession(ctx, slot, session)
}

// ClearSession clears both stores so a slot written during an outage cannot
// resurrect after recovery.
func (r *FailoverSessionRepository) ClearSession(ctx context.Context, slot string) error {
	fallbackErr := r.fallback.ClearSession(ctx, slot)
	if !r.isDown.Load() {
		err := r.primary.ClearSession(ctx, slot)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return fallbackErr
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
