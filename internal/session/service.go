package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrNoSlot means the context carries no session slot.
	ErrNoSlot = errors.New("session slot is not set")
	// ErrNoSession means the slot has no token; callers redirect to login.
	ErrNoSession = errors.New("not logged in")
)

// liveEntry is never mutated once stored; Login and Logout replace it.
type liveEntry struct {
	// nil after logout; the entry itself stops rehydration from a stale slot.
	session *models.Session
}

// Service is the identity holder. It keeps the live pair per slot and mirrors
// it into the persistence slot so a restart picks it up again.
type Service struct {
	repo   domain.SessionRepository
	logger zerolog.Logger

	mu   sync.Mutex
	live map[string]*liveEntry
}

var _ domain.SessionManager = (*Service)(nil)

func NewService(repo domain.SessionRepository, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "session").Logger(),
		live:   make(map[string]*liveEntry),
	}
}

func (s *Service) Login(ctx context.Context, slot string, user *models.User, token string) error {
	if token == "" {
		return fmt.Errorf("login %s: empty token", slot)
	}
	sess := &models.Session{Token: token}
	if user != nil {
		u := *user
		sess.User = &u
	}

	s.mu.Lock()
	s.live[slot] = &liveEntry{session: sess}
	s.mu.Unlock()

	if err := s.repo.SetSession(ctx, slot, sess); err != nil {
		// live state stays valid; only reload survival is lost
		s.logger.Warn().Err(err).Str("slot", slot).Msg("Failed to persist session")
		return fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info().Str("slot", slot).Int64("user_id", userID(sess)).Msg("Logged in")
	return nil
}

// Logout clears the live pair and the persistence slot. No backend call is made.
func (s *Service) Logout(ctx context.Context, slot string) error {
	s.mu.Lock()
	s.live[slot] = &liveEntry{}
	s.mu.Unlock()

	if err := s.repo.ClearSession(ctx, slot); err != nil {
		s.logger.Warn().Err(err).Str("slot", slot).Msg("Failed to clear persisted session")
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info().Str("slot", slot).Msg("Logged out")
	return nil
}

// Current returns a copy of the live session. ok is false when no token is held.
func (s *Service) Current(ctx context.Context, slot string) (*models.Session, bool) {
	s.mu.Lock()
	entry, found := s.live[slot]
	s.mu.Unlock()

	if !found {
		stored, err := s.repo.GetSession(ctx, slot)
		if err != nil {
			s.logger.Warn().Err(err).Str("slot", slot).Msg("Failed to load persisted session")
			return nil, false
		}
		s.mu.Lock()
		// a login or logout that landed during the load wins over the stored copy
		if current, ok := s.live[slot]; ok {
			entry = current
		} else {
			entry = &liveEntry{session: stored}
			s.live[slot] = entry
		}
		s.mu.Unlock()
	}

	if !entry.session.Authenticated() {
		return nil, false
	}
	cp := *entry.session
	if cp.User != nil {
		u := *cp.User
		cp.User = &u
	}
	return &cp, true
}

// Token implements the backend token source: it reads the slot from ctx
// and returns whatever token is live at this moment.
func (s *Service) Token(ctx context.Context) (string, error) {
	slot, ok := SlotFrom(ctx)
	if !ok {
		return "", ErrNoSlot
	}
	sess, ok := s.Current(ctx, slot)
	if !ok {
		return "", ErrNoSession
	}
	return sess.Token, nil
}

func (s *Service) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.repo.CheckRateLimit(ctx, userID, limit, window)
}

func userID(sess *models.Session) int64 {
	if sess == nil || sess.User == nil {
		return 0
	}
	return sess.User.ID
}
