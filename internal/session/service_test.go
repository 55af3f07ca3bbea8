package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"talento/internal/models"
	"talento/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *repository.MemorySessionRepository) {
	t.Helper()
	repo := repository.NewMemorySessionRepository(time.Hour)
	logger := zerolog.New(io.Discard)
	return NewService(repo, &logger), repo
}

func TestLoginCurrentLogout(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, ok := svc.Current(ctx, "100")
	assert.False(t, ok)

	user := &models.User{ID: 5, Role: "admin", Name: "Mara"}
	require.NoError(t, svc.Login(ctx, "100", user, "token-1"))

	sess, ok := svc.Current(ctx, "100")
	require.True(t, ok)
	assert.Equal(t, "token-1", sess.Token)
	assert.Equal(t, "Mara", sess.User.Name)

	stored, err := repo.GetSession(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "token-1", stored.Token)

	require.NoError(t, svc.Logout(ctx, "100"))
	_, ok = svc.Current(ctx, "100")
	assert.False(t, ok)

	stored, err = repo.GetSession(ctx, "100")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Login(context.Background(), "1", &models.User{ID: 1}, "")
	assert.Error(t, err)
}

func TestCurrentReturnsCopy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Login(ctx, "1", &models.User{ID: 1, Name: "A"}, "t"))

	sess, _ := svc.Current(ctx, "1")
	sess.User.Name = "changed"
	sess.Token = ""

	again, ok := svc.Current(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "A", again.User.Name)
}

func TestRehydrateFromSlot(t *testing.T) {
	repo := repository.NewMemorySessionRepository(time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.SetSession(ctx, "42", &models.Session{
		User:  &models.User{ID: 9, Role: "performer"},
		Token: "persisted",
	}))

	logger := zerolog.New(io.Discard)
	svc := NewService(repo, &logger)

	sess, ok := svc.Current(ctx, "42")
	require.True(t, ok)
	assert.Equal(t, "persisted", sess.Token)
}

func TestLogoutIsImmediatelyVisibleToTokenReaders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := WithSlot(context.Background(), "7")
	require.NoError(t, svc.Login(ctx, "7", &models.User{ID: 7}, "abc"))

	token, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, svc.Logout(ctx, "7"))
	_, err = svc.Token(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestTokenWithoutSlot(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSlot)
}

type failingRepo struct {
	*repository.MemorySessionRepository
}

func (f failingRepo) ClearSession(ctx context.Context, slot string) error {
	return errors.New("redis down")
}

func TestLogoutTombstoneSurvivesClearFailure(t *testing.T) {
	repo := failingRepo{repository.NewMemorySessionRepository(time.Hour)}
	logger := zerolog.New(io.Discard)
	svc := NewService(repo, &logger)
	ctx := context.Background()

	require.NoError(t, svc.Login(ctx, "1", &models.User{ID: 1}, "t"))
	assert.Error(t, svc.Logout(ctx, "1"))

	_, ok := svc.Current(ctx, "1")
	assert.False(t, ok, "stale persisted slot must not resurrect the session")
}

// slowRepo blocks GetSession for one slot until release is closed.
type slowRepo struct {
	*repository.MemorySessionRepository
	slot    string
	entered chan struct{}
	release chan struct{}
}

func (r slowRepo) GetSession(ctx context.Context, slot string) (*models.Session, error) {
	if slot == r.slot {
		close(r.entered)
		<-r.release
	}
	return r.MemorySessionRepository.GetSession(ctx, slot)
}

func TestCurrentLoadsOutsideLock(t *testing.T) {
	repo := slowRepo{
		MemorySessionRepository: repository.NewMemorySessionRepository(time.Hour),
		slot:                    "slow",
		entered:                 make(chan struct{}),
		release:                 make(chan struct{}),
	}
	ctx := context.Background()
	require.NoError(t, repo.SetSession(ctx, "slow", &models.Session{User: &models.User{ID: 2}, Token: "stored"}))
	logger := zerolog.New(io.Discard)
	svc := NewService(repo, &logger)
	require.NoError(t, svc.Login(ctx, "fast", &models.User{ID: 1}, "live"))

	done := make(chan bool, 1)
	go func() {
		_, ok := svc.Current(ctx, "slow")
		done <- ok
	}()
	<-repo.entered

	sess, ok := svc.Current(ctx, "fast")
	require.True(t, ok, "other slots are not stalled by a slow load")
	assert.Equal(t, "live", sess.Token)

	// logout lands while the stored copy is still being read
	require.NoError(t, svc.Logout(ctx, "slow"))
	close(repo.release)

	assert.False(t, <-done)
	_, ok = svc.Current(ctx, "slow")
	assert.False(t, ok)
}

func TestCheckRateLimitDelegates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	allowed, err := svc.CheckRateLimit(ctx, 1, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _ = svc.CheckRateLimit(ctx, 1, 1, time.Minute)
	assert.False(t, allowed)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("12|plain-sanctum-token")
	assert.False(t, ok)

	_, ok = TokenExpiry("")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, ok = TokenExpiry(noExp)
	assert.False(t, ok)
}
