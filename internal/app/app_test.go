package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"talento/internal/config"
	"talento/internal/realtime"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Timezone: "Asia/Manila"},
		Backend:  config.BackendConfig{BaseURL: "http://localhost:8000/api", TimeoutSeconds: 5},
		Realtime: config.RealtimeConfig{Driver: "none", Channel: "bookings"},
		Session:  config.SessionConfig{Store: "memory", TTLHours: 1},
		Logging:  config.LoggingConfig{Level: "error", Output: "stderr"},
		API:      config.APIConfig{Port: 0, RateLimit: config.APIRateLimitConfig{RPS: 100}},
	}
}

func TestNewMemoryRuntime(t *testing.T) {
	rt, err := New(context.Background(), baseConfig(), "test")
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Redis)
	assert.NotNil(t, rt.Sessions)
	assert.NotNil(t, rt.Backend)
	assert.IsType(t, realtime.NopTransport{}, rt.transport())
	assert.Equal(t, "Asia/Manila", rt.Location.String())
}

func TestNewSQLiteRuntime(t *testing.T) {
	cfg := baseConfig()
	cfg.Session.Store = "sqlite"
	cfg.Session.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")

	rt, err := New(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer rt.Close()

	rec := httptest.NewRecorder()
	rt.StatusServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRedisRuntime(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Redis.Address = mr.Addr()
	cfg.Session.Store = "redis"
	cfg.Realtime.Driver = "redis"

	rt, err := New(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer rt.Close()

	require.NotNil(t, rt.Redis)
	assert.IsType(t, &realtime.RedisTransport{}, rt.transport())

	handler := rt.StatusServer().Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRedisStoreRequiresAddress(t *testing.T) {
	cfg := baseConfig()
	cfg.Session.Store = "redis"
	_, err := New(context.Background(), cfg, "test")
	assert.Error(t, err)
}
