// Package app assembles the shared runtime used by the bot and the CLI:
// session store, backend client and realtime hub.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"talento/internal/api"
	"talento/internal/backend"
	"talento/internal/config"
	"talento/internal/domain"
	"talento/internal/logging"
	"talento/internal/models"
	"talento/internal/realtime"
	"talento/internal/repository"
	"talento/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Runtime holds the wired components and the resources to release.
type Runtime struct {
	Config   *config.Config
	Logger   *zerolog.Logger
	Location *time.Location
	Redis    *redis.Client
	Sessions *session.Service
	Backend  *backend.Client
	Hub      *realtime.Hub

	sqlite  *repository.SQLiteSessionRepository
	closers []io.Closer
}

// LoadConfig reads CONFIG_PATH, defaulting to configs/config.yaml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}
	return config.Load(path)
}

// New builds the runtime. component names the process in every log line.
func New(ctx context.Context, cfg *config.Config, component string) (*Runtime, error) {
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, err
	}
	logger := baseLogger.With().Str("component", component).Logger()

	rt := &Runtime{
		Config:   cfg,
		Logger:   &logger,
		Location: models.LoadLocation(cfg.App.Timezone),
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	if cfg.Redis.Address != "" {
		rt.Redis = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, rt.Redis); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	repo, err := rt.sessionRepository()
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Sessions = session.NewService(repo, &logger)

	rt.Backend = backend.NewClient(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second, rt.Sessions, &logger)
	rt.Backend.UseLocation(rt.Location)
	if rt.Redis != nil && cfg.Backend.ReportCacheTTLSeconds > 0 {
		rt.Backend.UseRedisCache(rt.Redis, time.Duration(cfg.Backend.ReportCacheTTLSeconds)*time.Second)
	}

	rt.Hub = realtime.NewHub(rt.transport(), &logger)
	return rt, nil
}

func (rt *Runtime) sessionRepository() (domain.SessionRepository, error) {
	cfg := rt.Config.Session
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	memory := repository.NewMemorySessionRepository(ttl)

	switch cfg.Store {
	case "sqlite":
		repo, err := repository.NewSQLiteSessionRepository(cfg.SQLitePath, ttl)
		if err != nil {
			rt.Logger.Error().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open session database")
			return nil, err
		}
		rt.sqlite = repo
		rt.closers = append(rt.closers, repo)
		return repo, nil
	case "redis":
		if rt.Redis == nil {
			return nil, errors.New("session.store=redis requires redis.address")
		}
		primary := repository.NewRedisSessionRepository(rt.Redis, ttl)
		return repository.NewFailoverSessionRepository(primary, memory, rt.Logger), nil
	default:
		return memory, nil
	}
}

func (rt *Runtime) transport() realtime.Transport {
	cfg := rt.Config.Realtime
	switch cfg.Driver {
	case "redis":
		if rt.Redis != nil {
			return realtime.NewRedisTransport(rt.Redis, cfg.ChannelPrefix)
		}
		rt.Logger.Warn().Msg("realtime.driver=redis without redis.address; realtime disabled")
	case "amqp":
		return realtime.NewAMQPTransport(cfg.AMQPURL)
	}
	return realtime.NopTransport{}
}

// StatusServer returns the health/metrics server with a readiness check per backing store.
func (rt *Runtime) StatusServer() *api.HTTPServer {
	var checks []api.Check
	if rt.Redis != nil {
		client := rt.Redis
		checks = append(checks, api.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return repository.Ping(ctx, client)
		}})
	}
	if rt.sqlite != nil {
		checks = append(checks, api.Check{Name: "sqlite", Ping: rt.sqlite.PingContext})
	}
	return api.NewHTTPServer(rt.Config.API, rt.Logger, checks...)
}

// Close stops the hub and releases stores and log outputs, newest first.
func (rt *Runtime) Close() error {
	if rt.Hub != nil {
		rt.Hub.Close()
	}
	var errs []error
	if rt.Redis != nil {
		errs = append(errs, repository.Close(rt.Redis))
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i].Close())
	}
	return errors.Join(errs...)
}
