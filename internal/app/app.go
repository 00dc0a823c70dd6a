// Package app wires configuration into a running forum: store, token cache,
// metrics, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	cachememory "github.com/prn-tf/theory-forum/internal/cache/memory"
	cacheredis "github.com/prn-tf/theory-forum/internal/cache/redis"
	"github.com/prn-tf/theory-forum/internal/config"
	"github.com/prn-tf/theory-forum/internal/handler"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/repository"
	"github.com/prn-tf/theory-forum/internal/repository/backend"
	"github.com/prn-tf/theory-forum/internal/service"
)

// App holds the wired components of one forum process.
type App struct {
	Config  *config.Config
	Backend *backend.Backend
	Cache   repository.Cache
	Metrics *metrics.Metrics

	Tokens   *service.TokenService
	Users    *service.UserService
	Theories *service.TheoryService
	Comments *service.CommentService

	logger zerolog.Logger
}

// New opens and migrates the configured store, opens the token cache and
// builds the services. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	b, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := b.Migrate(ctx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	cache, err := newCache(ctx, cfg, logger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open token cache: %w", err)
	}

	m := metrics.New()
	m.RegisterEntityGauges(b.Counts)

	tokens := service.NewTokenService(cache, cfg.Tokens.TTL, m, logger)
	repos := b.Repos

	logger.Info().
		Str("store", b.Driver).
		Str("tokens", cfg.Tokens.Backend).
		Msg("forum initialized")

	return &App{
		Config:   cfg,
		Backend:  b,
		Cache:    cache,
		Metrics:  m,
		Tokens:   tokens,
		Users:    service.NewUserService(repos.User, tokens, cfg.Auth.BcryptCost, m, logger),
		Theories: service.NewTheoryService(repos.Theory, repos.User, m, logger),
		Comments: service.NewCommentService(repos.Comment, repos.User, m, logger),
		logger:   logger,
	}, nil
}

func newCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, error) {
	switch cfg.Tokens.Backend {
	case config.TokenBackendRedis:
		return cacheredis.NewCache(ctx, cfg.Redis, logger)
	case config.TokenBackendMemory, "":
		return cachememory.NewCache(cfg.Tokens.CleanupInterval, logger), nil
	default:
		return nil, fmt.Errorf("unknown token backend %q", cfg.Tokens.Backend)
	}
}

// Router returns the API handler.
func (a *App) Router() http.Handler {
	return handler.NewRouter(handler.RouterConfig{
		UserService:    a.Users,
		TheoryService:  a.Theories,
		CommentService: a.Comments,
		TokenService:   a.Tokens,
		Health:         a.Backend.Ping,
		Metrics:        a.Metrics,
		MaxBodySize:    a.Config.Server.MaxBodySize,
		Logger:         a.logger,
	})
}

// Close releases the token cache and the store.
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.Backend.Close())
}
