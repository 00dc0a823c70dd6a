// Package backend opens the content store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/prn-tf/theory-forum/internal/config"
	"github.com/prn-tf/theory-forum/internal/repository"
	"github.com/prn-tf/theory-forum/internal/repository/memory"
	"github.com/prn-tf/theory-forum/internal/repository/postgres"
	"github.com/prn-tf/theory-forum/internal/repository/sqlite"
)

// Backend is an opened content store.
type Backend struct {
	// Driver is the configured store driver.
	Driver string

	// Repos holds the repositories of the store.
	Repos *repository.Repositories

	health  repository.DatabaseHealth
	migrate func(ctx context.Context) error
}

// Open connects to the store named by cfg.Driver. Persistent stores are not
// migrated here; call Migrate before serving.
func Open(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (*Backend, error) {
	logger = logger.With().Str("store", cfg.Driver).Logger()

	switch cfg.Driver {
	case config.DriverMemory, "":
		store := memory.NewStore(logger)
		return &Backend{
			Driver:  config.DriverMemory,
			Repos:   store.Repositories(),
			health:  store,
			migrate: func(context.Context) error { return nil },
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:  cfg.Driver,
			Repos:   db.Repositories(),
			health:  db,
			migrate: db.Migrate,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:  cfg.Driver,
			Repos:   db.Repositories(),
			health:  db,
			migrate: db.Migrate,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Migrate brings the store schema up to date.
func (b *Backend) Migrate(ctx context.Context) error {
	return b.migrate(ctx)
}

// Ping checks that the store is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.health.Ping(ctx)
}

// Close releases the store.
func (b *Backend) Close() error {
	return b.health.Close()
}

// Counts returns the number of users, theories and comments.
func (b *Backend) Counts(ctx context.Context) (users, theories, comments int64, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = b.Repos.User.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		theories, err = b.Repos.Theory.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		comments, err = b.Repos.Comment.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, 0, err
	}
	return users, theories, comments, nil
}
