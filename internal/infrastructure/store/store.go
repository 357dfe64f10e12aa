// Package store opens the repositories for the configured STORE_DRIVER.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goosetrack/goosetrack-api/config"
	"github.com/goosetrack/goosetrack-api/internal/health"
	"github.com/goosetrack/goosetrack-api/internal/infrastructure/mongo"
	"github.com/goosetrack/goosetrack-api/internal/infrastructure/postgres"
	"github.com/goosetrack/goosetrack-api/internal/repository"
)

// Store bundles the repositories of one backing database.
type Store struct {
	Driver  string
	Users   repository.UserRepository
	Tasks   repository.TaskRepository
	Reviews repository.ReviewRepository
	DB      health.Pinger

	close func(ctx context.Context) error
}

// Open connects to the database selected by cfg.StoreDriver and makes sure its
// indexes or tables exist.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("db connected", "driver", cfg.StoreDriver)
		return &Store{
			Driver:  cfg.StoreDriver,
			Users:   postgres.NewUserRepository(pool),
			Tasks:   postgres.NewTaskRepository(pool),
			Reviews: postgres.NewReviewRepository(pool),
			DB:      pool,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StoreMongo, "":
		db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Disconnect(ctx)
			return nil, err
		}
		logger.Info("db connected", "driver", config.StoreMongo, "database", cfg.MongoDatabase)
		return &Store{
			Driver:  config.StoreMongo,
			Users:   mongo.NewUserRepository(db),
			Tasks:   mongo.NewTaskRepository(db),
			Reviews: mongo.NewReviewRepository(db),
			DB:      db,
			close:   db.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
