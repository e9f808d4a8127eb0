package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"roomgrid/config"
)

// Open returns the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	logger = logger.With(zap.String("backend", backend))

	switch backend {
	case "", "file":
		s := NewFileStore(cfg.Store.Path, logger)
		logger.Debug("using file store", zap.String("path", s.Path()))
		return s, nil
	case "redis":
		return NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres.DSN, logger)
	case "mongo":
		return NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Store.Backend)
}
