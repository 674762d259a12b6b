// cmd/worker-manager/stores.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"billing-chart-workers/internal/api"
	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/common/config"
	"billing-chart-workers/internal/common/database"
	"billing-chart-workers/internal/common/logger"
)

// backends owns the connections behind the record store.
type backends struct {
	closers []func() error
	checks  map[string]api.ReadinessCheck
	log     *zap.Logger
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			b.log.Warn("error closing backend", zap.Error(err))
		}
	}
}

// Checks returns a fresh map of readiness checks for every connected backend.
func (b *backends) Checks() map[string]api.ReadinessCheck {
	out := make(map[string]api.ReadinessCheck, len(b.checks)+1)
	for name, check := range b.checks {
		out[name] = check
	}
	return out
}

// openRecordStore connects the configured backend, wrapping it in the Redis
// cache when enabled.
func openRecordStore(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) (billing.RecordStore, *backends, error) {
	b := &backends{checks: map[string]api.ReadinessCheck{}, log: zapLog}

	var store billing.RecordStore
	switch cfg.RecordStore.Backend {
	case config.BackendPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			return nil
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, nil, err
		}
		b.closers = append(b.closers, pg.Close)
		b.checks["postgres"] = pg.Ping
		store = billing.NewPostgresStore(pg.DB, cfg.Database.Postgres.Table)
		zapLog.Info("PostgreSQL connected successfully")

	case config.BackendElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, nil, err
		}
		b.checks["elasticsearch"] = es.Ping
		store = billing.NewSearchStore(es.Client, es.Index)
		zapLog.Info("Elasticsearch connected successfully")

	case config.BackendFile:
		store = billing.NewFileStore(cfg.RecordStore.FilePath)
		zapLog.Info("Using file record store", zap.String("path", cfg.RecordStore.FilePath))

	default:
		return nil, nil, fmt.Errorf("unsupported record store backend %q", cfg.RecordStore.Backend)
	}

	if !cfg.RecordStore.CacheEnabled {
		return store, b, nil
	}

	var rdb *database.RedisClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return err
		}
		return nil
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		// The cache is optional; serve straight from the backend.
		zapLog.Warn("redis unavailable, record cache disabled", zap.Error(err))
		return store, b, nil
	}
	b.closers = append(b.closers, rdb.Close)
	b.checks["redis"] = rdb.Ping
	zapLog.Info("Redis connected successfully")

	cached := billing.NewCachedStore(store, rdb.Client, config.GetDuration(cfg.RecordStore.CacheTTL),
		log.WithFields(map[string]interface{}{"component": "record-cache"}))
	return cached, b, nil
}
