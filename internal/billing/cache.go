// internal/billing/cache.go
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/models"
)

const (
	CacheKey        = "billing:records:all"
	DefaultCacheTTL = 5 * time.Minute
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Warn(string, map[string]interface{}) {}

// CachedStore is a read-through Redis cache in front of another store.
// Cache failures are logged and the backing store is used instead.
type CachedStore struct {
	backing RecordStore
	rdb     redis.Cmdable
	ttl     time.Duration
	logger  Logger
}

func NewCachedStore(backing RecordStore, rdb redis.Cmdable, ttl time.Duration, log Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = nopLogger{}
	}
	return &CachedStore{backing: backing, rdb: rdb, ttl: ttl, logger: log}
}

func (s *CachedStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	if records, ok := s.lookup(ctx); ok {
		return records, nil
	}

	records, err := s.backing.FetchAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	// An empty set is not cached so a later load can see new rows.
	if len(records) > 0 {
		s.store(ctx, records)
	}
	return records, nil
}

func (s *CachedStore) lookup(ctx context.Context) ([]models.Record, bool) {
	data, err := s.rdb.Get(ctx, CacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.BillingRecordCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.BillingRecordCache.WithLabelValues("error").Inc()
		s.logger.Warn("billing cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.BillingRecordCache.WithLabelValues("error").Inc()
		s.logger.Warn("billing cache entry unreadable", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	metrics.BillingRecordCache.WithLabelValues("hit").Inc()
	return records, true
}

func (s *CachedStore) store(ctx context.Context, records []models.Record) {
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("billing cache encode failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.rdb.Set(ctx, CacheKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn("billing cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate drops the cached record set.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	return s.rdb.Del(ctx, CacheKey).Err()
}
