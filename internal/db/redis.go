package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// viewerFrequencyTTL keeps per-viewer counter hashes from outliving the
// viewer: refreshed on every impression.
const viewerFrequencyTTL = 90 * 24 * time.Hour

// sweepLockKey guards the daily expiry sweep across replicas.
const sweepLockKey = "sweep:daily:lock"

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// IncrementViewerFrequency bumps the viewer's impression counter for one
// banner in the per-viewer hash and refreshes its TTL.
func (r *RedisStore) IncrementViewerFrequency(viewerID, bannerID int) error {
	key := fmt.Sprintf("bannerfreq:%d", viewerID)
	if err := r.Client.HIncrBy(r.Ctx, key, fmt.Sprintf("%d", bannerID), 1).Err(); err != nil {
		return err
	}
	r.Client.Expire(r.Ctx, key, viewerFrequencyTTL)
	return nil
}

// ViewerFrequencies returns the viewer's whole counter hash (banner id field
// to count) in one round trip for the slot-fill fast path.
func (r *RedisStore) ViewerFrequencies(viewerID int) (map[string]string, error) {
	key := fmt.Sprintf("bannerfreq:%d", viewerID)
	return r.Client.HGetAll(r.Ctx, key).Result()
}

// AcquireSweepLock takes the daily-sweep lock for at most ttl. Returns false
// when another pass already holds it.
func (r *RedisStore) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, sweepLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ReleaseSweepLock drops the daily-sweep lock.
func (r *RedisStore) ReleaseSweepLock(ctx context.Context) error {
	return r.Client.Del(ctx, sweepLockKey).Err()
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
