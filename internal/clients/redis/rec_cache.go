package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/utils"
)

// RecCache persists one recommendation cache entry per user in Redis. Both
// surfaces live under a single key so a write to one surface can preserve the
// other.
type RecCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRecCache(log *logger.Logger) (*RecCache, error) {
	cacheLog := log.With("client", "RecCache")

	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	db := utils.GetEnvAsInt("REDIS_DB", 0, log)
	ttlHours := utils.GetEnvAsInt("REC_CACHE_TTL_HOURS", 24, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		cacheLog.Error("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RecCache{
		rdb: rdb,
		ttl: time.Duration(ttlHours) * time.Hour,
		log: cacheLog,
	}, nil
}

func (c *RecCache) key(userID string) string {
	return "rec:cache:" + userID
}

// TTL is the configured entry lifetime, used when stamping new surfaces.
func (c *RecCache) TTL() time.Duration {
	return c.ttl
}

// Get loads the user's cache entry. A missing key maps to ErrCacheMiss.
func (c *RecCache) Get(ctx context.Context, userID uuid.UUID) (recommendation.CacheEntry, error) {
	raw, err := c.rdb.Get(ctx, c.key(userID.String())).Bytes()
	if err == goredis.Nil {
		return recommendation.CacheEntry{}, apperrors.ErrCacheMiss
	}
	if err != nil {
		return recommendation.CacheEntry{}, fmt.Errorf("redis get: %w", err)
	}
	var entry recommendation.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt payload behaves like a miss so the caller regenerates.
		c.log.Warn("discarding unreadable cache entry", "error", err)
		return recommendation.CacheEntry{}, apperrors.ErrCacheMiss
	}
	return entry, nil
}

// Put stores the entry under the cache TTL plus slack, so the stale flag in
// the payload expires before the key itself does.
func (c *RecCache) Put(ctx context.Context, entry recommendation.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	keyTTL := c.ttl + time.Hour
	if err := c.rdb.Set(ctx, c.key(entry.UserID), raw, keyTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// MarkStale flags the entry for background refresh without dropping the
// payload. A missing entry is a no-op.
func (c *RecCache) MarkStale(ctx context.Context, userID uuid.UUID) error {
	entry, err := c.Get(ctx, userID)
	if err == apperrors.ErrCacheMiss {
		return nil
	}
	if err != nil {
		return err
	}
	entry.MarkStale()
	return c.Put(ctx, entry)
}

// Invalidate removes the user's entry entirely.
func (c *RecCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.rdb.Del(ctx, c.key(userID.String())).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RecCache) Close() error {
	return c.rdb.Close()
}
