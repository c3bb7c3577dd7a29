package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
)

// Cache stores sheet rows for a limited time. Implementations tolerate races:
// two concurrent misses for the same sheet may both fetch and both Set.
type Cache interface {
	Get(ctx context.Context, sheet string) ([]Row, bool)
	Set(ctx context.Context, sheet string, rows []Row, ttl time.Duration)
}

type memoryEntry struct {
	rows      []Row
	expiresAt time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, sheet string) ([]Row, bool) {
	c.mu.RLock()
	e, ok := c.entries[sheet]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.rows, true
}

func (c *MemoryCache) Set(_ context.Context, sheet string, rows []Row, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sheet] = memoryEntry{rows: rows, expiresAt: c.now().Add(ttl)}
}

// RedisCache shares rows between bot processes. Redis failures degrade to a
// cache miss.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "quizbot:sheet:"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		log:    logger.For("sheets.redis"),
	}
}

func (c *RedisCache) Get(ctx context.Context, sheet string) ([]Row, bool) {
	data, err := c.client.Get(ctx, c.prefix+sheet).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "redis get failed", "sheet", sheet, "error", err)
		}
		return nil, false
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		c.log.WarnContext(ctx, "corrupt cache entry", "sheet", sheet, "error", err)
		return nil, false
	}
	return rows, true
}

func (c *RedisCache) Set(ctx context.Context, sheet string, rows []Row, ttl time.Duration) {
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+sheet, data, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "redis set failed", "sheet", sheet, "error", err)
	}
}
