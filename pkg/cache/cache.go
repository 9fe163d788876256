// Package cache stores analysis results in Redis so identical requests skip the
// analysis pipeline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// ErrMiss is returned by Get when no result is cached for the statement.
var ErrMiss = errors.New("cache: miss")

// Cache is a Redis-backed result cache. A nil *Cache is valid and never hits.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to the Redis server of cfg and pings it.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  1,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}

	c := NewWithClient(client, cfg.Prefix, time.Duration(cfg.TTLSeconds)*time.Second, logger)
	c.logger.Info("result cache enabled",
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("ttl", c.ttl),
	)
	return c, nil
}

// NewWithClient wraps an existing client. A non-positive ttl stores results without
// expiry.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the Redis key of a statement: the prefix followed by the hex sha256 of
// the analyzer fingerprint, the dialect name and the statement text.
func Key(prefix, fingerprint string, dialect types.Dialect, query string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(dialect.String()))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the result cached for a statement by an analyzer with the given
// fingerprint, or ErrMiss.
func (c *Cache) Get(ctx context.Context, fingerprint string, dialect types.Dialect, query string) (*types.AnalysisResult, error) {
	if c == nil {
		return nil, ErrMiss
	}

	key := Key(c.prefix, fingerprint, dialect, query)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, errors.Wrap(err, "failed to get from redis")
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("dropping unreadable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		_ = c.client.Del(ctx, key).Err()
		return nil, ErrMiss
	}
	return &result, nil
}

// Set stores a result under the key of the analyzer fingerprint, its dialect and its
// statement.
func (c *Cache) Set(ctx context.Context, fingerprint string, result *types.AnalysisResult) error {
	if c == nil || result == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to marshal analysis result")
	}
	key := Key(c.prefix, fingerprint, result.Dialect, result.Query)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set to redis")
	}
	return nil
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
