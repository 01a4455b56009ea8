// Package cache mirrors hot state into redis. Everything here is best
// effort: a dead redis degrades to cache misses, never to request errors.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"goldwatcher/internal/quote"
)

// DealsChannel carries pub/sub notifications whenever fresh prices land.
const DealsChannel = "price-updates"

// Cache exposes the read-through/write-through surface. The concrete redis
// implementation and the noop both satisfy it.
type Cache interface {
	Get(ctx context.Context, key string, out interface{}) bool
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration)
	Store(ctx context.Context, q quote.Quotation)
	PublishDeals(ctx context.Context, payload interface{})
}

// Options tune the redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Redis is the go-redis backed implementation.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

// New connects a redis-backed cache.
func New(opts Options, logger zerolog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Redis{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Close releases the redis connection.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Ping verifies connectivity. Used at startup to decide between the redis
// cache and the noop.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get unmarshals the cached value at key into out and reports a hit.
func (r *Redis) Get(ctx context.Context, key string, out interface{}) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("cache value corrupt")
		return false
	}
	return true
}

// Set stores val at key for ttl.
func (r *Redis) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) {
	raw, err := json.Marshal(val)
	if err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Store mirrors a quotation under its kind key and announces the update.
func (r *Redis) Store(ctx context.Context, q quote.Quotation) {
	r.Set(ctx, QuoteKey(q.Kind), q, 0)
	r.PublishDeals(ctx, map[string]string{
		"kind":      string(q.Kind),
		"source":    q.Source,
		"fetchedAt": q.FetchedAt.Format(time.RFC3339),
	})
}

// PublishDeals broadcasts payload on the deals channel.
func (r *Redis) PublishDeals(ctx context.Context, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.logger.Debug().Err(err).Msg("publish marshal failed")
		return
	}
	if err := r.client.Publish(ctx, DealsChannel, raw).Err(); err != nil {
		r.logger.Debug().Err(err).Msg("publish failed")
	}
}

// QuoteKey is the cache key for the current quotation of a kind.
func QuoteKey(kind quote.Kind) string {
	return "quote:" + string(kind)
}

// Noop is the cache used when redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) bool { return false }

func (Noop) Set(context.Context, string, interface{}, time.Duration) {}

func (Noop) Store(context.Context, quote.Quotation) {}

func (Noop) PublishDeals(context.Context, interface{}) {}

var (
	_ Cache = (*Redis)(nil)
	_ Cache = Noop{}
)
