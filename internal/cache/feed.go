// Package cache keeps the recent posts feed in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/socialfeed/internal/models"
)

const (
	DefaultFeedTTL = 30 * time.Second

	feedVersionKey  = "feed:version"
	feedSnapshotKey = "feed:recent:%d"
	connectTimeout  = 5 * time.Second
)

// RedisErrors counts failed redis commands. Register it where metrics are exposed
var RedisErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "socialfeed_redis_errors_total",
	Help: "Total number of redis errors by command",
}, []string{"command"})

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Connect to redis by 'redis://' url or plain 'host:port' address and ping it
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url. Err: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis is unreachable. Err: %w", err)
	}

	return client, nil
}

// Snapshot of cached feed
// Version has to be passed back to Store, so a feed read before invalidation is never served after it
type Snapshot struct {
	Version int64
	Posts   []models.Post
	Found   bool
}

// Feed caches the recent posts list
// Every invalidation bumps the version; snapshots are stored under versioned keys
type Feed struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewFeed(client redis.Cmdable, ttl time.Duration) *Feed {
	if ttl <= 0 {
		ttl = DefaultFeedTTL
	}
	return &Feed{client: client, ttl: ttl}
}

func (f *Feed) Load(ctx context.Context) (Snapshot, error) {
	var s Snapshot

	version, err := f.version(ctx)
	if err != nil {
		return s, err
	}
	s.Version = version

	data, err := f.client.Get(ctx, fmt.Sprintf(feedSnapshotKey, version)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return s, nil
	case err != nil:
		return s, fmt.Errorf("redis error: %w", err)
	}

	if err := json.Unmarshal(data, &s.Posts); err != nil {
		return s, fmt.Errorf("broken feed snapshot: %w", err)
	}
	s.Found = true

	return s, nil
}

func (f *Feed) Store(ctx context.Context, version int64, posts []models.Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return err
	}

	err = f.client.Set(ctx, fmt.Sprintf(feedSnapshotKey, version), data, f.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (f *Feed) Invalidate(ctx context.Context) error {
	if err := f.client.Incr(ctx, feedVersionKey).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (f *Feed) version(ctx context.Context) (int64, error) {
	raw, err := f.client.Get(ctx, feedVersionKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("redis error: %w", err)
	}

	return strconv.ParseInt(raw, 10, 64)
}
