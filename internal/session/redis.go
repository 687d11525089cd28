package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores keys in Redis under "<prefix>:<key>".
type RedisKV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures the underlying client.
type RedisOption func(*redis.Options)

func WithPassword(password string) RedisOption {
	return func(o *redis.Options) {
		o.Password = password
	}
}

func WithDB(db int) RedisOption {
	return func(o *redis.Options) {
		o.DB = db
	}
}

// NewRedisClient builds a client for addr.
func NewRedisClient(addr string, options ...RedisOption) *redis.Client {
	opts := &redis.Options{Addr: addr}
	for _, option := range options {
		option(opts)
	}
	return redis.NewClient(opts)
}

// NewRedisKV wraps client. A zero ttl stores keys without expiry.
func NewRedisKV(client *redis.Client, prefix string, ttl time.Duration) *RedisKV {
	return &RedisKV{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisKV) prefixKey(key string) string {
	if r.prefix == "" {
		return key
	}
	var builder strings.Builder
	builder.Grow(len(r.prefix) + 1 + len(key))
	builder.WriteString(r.prefix)
	builder.WriteString(":")
	builder.WriteString(key)
	return builder.String()
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefixKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefixKey(key), value, r.ttl).Err()
}

var _ KV = (*RedisKV)(nil)
