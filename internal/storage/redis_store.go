package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisSchemaKey   = "schema"
	redisRevisionKey = "revision"
	redisSchema      = "1"
)

// RedisStore keeps each entry under <prefix><key>. Writes run in a
// MULTI/EXEC transaction that also bumps <prefix>revision.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	display string
}

// NewRedisStore parses a redis:// or rediss:// URL. password is used only
// when the URL carries none.
func NewRedisStore(rawURL, password, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if opts.Password == "" {
		opts.Password = password
	}
	return &RedisStore{
		client:  redis.NewClient(opts),
		prefix:  prefix,
		display: rawURL,
	}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		display: "redis://" + client.Options().Addr,
	}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if err := s.client.SetNX(ctx, s.key(redisSchemaKey), redisSchema, 0).Err(); err != nil {
		return fmt.Errorf("failed to initialize Redis keyspace: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	schema, err := s.client.Get(ctx, s.key(redisSchemaKey)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to read Redis keyspace: %w", err)
	}
	if schema != redisSchema {
		return fmt.Errorf("unsupported Redis keyspace version %q - please upgrade the application", schema)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}

	values, err := s.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries from Redis: %w", err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = []byte(str)
	}
	return out, nil
}

func (s *RedisStore) PutAll(ctx context.Context, entries map[string][]byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		pipe.Incr(ctx, s.key(redisRevisionKey))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write entries to Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Revision(ctx context.Context) (int64, error) {
	rev, err := s.client.Get(ctx, s.key(redisRevisionKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read revision from Redis: %w", err)
	}
	return rev, nil
}

// GetConfigPath returns the connection URL with any password removed.
func (s *RedisStore) GetConfigPath() string {
	return redactURL(s.display)
}

func isRedisURL(connStr string) bool {
	return strings.HasPrefix(connStr, "redis://") || strings.HasPrefix(connStr, "rediss://")
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// ValidateRedisURL checks that rawURL parses and carries no password.
func ValidateRedisURL(rawURL string) error {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if opts.Password != "" {
		return ErrEmbeddedCredentials
	}
	return nil
}
