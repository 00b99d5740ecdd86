package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdusco/linkzip/internal"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 10 * time.Minute
	keyPrefix  = "linkzip:code:"
)

// LinkCache keeps resolver lookups in redis, keyed by short code.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL and checks the connection.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LinkCache{client: client, ttl: ttl}
}

type cachedLink struct {
	ID          int64  `json:"id"`
	OriginalURL string `json:"url"`
	Active      bool   `json:"active"`
}

func (c *LinkCache) Get(ctx context.Context, code string) (*internal.ShortLink, error) {
	data, err := c.client.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cl cachedLink
	if err := json.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %q: %w", code, err)
	}

	return &internal.ShortLink{
		ID:          cl.ID,
		OriginalURL: cl.OriginalURL,
		ShortCode:   code,
		Active:      cl.Active,
	}, nil
}

func (c *LinkCache) Set(ctx context.Context, link *internal.ShortLink) error {
	data, err := json.Marshal(cachedLink{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		Active:      link.Active,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+link.ShortCode, data, c.ttl).Err()
}

func (c *LinkCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, keyPrefix+code).Err()
}
