package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores JSON encoded query results under prefix:<md5 of the query>.
type ResultCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewResultCache(client redis.UniversalClient, prefix string, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ResultCache) key(query string) string {
	return fmt.Sprintf("%s:%x", c.prefix, md5.Sum([]byte(query)))
}

// Get decodes the cached result for query into out. A miss is (false, nil).
func (c *ResultCache) Get(ctx context.Context, query string, out any) (bool, error) {
	val, err := c.client.Get(ctx, c.key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ResultCache) Set(ctx context.Context, query string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(query), data, c.ttl).Err()
}

// Invalidate drops every result under the prefix.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
