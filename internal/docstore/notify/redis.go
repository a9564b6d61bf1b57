// Package notify carries docstore change signals between processes over Redis pub/sub.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "docstore:"

type RedisNotifier struct {
	client redis.UniversalClient
}

func NewRedisNotifier(client redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, collection string) error {
	if err := n.client.Publish(ctx, channelPrefix+collection, "changed").Err(); err != nil {
		return fmt.Errorf("publish %s: %w", collection, err)
	}
	return nil
}

func (n *RedisNotifier) Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	ps := n.client.Subscribe(ctx, channelPrefix+collection)
	// Wait for the subscription confirmation so no publish after Listen returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range ps.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { ps.Close() })
	}
	return out, stop, nil
}
