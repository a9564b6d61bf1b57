package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupNotifier(t *testing.T) *RedisNotifier {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisNotifier(rdb)
}

func TestRedisNotifierDeliversPerCollection(t *testing.T) {
	n := setupNotifier(t)
	ctx := context.Background()

	inventory, stopInventory, err := n.Listen(ctx, "inventory")
	require.NoError(t, err)
	defer stopInventory()
	orders, stopOrders, err := n.Listen(ctx, "orders")
	require.NoError(t, err)
	defer stopOrders()

	require.NoError(t, n.Notify(ctx, "inventory"))

	select {
	case <-inventory:
	case <-time.After(2 * time.Second):
		t.Fatal("no signal for inventory")
	}
	select {
	case <-orders:
		t.Fatal("orders listener signalled for an inventory change")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisNotifierStopClosesChannel(t *testing.T) {
	n := setupNotifier(t)

	ch, stop, err := n.Listen(context.Background(), "inventory")
	require.NoError(t, err)
	stop()
	stop()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}
