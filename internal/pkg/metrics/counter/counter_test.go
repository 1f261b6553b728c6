package counter

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("CACHE_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("CACHE_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port), DB: 14})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestRedisCounter_AddDownload(t *testing.T) {
	c := NewRedisCounter(newTestRedis(t))
	ctx := context.Background()

	require.NoError(t, c.AddDownload(ctx, "1"))
	require.NoError(t, c.AddDownload(ctx, "1"))
	require.NoError(t, c.AddDownload(ctx, "3"))
	require.NoError(t, c.AddDownload(ctx, " "))

	counts, err := c.Downloads(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"1": 2, "3": 1}, counts)
}
