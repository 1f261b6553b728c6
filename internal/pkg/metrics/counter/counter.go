package counter

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const trackDownloadsKey = "track:counters:downloads"

// DownloadCounter records completed downloads per track.
type DownloadCounter interface {
	AddDownload(ctx context.Context, trackID string) error
}

// DownloadStats reports the recorded download counts.
type DownloadStats interface {
	Downloads(ctx context.Context) (map[string]int64, error)
}

// RedisCounter keeps the counts in a redis hash keyed by track id.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// AddDownload increments the download counter for a track
func (r *RedisCounter) AddDownload(ctx context.Context, trackID string) error {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return nil
	}
	return r.client.HIncrBy(ctx, trackDownloadsKey, trackID, 1).Err()
}

// Downloads returns the counts for all tracks seen so far.
func (r *RedisCounter) Downloads(ctx context.Context) (map[string]int64, error) {
	data, err := r.client.HGetAll(ctx, trackDownloadsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for k, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
