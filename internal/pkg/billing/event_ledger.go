package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventKeyPrefix namespaces claimed gateway event ids in redis.
const EventKeyPrefix = "stripe_event:"

// EventLedger remembers which gateway events were already handled so a
// redelivery does not fulfil the same purchase twice.
type EventLedger interface {
	// Claim returns true the first time an event id is seen.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claimed id so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

// RedisEventLedger claims event ids with SET NX and a TTL longer than the
// gateway's retry window.
type RedisEventLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEventLedger(client *redis.Client, ttl time.Duration) *RedisEventLedger {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisEventLedger{client: client, ttl: ttl}
}

var errEventIDRequired = errors.New("event id is required")

func (l *RedisEventLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, errEventIDRequired
	}
	return l.client.SetNX(ctx, EventKeyPrefix+eventID, time.Now().Unix(), l.ttl).Result()
}

func (l *RedisEventLedger) Release(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return errEventIDRequired
	}
	return l.client.Del(ctx, EventKeyPrefix+eventID).Err()
}
