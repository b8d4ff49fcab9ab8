package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

// RedisLedger keeps the set in a Redis SET, so several bot instances share it.
// SADD is atomic, which makes the flush-after-add step implicit.
type RedisLedger struct {
	client redis.Cmdable
	key    string
}

func NewRedisLedger(client redis.Cmdable, key string) *RedisLedger {
	return &RedisLedger{client: client, key: key}
}

func (l *RedisLedger) Load(ctx context.Context) error {
	n, err := l.client.SCard(ctx, l.key).Result()
	if err != nil {
		return fmt.Errorf("%w: redis: %v", ErrRead, err)
	}
	log.Infof("[Ledger] Redis set %s holds %d verified emails", l.key, n)
	return nil
}

func (l *RedisLedger) Contains(ctx context.Context, email string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, l.key, NormalizeEmail(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis: %v", ErrRead, err)
	}
	return ok, nil
}

func (l *RedisLedger) Add(ctx context.Context, email string) error {
	err := l.client.SAdd(ctx, l.key, NormalizeEmail(email)).Err()
	metrics.ObserveLedgerWrite("redis", err)
	if err != nil {
		return fmt.Errorf("%w: redis: %v", ErrWrite, err)
	}
	return nil
}

func (l *RedisLedger) List(ctx context.Context) ([]string, error) {
	members, err := l.client.SMembers(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis: %v", ErrRead, err)
	}
	sort.Strings(members)
	return members, nil
}
