package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Verdict struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type RateLimiter interface {
	CheckAndRecord(ctx context.Context, userID string, opType string) (Verdict, error)
}

var Limiter RateLimiter

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", int64(e.RetryAfter.Seconds()))
}

// LimiterStore holds one sorted window of timestamps per key. Tally prunes
// entries older than cutoff and reports what is left; Record appends one.
type LimiterStore interface {
	Tally(ctx context.Context, key string, cutoff time.Time) (count int64, oldest time.Time, err error)
	Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}

// SlidingLimiter counts operations inside a trailing window. The per-type
// limits come from configuration, and an unreachable store fails open: the
// limiter is defense in depth, the payload caps and audit trail still hold.
type SlidingLimiter struct {
	Store LimiterStore
	Now   func() time.Time
}

func NewSlidingLimiter(store LimiterStore) *SlidingLimiter {
	return &SlidingLimiter{Store: store, Now: time.Now}
}

func limitFor(opType string) (int, time.Duration) {
	base := "limits." + opType
	if !viper.IsSet(base + ".max") {
		base = "limits.default"
	}

	max := viper.GetInt(base + ".max")
	if max <= 0 {
		max = 10
	}
	window := viper.GetInt(base + ".window")
	if window <= 0 {
		window = 60
	}

	return max, time.Duration(window) * time.Second
}

func (v *SlidingLimiter) CheckAndRecord(ctx context.Context, userID string, opType string) (Verdict, error) {
	max, window := limitFor(opType)
	now := v.Now()
	key := fmt.Sprintf("videocall:ratelimit:%s:%s", opType, userID)

	count, oldest, err := v.Store.Tally(ctx, key, now.Add(-window))
	if err != nil {
		log.Warn().Err(err).Str("type", opType).Msg("Rate limiter store is unreachable, allowing operation...")
		return Verdict{Allowed: true, Remaining: max - 1, RetryAfter: window}, nil
	}

	if count >= int64(max) {
		retry := oldest.Add(window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Verdict{Allowed: false, RetryAfter: retry}, nil
	}

	ttl := window + time.Duration(intSetting("limits.window_buffer", 5))*time.Second
	if err := v.Store.Record(ctx, key, now, ttl); err != nil {
		log.Warn().Err(err).Str("type", opType).Msg("Unable to record rate limit entry...")
	}

	return Verdict{Allowed: true, Remaining: max - int(count) - 1, RetryAfter: window}, nil
}

type redisLimiterStore struct {
	rdb *redis.Client
}

func NewRedisLimiterStore(rdb *redis.Client) LimiterStore {
	return &redisLimiterStore{rdb: rdb}
}

func (v *redisLimiterStore) Tally(ctx context.Context, key string, cutoff time.Time) (int64, time.Time, error) {
	if err := v.rdb.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff.UnixMilli())).Err(); err != nil {
		return 0, time.Time{}, err
	}

	count, err := v.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	var oldest time.Time
	if count > 0 {
		if entries, err := v.rdb.ZRangeWithScores(ctx, key, 0, 0).Result(); err == nil && len(entries) > 0 {
			oldest = time.UnixMilli(int64(entries[0].Score))
		}
	}

	return count, oldest, nil
}

func (v *redisLimiterStore) Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	if err := v.rdb.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: uuid.NewString(),
	}).Err(); err != nil {
		return err
	}

	return v.rdb.Expire(ctx, key, ttl).Err()
}
