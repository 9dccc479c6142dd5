package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"employee-gateway/employee/domain"

	"github.com/redis/go-redis/v9"
)

// RedisOutcomeStore agrega resultados do upstream em hashes no Redis, permitindo
// que várias réplicas do gateway somem contadores no mesmo lugar.
//
// Chaves:
//
//	<prefix>:total                     outcome -> contador (cumulativo)
//	<prefix>:minute:<YYYYMMDDhhmm>     outcome -> contador (expira em ttl)
//	<prefix>:op                        <op>:<outcome> -> contador
//	<prefix>:last_rate_limit           op, retry_after, at
type RedisOutcomeStore struct {
	rdb redis.UniversalClient

	prefix string
	// ttl aplica apenas nos buckets por minuto.
	ttl    time.Duration
	bucket string // "minute" (padrão) ou "none"
}

type RedisOutcomeOption func(*RedisOutcomeStore)

func WithOutcomePrefix(prefix string) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithOutcomeTTL(d time.Duration) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) { s.ttl = d }
}

func WithOutcomeBucket(bucket string) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisOutcomeStore(rdb redis.UniversalClient, opts ...RedisOutcomeOption) *RedisOutcomeStore {
	s := &RedisOutcomeStore{
		rdb:    rdb,
		prefix: "employee-gateway:upstream",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisOutcomeStore) Record(ctx context.Context, ev domain.OutcomeEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if op := strings.TrimSpace(ev.Op); op != "" {
		pipe.HIncrBy(ctx, s.prefix+":op", op+":"+field, 1)
	}

	if ev.Outcome == domain.OutcomeRateLimited && ev.HasRetryAfter {
		pipe.HSet(ctx, s.prefix+":last_rate_limit",
			"op", ev.Op,
			"retry_after", ev.RetryAfterSeconds,
			"at", at.Unix(),
		)
	}

	_, err := pipe.Exec(ctx)
	return err
}
