package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mth101/cbt/internal/grading"
)

const (
	redisPrefix      = "mth101:"
	redisProfilesKey = redisPrefix + "profiles"
	redisSeenKey     = redisPrefix + "profiles:seen"
)

// RedisStore implements Store on a Redis server. Each identity owns three
// keys, addressed exactly and never by pattern:
//
//	mth101:progress:<identity>       hash, stage number -> result JSON
//	mth101:attempt-log:<identity>    hash, attempt id -> result JSON
//	mth101:attempt-order:<identity>  sorted set of attempt ids by graded time
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to the server at url and verifies it with PING.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(rdb), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func resultsKey(identity string) string {
	return redisPrefix + "progress:" + identity
}

func attemptLogKey(identity string) string {
	return redisPrefix + "attempt-log:" + identity
}

func attemptOrderKey(identity string) string {
	return redisPrefix + "attempt-order:" + identity
}

func (s *RedisStore) GetResult(ctx context.Context, identity string, stage int) (*grading.Result, error) {
	raw, err := s.rdb.HGet(ctx, resultsKey(identity), strconv.Itoa(stage)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	var r grading.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &r, nil
}

func (s *RedisStore) PutResult(ctx context.Context, identity string, r grading.Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.rdb.HSet(ctx, resultsKey(identity), strconv.Itoa(r.Stage), raw).Err(); err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteResults(ctx context.Context, identity string) error {
	err := s.rdb.Del(ctx, resultsKey(identity), attemptLogKey(identity), attemptOrderKey(identity)).Err()
	if err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	return nil
}

// AppendAttempt records r. Appending the same attempt id again overwrites
// it in place.
func (s *RedisStore) AppendAttempt(ctx context.Context, identity string, r grading.Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, attemptLogKey(identity), r.AttemptID, raw)
		pipe.ZAdd(ctx, attemptOrderKey(identity), redis.Z{Score: float64(r.Timestamp.UnixMilli()), Member: r.AttemptID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (s *RedisStore) Attempts(ctx context.Context, identity string, limit int) ([]grading.Result, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.rdb.ZRevRange(ctx, attemptOrderKey(identity), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raws, err := s.rdb.HMGet(ctx, attemptLogKey(identity), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}

	out := make([]grading.Result, 0, len(raws))
	for _, v := range raws {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var r grading.Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Profiles live in a hash keyed by name; a sorted set scored by last-seen
// time orders them.
func (s *RedisStore) SaveProfile(ctx context.Context, p Profile) error {
	if p.LastSeen.IsZero() {
		p.LastSeen = time.Now()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisProfilesKey, p.Name, raw)
		pipe.ZAdd(ctx, redisSeenKey, redis.Z{Score: float64(p.LastSeen.UnixMilli()), Member: p.Name})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *RedisStore) LastProfile(ctx context.Context) (*Profile, error) {
	ps, err := s.profiles(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

func (s *RedisStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	return s.profiles(ctx, -1)
}

func (s *RedisStore) profiles(ctx context.Context, stop int64) ([]Profile, error) {
	names, err := s.rdb.ZRevRange(ctx, redisSeenKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	raws, err := s.rdb.HMGet(ctx, redisProfilesKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	out := make([]Profile, 0, len(raws))
	for _, v := range raws {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
