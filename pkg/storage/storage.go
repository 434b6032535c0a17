// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package storage wraps the shared in-memory store behind the narrow set of
// primitives the matchmaking core needs: sorted sets, hashes, NX+PX strings,
// a scripted compare-and-delete, pattern enumeration, and key expiry. All
// values are text; callers serialize structured data before it gets here.
package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Options is re-exported so callers don't import the driver directly.
type Options = redis.Options

// compareAndDelete deletes a key only when its current value matches the
// caller's token. Used for safe lock release.
var compareAndDelete = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

type Client struct {
	rdb          *redis.Client
	reconnecting atomic.Bool
}

func NewClient(options Options) *Client {
	client := &Client{}

	options.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
		if client.reconnecting.Swap(false) {
			logrus.WithField("addr", options.Addr).Info("shared store reconnected")
		}
		return nil
	}
	client.rdb = redis.NewClient(&options)

	return client
}

// NewClientFromRedis wraps an existing driver client. Used by tests that
// point at miniredis.
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Connected pings the store. Callers treat false as transient.
func (c *Client) Connected(ctx context.Context) bool {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.reconnecting.Store(true)

		return false
	}

	return true
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// --- sorted sets ---

func (c *Client) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return c.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZRangeWithScores returns all members in ascending score order.
func (c *Client) ZRangeWithScores(ctx context.Context, key string) ([]ScoredMember, error) {
	raw, err := c.rdb.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	members := make([]ScoredMember, 0, len(raw))
	for _, z := range raw {
		member, _ := z.Member.(string)
		members = append(members, ScoredMember{Member: member, Score: z.Score})
	}

	return members, nil
}

func (c *Client) ZRem(ctx context.Context, key string, member string) error {
	return c.rdb.ZRem(ctx, key, member).Err()
}

func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	return c.rdb.ZCard(ctx, key).Result()
}

// --- hashes ---

func (c *Client) HSet(ctx context.Context, key string, fields map[string]string) error {
	flat := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		flat = append(flat, k, v)
	}

	return c.rdb.HSet(ctx, key, flat...).Err()
}

func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

func (c *Client) HIncrBy(ctx context.Context, key, field string, incr int64) error {
	return c.rdb.HIncrBy(ctx, key, field, incr).Err()
}

// --- strings / locks ---

// SetNX sets key to value only when absent, with a millisecond expiry.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// CompareAndDelete removes the key only when its value equals expected.
// Returns whether a deletion occurred.
func (c *Client) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	deleted, err := compareAndDelete.Run(ctx, c.rdb, []string{key}, expected).Int()
	if err != nil {
		return false, err
	}

	return deleted == 1, nil
}

// --- housekeeping ---

// Keys enumerates keys by pattern. GC paths only; never on the pairing
// hot path.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	return c.rdb.Keys(ctx, pattern).Result()
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, key, ttl).Err()
}

// ScoredMember is one sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}
