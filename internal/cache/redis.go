package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/callfirst/internal/config"
)

// LikeCountTTL is how long a cached liked-you count stays valid. Reads do
// not extend it.
const LikeCountTTL = time.Hour

// likeVersionTTL outlives any count written against the version.
const likeVersionTTL = 24 * time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForLikeCount generates Redis key for a user's liked-you count.
func KeyForLikeCount(userID string) string {
	return "likes:count:" + userID
}

// keyForLikeVersion is bumped on every invalidation of the user's count.
func keyForLikeVersion(userID string) string {
	return "likes:ver:" + userID
}

func keyForSession(sessionID string) string {
	return "session:" + sessionID
}

func keyForOTP(phone string) string {
	return "otp:" + phone
}

// GetLikeCount returns the cached count. ok is false on a cache miss, in
// which case version must be passed to SetLikeCount with the recomputed count.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (count, version int64, ok bool, err error) {
	vals, err := c.Client.MGet(ctx, KeyForLikeCount(userID), keyForLikeVersion(userID)).Result()
	if err != nil {
		return 0, 0, false, err
	}
	version, _ = parseInt(vals[1])
	count, ok = parseInt(vals[0])
	return count, version, ok, nil
}

// SetLikeCount stores count unless the user's counts were invalidated after
// version was read. stored reports whether the write happened.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count, version int64) (stored bool, err error) {
	verKey := keyForLikeVersion(userID)
	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, KeyForLikeCount(userID), count, LikeCountTTL)
			return nil
		})
		return err
	}, verKey)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

// InvalidateLikeCounts drops cached counts so the next read recomputes them,
// and bumps their versions so counts computed before now are not written.
func (c *RedisCache) InvalidateLikeCounts(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range userIDs {
			p.Incr(ctx, keyForLikeVersion(id))
			p.Expire(ctx, keyForLikeVersion(id), likeVersionTTL)
			p.Del(ctx, KeyForLikeCount(id))
		}
		return nil
	})
	return err
}

var errStaleVersion = errors.New("like count version changed")

// parseInt reads an MGET slot. Missing or unreadable values give ok=false.
func parseInt(v any) (int64, bool) {
	s, isStr := v.(string)
	if !isStr {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// PutSession records an issued session id for its owner until ttl passes.
func (c *RedisCache) PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForSession(sessionID), userID, ttl).Err()
}

// SessionUser returns the owner of a live session, or "" when it is unknown
// or expired.
func (c *RedisCache) SessionUser(ctx context.Context, sessionID string) (string, error) {
	userID, err := c.Client.Get(ctx, keyForSession(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return userID, err
}

func (c *RedisCache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.Client.Del(ctx, keyForSession(sessionID)).Err()
}

// PutOTP stores a one-time code for phone, replacing any earlier one.
func (c *RedisCache) PutOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForOTP(phone), code, ttl).Err()
}

// TakeOTP returns and deletes the pending code for phone. An empty string
// means no code is pending.
func (c *RedisCache) TakeOTP(ctx context.Context, phone string) (string, error) {
	code, err := c.Client.GetDel(ctx, keyForOTP(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return code, nil
}
