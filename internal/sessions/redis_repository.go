package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps each session as JSON under "<prefix>refresh:<token>"
// and indexes the tokens of an account in the set "<prefix>account:<uid>",
// so signing out everywhere does not need a key scan.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) refreshKey(token string) string { return r.prefix + "refresh:" + token }
func (r *RedisRepository) accountKey(uid string) string   { return r.prefix + "account:" + uid }

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.refreshKey(s.RefreshToken), b, ttl)
		p.SAdd(ctx, r.accountKey(s.UID), s.RefreshToken)
		// refresh TTLs are uniform, so the newest session outlives the rest
		p.Expire(ctx, r.accountKey(s.UID), ttl)
		return nil
	})
	return err
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.refreshKey(refresh)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		return nil, r.remove(ctx, &s)
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	s, err := r.GetByRefresh(ctx, refresh)
	if err != nil || s == nil {
		return err
	}
	return r.remove(ctx, s)
}

func (r *RedisRepository) remove(ctx context.Context, s *Session) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.refreshKey(s.RefreshToken))
		p.SRem(ctx, r.accountKey(s.UID), s.RefreshToken)
		return nil
	})
	return err
}

// DeleteByUID drops every live session of uid and reports how many there were.
func (r *RedisRepository) DeleteByUID(ctx context.Context, uid string) (int, error) {
	tokens, err := r.client.SMembers(ctx, r.accountKey(uid)).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		keys = append(keys, r.refreshKey(t))
	}
	var dropped *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(keys) > 0 {
			dropped = p.Del(ctx, keys...)
		}
		p.Del(ctx, r.accountKey(uid))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if dropped == nil {
		return 0, nil
	}
	return int(dropped.Val()), nil
}
