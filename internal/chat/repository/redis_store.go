package repository

import (
	"context"
	"errors"
	"fmt"

	"tab_chat_sync/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

// RedisKV KV backed by redis strings
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV create RedisKV
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis mget: %v", domain.ErrStoreUnavailable, err)
	}

	out := make(map[string]string, len(keys))
	for i, v := range vals {
		// MGET answers nil for a missing key
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// Set GETSET every pair inside one MULTI so previous values come back for change events
func (r *RedisKV) Set(ctx context.Context, pairs ...Pair) (map[string]string, error) {
	old := make(map[string]string, len(pairs))
	if len(pairs) == 0 {
		return old, nil
	}

	cmds := make([]*redis.StringCmd, len(pairs))
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, p := range pairs {
			cmds[i] = pipe.GetSet(ctx, p.Key, p.Value)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis set: %v", domain.ErrStoreUnavailable, err)
	}

	for i, cmd := range cmds {
		prev, err := cmd.Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: redis getset %s: %v", domain.ErrStoreUnavailable, pairs[i].Key, err)
		}
		old[pairs[i].Key] = prev
	}
	return old, nil
}

// SetIf WATCH guard, compare it, then GETSET every pair inside MULTI
// A concurrent write to guard aborts EXEC, reported as ok=false.
func (r *RedisKV) SetIf(ctx context.Context, guard, want string, pairs ...Pair) (map[string]string, bool, error) {
	old := make(map[string]string, len(pairs))
	moved := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, guard).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != want {
			moved = true
			return nil
		}

		cmds := make([]*redis.StringCmd, len(pairs))
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, p := range pairs {
				cmds[i] = pipe.GetSet(ctx, p.Key, p.Value)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		for i, cmd := range cmds {
			prev, err := cmd.Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			old[pairs[i].Key] = prev
		}
		return nil
	}, guard)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("%w: redis set if %s: %v", domain.ErrStoreUnavailable, guard, err)
	case moved:
		return nil, false, nil
	}
	return old, true, nil
}
