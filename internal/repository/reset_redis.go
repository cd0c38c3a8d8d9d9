package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/musicengine/auth-server-go/internal/model"
	redisclient "github.com/musicengine/auth-server-go/internal/redis"
)

// useScript flips used exactly once; the check and the write are atomic so
// a double-submit of the reset form yields a single successful reset.
var useScript = goredis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
    return {'not_found', ''}
end

local token = cjson.decode(raw)
if token.used then
    return {'used', ''}
end

token.used = true

local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
    ttl = 1
end

local updated = cjson.encode(token)
redis.call('SET', KEYS[1], updated, 'PX', ttl)

return {'ok', updated}
`)

type redisResetTokenRepo struct {
	client *redisclient.Client
}

func NewRedisResetTokenRepository(client *redisclient.Client) ResetTokenRepository {
	return &redisResetTokenRepo{client: client}
}

func (r *redisResetTokenRepo) Create(ctx context.Context, token *model.ResetToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal reset token: %w", err)
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("reset token already expired at creation")
	}

	ok, err := r.client.SetNX(ctx, redisclient.ResetTokenKey(token.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if !ok {
		return fmt.Errorf("reset token collision")
	}

	return nil
}

func (r *redisResetTokenRepo) Find(ctx context.Context, token string) (*model.ResetToken, error) {
	raw, err := r.client.Get(ctx, redisclient.ResetTokenKey(token)).Bytes()
	if err == goredis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load reset token: %w", err)
	}

	var rt model.ResetToken
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, fmt.Errorf("unmarshal reset token: %w", err)
	}

	if rt.Expired(time.Now()) {
		r.client.Del(ctx, redisclient.ResetTokenKey(token))
		return nil, ErrExpired
	}

	if rt.Used {
		return nil, ErrTokenUsed
	}

	return &rt, nil
}

func (r *redisResetTokenRepo) UseIfUnused(ctx context.Context, token string) (*model.ResetToken, error) {
	result, err := useScript.Run(ctx, r.client.Client, []string{redisclient.ResetTokenKey(token)}).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("use reset token: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected script result: %v", result)
	}

	switch result[0] {
	case "ok":
		var rt model.ResetToken
		if err := json.Unmarshal([]byte(result[1]), &rt); err != nil {
			return nil, fmt.Errorf("unmarshal reset token: %w", err)
		}
		if rt.Expired(time.Now()) {
			r.client.Del(ctx, redisclient.ResetTokenKey(token))
			return nil, ErrExpired
		}
		return &rt, nil
	case "used":
		return nil, ErrTokenUsed
	default:
		return nil, ErrNotFound
	}
}

func (r *redisResetTokenRepo) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, redisclient.ResetTokenKey(token)).Err()
}

func (r *redisResetTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
