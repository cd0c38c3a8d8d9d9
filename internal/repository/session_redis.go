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

// completeScript is the atomic pending -> authenticated transition. The
// status check and the write happen in one script so a duplicate completion
// from the mobile device can never overwrite an earlier winner.
var completeScript = goredis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
    return {'not_found', ''}
end

local session = cjson.decode(raw)
if session.status ~= 'pending' then
    return {'already_completed', ''}
end

session.status = 'authenticated'
session.userData = cjson.decode(ARGV[1])

local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
    ttl = 1
end

local updated = cjson.encode(session)
redis.call('SET', KEYS[1], updated, 'PX', ttl)

return {'ok', updated}
`)

// redisSessionRepo stores each session as JSON under session:<id> with a
// redis TTL matching ExpiresAt, shared across all serving instances.
type redisSessionRepo struct {
	client *redisclient.Client
}

func NewRedisSessionRepository(client *redisclient.Client) SessionRepository {
	return &redisSessionRepo{client: client}
}

func (r *redisSessionRepo) Create(ctx context.Context, session *model.PairingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired at creation")
	}

	ok, err := r.client.SetNX(ctx, redisclient.SessionKey(session.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session id collision: %s", session.ID)
	}

	return nil
}

func (r *redisSessionRepo) Find(ctx context.Context, id string) (*model.PairingSession, error) {
	raw, err := r.client.Get(ctx, redisclient.SessionKey(id)).Bytes()
	if err == goredis.Nil {
		// Redis evicts at TTL, so an expired session is indistinguishable
		// from one that never existed.
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session model.PairingSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	if session.Expired(time.Now()) {
		r.client.Del(ctx, redisclient.SessionKey(id))
		return nil, ErrExpired
	}

	return &session, nil
}

func (r *redisSessionRepo) CompleteIfPending(ctx context.Context, id string, user model.AuthUser) (*model.PairingSession, error) {
	userData, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user data: %w", err)
	}

	result, err := completeScript.Run(ctx, r.client.Client, []string{redisclient.SessionKey(id)}, string(userData)).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected script result: %v", result)
	}

	switch result[0] {
	case "ok":
		var session model.PairingSession
		if err := json.Unmarshal([]byte(result[1]), &session); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		return &session, nil
	case "already_completed":
		return nil, ErrAlreadyCompleted
	default:
		return nil, ErrNotFound
	}
}

func (r *redisSessionRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisclient.SessionKey(id)).Err()
}

func (r *redisSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	// Redis owns TTL eviction; nothing to sweep.
	return 0, nil
}
