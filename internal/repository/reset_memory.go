package repository

import (
	"context"
	"sync"
	"time"

	"github.com/musicengine/auth-server-go/internal/model"
)

type memoryResetTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]model.ResetToken
	now    func() time.Time
}

func NewMemoryResetTokenRepository() ResetTokenRepository {
	return &memoryResetTokenRepo{
		tokens: make(map[string]model.ResetToken),
		now:    time.Now,
	}
}

func NewMemoryResetTokenRepositoryWithClock(now func() time.Time) ResetTokenRepository {
	return &memoryResetTokenRepo{
		tokens: make(map[string]model.ResetToken),
		now:    now,
	}
}

func (r *memoryResetTokenRepo) Create(ctx context.Context, token *model.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = *token
	return nil
}

func (r *memoryResetTokenRepo) Find(ctx context.Context, token string) (*model.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}

	if rt.Expired(r.now()) {
		delete(r.tokens, token)
		return nil, ErrExpired
	}

	if rt.Used {
		return nil, ErrTokenUsed
	}

	out := rt
	return &out, nil
}

func (r *memoryResetTokenRepo) UseIfUnused(ctx context.Context, token string) (*model.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}

	if rt.Expired(r.now()) {
		delete(r.tokens, token)
		return nil, ErrExpired
	}

	if rt.Used {
		return nil, ErrTokenUsed
	}

	rt.Used = true
	r.tokens[token] = rt

	out := rt
	return &out, nil
}

func (r *memoryResetTokenRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *memoryResetTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var count int64
	for token, rt := range r.tokens {
		if rt.Expired(now) || rt.Used {
			delete(r.tokens, token)
			count++
		}
	}
	return count, nil
}
