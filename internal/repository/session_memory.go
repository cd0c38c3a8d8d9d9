package repository

import (
	"context"
	"sync"
	"time"

	"github.com/musicengine/auth-server-go/internal/model"
)

// memorySessionRepo keeps sessions in a mutex-guarded map. Valid for
// single-instance deployments and tests only: state is process-local and
// does not survive a restart.
type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]model.PairingSession
	now      func() time.Time
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepo{
		sessions: make(map[string]model.PairingSession),
		now:      time.Now,
	}
}

// NewMemorySessionRepositoryWithClock injects the clock for TTL tests.
func NewMemorySessionRepositoryWithClock(now func() time.Time) SessionRepository {
	return &memorySessionRepo{
		sessions: make(map[string]model.PairingSession),
		now:      now,
	}
}

func (r *memorySessionRepo) Create(ctx context.Context, session *model.PairingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = *session
	return nil
}

func (r *memorySessionRepo) Find(ctx context.Context, id string) (*model.PairingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	if session.Expired(r.now()) {
		delete(r.sessions, id)
		return nil, ErrExpired
	}

	// Copy so callers cannot mutate stored state.
	out := session
	return &out, nil
}

func (r *memorySessionRepo) CompleteIfPending(ctx context.Context, id string, user model.AuthUser) (*model.PairingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	if session.Expired(r.now()) {
		delete(r.sessions, id)
		return nil, ErrExpired
	}

	if session.Status != model.SessionStatusPending {
		return nil, ErrAlreadyCompleted
	}

	session.Status = model.SessionStatusAuthenticated
	session.UserData = &user
	r.sessions[id] = session

	out := session
	return &out, nil
}

func (r *memorySessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var count int64
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}
