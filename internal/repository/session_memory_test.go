package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicengine/auth-server-go/internal/model"
)

func newTestSession(id string, ttl time.Duration, now time.Time) *model.PairingSession {
	return &model.PairingSession{
		ID:        id,
		Status:    model.SessionStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find round trip", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		session := newTestSession("abc", 5*time.Minute, time.Now())

		require.NoError(t, repo.Create(ctx, session))

		found, err := repo.Find(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", found.ID)
		assert.Equal(t, model.SessionStatusPending, found.Status)
		assert.Nil(t, found.UserData)
	})

	t.Run("find unknown id returns not found", func(t *testing.T) {
		repo := NewMemorySessionRepository()

		_, err := repo.Find(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find returns a copy", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, time.Now())))

		first, err := repo.Find(ctx, "abc")
		require.NoError(t, err)
		first.Status = model.SessionStatusAuthenticated

		second, err := repo.Find(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusPending, second.Status)
	})

	t.Run("session at exact deadline is still alive", func(t *testing.T) {
		base := time.Now()
		current := base
		repo := NewMemorySessionRepositoryWithClock(func() time.Time { return current })

		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, base)))

		current = base.Add(5 * time.Minute)
		_, err := repo.Find(ctx, "abc")
		assert.NoError(t, err)
	})

	t.Run("session past deadline is expired and evicted", func(t *testing.T) {
		base := time.Now()
		current := base
		repo := NewMemorySessionRepositoryWithClock(func() time.Time { return current })

		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, base)))

		current = base.Add(5*time.Minute + time.Second)
		_, err := repo.Find(ctx, "abc")
		assert.ErrorIs(t, err, ErrExpired)

		// The eviction is permanent: a later find cannot tell it apart
		// from a session that never existed.
		_, err = repo.Find(ctx, "abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("complete transitions pending to authenticated", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, time.Now())))

		user := model.AuthUser{ID: "u1", Name: "Ava", Email: "ava@example.com"}
		session, err := repo.CompleteIfPending(ctx, "abc", user)
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusAuthenticated, session.Status)
		require.NotNil(t, session.UserData)
		assert.Equal(t, "ava@example.com", session.UserData.Email)

		found, err := repo.Find(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusAuthenticated, found.Status)
	})

	t.Run("second completion fails with already completed", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, time.Now())))

		_, err := repo.CompleteIfPending(ctx, "abc", model.AuthUser{ID: "u1"})
		require.NoError(t, err)

		_, err = repo.CompleteIfPending(ctx, "abc", model.AuthUser{ID: "u2"})
		assert.ErrorIs(t, err, ErrAlreadyCompleted)

		// The winner's identity is untouched by the losing attempt.
		found, err := repo.Find(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "u1", found.UserData.ID)
	})

	t.Run("concurrent completions have exactly one winner", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, time.Now())))

		const attempts = 20
		var wg sync.WaitGroup
		errs := make([]error, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.CompleteIfPending(ctx, "abc", model.AuthUser{ID: "u1"})
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, ErrAlreadyCompleted)
			}
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("complete on expired session evicts it", func(t *testing.T) {
		base := time.Now()
		current := base
		repo := NewMemorySessionRepositoryWithClock(func() time.Time { return current })

		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, base)))

		current = base.Add(10 * time.Minute)
		_, err := repo.CompleteIfPending(ctx, "abc", model.AuthUser{ID: "u1"})
		assert.ErrorIs(t, err, ErrExpired)

		_, err = repo.Find(ctx, "abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("complete on unknown id returns not found", func(t *testing.T) {
		repo := NewMemorySessionRepository()

		_, err := repo.CompleteIfPending(ctx, "missing", model.AuthUser{ID: "u1"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete removes the session", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		require.NoError(t, repo.Create(ctx, newTestSession("abc", 5*time.Minute, time.Now())))

		require.NoError(t, repo.Delete(ctx, "abc"))

		_, err := repo.Find(ctx, "abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete expired sweeps only dead sessions", func(t *testing.T) {
		base := time.Now()
		current := base
		repo := NewMemorySessionRepositoryWithClock(func() time.Time { return current })

		require.NoError(t, repo.Create(ctx, newTestSession("short", time.Minute, base)))
		require.NoError(t, repo.Create(ctx, newTestSession("long", time.Hour, base)))

		current = base.Add(2 * time.Minute)
		count, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, err = repo.Find(ctx, "short")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.Find(ctx, "long")
		assert.NoError(t, err)
	})
}
