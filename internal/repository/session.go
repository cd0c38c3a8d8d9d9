package repository

import (
	"context"
	"errors"

	"github.com/musicengine/auth-server-go/internal/model"
)

// Store-level sentinels. Services translate these into client-facing errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrExpired          = errors.New("expired")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrTokenUsed        = errors.New("token already used")
)

// SessionRepository is the shared, time-aware lookup behind the pairing
// protocol. Backed by redis in production (TTL eviction, atomic conditional
// transitions shared across instances) and by an in-process map for
// single-instance deployments and tests.
type SessionRepository interface {
	Create(ctx context.Context, session *model.PairingSession) error
	// Find returns ErrNotFound for unknown ids and ErrExpired for sessions
	// observed past their deadline; expired sessions are evicted on
	// observation and never returned as usable.
	Find(ctx context.Context, id string) (*model.PairingSession, error)
	// CompleteIfPending transitions pending -> authenticated exactly once.
	// A concurrent duplicate completion loses with ErrAlreadyCompleted.
	CompleteIfPending(ctx context.Context, id string, user model.AuthUser) (*model.PairingSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResetTokenRepository mirrors SessionRepository for the password/access
// reset flow, with the used flag in place of a second status value.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *model.ResetToken) error
	Find(ctx context.Context, token string) (*model.ResetToken, error)
	// UseIfUnused flips used exactly once; a second call loses with
	// ErrTokenUsed.
	UseIfUnused(ctx context.Context, token string) (*model.ResetToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
