package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/musicengine/auth-server-go/internal/audit"
	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/repository"
	"github.com/musicengine/auth-server-go/internal/token"
	"github.com/musicengine/auth-server-go/internal/util"
)

type CreateSessionResult struct {
	SessionID string `json:"sessionId"`
	QRURL     string `json:"qrUrl"`
	ExpiresIn int    `json:"expiresIn"`
	Status    string `json:"status"`
}

// SessionService brokers the one-shot handoff of authentication proof from
// the completing (mobile) device to the waiting (web) device.
type SessionService struct {
	sessionRepo   repository.SessionRepository
	userRepo      repository.UserRepository
	issuer        *token.Issuer
	ttl           time.Duration
	mobileBaseURL string
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	issuer *token.Issuer,
	ttl time.Duration,
	mobileBaseURL string,
) *SessionService {
	return &SessionService{
		sessionRepo:   sessionRepo,
		userRepo:      userRepo,
		issuer:        issuer,
		ttl:           ttl,
		mobileBaseURL: mobileBaseURL,
	}
}

func (s *SessionService) CreateSession(ctx context.Context) (*CreateSessionResult, error) {
	id, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	session := &model.PairingSession{
		ID:        id,
		Status:    model.SessionStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	audit.Log(ctx, audit.Event{Type: audit.EventSessionCreate, SessionID: id})

	log.Info().
		Str("sessionId", util.MaskToken(id)).
		Time("expiresAt", session.ExpiresAt).
		Msg("pairing session created")

	return &CreateSessionResult{
		SessionID: id,
		QRURL:     fmt.Sprintf("%s/api/mobile-auth?sessionId=%s", s.mobileBaseURL, id),
		ExpiresIn: int(s.ttl.Seconds()),
		Status:    string(model.SessionStatusPending),
	}, nil
}

// GetStatus is the poll read. Expired sessions surface as SESSION_EXPIRED
// and are already evicted by the store.
func (s *SessionService) GetStatus(ctx context.Context, id string) (*model.PairingSession, error) {
	session, err := s.sessionRepo.Find(ctx, id)
	if err != nil {
		return nil, translateSessionErr(err)
	}
	return session, nil
}

// Complete transitions the session to authenticated with the submitted
// identity, exactly once.
func (s *SessionService) Complete(ctx context.Context, id string, params model.CompleteSessionParams) error {
	user := model.AuthUser{
		ID:        uuid.New().String(),
		Name:      params.ArtistName,
		Email:     params.Email,
		Plan:      model.PlanCreator,
		LoginTime: time.Now(),
	}

	if existing := s.lookupUser(ctx, params.Email); existing != nil {
		user.ID = existing.ID
		user.Plan = existing.Plan
	}

	if s.issuer != nil {
		accessToken, err := s.issuer.IssueAccessToken(&user)
		if err != nil {
			return fmt.Errorf("issue access token: %w", err)
		}
		user.AccessToken = accessToken
	}

	session, err := s.sessionRepo.CompleteIfPending(ctx, id, user)
	if err != nil {
		audit.Log(ctx, audit.Event{Type: audit.EventSessionCompleteFailed, SessionID: id})
		return translateSessionErr(err)
	}

	s.recordLogin(ctx, &user)

	audit.Log(ctx, audit.Event{Type: audit.EventSessionComplete, SessionID: id, UserID: user.ID})

	log.Info().
		Str("sessionId", util.MaskToken(id)).
		Str("userId", user.ID).
		Time("expiresAt", session.ExpiresAt).
		Msg("pairing session completed")

	return nil
}

func (s *SessionService) lookupUser(ctx context.Context, email string) *model.User {
	if s.userRepo == nil {
		return nil
	}
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Msg("lookup user by email")
		}
		return nil
	}
	return existing
}

// recordLogin upserts the directory entry. The session handoff is already
// committed; directory failures are logged, not surfaced.
func (s *SessionService) recordLogin(ctx context.Context, user *model.AuthUser) {
	if s.userRepo == nil {
		return
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("userId", user.ID).Msg("touch last login")
	}

	_, err := s.userRepo.Create(ctx, &model.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Plan:      user.Plan,
		Status:    model.UserStatusActive,
		CreatedAt: now,
	})
	if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
		log.Warn().Err(err).Str("userId", user.ID).Msg("record user login")
	}
}

func translateSessionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Session")
	case errors.Is(err, repository.ErrExpired):
		return apperrors.SessionExpired()
	case errors.Is(err, repository.ErrAlreadyCompleted):
		return apperrors.AlreadyCompleted()
	default:
		return apperrors.Internal("Session store error").WithCause(err)
	}
}
