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

type CreateResetResult struct {
	Message   string `json:"message"`
	ResetLink string `json:"resetLink"`
}

type CompleteResetResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	UserData *model.AuthUser `json:"userData"`
}

// ResetService governs single-use, time-boxed access reset tokens.
type ResetService struct {
	resetRepo repository.ResetTokenRepository
	userRepo  repository.UserRepository
	issuer    *token.Issuer
	ttl       time.Duration
}

func NewResetService(
	resetRepo repository.ResetTokenRepository,
	userRepo repository.UserRepository,
	issuer *token.Issuer,
	ttl time.Duration,
) *ResetService {
	return &ResetService{
		resetRepo: resetRepo,
		userRepo:  userRepo,
		issuer:    issuer,
		ttl:       ttl,
	}
}

func (s *ResetService) CreateResetToken(ctx context.Context, email string) (*CreateResetResult, error) {
	tok, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now()
	rt := &model.ResetToken{
		Token:     tok,
		Email:     email,
		Used:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.resetRepo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("create reset token: %w", err)
	}

	audit.Log(ctx, audit.Event{Type: audit.EventResetRequest, Details: map[string]any{"email": email}})

	// The link is returned in the response body; a mail integration would
	// deliver it instead.
	log.Info().
		Str("token", util.MaskToken(tok)).
		Time("expiresAt", rt.ExpiresAt).
		Msg("reset token created")

	return &CreateResetResult{
		Message:   "Password reset link sent",
		ResetLink: fmt.Sprintf("/api/password-reset?token=%s", tok),
	}, nil
}

// GetResetToken is the form-render read; used tokens behave as dead.
func (s *ResetService) GetResetToken(ctx context.Context, tok string) (*model.ResetToken, error) {
	rt, err := s.resetRepo.Find(ctx, tok)
	if err != nil {
		return nil, translateResetErr(err)
	}
	return rt, nil
}

// CompleteReset consumes the token exactly once and hands back a fresh
// authenticated identity.
func (s *ResetService) CompleteReset(ctx context.Context, tok string, params model.CompleteResetParams) (*CompleteResetResult, error) {
	rt, err := s.resetRepo.UseIfUnused(ctx, tok)
	if err != nil {
		audit.Log(ctx, audit.Event{Type: audit.EventResetFailed})
		return nil, translateResetErr(err)
	}

	user := model.AuthUser{
		ID:         uuid.New().String(),
		Name:       params.NewName,
		Email:      rt.Email,
		Plan:       model.PlanCreator,
		LoginTime:  time.Now(),
		ResetLogin: true,
	}

	if s.userRepo != nil {
		if existing, err := s.userRepo.FindByEmail(ctx, rt.Email); err == nil {
			user.ID = existing.ID
			user.Plan = existing.Plan
			existing.Name = params.NewName
			if err := s.userRepo.Update(ctx, existing); err != nil {
				log.Warn().Err(err).Str("userId", existing.ID).Msg("update user on reset")
			}
		}
	}

	if s.issuer != nil {
		accessToken, err := s.issuer.IssueAccessToken(&user)
		if err != nil {
			return nil, fmt.Errorf("issue access token: %w", err)
		}
		user.AccessToken = accessToken
	}

	audit.Log(ctx, audit.Event{Type: audit.EventResetComplete, UserID: user.ID})

	log.Info().
		Str("token", util.MaskToken(tok)).
		Str("userId", user.ID).
		Msg("access reset completed")

	return &CompleteResetResult{
		Success:  true,
		Message:  "Access reset successful",
		UserData: &user,
	}, nil
}

func translateResetErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Reset token")
	case errors.Is(err, repository.ErrExpired):
		return apperrors.TokenExpired()
	case errors.Is(err, repository.ErrTokenUsed):
		return apperrors.TokenUsed()
	default:
		return apperrors.Internal("Reset token store error").WithCause(err)
	}
}
