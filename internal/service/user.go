package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/repository"
)

// UserService backs the admin user directory.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	plan := params.Plan
	if plan == "" {
		plan = model.PlanCreator
	}

	user, err := s.userRepo.Create(ctx, &model.User{
		ID:        uuid.New().String(),
		Name:      params.Name,
		Email:     params.Email,
		Plan:      plan,
		Status:    model.UserStatusActive,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateUserErr(err)
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Plan != nil {
		user.Plan = *params.Plan
	}
	if params.Status != nil {
		user.Status = *params.Status
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return translateUserErr(err)
	}
	return nil
}

func translateUserErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("User")
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperrors.AlreadyExists("User")
	default:
		return apperrors.Database(err)
	}
}
