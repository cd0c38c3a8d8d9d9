package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/repository"
	"github.com/musicengine/auth-server-go/internal/sink"
)

type RegisterResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	WorkID    string `json:"work_id"`
	Forwarded bool   `json:"forwarded"`
}

// RegistrationService records work registrations and forwards the flattened
// row to the spreadsheet sink.
type RegistrationService struct {
	regRepo repository.RegistrationRepository
	sheet   sink.Sink
}

func NewRegistrationService(regRepo repository.RegistrationRepository, sheet sink.Sink) *RegistrationService {
	return &RegistrationService{
		regRepo: regRepo,
		sheet:   sheet,
	}
}

func (s *RegistrationService) Register(ctx context.Context, params model.CreateRegistrationParams) (*RegisterResult, error) {
	reg := &model.Registration{
		WorkID:          generateWorkID(),
		Title:           params.Title,
		WorkType:        params.WorkType,
		ISWC:            params.ISWC,
		ISRC:            params.ISRC,
		Duration:        params.Duration,
		Description:     params.Description,
		Territories:     params.Territories,
		PrimaryArtist:   params.PrimaryArtist,
		FeaturedArtists: params.FeaturedArtists,
		LabelName:       params.LabelName,
		Writers:         params.Writers,
		Publishers:      params.Publishers,
		Files:           params.Files,
		CreatedAt:       time.Now(),
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, apperrors.Database(err)
	}

	// The database row is authoritative; the sheet forward is best-effort
	// and retried by the operator from the stored record if it fails.
	forwarded := false
	if s.sheet != nil {
		if err := s.sheet.Append(ctx, reg); err != nil {
			log.Error().Err(err).Str("workId", reg.WorkID).Msg("forward registration to sheet")
		} else {
			forwarded = true
		}
	}

	log.Info().
		Str("workId", reg.WorkID).
		Str("title", reg.Title).
		Bool("forwarded", forwarded).
		Msg("work registered")

	return &RegisterResult{
		Success:   true,
		Message:   "Data saved successfully",
		WorkID:    reg.WorkID,
		Forwarded: forwarded,
	}, nil
}

func (s *RegistrationService) Get(ctx context.Context, workID string) (*model.Registration, error) {
	reg, err := s.regRepo.FindByWorkID(ctx, workID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("Registration")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return reg, nil
}

func generateWorkID() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("WRK_%04d", n.Int64())
}
