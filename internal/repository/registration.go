package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/musicengine/auth-server-go/internal/model"
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *model.Registration) error
	FindByWorkID(ctx context.Context, workID string) (*model.Registration, error)
	List(ctx context.Context, limit int) ([]model.Registration, error)
}

// registrationRow is the flattened storage shape; list-valued fields are
// stored as comma-joined text or JSONB matching the spreadsheet contract.
type registrationRow struct {
	WorkID        string          `db:"work_id"`
	Title         string          `db:"title"`
	WorkType      string          `db:"work_type"`
	ISWC          string          `db:"iswc"`
	ISRC          string          `db:"isrc"`
	Duration      string          `db:"duration"`
	Description   string          `db:"description"`
	Territories   string          `db:"territories"`
	PrimaryArtist string          `db:"primary_artist"`
	Featured      string          `db:"featured"`
	LabelName     string          `db:"label_name"`
	Writers       json.RawMessage `db:"writers"`
	Publishers    json.RawMessage `db:"publishers"`
	Files         json.RawMessage `db:"files"`
	CreatedAt     sql.NullTime    `db:"created_at"`
}

type registrationRepo struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	writers, err := json.Marshal(reg.Writers)
	if err != nil {
		return err
	}
	publishers, err := json.Marshal(reg.Publishers)
	if err != nil {
		return err
	}
	files, err := json.Marshal(reg.Files)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO registrations (
			work_id, title, work_type, iswc, isrc, duration, description,
			territories, primary_artist, featured, label_name,
			writers, publishers, files, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, reg.WorkID, reg.Title, reg.WorkType, reg.ISWC, reg.ISRC, reg.Duration,
		reg.Description, strings.Join(reg.Territories, ", "), reg.PrimaryArtist,
		strings.Join(reg.FeaturedArtists, ", "), reg.LabelName,
		writers, publishers, files, reg.CreatedAt)
	return err
}

func (r *registrationRepo) FindByWorkID(ctx context.Context, workID string) (*model.Registration, error) {
	var row registrationRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM registrations WHERE work_id = $1
	`, workID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToRegistration(&row)
}

func (r *registrationRepo) List(ctx context.Context, limit int) ([]model.Registration, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []registrationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM registrations ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}

	regs := make([]model.Registration, 0, len(rows))
	for i := range rows {
		reg, err := rowToRegistration(&rows[i])
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, nil
}

func rowToRegistration(row *registrationRow) (*model.Registration, error) {
	reg := &model.Registration{
		WorkID:        row.WorkID,
		Title:         row.Title,
		WorkType:      row.WorkType,
		ISWC:          row.ISWC,
		ISRC:          row.ISRC,
		Duration:      row.Duration,
		Description:   row.Description,
		PrimaryArtist: row.PrimaryArtist,
		LabelName:     row.LabelName,
	}
	if row.CreatedAt.Valid {
		reg.CreatedAt = row.CreatedAt.Time
	}
	if row.Territories != "" {
		reg.Territories = strings.Split(row.Territories, ", ")
	}
	if row.Featured != "" {
		reg.FeaturedArtists = strings.Split(row.Featured, ", ")
	}
	if len(row.Writers) > 0 {
		if err := json.Unmarshal(row.Writers, &reg.Writers); err != nil {
			return nil, err
		}
	}
	if len(row.Publishers) > 0 {
		if err := json.Unmarshal(row.Publishers, &reg.Publishers); err != nil {
			return nil, err
		}
	}
	if len(row.Files) > 0 {
		if err := json.Unmarshal(row.Files, &reg.Files); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
