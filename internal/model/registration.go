package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Work registration record submitted from the registration screens. The
// flattened column ordering is a fixed contract with the spreadsheet sink.
type Registration struct {
	WorkID          string    `db:"work_id" json:"work_id"`
	Title           string    `db:"title" json:"title"`
	WorkType        string    `db:"work_type" json:"work_type"`
	ISWC            string    `db:"iswc" json:"iswc"`
	ISRC            string    `db:"isrc" json:"isrc"`
	Duration        string    `db:"duration" json:"duration"`
	Description     string    `db:"description" json:"description"`
	Territories     []string  `db:"-" json:"territories"`
	PrimaryArtist   string    `db:"primary_artist" json:"primary_artist"`
	FeaturedArtists []string  `db:"-" json:"featured_artists"`
	LabelName       string    `db:"label_name" json:"label_name"`
	Writers         []Writer  `db:"-" json:"writers"`
	Publishers      []Writer  `db:"-" json:"publishers"`
	Files           WorkFiles `db:"-" json:"files"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Writer covers both writers and publishers: name plus industry identifiers
// and an ownership share percentage.
type Writer struct {
	Name  string          `json:"name"`
	IPI   string          `json:"ipi"`
	ISNI  string          `json:"isni"`
	Share decimal.Decimal `json:"share"`
	Role  string          `json:"role,omitempty"`
}

type WorkFiles struct {
	Audio   string `json:"audio"`
	Artwork string `json:"artwork"`
	Lyrics  string `json:"lyrics"`
}

type CreateRegistrationParams struct {
	Title           string    `json:"title" validate:"required"`
	WorkType        string    `json:"work_type" validate:"required"`
	ISWC            string    `json:"iswc"`
	ISRC            string    `json:"isrc"`
	Duration        string    `json:"duration"`
	Description     string    `json:"description"`
	Territories     []string  `json:"territories"`
	PrimaryArtist   string    `json:"primary_artist" validate:"required"`
	FeaturedArtists []string  `json:"featured_artists"`
	LabelName       string    `json:"label_name"`
	Writers         []Writer  `json:"writers" validate:"required,min=1,dive"`
	Publishers      []Writer  `json:"publishers" validate:"dive"`
	Files           WorkFiles `json:"files"`
}
