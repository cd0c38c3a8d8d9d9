package model

import "time"

type User struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	Plan      string     `db:"plan" json:"plan"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	LastLogin *time.Time `db:"last_login" json:"lastLogin,omitempty"`
}

const (
	PlanCreator     = "Creator"
	PlanRecordLabel = "Record Label"
	PlanMediaHouse  = "Media House"

	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

type CreateUserParams struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Plan  string `json:"plan" validate:"omitempty,oneof='Creator' 'Record Label' 'Media House'"`
}

type UpdateUserParams struct {
	Name   *string `json:"name,omitempty"`
	Plan   *string `json:"plan,omitempty" validate:"omitempty,oneof='Creator' 'Record Label' 'Media House'"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=active suspended"`
}
