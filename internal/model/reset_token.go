package model

import "time"

// ResetToken governs a single password/access reset. Same lifecycle as a
// pairing session with a used flag in place of a second status value: a used
// token behaves as dead even before ExpiresAt.
type ResetToken struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type CreateResetTokenParams struct {
	Email string `json:"email" validate:"required,email"`
}

type CompleteResetParams struct {
	NewName string `json:"newName" validate:"required"`
}
