package model

import "time"

type SessionStatus string

const (
	SessionStatusPending       SessionStatus = "pending"
	SessionStatusAuthenticated SessionStatus = "authenticated"
)

// PairingSession links a QR code shown on one device to a login completed on
// another. Expiry is computed from ExpiresAt at read/write time, never stored
// as a status.
type PairingSession struct {
	ID        string        `json:"id"`
	Status    SessionStatus `json:"status"`
	UserData  *AuthUser     `json:"userData,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Expired reports whether the session is logically dead at the given instant.
func (s *PairingSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AuthUser is the identity payload attached when a session is completed.
type AuthUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Plan        string    `json:"plan"`
	LoginTime   time.Time `json:"loginTime"`
	AccessToken string    `json:"accessToken,omitempty"`
	ResetLogin  bool      `json:"resetLogin,omitempty"`
}

type CompleteSessionParams struct {
	ArtistName string `json:"artistName" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}
