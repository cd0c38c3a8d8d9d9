// Package token issues the signed access tokens handed to the web client
// once a pairing session or access reset completes.
package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/musicengine/auth-server-go/internal/model"
)

const issuer = "musicengine-auth"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Issuer struct {
	secret []byte
	expiry time.Duration
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// IssueAccessToken signs an HS256 token carrying the authenticated identity.
func (i *Issuer) IssueAccessToken(user *model.AuthUser) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   issuer,
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"plan":  user.Plan,
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
		"jti":   uuid.New().String(),
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed access token, returning its subject.
func (i *Issuer) Verify(tokenString string) (string, error) {
	parsed, err := jwtlib.Parse(tokenString, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	return sub, nil
}
