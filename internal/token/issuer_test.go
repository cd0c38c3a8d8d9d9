package token

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicengine/auth-server-go/internal/model"
)

func testUser() *model.AuthUser {
	return &model.AuthUser{
		ID:    "u1",
		Name:  "Ava Rivers",
		Email: "ava@example.com",
		Plan:  "Creator",
	}
}

func TestIssueAccessToken(t *testing.T) {
	t.Run("issues a verifiable token", func(t *testing.T) {
		iss := NewIssuer("test-secret-test-secret-test-secret", time.Hour)

		signed, err := iss.IssueAccessToken(testUser())
		require.NoError(t, err)
		require.NotEmpty(t, signed)

		sub, err := iss.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "u1", sub)
	})

	t.Run("carries identity claims", func(t *testing.T) {
		iss := NewIssuer("test-secret-test-secret-test-secret", time.Hour)

		signed, err := iss.IssueAccessToken(testUser())
		require.NoError(t, err)

		parsed, err := jwtlib.Parse(signed, func(t *jwtlib.Token) (any, error) {
			return []byte("test-secret-test-secret-test-secret"), nil
		})
		require.NoError(t, err)

		claims := parsed.Claims.(jwtlib.MapClaims)
		assert.Equal(t, "musicengine-auth", claims["iss"])
		assert.Equal(t, "ava@example.com", claims["email"])
		assert.Equal(t, "Ava Rivers", claims["name"])
		assert.Equal(t, "Creator", claims["plan"])
		assert.NotEmpty(t, claims["jti"])
	})

	t.Run("expiry follows the configured lifetime", func(t *testing.T) {
		base := time.Now()
		NowTimeFunc = func() time.Time { return base }
		defer func() { NowTimeFunc = time.Now }()

		iss := NewIssuer("test-secret-test-secret-test-secret", 2*time.Hour)
		signed, err := iss.IssueAccessToken(testUser())
		require.NoError(t, err)

		parsed, err := jwtlib.Parse(signed, func(t *jwtlib.Token) (any, error) {
			return []byte("test-secret-test-secret-test-secret"), nil
		})
		require.NoError(t, err)

		claims := parsed.Claims.(jwtlib.MapClaims)
		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.Equal(t, base.Add(2*time.Hour).Unix(), exp.Unix())
	})
}

func TestVerify(t *testing.T) {
	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		iss := NewIssuer("test-secret-test-secret-test-secret", time.Hour)
		other := NewIssuer("other-secret-other-secret-other-sec", time.Hour)

		signed, err := other.IssueAccessToken(testUser())
		require.NoError(t, err)

		_, err = iss.Verify(signed)
		assert.Error(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		base := time.Now().Add(-2 * time.Hour)
		NowTimeFunc = func() time.Time { return base }
		iss := NewIssuer("test-secret-test-secret-test-secret", time.Hour)
		signed, err := iss.IssueAccessToken(testUser())
		NowTimeFunc = time.Now
		require.NoError(t, err)

		_, err = iss.Verify(signed)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		iss := NewIssuer("test-secret-test-secret-test-secret", time.Hour)

		_, err := iss.Verify("not-a-token")
		assert.Error(t, err)
	})
}
