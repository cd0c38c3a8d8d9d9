package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/repository"
	"github.com/musicengine/auth-server-go/internal/service"
	"github.com/musicengine/auth-server-go/internal/token"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newSessionTestRouter(repo repository.SessionRepository) chi.Router {
	issuer := token.NewIssuer("test-secret-test-secret-test-secret", time.Hour)
	svc := service.NewSessionService(repo, nil, issuer, 5*time.Minute, "https://app.example.com")

	r := chi.NewRouter()
	r.Mount("/api/auth/session", NewSessionHandler(svc).Routes())
	r.Mount("/api/mobile-auth", NewMobileAuthHandler(svc, "https://app.example.com").Routes())
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSessionEndpoints(t *testing.T) {
	t.Run("POST creates a pending session", func(t *testing.T) {
		router := newSessionTestRouter(repository.NewMemorySessionRepository())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/session", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body service.CreateSessionResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.NotEmpty(t, body.SessionID)
		assert.Equal(t, "pending", body.Status)
		assert.Equal(t, 300, body.ExpiresIn)
		assert.Contains(t, body.QRURL, body.SessionID)
	})

	t.Run("GET without sessionId returns 400", func(t *testing.T) {
		router := newSessionTestRouter(repository.NewMemorySessionRepository())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_REQUIRED", decodeError(t, rec).Code)
	})

	t.Run("GET for unknown session returns 404", func(t *testing.T) {
		router := newSessionTestRouter(repository.NewMemorySessionRepository())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session?sessionId=nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("GET for expired session returns 410", func(t *testing.T) {
		base := time.Now()
		current := base
		repo := repository.NewMemorySessionRepositoryWithClock(func() time.Time { return current })
		router := newSessionTestRouter(repo)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/session", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var created service.CreateSessionResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

		current = base.Add(time.Hour)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session?sessionId="+created.SessionID, nil))

		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Equal(t, "SESSION_EXPIRED", decodeError(t, rec).Code)
	})

	t.Run("unsupported method returns 405", func(t *testing.T) {
		router := newSessionTestRouter(repository.NewMemorySessionRepository())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/auth/session", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Code)
	})

	t.Run("poll sequence observes the completed login", func(t *testing.T) {
		router := newSessionTestRouter(repository.NewMemorySessionRepository())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/session", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var created service.CreateSessionResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

		// A few polls before completion all report pending.
		for i := 0; i < 3; i++ {
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session?sessionId="+created.SessionID, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var session model.PairingSession
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
			assert.Equal(t, model.SessionStatusPending, session.Status)
			assert.Nil(t, session.UserData)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
			"/api/mobile-auth?sessionId="+created.SessionID,
			jsonBody(t, map[string]string{"artistName": "Ava Rivers", "email": "ava@example.com"})))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session?sessionId="+created.SessionID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var session model.PairingSession
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
		assert.Equal(t, model.SessionStatusAuthenticated, session.Status)
		require.NotNil(t, session.UserData)
		assert.Equal(t, "ava@example.com", session.UserData.Email)
		assert.NotEmpty(t, session.UserData.AccessToken)
	})
}
