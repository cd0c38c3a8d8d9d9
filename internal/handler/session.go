package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateSession)
	r.Get("/", h.GetSessionStatus)
	r.MethodNotAllowed(methodNotAllowed)

	return r
}

// POST /api/auth/session
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.CreateSession(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		writeError(w, apperrors.Internal("Failed to create session"))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/auth/session?sessionId=<id>
func (h *SessionHandler) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, apperrors.MissingRequired("sessionId"))
		return
	}

	session, err := h.sessionService.GetStatus(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperrors.MethodNotAllowed())
}
