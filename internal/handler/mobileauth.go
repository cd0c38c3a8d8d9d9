package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/service"
)

// MobileAuthHandler serves the page the completing device lands on after
// scanning the QR code, and accepts its login submission.
type MobileAuthHandler struct {
	sessionService *service.SessionService
	homeURL        string
}

func NewMobileAuthHandler(sessionService *service.SessionService, homeURL string) *MobileAuthHandler {
	return &MobileAuthHandler{
		sessionService: sessionService,
		homeURL:        homeURL,
	}
}

func (h *MobileAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ShowLoginForm)
	r.Post("/", h.CompleteLogin)
	r.MethodNotAllowed(methodNotAllowed)

	return r
}

// GET /api/mobile-auth?sessionId=<id>
func (h *MobileAuthHandler) ShowLoginForm(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	if sessionID != "" {
		if _, err := h.sessionService.GetStatus(r.Context(), sessionID); err == nil {
			renderPage(w, http.StatusOK, "mobile_login.html", map[string]string{
				"SessionID": sessionID,
			})
			return
		}
	}

	// The invalid-session page still renders 200 so the device browser shows
	// a friendly message instead of an error page.
	renderPage(w, http.StatusOK, "mobile_invalid.html", map[string]string{
		"HomeURL": h.homeURL,
	})
}

// POST /api/mobile-auth?sessionId=<id>
func (h *MobileAuthHandler) CompleteLogin(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, apperrors.MissingRequired("sessionId"))
		return
	}

	var params model.CompleteSessionParams
	if err := decodeAndValidate(r, &params); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessionService.Complete(r.Context(), sessionID, params); err != nil {
		writeError(w, err)
		return
	}

	// Acknowledgement only; the identity payload is delivered to the waiting
	// device through its poll loop.
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
