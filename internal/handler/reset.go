package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/service"
)

type ResetHandler struct {
	resetService *service.ResetService
	homeURL      string
}

func NewResetHandler(resetService *service.ResetService, homeURL string) *ResetHandler {
	return &ResetHandler{
		resetService: resetService,
		homeURL:      homeURL,
	}
}

func (h *ResetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandlePost)
	r.Get("/", h.ShowResetForm)
	r.MethodNotAllowed(methodNotAllowed)

	return r
}

// POST /api/password-reset            -> request a reset link
// POST /api/password-reset?token=<t>  -> complete the reset
func (h *ResetHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if token := r.URL.Query().Get("token"); token != "" {
		h.completeReset(w, r, token)
		return
	}
	h.requestReset(w, r)
}

func (h *ResetHandler) requestReset(w http.ResponseWriter, r *http.Request) {
	var params model.CreateResetTokenParams
	if err := decodeAndValidate(r, &params); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.resetService.CreateResetToken(r.Context(), params.Email)
	if err != nil {
		writeError(w, apperrors.Internal("Failed to create reset token"))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ResetHandler) completeReset(w http.ResponseWriter, r *http.Request, token string) {
	var params model.CompleteResetParams
	if err := decodeAndValidate(r, &params); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.resetService.CompleteReset(r.Context(), token, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/password-reset?token=<t>
func (h *ResetHandler) ShowResetForm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, apperrors.MissingRequired("token"))
		return
	}

	rt, err := h.resetService.GetResetToken(r.Context(), token)
	if err != nil {
		switch apperrors.GetCode(err) {
		case apperrors.ErrCodeTokenExpired, apperrors.ErrCodeTokenUsed:
			renderPage(w, http.StatusGone, "reset_invalid.html", map[string]string{
				"Message": "Reset link has expired",
				"HomeURL": h.homeURL,
			})
		default:
			renderPage(w, http.StatusNotFound, "reset_invalid.html", map[string]string{
				"Message": "Invalid or expired reset link",
				"HomeURL": h.homeURL,
			})
		}
		return
	}

	renderPage(w, http.StatusOK, "reset_form.html", map[string]string{
		"Email": rt.Email,
		"Token": token,
	})
}
