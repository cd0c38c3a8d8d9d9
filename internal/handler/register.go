package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/service"
)

// RegisterHandler accepts work registration submissions from the
// registration screens.
type RegisterHandler struct {
	regService *service.RegistrationService
}

func NewRegisterHandler(regService *service.RegistrationService) *RegisterHandler {
	return &RegisterHandler{regService: regService}
}

func (h *RegisterHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Register)
	r.Get("/", h.GetRegistration)
	r.MethodNotAllowed(methodNotAllowed)

	return r
}

// POST /api/register
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params model.CreateRegistrationParams
	if err := decodeAndValidate(r, &params); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.regService.Register(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/register?workId=<id>
func (h *RegisterHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	workID := r.URL.Query().Get("workId")
	if workID == "" {
		writeError(w, apperrors.MissingRequired("workId"))
		return
	}

	reg, err := h.regService.Get(r.Context(), workID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}
