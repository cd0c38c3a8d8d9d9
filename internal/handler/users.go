package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
	"github.com/musicengine/auth-server-go/internal/model"
	"github.com/musicengine/auth-server-go/internal/service"
)

// UsersHandler is the admin directory API. All routes sit behind the admin
// auth middleware.
type UsersHandler struct {
	userService *service.UserService
}

func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{userService: userService}
}

func (h *UsersHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetUsers)
	r.Post("/", h.CreateUser)
	r.Put("/", h.UpdateUser)
	r.Delete("/", h.DeleteUser)
	r.MethodNotAllowed(methodNotAllowed)

	return r
}

// GET /api/users[?userId=<id>]
func (h *UsersHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if userID := r.URL.Query().Get("userId"); userID != "" {
		user, err := h.userService.Get(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
	})
}

// POST /api/users
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params model.CreateUserParams
	if err := decodeAndValidate(r, &params); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// PUT /api/users?userId=<id>
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, apperrors.MissingRequired("userId"))
		return
	}

	var params model.UpdateUserParams
	if err := decodeAndValidate(r, &params); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), userID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DELETE /api/users?userId=<id>
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, apperrors.MissingRequired("userId"))
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
