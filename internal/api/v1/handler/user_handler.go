package handler

import (
	"net/http"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/middleware"
)

// UserHandler reports the identity behind a token. Profiles live with the
// identity provider, so there is nothing to create or update here.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getUser)))
}

// getUser godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /users/me [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponseDTO{
		UserID:      id.UserID,
		Email:       id.Email,
		DisplayName: id.Name(),
		IsAdmin:     id.IsAdmin(),
	})
}
