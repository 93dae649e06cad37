package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

type UsersHandler struct {
	Users *service.UserService
}

// HandleMe returns the signed-in user as currently stored.
//
//	@Summary		Current user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"User"
//	@Failure		401	{object}	authsdk.APIError		"No valid session"
//	@Router			/api/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	view, ok := SessionFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}

	user, err := h.Users.GetUser(r.Context(), view.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, userResponse(user.ID, user.Email, user.Name, user.Role))
}

// HandleUpdateRole changes a user's role.
//
//	@Summary		Change a user's role
//	@Description	ADMIN only. The last ADMIN cannot be demoted.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"User id"
//	@Param			request	body		authsdk.UpdateRoleRequest	true	"New role"
//	@Success		200		{object}	authsdk.UserResponse	"Updated user"
//	@Failure		400		{object}	authsdk.APIError		"Invalid role"
//	@Failure		403		{object}	authsdk.APIError		"Caller is not an admin"
//	@Failure		404		{object}	authsdk.APIError		"User not found"
//	@Failure		409		{object}	authsdk.APIError		"Last admin"
//	@Router			/api/admin/users/{id}/role [patch].
func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	view, ok := SessionFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}

	var req authsdk.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Users.UpdateRole(r.Context(), view, r.PathValue("id"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(user.ID, user.Email, user.Name, user.Role))
}
