package httpapi

import (
	"fmt"
	"net/http"

	"mesworks.org/internal/audit"
	"mesworks.org/internal/auth"
)

var (
	permUserCreate = auth.MustPermission("user:create")
	permUserRead   = auth.MustPermission("user:read")
	permUserUpdate = auth.MustPermission("user:update")
	permUserDelete = auth.MustPermission("user:delete")
)

type createUserRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	IsActive    *bool    `json:"is_active"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type updateUserRequest struct {
	Email       *string  `json:"email"`
	Password    *string  `json:"password"`
	IsActive    *bool    `json:"is_active"`
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permUserRead) {
			return
		}
		users, err := a.auth.Users(r.Context())
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		if users == nil {
			users = []auth.User{}
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		if !a.ensurePermission(w, r, permUserCreate) {
			return
		}
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.CreateUser(r.Context(), auth.CreateUserInput{
			Email:       req.Email,
			Password:    req.Password,
			IsActive:    req.IsActive,
			Role:        req.Role,
			Permissions: req.Permissions,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.create", map[string]any{
			"email": user.Email,
			"role":  user.Role,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/users/%d", user.ID))
		writeJSON(w, http.StatusCreated, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/v1/users/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permUserRead) {
			return
		}
		user, err := a.auth.UserByID(r.Context(), id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		if !a.ensurePermission(w, r, permUserUpdate) {
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.UpdateUser(r.Context(), id, auth.UpdateUserInput{
			Email:       req.Email,
			Password:    req.Password,
			IsActive:    req.IsActive,
			Role:        req.Role,
			Permissions: req.Permissions,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.update", map[string]any{"user_id": id})
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, permUserDelete) {
			return
		}
		if err := a.auth.DeleteUser(r.Context(), id); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{"user_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
