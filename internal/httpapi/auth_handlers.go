package httpapi

import (
	"net/http"
	"time"

	"mesworks.org/internal/audit"
	"mesworks.org/internal/auth"
)

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        auth.User `json:"user"`
}

// handleAuthToken performs the form-encoded credential exchange. Both the
// field names and the "bearer" token type follow the OAuth2 password flow
// shape that shop-floor clients already speak.
func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	session, err := a.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"email":      session.User.Email,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt,
		User:        session.User,
	})
}

type permissionsResponse struct {
	Resources   map[string][]auth.Action `json:"resources"`
	Permissions []string                 `json:"permissions"`
}

// handleAuthPermissions lists the catalog plus the caller's own snapshot.
func (a *API) handleAuthPermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	resources := make(map[string][]auth.Action)
	for _, resource := range auth.Resources() {
		resources[resource] = auth.ActionsFor(resource)
	}
	writeJSON(w, http.StatusOK, permissionsResponse{
		Resources:   resources,
		Permissions: identity.Permissions,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active"`
	Role     string `json:"role"`
}

// handleRegisterAdmin is the public bootstrap endpoint. The account receives
// the full catalog expansion; the first account ever created is forced to the
// admin role regardless of the requested one.
func (a *API) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		IsActive: req.IsActive,
		Role:     req.Role,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})
	writeJSON(w, http.StatusCreated, user)
}
