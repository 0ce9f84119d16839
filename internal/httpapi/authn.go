package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"mesworks.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/v1/users/register-admin",
	"/v1/users/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth authenticates every non-public request. The identity embedded in
// the token is attached to the context as-is; permission checks happen per
// handler against that snapshot.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mesworks"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		identity, err := a.auth.VerifyToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mesworks"`)
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermission enforces a catalog permission for the request identity.
// Admins pass unconditionally; everyone else needs the literal permission in
// their token snapshot. A failed check writes the response itself.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, required auth.Permission) bool {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="mesworks"`)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	if !identity.Allows(required) {
		writeError(w, r, http.StatusForbidden, "missing permission: "+required.String())
		return false
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
