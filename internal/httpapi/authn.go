package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"sauda.org/internal/auth"
	"sauda.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/signup",
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth resolves the bearer token into an actor and stashes it in the
// request context. Deactivated accounts keep access to their own profile
// endpoint only.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.CountDenial("unauthenticated")
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		actor, err := a.identity.ResolveActor(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrInactive):
			if r.URL.Path != "/v1/users/me" {
				obs.CountDenial("inactive")
				writeError(w, r, http.StatusForbidden, "account is deactivated")
				return
			}
		case errors.Is(err, auth.ErrUnauthenticated):
			obs.CountDenial("unauthenticated")
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		default:
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithActor(r.Context(), actor)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireActor returns the resolved actor or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Actor{}, false
	}
	return actor, true
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
