package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/berrybridge/internal/claims"
	"github.com/dukerupert/berrybridge/internal/model"
)

// Authenticator turns bearer tokens into users. With a secret configured it
// verifies signatures; without one it reads claims unverified and the
// resulting users cannot pass role gates.
type Authenticator struct {
	verifier *claims.Verifier
}

func NewAuthenticator(secret string) *Authenticator {
	a := &Authenticator{}
	if secret != "" {
		a.verifier = claims.NewVerifier(secret)
	}
	return a
}

// Verifies reports whether tokens are signature-checked.
func (a *Authenticator) Verifies() bool {
	return a.verifier != nil
}

func (a *Authenticator) Identify(token string) (model.User, error) {
	if a.verifier != nil {
		return a.verifier.Verify(token)
	}
	return claims.ExtractUser(token), nil
}

// RequireAuth reads the bearer token and populates the caller's identity.
// The token may also arrive as a "token" query parameter for websocket upgrades.
func RequireAuth(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			user, err := a.Identify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := claims.WithUser(r.Context(), user, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits verified users holding one of roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := claims.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !user.Verified {
				writeError(w, http.StatusForbidden, "role check requires a verified token")
				return
			}
			if !user.HasRole(roles...) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}

func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
