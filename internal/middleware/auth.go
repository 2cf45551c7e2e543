// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

// PrincipalResolver turns a bearer token into the caller behind it.
type PrincipalResolver interface {
	CurrentUser(ctx context.Context, token string) (*Principal, error)
}

func Authenticator(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			principal, err := resolver.CurrentUser(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			annotate(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	if core.StatusFor(err) >= http.StatusInternalServerError {
		core.InternalServerError(w, err)
		return
	}
	core.JSONError(w, core.TokenInvalidError())
}
