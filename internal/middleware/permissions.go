// AngelaMos | 2026
// permissions.go

package middleware

import (
	"net/http"
	"strings"

	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/core"
)

const (
	SuperAdmin = "super_admin"
	Wildcard   = "*"
)

type Guard struct {
	recorder audit.Recorder
}

func NewGuard(recorder audit.Recorder) *Guard {
	return &Guard{recorder: recorder}
}

// RequirePermissions passes when the caller holds any of permissions.
// super_admin and "*" pass every check.
func (g *Guard) RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return g.require(permissions, func(p *Principal) bool {
		if p.HasPermission(SuperAdmin) || p.HasPermission(Wildcard) {
			return true
		}
		for _, perm := range permissions {
			if p.HasPermission(perm) {
				return true
			}
		}
		return false
	}, "Requires any of: "+strings.Join(permissions, ", "))
}

// RequireRolesOrPermissions passes when any item is one of the caller's
// permissions or equals the caller's role.
func (g *Guard) RequireRolesOrPermissions(items ...string) func(http.Handler) http.Handler {
	return g.require(items, func(p *Principal) bool {
		if p.HasPermission(Wildcard) || p.HasPermission(SuperAdmin) {
			return true
		}
		for _, item := range items {
			if p.HasPermission(item) || item == p.Role {
				return true
			}
		}
		return false
	}, "You do not have the required privileges")
}

func (g *Guard) require(
	required []string,
	allowed func(*Principal) bool,
	message string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			if allowed(principal) {
				next.ServeHTTP(w, r)
				return
			}

			if g.recorder != nil {
				entry := audit.FromRequest(r).Entry(principal.UserID, audit.LevelSecurity, map[string]any{
					"event":     "permission_denied",
					"required":  required,
					"role":      principal.Role,
					"error_msg": message,
				})
				entry.CompanyID = principal.CompanyID
				g.recorder.Record(r.Context(), entry)
				markRecorded(r.Context())
			}

			core.JSONError(w, core.ForbiddenError(message))
		})
	}
}
