// AngelaMos | 2026
// handler.go

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

// RegisterRoutes mounts /users with the generic verbs and the user hooks.
func RegisterRoutes(
	r chi.Router,
	db *sqlx.DB,
	svc *Service,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	h := resource.NewHandler(
		crud.NewRepository[User, *User](db),
		resource.PermissionsFor("user"),
		guard,
		svc.Hooks(),
	)
	h.RegisterRoutes(r, "/users", authenticator)
}
