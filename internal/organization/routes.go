// AngelaMos | 2026
// routes.go

package organization

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

const (
	legacyManageRegions  = "can_manage_regions"
	legacyManageBranches = "can_manage_branches"
	legacyManageAreas    = "can_manage_areas"
	legacyManageStates   = "can_manage_states"
)

// RegisterRoutes mounts /countries, /regions, /areas, /states and /branches.
func RegisterRoutes(
	r chi.Router,
	db *sqlx.DB,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	countries := resource.NewHandler(
		crud.NewRepository[Country, *Country](db),
		resource.PermissionsFor("country"),
		guard,
		codeHooks[*Country](),
	)
	countries.RegisterRoutes(r, "/countries", authenticator)

	regions := resource.NewHandler(
		crud.NewRepository[Region, *Region](db),
		resource.PermissionsFor("region", legacyManageRegions),
		guard,
		codeHooks[*Region](),
	)
	regions.RegisterRoutes(r, "/regions", authenticator)

	areas := resource.NewHandler(
		crud.NewRepository[Area, *Area](db),
		resource.PermissionsFor("area", legacyManageAreas),
		guard,
		codeHooks[*Area](),
	)
	areas.RegisterRoutes(r, "/areas", authenticator)

	states := resource.NewHandler(
		crud.NewRepository[State, *State](db),
		resource.PermissionsFor("state", legacyManageStates),
		guard,
		codeHooks[*State](),
	)
	states.RegisterRoutes(r, "/states", authenticator)

	branches := resource.NewHandler(
		crud.NewRepository[Branch, *Branch](db),
		resource.PermissionsFor("branch", legacyManageBranches),
		guard,
		codeHooks[*Branch](),
	)
	branches.RegisterRoutes(r, "/branches", authenticator)
}

// codeHooks upper-cases codes on create and on update.
func codeHooks[PT interface{ upperCaseCode() }]() resource.Hooks[PT] {
	return resource.Hooks[PT]{
		BeforeCreate: func(_ context.Context, doc PT, _ *middleware.Principal) error {
			doc.upperCaseCode()
			return nil
		},
		BeforeUpdate: upperCode[PT],
	}
}

func upperCode[PT any](_ context.Context, _ PT, changes map[string]any) error {
	if code, ok := changes["code"].(string); ok {
		changes["code"] = normalizeCode(code)
	}
	return nil
}
