// AngelaMos | 2026
// routes.go

package tenant

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

// RegisterRoutes mounts /tenants and /plans. Both are global resources.
func RegisterRoutes(
	r chi.Router,
	db *sqlx.DB,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	tenants := resource.NewHandler(
		crud.NewRepository[Tenant, *Tenant](db),
		resource.PermissionsFor("tenant"),
		guard,
		TenantHooks(),
	)
	tenants.RegisterRoutes(r, "/tenants", authenticator)

	plans := resource.NewHandler(
		crud.NewRepository[Plan, *Plan](db),
		resource.PermissionsFor("plan"),
		guard,
		PlanHooks(),
	)
	plans.RegisterRoutes(r, "/plans", authenticator)
}

func TenantHooks() resource.Hooks[*Tenant] {
	return resource.Hooks[*Tenant]{
		BeforeCreate: func(_ context.Context, doc *Tenant, _ *middleware.Principal) error {
			if doc.Tier == "" {
				doc.Tier = TierBasic
			}
			if doc.Status == "" {
				doc.Status = StatusActive
			}
			doc.Tags = orEmpty(doc.Tags)
			return nil
		},
		BeforeUpdate: func(_ context.Context, _ *Tenant, changes map[string]any) error {
			return requireArray(changes, "tags")
		},
	}
}

func PlanHooks() resource.Hooks[*Plan] {
	return resource.Hooks[*Plan]{
		BeforeCreate: func(_ context.Context, doc *Plan, _ *middleware.Principal) error {
			if !doc.Price.IsPositive() {
				return core.ValidationError("'price' must be greater than zero")
			}
			if doc.IsTrialAvailable && doc.TrialPeriodDays == nil {
				return core.ValidationError("'trial_period_days' is required when a trial is available")
			}
			if doc.NumberOfUsers == 0 {
				doc.NumberOfUsers = 1
			}
			if doc.NumberOfBranches == 0 {
				doc.NumberOfBranches = 1
			}
			doc.Features = orEmpty(doc.Features)
			return nil
		},
		BeforeUpdate: func(_ context.Context, doc *Plan, changes map[string]any) error {
			if _, ok := changes["price"]; ok && !doc.Price.IsPositive() {
				return core.ValidationError("'price' must be greater than zero")
			}
			return requireArray(changes, "features")
		},
	}
}

func orEmpty(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}

// requireArray turns an explicit null for a text[] column into an empty
// array, since the columns are NOT NULL.
func requireArray(changes map[string]any, field string) error {
	v, ok := changes[field]
	if !ok {
		return nil
	}
	arr, _ := v.(pq.StringArray)
	changes[field] = orEmpty(arr)
	return nil
}
