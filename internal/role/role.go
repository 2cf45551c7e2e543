// AngelaMos | 2026
// role.go

package role

import (
	"context"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

// Role is a named permission set. Exclusions remove permissions that the
// set would otherwise grant.
type Role struct {
	crud.Document
	Name        string         `db:"name"        json:"name"        validate:"required,min=2,max=50"`
	Description *string        `db:"description" json:"description" validate:"omitempty,max=255"`
	Permissions pq.StringArray `db:"permissions" json:"permissions" validate:"dive,required"`
	Exclusions  pq.StringArray `db:"exclusions"  json:"exclusions"  validate:"dive,required"`
}

func (Role) TableName() string         { return "roles" }
func (Role) ModelName() string         { return "Role" }
func (Role) UniqueFields() []string    { return []string{"name"} }
func (Role) TenantScoped() bool        { return true }
func (Role) ProtectedFields() []string { return nil }

func (Role) Columns() []string {
	return []string{"name", "description", "permissions", "exclusions"}
}

func (r *Role) Values() map[string]any {
	return map[string]any{
		"name":        r.Name,
		"description": r.Description,
		"permissions": r.Permissions,
		"exclusions":  r.Exclusions,
	}
}

// Effective returns the granted permissions minus exclusions, sorted and
// without duplicates.
func (r *Role) Effective() []string {
	out := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if !slices.Contains(r.Exclusions, p) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func RegisterRoutes(
	r chi.Router,
	db *sqlx.DB,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	h := resource.NewHandler(
		crud.NewRepository[Role, *Role](db),
		resource.PermissionsFor("role"),
		guard,
		resource.Hooks[*Role]{
			BeforeCreate: func(_ context.Context, doc *Role, _ *middleware.Principal) error {
				doc.Permissions = dedupe(doc.Permissions)
				doc.Exclusions = dedupe(doc.Exclusions)
				return nil
			},
			BeforeUpdate: func(_ context.Context, doc *Role, changes map[string]any) error {
				if _, ok := changes["permissions"]; ok {
					changes["permissions"] = dedupe(doc.Permissions)
				}
				if _, ok := changes["exclusions"]; ok {
					changes["exclusions"] = dedupe(doc.Exclusions)
				}
				return nil
			},
		},
	)
	h.RegisterRoutes(r, "/roles", authenticator)
}

// dedupe keeps first occurrences in order. Permissions are a set.
func dedupe(in pq.StringArray) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	for _, p := range in {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
