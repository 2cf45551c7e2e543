// AngelaMos | 2026
// brand.go

package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

type Brand struct {
	crud.Document
	Name        string  `db:"name"        json:"name"        validate:"required,min=2,max=100"`
	Description *string `db:"description" json:"description" validate:"omitempty,max=500"`
	LogoURL     *string `db:"logo_url"    json:"logo_url"    validate:"omitempty,url"`
}

func (Brand) TableName() string         { return "brands" }
func (Brand) ModelName() string         { return "Brand" }
func (Brand) Columns() []string         { return []string{"name", "description", "logo_url"} }
func (Brand) UniqueFields() []string    { return []string{"name"} }
func (Brand) TenantScoped() bool        { return true }
func (Brand) ProtectedFields() []string { return nil }

func (b *Brand) Values() map[string]any {
	return map[string]any{
		"name":        b.Name,
		"description": b.Description,
		"logo_url":    b.LogoURL,
	}
}

// RegisterRoutes mounts /brands and /categories.
func RegisterRoutes(
	r chi.Router,
	db *sqlx.DB,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	h := resource.NewHandler(
		crud.NewRepository[Brand, *Brand](db),
		resource.PermissionsFor("brand", "can_manage_brands"),
		guard,
		resource.Hooks[*Brand]{},
	)
	h.RegisterRoutes(r, "/brands", authenticator)

	categories := resource.NewHandler(
		crud.NewRepository[Category, *Category](db),
		resource.PermissionsFor("category", "can_manage_categories"),
		guard,
		categoryHooks(),
	)
	categories.RegisterRoutes(r, "/categories", authenticator)
}
