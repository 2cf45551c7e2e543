// AngelaMos | 2026
// category.go

package inventory

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

// Category groups products. ParentID nests it under another category.
type Category struct {
	crud.Document
	Name        string  `db:"name"        json:"name"        validate:"required,min=2,max=100"`
	Code        string  `db:"code"        json:"code"        validate:"required,alphanum,max=20"`
	ParentID    *string `db:"parent_id"   json:"parent_id"   validate:"omitempty,uuid"`
	Description *string `db:"description" json:"description" validate:"omitempty,max=500"`
}

func (Category) TableName() string         { return "categories" }
func (Category) ModelName() string         { return "Category" }
func (Category) UniqueFields() []string    { return []string{"name", "code"} }
func (Category) TenantScoped() bool        { return true }
func (Category) ProtectedFields() []string { return nil }

func (Category) Columns() []string {
	return []string{"name", "code", "parent_id", "description"}
}

func (c *Category) Values() map[string]any {
	return map[string]any{
		"name":        c.Name,
		"code":        c.Code,
		"parent_id":   c.ParentID,
		"description": c.Description,
	}
}

func categoryHooks() resource.Hooks[*Category] {
	return resource.Hooks[*Category]{
		BeforeCreate: func(_ context.Context, doc *Category, _ *middleware.Principal) error {
			doc.Code = strings.ToUpper(strings.TrimSpace(doc.Code))
			return nil
		},
		BeforeUpdate: func(ctx context.Context, _ *Category, changes map[string]any) error {
			if code, ok := changes["code"].(string); ok {
				changes["code"] = strings.ToUpper(strings.TrimSpace(code))
			}
			if parent, ok := changes["parent_id"].(string); ok && parent == chi.URLParamFromCtx(ctx, "id") {
				return core.ValidationError("a category cannot be its own parent")
			}
			return nil
		},
	}
}
