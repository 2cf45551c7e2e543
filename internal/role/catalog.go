// AngelaMos | 2026
// catalog.go

package role

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

type CatalogEntry struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type CatalogGroup struct {
	Group       string         `json:"group"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Permissions []CatalogEntry `json:"permissions"`
}

var verbs = []struct {
	verb, label, description string
}{
	{"create", "Create", "Create new %s"},
	{"view", "View", "List and inspect %s"},
	{"edit", "Edit", "Modify existing %s"},
	{"delete", "Delete", "Soft delete and restore %s"},
	{"hard_delete", "Permanently Delete", "Irreversibly remove %s"},
	{"activate", "Activate", "Re-enable disabled %s"},
	{"deactivate", "Deactivate", "Temporarily disable %s"},
}

func resourceGroup(group, name, resource, plural string, extra ...CatalogEntry) CatalogGroup {
	entries := make([]CatalogEntry, 0, len(verbs)+len(extra))
	for _, v := range verbs {
		entries = append(entries, CatalogEntry{
			Value:       resource + ":" + v.verb,
			Label:       v.label + " " + titleCase(plural),
			Description: strings.Replace(v.description, "%s", plural, 1),
		})
	}
	return CatalogGroup{
		Group:       group,
		Name:        name,
		Description: "Manage " + plural,
		Permissions: append(entries, extra...),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Catalog is every permission the API checks, grouped for role editors.
var Catalog = []CatalogGroup{
	{
		Group:       middleware.SuperAdmin,
		Name:        "Super Admin",
		Description: "Bypasses all permission checks",
		Permissions: []CatalogEntry{{
			Value:       middleware.SuperAdmin,
			Label:       "Super Admin Access",
			Description: "Unrestricted access to all system features",
		}},
	},
	{
		Group:       "all",
		Name:        "All Permissions",
		Description: "Grants every non super admin permission",
		Permissions: []CatalogEntry{{
			Value:       middleware.Wildcard,
			Label:       "All Permissions",
			Description: "Can perform any action",
		}},
	},
	resourceGroup("user_management", "User Management", "user", "users"),
	resourceGroup("role_management", "Role Management", "role", "roles"),
	resourceGroup("region_management", "Region Management", "region", "regions", CatalogEntry{
		Value:       "can_manage_regions",
		Label:       "Manage Regions",
		Description: "Every region action",
	}),
	resourceGroup("country_management", "Country Management", "country", "countries"),
	resourceGroup("area_management", "Area Management", "area", "areas", CatalogEntry{
		Value:       "can_manage_areas",
		Label:       "Manage Areas",
		Description: "Every area action",
	}),
	resourceGroup("state_management", "State Management", "state", "states", CatalogEntry{
		Value:       "can_manage_states",
		Label:       "Manage States",
		Description: "Every state action",
	}),
	resourceGroup("branch_management", "Branch Management", "branch", "branches", CatalogEntry{
		Value:       "can_manage_branches",
		Label:       "Manage Branches",
		Description: "Create, edit and delete branch locations",
	}),
	resourceGroup("brand_management", "Brand Management", "brand", "brands", CatalogEntry{
		Value:       "can_manage_brands",
		Label:       "Manage Brands",
		Description: "Every brand action",
	}),
	resourceGroup("category_management", "Category Management", "category", "categories", CatalogEntry{
		Value:       "can_manage_categories",
		Label:       "Manage Categories",
		Description: "Every product category action",
	}),
	{
		Group:       "payments",
		Name:        "Payments",
		Description: "Collect and inspect payments",
		Permissions: []CatalogEntry{
			{Value: "payment:create", Label: "Take Payments", Description: "Initialize checkout payments"},
			{Value: "payment:view", Label: "View Payments", Description: "Inspect and verify payments"},
			{Value: "subscription:manage", Label: "Manage Subscription", Description: "Start and inspect the tenant subscription"},
		},
	},
	{
		Group:       "audit_security",
		Name:        "Audit & Security",
		Description: "Review audit logs and system state",
		Permissions: []CatalogEntry{
			{Value: "audit:view", Label: "View Audit Stats", Description: "Inspect audit queue and log statistics"},
		},
	},
}

// VisibleCatalog drops the super admin group.
func VisibleCatalog() []CatalogGroup {
	out := make([]CatalogGroup, 0, len(Catalog))
	for _, g := range Catalog {
		if g.Group != middleware.SuperAdmin {
			out = append(out, g)
		}
	}
	return out
}

func RegisterCatalogRoutes(
	r chi.Router,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(
		authenticator,
		guard.RequireRolesOrPermissions(middleware.SuperAdmin, "role:view"),
	).Get("/permissions", func(w http.ResponseWriter, _ *http.Request) {
		core.OK(w, VisibleCatalog())
	})
}
