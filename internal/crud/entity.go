// AngelaMos | 2026
// entity.go

package crud

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

// Entity describes a table managed by Repository. Implementations return
// constant metadata, so the methods are safe to call on a zero value.
type Entity interface {
	TableName() string
	ModelName() string
	// Columns lists the domain columns in insert order. It is also the
	// whitelist for filters, search, sort and updates.
	Columns() []string
	UniqueFields() []string
	TenantScoped() bool
	// ProtectedFields are dropped from update payloads in addition to id,
	// company_id, created_by and created_at.
	ProtectedFields() []string
	Values() map[string]any
	Base() *Document
}

// GlobalUniquer is implemented by tenant-scoped entities where some unique
// fields must not repeat across tenants, such as login emails.
type GlobalUniquer interface {
	GlobalUniqueFields() []string
}

// Scope carries the tenant a request acts within.
type Scope struct {
	CompanyID string
}

func TenantScope(companyID string) Scope {
	return Scope{CompanyID: companyID}
}

type GetOptions struct {
	IncludeDeleted     bool
	IncludeDeactivated bool
}

var includeAll = GetOptions{IncludeDeleted: true, IncludeDeactivated: true}

// Transition is one of the fixed lifecycle flag changes.
type Transition int

const (
	SoftDelete Transition = iota + 1
	Restore
	Disable
	Activate
)

func (t Transition) String() string {
	switch t {
	case SoftDelete:
		return "soft_delete"
	case Restore:
		return "restore"
	case Disable:
		return "disable"
	case Activate:
		return "activate"
	default:
		return fmt.Sprintf("transition(%d)", int(t))
	}
}

func ParseTransition(s string) (Transition, error) {
	switch s {
	case "soft_delete":
		return SoftDelete, nil
	case "restore":
		return Restore, nil
	case "disable":
		return Disable, nil
	case "activate":
		return Activate, nil
	default:
		return 0, core.ValidationError(fmt.Sprintf("Unsupported transition '%s'", s))
	}
}

// assignments returns the SET fragments for t. actor is the placeholder
// bound to the acting user id.
func (t Transition) assignments(actor string) []string {
	switch t {
	case SoftDelete:
		return []string{
			"is_deleted = TRUE",
			"is_active = FALSE",
			"deleted_at = NOW()",
			"deleted_by = " + actor,
		}
	case Restore:
		return []string{
			"is_deleted = FALSE",
			"is_active = TRUE",
			"deleted_at = NULL",
			"deleted_by = NULL",
		}
	case Disable:
		return []string{"is_active = FALSE"}
	case Activate:
		return []string{"is_active = TRUE"}
	default:
		return nil
	}
}

func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", core.ValidationError("Invalid document identifier")
	}
	return parsed.String(), nil
}
