// AngelaMos | 2026
// entity.go

package organization

import (
	"strings"

	"github.com/carterperez-dev/retail-backend/internal/crud"
)

type Region struct {
	crud.Document
	Name      string  `db:"name"       json:"name"       validate:"required,max=100"`
	Code      string  `db:"code"       json:"code"       validate:"required,alphanum,max=20"`
	CountryID *string `db:"country_id" json:"country_id" validate:"omitempty,uuid"`
}

func (Region) TableName() string         { return "regions" }
func (Region) ModelName() string         { return "Region" }
func (Region) Columns() []string         { return []string{"name", "code", "country_id"} }
func (Region) UniqueFields() []string    { return []string{"name", "code"} }
func (Region) TenantScoped() bool        { return true }
func (Region) ProtectedFields() []string { return nil }

func (r *Region) Values() map[string]any {
	return map[string]any{
		"name":       r.Name,
		"code":       r.Code,
		"country_id": r.CountryID,
	}
}

type Branch struct {
	crud.Document
	Name     string  `db:"name"      json:"name"      validate:"required,max=100"`
	Code     string  `db:"code"      json:"code"      validate:"required,alphanum,max=20"`
	RegionID *string `db:"region_id" json:"region_id" validate:"omitempty,uuid"`
	Address  *string `db:"address"   json:"address"   validate:"omitempty,max=255"`
	Phone    *string `db:"phone"     json:"phone"     validate:"omitempty,max=32"`
}

func (Branch) TableName() string         { return "branches" }
func (Branch) ModelName() string         { return "Branch" }
func (Branch) UniqueFields() []string    { return []string{"name", "code"} }
func (Branch) TenantScoped() bool        { return true }
func (Branch) ProtectedFields() []string { return nil }

func (Branch) Columns() []string {
	return []string{"name", "code", "region_id", "address", "phone"}
}

func (b *Branch) Values() map[string]any {
	return map[string]any{
		"name":      b.Name,
		"code":      b.Code,
		"region_id": b.RegionID,
		"address":   b.Address,
		"phone":     b.Phone,
	}
}

func (r *Region) upperCaseCode() { r.Code = normalizeCode(r.Code) }
func (b *Branch) upperCaseCode() { b.Code = normalizeCode(b.Code) }

// normalizeCode stores codes upper-cased so "ng" and "NG" collide.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
