// AngelaMos | 2026
// location.go

package organization

import (
	"github.com/carterperez-dev/retail-backend/internal/crud"
)

// Country is shared by every tenant. Regions, areas and states point at it.
type Country struct {
	crud.Document
	Name string `db:"name" json:"name" validate:"required,max=100"`
	Code string `db:"code" json:"code" validate:"required,alpha,min=2,max=3"`
}

func (Country) TableName() string         { return "countries" }
func (Country) ModelName() string         { return "Country" }
func (Country) Columns() []string         { return []string{"name", "code"} }
func (Country) UniqueFields() []string    { return []string{"name", "code"} }
func (Country) TenantScoped() bool        { return false }
func (Country) ProtectedFields() []string { return nil }

func (c *Country) upperCaseCode() { c.Code = normalizeCode(c.Code) }

func (c *Country) Values() map[string]any {
	return map[string]any{
		"name": c.Name,
		"code": c.Code,
	}
}

// Area sits below a region.
type Area struct {
	crud.Document
	Name      string  `db:"name"       json:"name"       validate:"required,max=100"`
	Code      string  `db:"code"       json:"code"       validate:"required,alphanum,max=20"`
	CountryID *string `db:"country_id" json:"country_id" validate:"omitempty,uuid"`
	RegionID  string  `db:"region_id"  json:"region_id"  validate:"required,uuid"`
}

func (Area) TableName() string         { return "areas" }
func (Area) ModelName() string         { return "Area" }
func (Area) UniqueFields() []string    { return []string{"name", "code"} }
func (Area) TenantScoped() bool        { return true }
func (Area) ProtectedFields() []string { return nil }

func (Area) Columns() []string {
	return []string{"name", "code", "country_id", "region_id"}
}

func (a *Area) upperCaseCode() { a.Code = normalizeCode(a.Code) }

func (a *Area) Values() map[string]any {
	return map[string]any{
		"name":       a.Name,
		"code":       a.Code,
		"country_id": a.CountryID,
		"region_id":  a.RegionID,
	}
}

type State struct {
	crud.Document
	Name      string  `db:"name"       json:"name"       validate:"required,max=100"`
	Code      string  `db:"code"       json:"code"       validate:"required,alphanum,max=20"`
	CountryID *string `db:"country_id" json:"country_id" validate:"omitempty,uuid"`
	RegionID  *string `db:"region_id"  json:"region_id"  validate:"omitempty,uuid"`
	AreaID    *string `db:"area_id"    json:"area_id"    validate:"omitempty,uuid"`
}

func (State) TableName() string         { return "states" }
func (State) ModelName() string         { return "State" }
func (State) UniqueFields() []string    { return []string{"name", "code"} }
func (State) TenantScoped() bool        { return true }
func (State) ProtectedFields() []string { return nil }

func (State) Columns() []string {
	return []string{"name", "code", "country_id", "region_id", "area_id"}
}

func (s *State) upperCaseCode() { s.Code = normalizeCode(s.Code) }

func (s *State) Values() map[string]any {
	return map[string]any{
		"name":       s.Name,
		"code":       s.Code,
		"country_id": s.CountryID,
		"region_id":  s.RegionID,
		"area_id":    s.AreaID,
	}
}
