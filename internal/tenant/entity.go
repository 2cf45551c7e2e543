// AngelaMos | 2026
// entity.go

package tenant

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/retail-backend/internal/crud"
)

const (
	TierFree       = "free"
	TierBasic      = "basic"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusTrial     = "trial"
	StatusClosed    = "closed"
)

// Tenant is a customer organization. Tenants are global rows; users and
// tenant scoped resources reference one through company_id.
type Tenant struct {
	crud.Document
	Name                string         `db:"name"                  json:"name"                  validate:"required,min=2,max=100"`
	DisplayName         *string        `db:"display_name"          json:"display_name"          validate:"omitempty,max=100"`
	Description         *string        `db:"description"           json:"description"           validate:"omitempty,max=500"`
	Industry            *string        `db:"industry"              json:"industry"              validate:"omitempty,max=50"`
	Email               *string        `db:"email"                 json:"email"                 validate:"omitempty,email"`
	PhoneNumber         *string        `db:"phone_number"          json:"phone_number"          validate:"omitempty,max=20"`
	Tier                string         `db:"tier"                  json:"tier"                  validate:"omitempty,oneof=free basic pro enterprise"`
	Status              string         `db:"status"                json:"status"                validate:"omitempty,oneof=active suspended trial closed"`
	PlanID              *string        `db:"plan_id"               json:"plan_id"               validate:"omitempty,uuid"`
	Tags                pq.StringArray `db:"tags"                  json:"tags"`
	TrialEndDate        *time.Time     `db:"trial_end_date"        json:"trial_end_date"`
	SubscriptionEndDate *time.Time     `db:"subscription_end_date" json:"subscription_end_date"`
}

func (Tenant) TableName() string         { return "tenants" }
func (Tenant) ModelName() string         { return "Tenant" }
func (Tenant) UniqueFields() []string    { return []string{"name"} }
func (Tenant) TenantScoped() bool        { return false }
func (Tenant) ProtectedFields() []string { return nil }

func (Tenant) Columns() []string {
	return []string{
		"name",
		"display_name",
		"description",
		"industry",
		"email",
		"phone_number",
		"tier",
		"status",
		"plan_id",
		"tags",
		"trial_end_date",
		"subscription_end_date",
	}
}

func (t *Tenant) Values() map[string]any {
	return map[string]any{
		"name":                  t.Name,
		"display_name":          t.DisplayName,
		"description":           t.Description,
		"industry":              t.Industry,
		"email":                 t.Email,
		"phone_number":          t.PhoneNumber,
		"tier":                  t.Tier,
		"status":                t.Status,
		"plan_id":               t.PlanID,
		"tags":                  t.Tags,
		"trial_end_date":        t.TrialEndDate,
		"subscription_end_date": t.SubscriptionEndDate,
	}
}

// Plan is a subscription offering. GatewayPlanCode links it to the payment
// provider once the plan has been created there.
type Plan struct {
	crud.Document
	Name             string          `db:"name"               json:"name"               validate:"required,min=2,max=100"`
	Description      *string         `db:"description"        json:"description"        validate:"omitempty,max=500"`
	Price            decimal.Decimal `db:"price"              json:"price"`
	Currency         string          `db:"currency"           json:"currency"           validate:"required,oneof=USD EUR GBP NGN"`
	Tier             string          `db:"tier"               json:"tier"               validate:"required,oneof=free basic pro enterprise"`
	DurationInDays   int             `db:"duration_in_days"   json:"duration_in_days"   validate:"required,gt=0"`
	Features         pq.StringArray  `db:"features"           json:"features"`
	IsTrialAvailable bool            `db:"is_trial_available" json:"is_trial_available"`
	TrialPeriodDays  *int            `db:"trial_period_days"  json:"trial_period_days"  validate:"omitempty,gt=0"`
	NumberOfUsers    int             `db:"number_of_users"    json:"number_of_users"    validate:"omitempty,gt=0"`
	NumberOfBranches int             `db:"number_of_branches" json:"number_of_branches" validate:"omitempty,gt=0"`
	GatewayPlanCode  *string         `db:"gateway_plan_code"  json:"gateway_plan_code"`
}

func (Plan) TableName() string         { return "plans" }
func (Plan) ModelName() string         { return "Plan" }
func (Plan) UniqueFields() []string    { return []string{"name"} }
func (Plan) TenantScoped() bool        { return false }
func (Plan) ProtectedFields() []string { return nil }

func (Plan) Columns() []string {
	return []string{
		"name",
		"description",
		"price",
		"currency",
		"tier",
		"duration_in_days",
		"features",
		"is_trial_available",
		"trial_period_days",
		"number_of_users",
		"number_of_branches",
		"gateway_plan_code",
	}
}

func (p *Plan) Values() map[string]any {
	return map[string]any{
		"name":               p.Name,
		"description":        p.Description,
		"price":              p.Price,
		"currency":           p.Currency,
		"tier":               p.Tier,
		"duration_in_days":   p.DurationInDays,
		"features":           p.Features,
		"is_trial_available": p.IsTrialAvailable,
		"trial_period_days":  p.TrialPeriodDays,
		"number_of_users":    p.NumberOfUsers,
		"number_of_branches": p.NumberOfBranches,
		"gateway_plan_code":  p.GatewayPlanCode,
	}
}
