// AngelaMos | 2026
// dto.go

package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	SKU       string          `json:"sku,omitempty"`
	Name      string          `json:"name"       validate:"required,max=200"`
	Quantity  int             `json:"quantity"   validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total is quantity times unit price.
func (i CartItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type InitializeRequest struct {
	CustomerEmail string         `json:"customer_email"          validate:"required,email"`
	CustomerName  *string        `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	Currency      string         `json:"currency"                validate:"required,oneof=USD EUR GBP NGN"`
	Items         []CartItem     `json:"items"                   validate:"dive"`
	CallbackURL   string         `json:"callback_url,omitempty"  validate:"omitempty,url"`
	Reference     string         `json:"reference,omitempty"     validate:"omitempty,max=100"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type InitializeResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
}

type VerifyResponse struct {
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	AmountMinor     int64      `json:"amount_minor"`
	Currency        string     `json:"currency"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	GatewayResponse string     `json:"gateway_response,omitempty"`
}

type StartSubscriptionRequest struct {
	CustomerEmail string           `json:"customer_email"         validate:"required,email"`
	PlanCode      string           `json:"plan_code,omitempty"    validate:"omitempty,max=100"`
	PlanName      string           `json:"plan_name,omitempty"    validate:"omitempty,max=200"`
	AmountMajor   *decimal.Decimal `json:"amount_major,omitempty"`
	Interval      string           `json:"interval,omitempty"     validate:"omitempty,oneof=daily weekly monthly quarterly biannually annually"`
	CallbackURL   string           `json:"callback_url,omitempty" validate:"omitempty,url"`
}

type StartSubscriptionResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	PlanCode         string `json:"plan_code"`
}

type SubscriptionStatusResponse struct {
	TenantID         string  `json:"tenant_id"`
	CustomerEmail    string  `json:"customer_email"`
	Status           string  `json:"status"`
	PlanCode         string  `json:"plan_code"`
	SubscriptionCode *string `json:"subscription_code,omitempty"`
}
