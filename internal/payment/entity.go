// AngelaMos | 2026
// entity.go

package payment

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	StatusInitialized = "initialized"
	StatusPaid        = "paid"
	StatusFailed      = "failed"
	StatusAbandoned   = "abandoned"
	StatusCancelled   = "cancelled"
	StatusRefunded    = "refunded"
)

const (
	SubscriptionIncomplete = "incomplete"
	SubscriptionActive     = "active"
	SubscriptionTrialing   = "trialing"
	SubscriptionPastDue    = "past_due"
	SubscriptionCanceled   = "canceled"
)

// Metadata types the webhook dispatches on.
const (
	MetadataPOSPayment        = "pos_payment"
	MetadataSubscriptionFirst = "subscription_first_charge"
)

type Payment struct {
	ID                string         `db:"id"                  json:"id"`
	Reference         string         `db:"reference"           json:"reference"`
	TenantID          string         `db:"tenant_id"           json:"tenant_id"`
	AmountMinor       int64          `db:"amount_minor"        json:"amount_minor"`
	Currency          string         `db:"currency"            json:"currency"`
	Status            string         `db:"status"              json:"status"`
	CustomerEmail     string         `db:"customer_email"      json:"customer_email"`
	CustomerName      *string        `db:"customer_name"       json:"customer_name,omitempty"`
	Items             types.JSONText `db:"items"               json:"items"`
	AuthorizationURL  *string        `db:"authorization_url"   json:"authorization_url,omitempty"`
	AccessCode        *string        `db:"access_code"         json:"access_code,omitempty"`
	GatewayResponse   *string        `db:"gateway_response"    json:"gateway_response,omitempty"`
	PaidAt            *time.Time     `db:"paid_at"             json:"paid_at,omitempty"`
	WebhookReceivedAt *time.Time     `db:"webhook_received_at" json:"webhook_received_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"          json:"updated_at"`
}

type Subscription struct {
	ID                string    `db:"id"                 json:"id"`
	TenantID          string    `db:"tenant_id"          json:"tenant_id"`
	CustomerEmail     string    `db:"customer_email"     json:"customer_email"`
	PlanCode          string    `db:"plan_code"          json:"plan_code"`
	Status            string    `db:"status"             json:"status"`
	Reference         *string   `db:"reference"          json:"reference,omitempty"`
	AuthorizationCode *string   `db:"authorization_code" json:"-"`
	SubscriptionCode  *string   `db:"subscription_code"  json:"subscription_code,omitempty"`
	EmailToken        *string   `db:"email_token"        json:"-"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"         json:"updated_at"`
}
