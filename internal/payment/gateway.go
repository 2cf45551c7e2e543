// AngelaMos | 2026
// gateway.go

package payment

import (
	"context"
	"time"
)

// Gateway is the outbound payment provider. Implementations return errors
// wrapping core.ErrGateway for every transport or envelope failure.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req InitializeTransaction) (*Authorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*Verification, error)
	CreatePlan(ctx context.Context, name string, amountMinor int64, interval string) (*GatewayPlan, error)
	CreateCustomer(ctx context.Context, email, firstName, lastName string) (*GatewayCustomer, error)
	CreateSubscription(ctx context.Context, customer, planCode, authorizationCode string) (*GatewaySubscription, error)
}

type InitializeTransaction struct {
	Email       string         `json:"email"`
	AmountMinor int64          `json:"amount"`
	Reference   string         `json:"reference"`
	Currency    string         `json:"currency"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Channels    []string       `json:"channels,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

const (
	GatewaySuccess   = "success"
	GatewayFailed    = "failed"
	GatewayAbandoned = "abandoned"
)

type Verification struct {
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	AmountMinor     int64      `json:"amount"`
	Currency        string     `json:"currency"`
	PaidAt          *time.Time `json:"-"`
	GatewayResponse string     `json:"gateway_response"`
}

type GatewayPlan struct {
	PlanCode string `json:"plan_code"`
	Name     string `json:"name"`
	Interval string `json:"interval"`
}

type GatewayCustomer struct {
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email"`
}

type GatewaySubscription struct {
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
	Status           string `json:"status"`
}
