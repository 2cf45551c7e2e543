// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

type PaymentRepository interface {
	Insert(ctx context.Context, p *Payment) error
	// GetByReference loads a payment. An empty tenantID matches any tenant.
	GetByReference(ctx context.Context, tenantID, reference string) (*Payment, error)
	// SettleInitialized moves an initialized payment to status. It reports
	// false when the payment was not in the initialized state.
	SettleInitialized(
		ctx context.Context,
		reference, status string,
		paidAt *time.Time,
		gatewayResponse string,
	) (bool, error)
	MarkWebhookObserved(ctx context.Context, reference string, at time.Time) error
}

type paymentRepository struct {
	db core.DBTX
}

func NewPaymentRepository(db core.DBTX) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, reference, tenant_id, amount_minor, currency, status, customer_email,
	customer_name, items, authorization_url, access_code, gateway_response,
	paid_at, webhook_received_at, created_at, updated_at`

func (r *paymentRepository) Insert(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (
			reference, tenant_id, amount_minor, currency, status,
			customer_email, customer_name, items, authorization_url, access_code
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.Reference,
		p.TenantID,
		p.AmountMinor,
		p.Currency,
		p.Status,
		p.CustomerEmail,
		p.CustomerName,
		p.Items,
		p.AuthorizationURL,
		p.AccessCode,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return core.AlreadyExistsError("Payment reference already exists")
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetByReference(
	ctx context.Context,
	tenantID, reference string,
) (*Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE reference = $1 AND ($2 = '' OR tenant_id = $2)`

	var p Payment
	err := r.db.GetContext(ctx, &p, query, reference, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("Payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return &p, nil
}

func (r *paymentRepository) SettleInitialized(
	ctx context.Context,
	reference, status string,
	paidAt *time.Time,
	gatewayResponse string,
) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    paid_at = COALESCE($3, paid_at),
		    gateway_response = NULLIF($4, ''),
		    updated_at = NOW()
		WHERE reference = $1 AND status = 'initialized'`

	result, err := r.db.ExecContext(ctx, query, reference, status, paidAt, gatewayResponse)
	if err != nil {
		return false, fmt.Errorf("settle payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("settle payment: %w", err)
	}
	return rows > 0, nil
}

func (r *paymentRepository) MarkWebhookObserved(
	ctx context.Context,
	reference string,
	at time.Time,
) error {
	query := `
		UPDATE payments
		SET webhook_received_at = $2, updated_at = NOW()
		WHERE reference = $1`

	if _, err := r.db.ExecContext(ctx, query, reference, at); err != nil {
		return fmt.Errorf("mark webhook observed: %w", err)
	}
	return nil
}

type SubscriptionRepository interface {
	// Upsert records an incomplete subscription, replacing any earlier
	// attempt for the same tenant and email.
	Upsert(ctx context.Context, s *Subscription) error
	Activate(
		ctx context.Context,
		tenantID, email, authorizationCode, subscriptionCode, emailToken string,
	) error
	Get(ctx context.Context, tenantID, email string) (*Subscription, error)
}

type subscriptionRepository struct {
	db core.DBTX
}

func NewSubscriptionRepository(db core.DBTX) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Upsert(ctx context.Context, s *Subscription) error {
	query := `
		INSERT INTO subscriptions (tenant_id, customer_email, plan_code, status, reference)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, lower(customer_email)) DO UPDATE
		SET plan_code = EXCLUDED.plan_code,
		    status = EXCLUDED.status,
		    reference = EXCLUDED.reference,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		s.TenantID,
		s.CustomerEmail,
		s.PlanCode,
		s.Status,
		s.Reference,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) Activate(
	ctx context.Context,
	tenantID, email, authorizationCode, subscriptionCode, emailToken string,
) error {
	query := `
		UPDATE subscriptions
		SET authorization_code = $3,
		    subscription_code = NULLIF($4, ''),
		    email_token = NULLIF($5, ''),
		    status = 'active',
		    updated_at = NOW()
		WHERE tenant_id = $1 AND lower(customer_email) = lower($2)`

	result, err := r.db.ExecContext(ctx, query,
		tenantID, email, authorizationCode, subscriptionCode, emailToken)
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}
	if rows == 0 {
		return core.NotFoundError("Subscription not found")
	}
	return nil
}

func (r *subscriptionRepository) Get(
	ctx context.Context,
	tenantID, email string,
) (*Subscription, error) {
	query := `
		SELECT id, tenant_id, customer_email, plan_code, status, reference,
		       authorization_code, subscription_code, email_token,
		       created_at, updated_at
		FROM subscriptions
		WHERE tenant_id = $1 AND lower(customer_email) = lower($2)`

	var s Subscription
	err := r.db.GetContext(ctx, &s, query, tenantID, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("Subscription not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}
