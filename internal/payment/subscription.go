// AngelaMos | 2026
// subscription.go

package payment

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

// Subscriptions are always billed in naira.
const subscriptionCurrency = CurrencyNGN

type SubscriptionService struct {
	gateway     Gateway
	repo        SubscriptionRepository
	callbackURL string
	logger      *slog.Logger
}

func NewSubscriptionService(
	gateway Gateway,
	repo SubscriptionRepository,
	callbackURL string,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		gateway:     gateway,
		repo:        repo,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// Start creates the gateway plan when no plan code is given, opens the first
// charge and records an incomplete subscription for the tenant.
func (s *SubscriptionService) Start(
	ctx context.Context,
	tenantID string,
	req StartSubscriptionRequest,
) (*StartSubscriptionResponse, error) {
	if req.AmountMajor == nil || !req.AmountMajor.IsPositive() {
		return nil, core.ValidationError("amount_major must be positive")
	}
	amountMinor, err := ToMinorUnits(*req.AmountMajor, subscriptionCurrency)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))

	planCode := req.PlanCode
	if planCode == "" {
		if req.PlanName == "" || req.Interval == "" {
			return nil, core.ValidationError("plan_name and interval are required without plan_code")
		}
		plan, err := s.gateway.CreatePlan(ctx, req.PlanName, amountMinor, req.Interval)
		if err != nil {
			return nil, err
		}
		planCode = plan.PlanCode
	}

	reference := fmt.Sprintf("sub-%s-%s", tenantID, uuid.NewString())
	auth, err := s.gateway.InitializeTransaction(ctx, InitializeTransaction{
		Email:       email,
		AmountMinor: amountMinor,
		Reference:   reference,
		Currency:    subscriptionCurrency,
		CallbackURL: cmp.Or(req.CallbackURL, s.callbackURL),
		Metadata: map[string]any{
			"type":           MetadataSubscriptionFirst,
			"tenant_id":      tenantID,
			"customer_email": email,
			"plan_code":      planCode,
		},
	})
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		TenantID:      tenantID,
		CustomerEmail: email,
		PlanCode:      planCode,
		Status:        SubscriptionIncomplete,
		Reference:     &reference,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscription started",
		"reference", reference,
		"tenant_id", tenantID,
		"plan_code", planCode,
	)

	return &StartSubscriptionResponse{
		Reference:        reference,
		AuthorizationURL: auth.AuthorizationURL,
		PlanCode:         planCode,
	}, nil
}

// ActivateFromWebhook turns the first successful charge into a recurring
// gateway subscription. The local row must exist before the gateway is called.
func (s *SubscriptionService) ActivateFromWebhook(
	ctx context.Context,
	tenantID, email, planCode, authorizationCode string,
) error {
	if _, err := s.repo.Get(ctx, tenantID, email); err != nil {
		return err
	}

	gs, err := s.gateway.CreateSubscription(ctx, email, planCode, authorizationCode)
	if err != nil {
		return err
	}

	if err := s.repo.Activate(
		ctx, tenantID, email, authorizationCode, gs.SubscriptionCode, gs.EmailToken,
	); err != nil {
		return err
	}

	s.logger.Info("subscription activated",
		"tenant_id", tenantID,
		"plan_code", planCode,
		"subscription_code", gs.SubscriptionCode,
	)
	return nil
}

func (s *SubscriptionService) Status(
	ctx context.Context,
	tenantID, email string,
) (*SubscriptionStatusResponse, error) {
	sub, err := s.repo.Get(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}

	return &SubscriptionStatusResponse{
		TenantID:         sub.TenantID,
		CustomerEmail:    sub.CustomerEmail,
		Status:           sub.Status,
		PlanCode:         sub.PlanCode,
		SubscriptionCode: sub.SubscriptionCode,
	}, nil
}
