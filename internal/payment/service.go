// AngelaMos | 2026
// service.go

package payment

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

type PaymentService struct {
	gateway     Gateway
	repo        PaymentRepository
	callbackURL string
	logger      *slog.Logger
	now         func() time.Time
}

func NewPaymentService(
	gateway Gateway,
	repo PaymentRepository,
	callbackURL string,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		repo:        repo,
		callbackURL: callbackURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Initialize opens a checkout with the gateway and records the payment as
// initialized. Nothing is stored when the gateway call fails.
func (s *PaymentService) Initialize(
	ctx context.Context,
	tenantID string,
	req InitializeRequest,
) (*InitializeResponse, error) {
	if len(req.Items) == 0 {
		return nil, core.ValidationError("Cart items cannot be empty")
	}

	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.Total())
	}

	currency := strings.ToUpper(req.Currency)
	amountMinor, err := ToMinorUnits(total, currency)
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = fmt.Sprintf("%s-%s", tenantID, uuid.NewString())
	}

	items, err := json.Marshal(req.Items)
	if err != nil {
		return nil, fmt.Errorf("encode cart items: %w", err)
	}

	customer := map[string]any{"email": req.CustomerEmail}
	if req.CustomerName != nil {
		customer["name"] = *req.CustomerName
	}

	metadata := make(map[string]any, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["type"] = MetadataPOSPayment
	metadata["tenant_id"] = tenantID
	metadata["customer"] = customer
	metadata["items"] = req.Items

	auth, err := s.gateway.InitializeTransaction(ctx, InitializeTransaction{
		Email:       req.CustomerEmail,
		AmountMinor: amountMinor,
		Reference:   reference,
		Currency:    currency,
		CallbackURL: cmp.Or(req.CallbackURL, s.callbackURL),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	p := &Payment{
		Reference:        reference,
		TenantID:         tenantID,
		AmountMinor:      amountMinor,
		Currency:         currency,
		Status:           StatusInitialized,
		CustomerEmail:    req.CustomerEmail,
		CustomerName:     req.CustomerName,
		Items:            types.JSONText(items),
		AuthorizationURL: nullable(auth.AuthorizationURL),
		AccessCode:       nullable(auth.AccessCode),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("payment initialized",
		"reference", reference,
		"tenant_id", tenantID,
		"amount_minor", amountMinor,
		"currency", currency,
	)

	return &InitializeResponse{
		Reference:        reference,
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
	}, nil
}

// Verify asks the gateway for the transaction outcome and settles the local
// row when it is still initialized. tenantID scopes the lookup; an empty
// tenantID is used by the webhook, which has no caller.
func (s *PaymentService) Verify(
	ctx context.Context,
	tenantID, reference string,
) (*VerifyResponse, error) {
	if tenantID != "" {
		if _, err := s.repo.GetByReference(ctx, tenantID, reference); err != nil {
			return nil, err
		}
	}

	v, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case GatewaySuccess:
		paidAt := v.PaidAt
		if paidAt == nil {
			now := s.now().UTC()
			paidAt = &now
		}
		v.PaidAt = paidAt
		err = s.settle(ctx, reference, StatusPaid, paidAt, v.GatewayResponse)
	case GatewayFailed:
		err = s.settle(ctx, reference, StatusFailed, nil, v.GatewayResponse)
	}
	if err != nil {
		return nil, err
	}

	currency := v.Currency
	if currency == "" {
		currency = CurrencyNGN
	}

	return &VerifyResponse{
		Reference:       reference,
		Status:          v.Status,
		AmountMinor:     v.AmountMinor,
		Currency:        currency,
		PaidAt:          v.PaidAt,
		GatewayResponse: v.GatewayResponse,
	}, nil
}

func (s *PaymentService) settle(
	ctx context.Context,
	reference, status string,
	paidAt *time.Time,
	gatewayResponse string,
) error {
	settled, err := s.repo.SettleInitialized(ctx, reference, status, paidAt, gatewayResponse)
	if err != nil {
		return err
	}
	if !settled {
		s.logger.Debug("payment already settled", "reference", reference, "status", status)
	}
	return nil
}

func (s *PaymentService) MarkWebhookObserved(ctx context.Context, reference string) error {
	return s.repo.MarkWebhookObserved(ctx, reference, s.now().UTC())
}

func (s *PaymentService) Get(ctx context.Context, tenantID, reference string) (*Payment, error) {
	return s.repo.GetByReference(ctx, tenantID, reference)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
