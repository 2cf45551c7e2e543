// AngelaMos | 2026
// handler.go

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/payment"
)

const (
	Path            = "/webhooks/paystack"
	SignatureHeader = "X-Paystack-Signature"
	maxBodyBytes    = 1 << 20
)

type Payments interface {
	MarkWebhookObserved(ctx context.Context, reference string) error
	Verify(ctx context.Context, tenantID, reference string) (*payment.VerifyResponse, error)
}

type Subscriptions interface {
	ActivateFromWebhook(ctx context.Context, tenantID, email, planCode, authorizationCode string) error
}

type Handler struct {
	secret        string
	events        Repository
	payments      Payments
	subscriptions Subscriptions
	metrics       *Metrics
	logger        *slog.Logger
}

func NewHandler(
	secret string,
	events Repository,
	payments Payments,
	subscriptions Subscriptions,
	metrics *Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		secret:        secret,
		events:        events,
		payments:      payments,
		subscriptions: subscriptions,
		metrics:       metrics,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(Path, h.Paystack)
}

// Paystack accepts a signed gateway delivery. Once the signature checks out
// the gateway always gets a 200 so it stops retrying; processing failures
// are kept on the stored event instead.
func (h *Handler) Paystack(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.metrics.observe(outcomeMissingSignature)
		core.Unauthorized(w, "Missing signature")
		return
	}

	if h.secret == "" {
		h.metrics.observe(outcomeMisconfigured)
		h.logger.Error("webhook secret not configured")
		core.JSON(w, http.StatusInternalServerError, core.ErrorResponse{
			Detail: "Webhook secret not configured",
			Code:   "CONFIGURATION_ERROR",
		})
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.metrics.observe(outcomeTooLarge)
			core.JSON(w, http.StatusRequestEntityTooLarge, core.ErrorResponse{
				Detail: "Payload too large",
				Code:   "PAYLOAD_TOO_LARGE",
			})
			return
		}
		h.metrics.observe(outcomeInvalidPayload)
		core.BadRequest(w, "Invalid payload")
		return
	}

	if !validSignature(h.secret, raw, signature) {
		h.metrics.observe(outcomeInvalidSignature)
		h.logger.Warn("webhook signature mismatch", "remote_addr", r.RemoteAddr)
		core.Unauthorized(w, "Invalid webhook signature")
		return
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		h.metrics.observe(outcomeInvalidPayload)
		core.BadRequest(w, "Invalid payload")
		return
	}

	key := env.key()
	ctx, span := core.StartSpan(r.Context(), "webhook.paystack",
		attribute.String("webhook.event", env.Event),
		attribute.String("webhook.key", key),
	)
	defer span.End()

	fresh, err := h.events.Record(ctx, Event{
		Key:       key,
		Type:      env.Event,
		Reference: env.Data.Reference,
		Payload:   raw,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		core.JSONError(w, err)
		return
	}
	if !fresh {
		h.metrics.observe(outcomeDuplicate)
		core.AddSpanEvent(ctx, "webhook.duplicate")
		h.logger.Info("duplicate webhook event", "event_key", key, "event", env.Event)
		core.OK(w, map[string]string{"status": "duplicate"})
		return
	}

	procErr := h.dispatch(ctx, env)
	if procErr != nil {
		core.SetSpanError(ctx, procErr)
		h.metrics.observe(outcomeFailed)
		h.logger.Error("webhook processing failed",
			"event_key", key,
			"event", env.Event,
			"error", procErr,
		)
	} else {
		h.metrics.observe(outcomeProcessed)
	}

	if err := h.events.Finish(ctx, key, procErr); err != nil {
		h.logger.Error("failed to finish webhook event", "event_key", key, "error", err)
	}

	core.OK(w, map[string]string{"status": "ok"})
}

// dispatch runs every applicable branch and joins their failures.
func (h *Handler) dispatch(ctx context.Context, env *envelope) error {
	if env.Event != eventChargeSuccess {
		return nil
	}

	var errs []error
	reference := env.Data.Reference
	md := env.metadata()

	if reference != "" {
		if err := h.payments.MarkWebhookObserved(ctx, reference); err != nil {
			errs = append(errs, fmt.Errorf("mark observed: %w", err))
		}
	}

	switch md.Type {
	case payment.MetadataPOSPayment:
		if reference == "" {
			break
		}
		if _, err := h.payments.Verify(ctx, "", reference); err != nil {
			errs = append(errs, fmt.Errorf("verify payment: %w", err))
		}
	case payment.MetadataSubscriptionFirst:
		authCode := env.Data.Authorization.AuthorizationCode
		email := env.Data.Customer.Email
		if email == "" {
			email = md.CustomerEmail
		}
		if authCode == "" || email == "" || md.PlanCode == "" || md.TenantID == "" {
			h.logger.Warn("subscription charge missing activation fields", "reference", reference)
			break
		}
		if err := h.subscriptions.ActivateFromWebhook(
			ctx, md.TenantID, email, md.PlanCode, authCode,
		); err != nil {
			errs = append(errs, fmt.Errorf("activate subscription: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Sign returns the hex HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
