// AngelaMos | 2026
// handler_test.go

package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/payment"
)

const testSecret = "sk_test_webhook"

type memoryEvents struct {
	recorded map[string]Event
	finished map[string]error
	failWith error
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{recorded: map[string]Event{}, finished: map[string]error{}}
}

func (m *memoryEvents) Record(_ context.Context, e Event) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	if _, ok := m.recorded[e.Key]; ok {
		return false, nil
	}
	m.recorded[e.Key] = e
	return true, nil
}

func (m *memoryEvents) Finish(_ context.Context, key string, processingErr error) error {
	m.finished[key] = processingErr
	return nil
}

type fakePayments struct {
	observed  []string
	verified  []string
	verifyErr error
}

func (f *fakePayments) MarkWebhookObserved(_ context.Context, reference string) error {
	f.observed = append(f.observed, reference)
	return nil
}

func (f *fakePayments) Verify(_ context.Context, tenantID, reference string) (*payment.VerifyResponse, error) {
	if tenantID != "" {
		return nil, errors.New("webhook verification must not be tenant scoped")
	}
	f.verified = append(f.verified, reference)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &payment.VerifyResponse{Reference: reference, Status: payment.GatewaySuccess}, nil
}

type fakeSubscriptions struct {
	activated []string
}

func (f *fakeSubscriptions) ActivateFromWebhook(
	_ context.Context,
	tenantID, email, planCode, authorizationCode string,
) error {
	f.activated = append(f.activated, strings.Join([]string{tenantID, email, planCode, authorizationCode}, "|"))
	return nil
}

type harness struct {
	events   *memoryEvents
	payments *fakePayments
	subs     *fakeSubscriptions
	registry *prometheus.Registry
	router   http.Handler
}

func newHarness(t *testing.T, secret string) *harness {
	t.Helper()

	h := &harness{
		events:   newMemoryEvents(),
		payments: &fakePayments{},
		subs:     &fakeSubscriptions{},
		registry: prometheus.NewRegistry(),
	}

	r := chi.NewRouter()
	NewHandler(
		secret,
		h.events,
		h.payments,
		h.subs,
		NewMetrics(h.registry),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).RegisterRoutes(r)
	h.router = r
	return h
}

func (h *harness) deliver(body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) count(outcome string) float64 {
	families, _ := h.registry.Gather()
	for _, mf := range families {
		if mf.GetName() != "webhook_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

const posCharge = `{"event":"charge.success","data":{"id":302961,"reference":"tenant-1-abc",
	"metadata":{"type":"pos_payment","tenant_id":"tenant-1"},"paid_at":"2026-03-01T10:15:00Z"}}`

func TestWebhook_PosPaymentIsVerified(t *testing.T) {
	h := newHarness(t, testSecret)

	rec := h.deliver(posCharge, Sign(testSecret, []byte(posCharge)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, []string{"tenant-1-abc"}, h.payments.observed)
	assert.Equal(t, []string{"tenant-1-abc"}, h.payments.verified)

	event, ok := h.events.recorded["302961"]
	require.True(t, ok)
	assert.Equal(t, "charge.success", event.Type)
	assert.Equal(t, "tenant-1-abc", event.Reference)
	assert.NoError(t, h.events.finished["302961"])
	assert.Equal(t, float64(1), h.count(outcomeProcessed))
}

func TestWebhook_DuplicateDeliveryIsAcknowledged(t *testing.T) {
	h := newHarness(t, testSecret)
	signature := Sign(testSecret, []byte(posCharge))

	require.Equal(t, http.StatusOK, h.deliver(posCharge, signature).Code)

	rec := h.deliver(posCharge, signature)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"duplicate"}`, rec.Body.String())
	assert.Len(t, h.payments.verified, 1)
	assert.Equal(t, float64(1), h.count(outcomeDuplicate))
}

func TestWebhook_SubscriptionFirstChargeActivates(t *testing.T) {
	h := newHarness(t, testSecret)
	body := `{"event":"charge.success","data":{"reference":"sub-tenant-1-x",
		"metadata":"{\"type\":\"subscription_first_charge\",\"tenant_id\":\"tenant-1\",\"plan_code\":\"PLN_gold\"}",
		"authorization":{"authorization_code":"AUTH_1"},
		"customer":{"email":"owner@shop.test"}}}`

	rec := h.deliver(body, Sign(testSecret, []byte(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"tenant-1|owner@shop.test|PLN_gold|AUTH_1"}, h.subs.activated)
	assert.Empty(t, h.payments.verified)
	_, ok := h.events.recorded["sub-tenant-1-x"]
	assert.True(t, ok, "reference is the key when the event has no id")
}

func TestWebhook_SubscriptionChargeMissingFieldsIsSkipped(t *testing.T) {
	h := newHarness(t, testSecret)
	body := `{"event":"charge.success","data":{"reference":"sub-tenant-1-y",
		"metadata":{"type":"subscription_first_charge","tenant_id":"tenant-1"},
		"customer":{"email":"owner@shop.test"}}}`

	rec := h.deliver(body, Sign(testSecret, []byte(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.subs.activated)
}

func TestWebhook_ProcessingErrorIsRecorded(t *testing.T) {
	h := newHarness(t, testSecret)
	h.payments.verifyErr = fmt.Errorf("%w: HTTP 503", core.ErrGateway)

	rec := h.deliver(posCharge, Sign(testSecret, []byte(posCharge)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	procErr := h.events.finished["302961"]
	require.Error(t, procErr)
	assert.ErrorIs(t, procErr, core.ErrGateway)
	assert.Equal(t, float64(1), h.count(outcomeFailed))
}

func TestWebhook_OtherEventsAreStoredOnly(t *testing.T) {
	h := newHarness(t, testSecret)
	body := `{"event":"transfer.success","data":{"id":"evt_9","reference":"t-1"}}`

	rec := h.deliver(body, Sign(testSecret, []byte(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.payments.observed)
	_, ok := h.events.recorded["evt_9"]
	assert.True(t, ok)
}

func TestWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		body      string
		signature func(body string) string
		status    int
		detail    string
		outcome   string
	}{
		{
			name:      "missing signature",
			secret:    testSecret,
			body:      posCharge,
			signature: func(string) string { return "" },
			status:    http.StatusUnauthorized,
			detail:    "Missing signature",
			outcome:   outcomeMissingSignature,
		},
		{
			name:      "secret not configured",
			secret:    "",
			body:      posCharge,
			signature: func(b string) string { return Sign("anything", []byte(b)) },
			status:    http.StatusInternalServerError,
			detail:    "Webhook secret not configured",
			outcome:   outcomeMisconfigured,
		},
		{
			name:      "wrong secret",
			secret:    testSecret,
			body:      posCharge,
			signature: func(b string) string { return Sign("sk_other", []byte(b)) },
			status:    http.StatusUnauthorized,
			detail:    "Invalid webhook signature",
			outcome:   outcomeInvalidSignature,
		},
		{
			name:      "invalid json",
			secret:    testSecret,
			body:      `{"event":`,
			signature: func(b string) string { return Sign(testSecret, []byte(b)) },
			status:    http.StatusBadRequest,
			detail:    "Invalid payload",
			outcome:   outcomeInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.secret)

			rec := h.deliver(tt.body, tt.signature(tt.body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.detail)
			assert.Empty(t, h.events.recorded)
			assert.Equal(t, float64(1), h.count(tt.outcome))
		})
	}
}

func TestWebhook_TamperedBodyIsNeverParsed(t *testing.T) {
	h := newHarness(t, testSecret)
	signature := Sign(testSecret, []byte(posCharge))
	tampered := strings.Replace(posCharge, "tenant-1-abc", "tenant-2-abc", 1)

	rec := h.deliver(tampered, signature)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, h.payments.observed)
}

func TestWebhook_OversizedBody(t *testing.T) {
	h := newHarness(t, testSecret)
	body := `{"event":"charge.success","pad":"` + string(bytes.Repeat([]byte("x"), maxBodyBytes)) + `"}`

	rec := h.deliver(body, Sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, h.events.recorded)
}

func TestWebhook_StoreFailureIsServerError(t *testing.T) {
	h := newHarness(t, testSecret)
	h.events.failWith = errors.New("connection refused")

	rec := h.deliver(posCharge, Sign(testSecret, []byte(posCharge)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, h.payments.observed)
}

func TestEnvelopeKey(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"event":"charge.success","data":{"id":42,"reference":"r"}}`, "42"},
		{`{"event":"charge.success","data":{"id":"evt_1","reference":"r"}}`, "evt_1"},
		{`{"event":"charge.success","data":{"reference":"r"}}`, "r"},
		{`{"event":"charge.success","data":null}`, "charge.success:"},
		{`{"event":"charge.success","data":"odd"}`, "charge.success:"},
	}

	for _, tt := range tests {
		env, err := decodeEnvelope([]byte(tt.body))
		require.NoError(t, err)
		assert.Equal(t, tt.want, env.key(), tt.body)
	}
}
