// AngelaMos | 2026
// paystack.go

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
)

const (
	defaultPaystackURL = "https://api.paystack.co"
	defaultTimeout     = 15 * time.Second
	maxResponseBytes   = 1 << 20
	errorSnippetBytes  = 600
)

var checkoutChannels = []string{"card", "qr"}

// PaystackClient talks to the Paystack REST API. Calls are never retried.
type PaystackClient struct {
	baseURL string
	secret  string
	http    *http.Client
}

var _ Gateway = (*PaystackClient)(nil)

func NewPaystackClient(cfg config.PaystackConfig) *PaystackClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultPaystackURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &PaystackClient{
		baseURL: baseURL,
		secret:  cfg.SecretKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *PaystackClient) InitializeTransaction(
	ctx context.Context,
	req InitializeTransaction,
) (*Authorization, error) {
	if req.AmountMinor <= 0 {
		return nil, core.ValidationError("amount_minor must be a positive integer in minor units")
	}
	if req.Channels == nil {
		req.Channels = checkoutChannels
	}

	var out Authorization
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTransaction reports the gateway's view of a transaction. An
// unparseable paid_at is dropped rather than failing the call.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	var out struct {
		Verification
		PaidAt string `json:"paid_at"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	v := out.Verification
	if t, err := time.Parse(time.RFC3339, out.PaidAt); err == nil {
		utc := t.UTC()
		v.PaidAt = &utc
	}
	return &v, nil
}

func (c *PaystackClient) CreatePlan(
	ctx context.Context,
	name string,
	amountMinor int64,
	interval string,
) (*GatewayPlan, error) {
	body := map[string]any{"name": name, "amount": amountMinor, "interval": interval}

	var out GatewayPlan
	if err := c.do(ctx, http.MethodPost, "/plan", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PaystackClient) CreateCustomer(
	ctx context.Context,
	email, firstName, lastName string,
) (*GatewayCustomer, error) {
	body := map[string]any{"email": email}
	if firstName != "" {
		body["first_name"] = firstName
	}
	if lastName != "" {
		body["last_name"] = lastName
	}

	var out GatewayCustomer
	if err := c.do(ctx, http.MethodPost, "/customer", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PaystackClient) CreateSubscription(
	ctx context.Context,
	customer, planCode, authorizationCode string,
) (*GatewaySubscription, error) {
	body := map[string]any{
		"customer":      customer,
		"plan":          planCode,
		"authorization": authorizationCode,
	}

	var out GatewaySubscription
	if err := c.do(ctx, http.MethodPost, "/subscription", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request and decodes the envelope's data into out.
func (c *PaystackClient) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := core.StartSpan(ctx, "paystack."+strings.TrimPrefix(path, "/"),
		attribute.String("http.method", method),
	)
	defer span.End()

	err := c.roundTrip(ctx, method, path, body, out)
	if err != nil {
		core.SetSpanError(ctx, err)
	}
	return err
}

func (c *PaystackClient) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode paystack request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", core.ErrGateway, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", core.ErrGateway, err)
	}
	requestID := resp.Header.Get("X-Paystack-Request-Id")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d (req %s): %s",
			core.ErrGateway, resp.StatusCode, requestID, snippet(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: non-JSON response (req %s): %s",
			core.ErrGateway, requestID, snippet(raw))
	}
	if !env.Status {
		return fmt.Errorf("%w: %s (req %s)", core.ErrGateway, env.Message, requestID)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data (req %s)", core.ErrGateway, requestID)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %w", core.ErrGateway, err)
	}
	return nil
}

func snippet(raw []byte) string {
	if len(raw) > errorSnippetBytes {
		raw = raw[:errorSnippetBytes]
	}
	return string(raw)
}
