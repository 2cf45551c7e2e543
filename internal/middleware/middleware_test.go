// AngelaMos | 2026
// middleware_test.go

package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureRecorder) Record(_ context.Context, entry audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

type stubResolver struct {
	principal *middleware.Principal
	err       error
}

func (s stubResolver) CurrentUser(_ context.Context, _ string) (*middleware.Principal, error) {
	return s.principal, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statusHandler(status int, err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			core.JSONError(w, err)
			return
		}
		w.WriteHeader(status)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorResponse {
	t.Helper()
	var body core.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
}

func TestLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		level  audit.Level
		ok     bool
	}{
		{http.StatusInternalServerError, audit.LevelError, true},
		{http.StatusBadGateway, audit.LevelError, true},
		{http.StatusUnauthorized, audit.LevelSecurity, true},
		{http.StatusForbidden, audit.LevelSecurity, true},
		{http.StatusGone, audit.LevelWarning, true},
		{http.StatusTooManyRequests, audit.LevelWarning, true},
		{http.StatusNotFound, "", false},
		{http.StatusConflict, "", false},
		{http.StatusUnprocessableEntity, "", false},
		{http.StatusOK, "", false},
	}

	for _, tt := range tests {
		level, ok := middleware.LevelForStatus(tt.status)
		assert.Equal(t, tt.ok, ok, "status %d", tt.status)
		assert.Equal(t, tt.level, level, "status %d", tt.status)
	}
}

func TestAuditErrors_RecordsErrorMessage(t *testing.T) {
	recorder := &captureRecorder{}
	h := middleware.AuditErrors(recorder)(statusHandler(0, core.OTPExpiredError()))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify_otp?x=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	require.Len(t, recorder.entries, 1)

	entry := recorder.entries[0]
	assert.Equal(t, audit.LevelWarning, entry.Level)
	assert.Equal(t, "POST", entry.Action)
	assert.Equal(t, "/v1/auth/verify_otp?x=1", entry.Endpoint)
	assert.Equal(t, "OTP has expired", entry.Details["error_msg"])
	assert.Equal(t, http.StatusGone, entry.Details["status_code"])
}

func TestAuditErrors_SkipsRoutineStatuses(t *testing.T) {
	recorder := &captureRecorder{}

	for _, err := range []error{
		core.NotFoundError(""),
		core.AlreadyExistsError("dup"),
		core.ValidationError("bad"),
	} {
		h := middleware.AuditErrors(recorder)(statusHandler(0, err))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	h := middleware.AuditErrors(recorder)(statusHandler(http.StatusOK, nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, recorder.entries)
}

func TestAuditErrors_AttributesAuthenticatedCaller(t *testing.T) {
	recorder := &captureRecorder{}
	principal := &middleware.Principal{UserID: "u-1", CompanyID: "c-1"}

	chain := middleware.AuditErrors(recorder)(
		middleware.Authenticator(stubResolver{principal: principal})(
			statusHandler(0, errAlwaysBoom),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/regions", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec).Detail)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, audit.LevelError, recorder.entries[0].Level)
	assert.Equal(t, "u-1", recorder.entries[0].UserID)
	assert.Equal(t, "c-1", recorder.entries[0].CompanyID)
}

var errAlwaysBoom = assert.AnError

func TestAuthenticator(t *testing.T) {
	principal := &middleware.Principal{UserID: "u-1", CompanyID: "c-1", Role: "admin"}

	t.Run("missing token", func(t *testing.T) {
		h := middleware.Authenticator(stubResolver{principal: principal})(statusHandler(http.StatusOK, nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Could not validate credentials", decodeError(t, rec).Detail)
	})

	t.Run("revoked token", func(t *testing.T) {
		h := middleware.Authenticator(stubResolver{err: core.TokenRevokedError()})(statusHandler(http.StatusOK, nil))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Token revoked", decodeError(t, rec).Detail)
	})

	t.Run("attaches principal", func(t *testing.T) {
		var got *middleware.Principal
		h := middleware.Authenticator(stubResolver{principal: principal})(
			http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = middleware.GetPrincipal(r.Context())
			}),
		)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer abc")
		h.ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, got)
		assert.Equal(t, "u-1", got.UserID)
	})
}

func withPrincipal(p *middleware.Principal, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
	})
}

func TestRequirePermissions(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		want        int
	}{
		{"super admin bypass", []string{"super_admin"}, http.StatusOK},
		{"any intersection", []string{"region:edit"}, http.StatusOK},
		{"no intersection", []string{"brand:view"}, http.StatusForbidden},
		{"wildcard", []string{"*"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &captureRecorder{}
			guard := middleware.NewGuard(recorder)
			p := &middleware.Principal{UserID: "u-1", CompanyID: "c-1", Permissions: tt.permissions}

			h := withPrincipal(p, guard.RequirePermissions("region:view", "region:edit")(statusHandler(http.StatusOK, nil)))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/regions", nil))

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "Requires any of: region:view, region:edit", decodeError(t, rec).Detail)
				require.Len(t, recorder.entries, 1)
				assert.Equal(t, audit.LevelSecurity, recorder.entries[0].Level)
				assert.Equal(t, []string{"region:view", "region:edit"}, recorder.entries[0].Details["required"])
			} else {
				assert.Empty(t, recorder.entries)
			}
		})
	}
}

func TestRequireRolesOrPermissions(t *testing.T) {
	tests := []struct {
		name      string
		principal middleware.Principal
		want      int
	}{
		{"wildcard", middleware.Principal{Permissions: []string{"*"}}, http.StatusOK},
		{"super admin", middleware.Principal{Permissions: []string{"super_admin"}}, http.StatusOK},
		{"role match", middleware.Principal{Role: "manager"}, http.StatusOK},
		{"permission match", middleware.Principal{Permissions: []string{"role:view"}}, http.StatusOK},
		{"denied", middleware.Principal{Role: "cashier", Permissions: []string{"sale:create"}}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := middleware.NewGuard(&captureRecorder{})
			p := tt.principal
			h := withPrincipal(&p, guard.RequireRolesOrPermissions("manager", "role:view")(statusHandler(http.StatusOK, nil)))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "You do not have the required privileges", decodeError(t, rec).Detail)
			}
		})
	}
}

func TestGuard_DenialAuditedOnce(t *testing.T) {
	recorder := &captureRecorder{}
	guard := middleware.NewGuard(recorder)
	p := &middleware.Principal{UserID: "u-1"}

	h := middleware.AuditErrors(recorder)(
		withPrincipal(p, guard.RequirePermissions("brand:delete")(statusHandler(http.StatusOK, nil))),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/brands/1/permanently", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "permission_denied", recorder.entries[0].Details["event"])
}

func TestRecoverer(t *testing.T) {
	h := middleware.Recoverer(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec).Detail)
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://pos.example"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	})(statusHandler(http.StatusOK, nil))

	req := httptest.NewRequest(http.MethodOptions, "/v1/regions", nil)
	req.Header.Set("Origin", "https://pos.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://pos.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/v1/regions", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	rl := middleware.NewRateLimiter(nil, middleware.RateLimitConfig{
		Limit:   middleware.PerMinute(1, 1),
		KeyFunc: middleware.KeyByIPAndEndpoint,
	})
	h := rl.Handler(statusHandler(http.StatusOK, nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
}

func TestHTTPMetrics_CountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewHTTPMetrics(reg)

	h := m.Handler(statusHandler(http.StatusTeapot, nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	count, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRateLimiter_SkipPaths(t *testing.T) {
	rl := middleware.NewRateLimiter(nil, middleware.RateLimitConfig{
		Limit:     middleware.PerMinute(1, 1),
		SkipPaths: []string{"/webhooks/", ""},
	})
	h := rl.Handler(statusHandler(http.StatusOK, nil))

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", nil)
		req.RemoteAddr = "10.0.0.2:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestKeyByIPAndEndpoint_CollapsesIDs(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/v1/products/42", nil)
	b := httptest.NewRequest(http.MethodGet, "/v1/products/3f2b8c1e-1d2a-4b7c-9e0f-123456789abc", nil)
	a.Header.Set("X-Forwarded-For", "1.1.1.1, 10.0.0.9")
	b.Header.Set("X-Forwarded-For", "10.0.0.9")

	assert.Equal(t, middleware.KeyByIPAndEndpoint(a), middleware.KeyByIPAndEndpoint(b))
	assert.Equal(t, "ratelimit:ip:10.0.0.9:endpoint:/v1/products/{id}", middleware.KeyByIPAndEndpoint(a))
}
