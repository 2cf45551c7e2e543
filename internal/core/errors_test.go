// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", NotFoundError("Product not found"), http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("load: %w", ErrAlreadyExists), http.StatusConflict},
		{"validation", ValidationError("bad"), http.StatusUnprocessableEntity},
		{"forbidden", ForbiddenError(""), http.StatusForbidden},
		{"gateway", fmt.Errorf("paystack: %w", ErrGateway), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestJSONError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantCode   string
	}{
		{
			name:       "client error keeps message",
			err:        NotFoundError("Payment not found"),
			wantStatus: http.StatusNotFound,
			wantDetail: "Payment not found",
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "gateway detail is hidden",
			err:        fmt.Errorf("%w: secret key rejected", ErrGateway),
			wantStatus: http.StatusBadGateway,
			wantDetail: "Payment gateway unavailable",
			wantCode:   "BAD_GATEWAY",
		},
		{
			name:       "bare sentinel gets a default message",
			err:        fmt.Errorf("lookup: %w", ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSONError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body.Detail)
			}
			assert.NotContains(t, rec.Body.String(), "secret key")
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsDuplicateKeyError(errors.New("other")))
}
