// AngelaMos | 2026
// currency_test.go

package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"25.00", "NGN", 2500},
		{"19.99", "usd", 1999},
		{"0.005", "EUR", 1},
		{"0.004", "GBP", 0},
		{"1234.565", "NGN", 123457},
	}

	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.currency, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits_UnsupportedCurrency(t *testing.T) {
	_, err := ToMinorUnits(decimal.NewFromInt(10), "JPY")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "Unsupported currency")
	assert.False(t, IsSupportedCurrency("JPY"))
	assert.True(t, IsSupportedCurrency("ngn"))
}
