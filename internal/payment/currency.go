// AngelaMos | 2026
// currency.go

package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyNGN = "NGN"
)

// minorExponent is the number of minor-unit digits per supported currency.
var minorExponent = map[string]int32{
	CurrencyUSD: 2,
	CurrencyEUR: 2,
	CurrencyGBP: 2,
	CurrencyNGN: 2,
}

// ToMinorUnits converts a major amount to the currency's smallest unit,
// rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	exp, ok := minorExponent[strings.ToUpper(currency)]
	if !ok {
		return 0, core.ValidationError("Unsupported currency")
	}
	return amount.Shift(exp).Round(0).IntPart(), nil
}

func IsSupportedCurrency(currency string) bool {
	_, ok := minorExponent[strings.ToUpper(currency)]
	return ok
}
