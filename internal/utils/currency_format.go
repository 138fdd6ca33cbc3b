package utils

import (
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with a fixed number of decimal places followed by the currency code.
// Example: 33.35 with EUR and 2 places returns "33.35 EUR".
func FormatMoney(amount decimal.Decimal, currencyCode string, places int32) string {
	s := amount.StringFixed(places)
	if currencyCode == "" {
		return s
	}
	return s + " " + currencyCode
}
