// Package currency converts between integer cent amounts and the decimal
// strings shown to users and accepted by the marketplace API.
package currency

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string is not a valid currency value.
var ErrInvalidAmount = errors.New("currency: invalid amount")

// FormatCents renders cents as a base-10 decimal string of whole units,
// without trailing zeros: 12345 -> "123.45", 1050 -> "10.5", 1000 -> "10".
func FormatCents(cents int) string {
	return decimal.New(int64(cents), -2).String()
}

// ParseCents converts a display amount such as "12.34" or "12,3" into cents.
// At most two decimal places are accepted, and either '.' or ',' may separate them.
func ParseCents(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.Count(value, ".")+strings.Count(value, ",") > 1 {
		return 0, ErrInvalidAmount
	}
	value = strings.Replace(value, ",", ".", 1)

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return 0, ErrInvalidAmount
	}
	return int(amount.Shift(2).IntPart()), nil
}
