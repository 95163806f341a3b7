package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed-point layout of Item.Price, matching NUMERIC(10,2).
const (
	PriceMaxDigits     = 10
	PriceDecimalPlaces = 2
)

var errInvalidNumber = errors.New("A valid number is required.")

// ParsePrice parses a decimal literal without rounding it.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errInvalidNumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errInvalidNumber
	}
	return d, nil
}

// CheckPricePrecision returns a message describing why d cannot be stored in
// the fixed price format, or "" when it fits.
func CheckPricePrecision(d decimal.Decimal) string {
	digits := len(d.Coefficient().Text(10))
	if d.Sign() < 0 {
		digits-- // minus sign
	}
	exp := int(d.Exponent())

	var total, places int
	switch {
	case exp >= 0:
		total = digits + exp
		places = 0
	case -exp > digits:
		total = -exp
		places = -exp
	default:
		total = digits
		places = -exp
	}
	whole := total - places

	switch {
	case total > PriceMaxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", PriceMaxDigits)
	case places > PriceDecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceDecimalPlaces)
	case whole > PriceMaxDigits-PriceDecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", PriceMaxDigits-PriceDecimalPlaces)
	}
	return ""
}

// FormatPrice renders a price with exactly two decimal places.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(PriceDecimalPlaces)
}
