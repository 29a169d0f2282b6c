package shared

import "github.com/shopspring/decimal"

// DecimalPlaces is the scale of every stored quantity, price and amount column
const DecimalPlaces int32 = 4

// CheckScale rejects values that would lose digits when stored.
// Trailing zeros beyond the scale are accepted.
func CheckScale(field string, d decimal.Decimal) error {
	if d.Exponent() >= -DecimalPlaces || d.Equal(d.Truncate(DecimalPlaces)) {
		return nil
	}
	return NewDomainErrorf(CodeInvalidPrecision, "%s %s has more than %d decimal places", field, d.String(), DecimalPlaces)
}
