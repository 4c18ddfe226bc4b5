package domain

import "github.com/shopspring/decimal"

// Measurement values are stored as NUMERIC(5,2).
const (
	ValuePrecision = 5
	ValueScale     = 2

	// maxValueDigits caps the coefficient length accepted from clients,
	// trailing zeros included.
	maxValueDigits = 32
)

var valueLimit = decimal.New(1, ValuePrecision-ValueScale)

// NormalizeValue checks that v fits the fixed-point column and returns it
// rounded to ValueScale. Trailing zeros beyond the scale are accepted.
//
// Exponent and coefficient size are checked before any arithmetic: rounding
// and comparison rescale to the smaller exponent, which costs time
// proportional to the exponent.
func NormalizeValue(v decimal.Decimal) (decimal.Decimal, bool) {
	if v.IsZero() {
		return decimal.Zero, true
	}
	exp := v.Exponent()
	if exp > ValuePrecision || exp < -(ValueScale+maxValueDigits) || v.NumDigits() > maxValueDigits {
		return decimal.Decimal{}, false
	}

	r := v.Round(ValueScale)
	if !r.Equal(v) {
		return decimal.Decimal{}, false
	}
	if r.Abs().GreaterThanOrEqual(valueLimit) {
		return decimal.Decimal{}, false
	}
	return r, true
}
