// Package money implements fixed-point monetary arithmetic with two
// fractional digits. All computation happens on decimal values; binary
// floating point is never involved, so amounts survive aggregation without
// representational drift.
package money

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when a parsed amount is below zero.
var ErrNegativeAmount = errors.New("money: amount must not be negative")

// Round2 quantizes a decimal to two fractional digits, rounding half up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal returns the quantized total for one line: Round2(unitPrice × quantity).
// The raw (possibly more precise) unit price is multiplied first and only the
// product is quantized.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum accumulates the values left to right, re-quantizing the running total
// to two digits after every addition. The accumulation order is part of the
// contract: summing first and rounding once can differ by a cent.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = Round2(total.Add(v))
	}
	return total
}

// ParseAmount parses a decimal amount string and rejects negative values.
// Precision beyond two digits is preserved; quantization is the caller's
// decision.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, ErrNegativeAmount
	}
	return d, nil
}

// NumericFromDecimal converts a decimal into a pgtype.Numeric without going
// through a string representation.
func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   new(big.Int).Set(d.Coefficient()),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

// DecimalFromNumeric converts a pgtype.Numeric back into a decimal. Invalid
// or NaN values map to zero.
func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
