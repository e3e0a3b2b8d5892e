// internal/pkg/money/money.go
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
)

// ErrInvalidAmount is returned when a price or quantity fails normalization
var ErrInvalidAmount = apperr.New(apperr.KindInvalidAmount, "invalid_amount", "invalid amount")

// Tolerance is the largest difference at which two monetary values are equal.
// It is only ever applied to money, never to identity comparisons.
var Tolerance = decimal.New(1, -2)

// ParseAmount normalizes a price of unknown representation into a
// non-negative finite decimal.
func ParseAmount(v interface{}) (decimal.Decimal, error) {
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount.WithMessage("amount must not be negative").
			WithDetails(map[string]interface{}{"value": d.String()})
	}
	return d, nil
}

// ParseQuantity normalizes a quantity into an integer. Zero and negative
// values are returned as-is; callers decide whether they mean delete.
func ParseQuantity(v interface{}) (int, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrInvalidAmount.WithMessage("quantity must be a whole number").
			WithDetails(map[string]interface{}{"value": d.String()})
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, ErrInvalidAmount.WithMessage("quantity is out of range").
			WithDetails(map[string]interface{}{"value": d.String()})
	}
	return int(d.IntPart()), nil
}

// PositiveQuantity normalizes a quantity that must be at least one
func PositiveQuantity(v interface{}) (int, error) {
	q, err := ParseQuantity(v)
	if err != nil {
		return 0, err
	}
	if q <= 0 {
		return 0, ErrInvalidAmount.WithMessage("quantity must be positive").
			WithDetails(map[string]interface{}{"value": q})
	}
	return q, nil
}

// Equal reports whether a and b differ by no more than Tolerance
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// LineTotal returns unitPrice × quantity
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, ErrInvalidAmount.WithMessage("amount is missing")
	case decimal.Decimal:
		return t, nil
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, ErrInvalidAmount.WithMessage("amount is missing")
		}
		return *t, nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case uint:
		return decimal.NewFromInt(int64(t)), nil
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	case json.Number:
		return fromString(t.String())
	case string:
		return fromString(t)
	default:
		return decimal.Zero, ErrInvalidAmount.WithMessage("amount has an unsupported type")
	}
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount.WithMessage("amount must be finite")
	}
	return decimal.NewFromFloat(f), nil
}

func fromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount.WithMessage("amount is missing")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount.WithMessage("amount is not a number").
			WithDetails(map[string]interface{}{"value": s})
	}
	return d, nil
}
