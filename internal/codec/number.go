package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ToFloat coerces a loosely typed numeric value to float64. Strings are
// parsed; NaN, infinities, and anything unparseable collapse to 0.
func ToFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case fmt.Stringer:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FloatToString renders a float the way JSON does, with NaN and infinities
// collapsing to "0".
func FloatToString(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// legacyRealRatio is the multiplier historically applied when real-valued
// columns were stored as integers. Decoding divides it back out; the ratio is
// frozen because existing rows depend on it.
const legacyRealRatio = 18

// EncodeLegacyReal stores a numeric value into a legacy integer real column.
func EncodeLegacyReal(v any) int64 {
	return int64(math.Round(ToFloat(v) * legacyRealRatio))
}

// DecodeLegacyReal reads a legacy integer real column back to a float.
func DecodeLegacyReal(stored int64) float64 {
	return float64(stored) / legacyRealRatio
}

// LegacyRealExpr wraps a legacy real column for use inside SQL, undoing the
// storage ratio so comparisons and ordering see the true value.
func LegacyRealExpr(column string) string {
	return fmt.Sprintf("(CAST(%s AS REAL) / %d.0)", column, legacyRealRatio)
}

// EncodeDecimal renders a numeric value as an exact decimal string. Values
// that cannot be interpreted become "0".
func EncodeDecimal(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return "0"
		}
		return d.String()
	default:
		f := ToFloat(v)
		return decimal.NewFromFloat(f).String()
	}
}

// DecodeDecimal parses a stored decimal string. Malformed input yields zero.
func DecodeDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
