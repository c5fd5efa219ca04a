package codec

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEncodeJSON(t *testing.T) {
	assert.Equal(t, `["a","b"]`, EncodeJSON([]string{"a", "b"}))
	assert.Equal(t, "null", EncodeJSON(nil))
	assert.Equal(t, "null", EncodeJSON(math.NaN()))
}

func TestDecodeJSONSlice(t *testing.T) {
	testCases := []struct {
		name   string
		stored string
		want   []string
	}{
		{"valid array", `["binance","okx"]`, []string{"binance", "okx"}},
		{"empty string", "", nil},
		{"malformed", `{"not":`, nil},
		{"wrong shape", `{"a":1}`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeJSONSlice[string](tc.stored))
		})
	}
}

func TestDecodeJSONObject(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	assert.Equal(t, payload{Name: "uniswap"}, DecodeJSONObject[payload](`{"name":"uniswap"}`))
	assert.Equal(t, payload{}, DecodeJSONObject[payload](""))
	assert.Equal(t, payload{}, DecodeJSONObject[payload]("not json"))
}

func TestToFloat(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 1.5, 1.5},
		{"int", 7, 7},
		{"numeric string", "42.25", 42.25},
		{"garbage string", "12abc", 0},
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"nan", math.NaN(), 0},
		{"positive inf", math.Inf(1), 0},
		{"bool", true, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToFloat(tc.in))
		})
	}
}

func TestLegacyRealRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 0.5, 123.25, -4.75} {
		stored := EncodeLegacyReal(v)
		got := DecodeLegacyReal(stored)
		assert.InDelta(t, v, got, 1.0/legacyRealRatio, "value %v", v)
	}
}

func TestEncodeLegacyRealCoercion(t *testing.T) {
	assert.Equal(t, int64(18), EncodeLegacyReal("1"))
	assert.Equal(t, int64(0), EncodeLegacyReal("not a number"))
	assert.Equal(t, int64(0), EncodeLegacyReal(math.NaN()))
}

func TestLegacyRealExpr(t *testing.T) {
	assert.Equal(t, "(CAST(usd_value AS REAL) / 18.0)", LegacyRealExpr("usd_value"))
}

func TestDecimalCodec(t *testing.T) {
	assert.Equal(t, "1234567890123456789.000000000000000001", EncodeDecimal("1234567890123456789.000000000000000001"))
	assert.Equal(t, "0", EncodeDecimal("abc"))
	assert.Equal(t, "2.5", EncodeDecimal(2.5))
	assert.Equal(t, "3", EncodeDecimal(decimal.NewFromInt(3)))

	assert.True(t, DecodeDecimal("10.5").Equal(decimal.RequireFromString("10.5")))
	assert.True(t, DecodeDecimal("").IsZero())
	assert.True(t, DecodeDecimal("nope").IsZero())
}

func TestFloatToString(t *testing.T) {
	assert.Equal(t, "1.5", FloatToString(1.5))
	assert.Equal(t, "0", FloatToString(math.NaN()))
	assert.Equal(t, "0", FloatToString(math.Inf(-1)))
}
