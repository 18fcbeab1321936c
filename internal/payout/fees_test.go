package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name   string
		gross  string
		feeBps uint64
		fee    string
		net    string
	}{
		{name: "default_fee", gross: "1000", feeBps: DefaultFeeBps, fee: "15.000000", net: "985.000000"},
		{name: "fractional", gross: "12.345678", feeBps: DefaultFeeBps, fee: "0.185185", net: "12.160493"},
		{name: "zero_fee", gross: "5", feeBps: 0, fee: "0.000000", net: "5.000000"},
		{name: "full_fee", gross: "5", feeBps: 10000, fee: "5.000000", net: "0.000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Quote(decimal.RequireFromString(tt.gross), tt.feeBps)
			assert.Equal(t, tt.fee, b.FeeString())
			assert.Equal(t, tt.net, b.NetString())
			assert.Equal(t, tt.feeBps, b.FeeBps)
		})
	}
}

func TestQuote_NetMatchesFormula(t *testing.T) {
	gross := decimal.RequireFromString("250.5")
	b := Quote(gross, 275)

	want := gross.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromInt(275).Div(decimal.NewFromInt(10000))))
	assert.True(t, want.Equal(b.Net), "net %s != %s", b.Net, want)
	assert.True(t, b.Gross.Equal(b.Fee.Add(b.Net)))
}

func TestFeePercent(t *testing.T) {
	assert.Equal(t, "1.50", FeePercent(DefaultFeeBps))
	assert.Equal(t, "0.00", FeePercent(0))
	assert.Equal(t, "100.00", FeePercent(10000))
}
