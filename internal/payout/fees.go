package payout

import (
	"github.com/shopspring/decimal"
)

// DefaultFeeBps is the instant payout fee, 1.5%.
const DefaultFeeBps uint64 = 150

const (
	bpsDenominatorExp = 4 // 10^4 basis points
	displayPlaces     = 6
)

// Breakdown splits a gross payout into fee and net amounts, in whole asset units.
type Breakdown struct {
	Gross  decimal.Decimal
	Fee    decimal.Decimal
	Net    decimal.Decimal
	FeeBps uint64
}

// Quote computes net = gross × (1 − feeBps/10000). The net amount never goes below zero.
func Quote(gross decimal.Decimal, feeBps uint64) Breakdown {
	fee := gross.Mul(decimal.NewFromUint64(feeBps)).Shift(-bpsDenominatorExp)
	net := gross.Sub(fee)
	if net.Sign() < 0 {
		net = decimal.Zero
	}
	return Breakdown{
		Gross:  gross,
		Fee:    fee,
		Net:    net,
		FeeBps: feeBps,
	}
}

// FeePercent renders basis points as a percentage with two places ("1.50").
func FeePercent(feeBps uint64) string {
	return decimal.NewFromUint64(feeBps).Shift(-2).StringFixed(2)
}

func (b Breakdown) GrossString() string { return b.Gross.StringFixed(displayPlaces) }
func (b Breakdown) FeeString() string   { return b.Fee.StringFixed(displayPlaces) }
func (b Breakdown) NetString() string   { return b.Net.StringFixed(displayPlaces) }
