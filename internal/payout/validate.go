package payout

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/shopspring/decimal"
)

// AddressLength is the length of a base32 Algorand address with checksum.
const AddressLength = 58

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAssetID = errors.New("Invalid Asset ID")
	ErrInvalidAmount  = errors.New("Invalid amount")
	ErrAmountTooSmall = errors.New("amount is below the smallest asset unit")
	ErrAmountTooLarge = errors.New("amount exceeds the asset range")
)

// Exponent bounds for accepted amounts. 19 places covers every ASA decimals setting.
const (
	minAmountExponent = -19
	maxAmountExponent = 20
	maxAmountLength   = 64
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// ValidAddress reports whether s is a well formed Algorand address.
func ValidAddress(s string) bool {
	if len(s) != AddressLength {
		return false
	}
	_, err := types.DecodeAddress(s)
	return err == nil
}

// ParseAssetID accepts a digit-only, non-zero asset ID.
func ParseAssetID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if !digitsOnly.MatchString(s) {
		return 0, ErrInvalidAssetID
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidAssetID
	}
	return id, nil
}

// ParseAmount accepts a strictly positive decimal amount in whole units.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountLength {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ToBaseUnits converts whole units to base units, truncating below one base unit.
// Results are capped at math.MaxInt64 so they fit a signed SQL integer column.
func ToBaseUnits(amount decimal.Decimal, decimals uint64) (uint64, error) {
	if decimals > 19 {
		return 0, fmt.Errorf("%w: %d decimals", ErrAmountTooLarge, decimals)
	}
	units := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	if units.Sign() <= 0 {
		return 0, ErrAmountTooSmall
	}
	if !units.IsInt64() {
		return 0, ErrAmountTooLarge
	}
	return units.Uint64(), nil
}

// FromBaseUnits renders base units with the asset's decimal places.
func FromBaseUnits(units uint64, decimals uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
	return d.StringFixed(int32(decimals))
}
