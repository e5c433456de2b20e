package swap

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string in asset units to base units,
// truncating fractional digits beyond the asset's precision.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FormatAmount renders base units as a decimal string in asset units.
func FormatAmount(x *big.Int, decimals uint8) string {
	if x == nil {
		return "0"
	}
	return decimal.NewFromBigInt(x, -int32(decimals)).String()
}
