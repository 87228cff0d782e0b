// Package units converts between the ledger's native integer unit (wei)
// and the 18-decimal display unit (ether).
package units

import (
	"errors"
	"math/big"
	"strings"
)

// Decimals is the fixed-point scale of the chain's native currency.
const Decimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ErrInvalidAmount is returned by ParseEther for malformed input.
var ErrInvalidAmount = errors.New("invalid ether amount")

// FormatEther renders wei as a decimal ether string without trailing
// zeros, e.g. 10000000000000000 -> "0.01" and 2 ether -> "2.0".  A nil
// value renders as "0.0".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)
	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))

	fs := frac.String()
	fs = strings.Repeat("0", Decimals-len(fs)) + fs
	fs = strings.TrimRight(fs, "0")
	if fs == "" {
		fs = "0"
	}
	out := whole.String() + "." + fs
	if neg {
		out = "-" + out
	}
	return out
}

// ParseEther parses a non-negative decimal ether string into wei.  More
// than 18 fractional digits is an error rather than a silent rounding.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return nil, ErrInvalidAmount
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return nil, ErrInvalidAmount
	}
	digits := whole + frac + strings.Repeat("0", Decimals-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

// TotalPrice returns price * count.  This is the exact payment value a
// purchase of count seats must carry.
func TotalPrice(price *big.Int, count int) *big.Int {
	if price == nil || count <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Mul(price, big.NewInt(int64(count)))
}
