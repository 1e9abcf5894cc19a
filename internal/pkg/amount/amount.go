// Package amount parses and formats token amounts.
// Amounts are held as arbitrary-width integers in smallest units
// (10^-Decimals of a token) so arithmetic never rounds.
package amount

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits a token amount carries.
const Decimals = 8

// Amount is a token amount in smallest units.
type Amount struct {
	Units *big.Int
}

// Zero returns a zero amount.
func Zero() Amount {
	return Amount{Units: new(big.Int)}
}

// FromUnits wraps raw smallest units. The big.Int is copied.
func FromUnits(u *big.Int) Amount {
	return Amount{Units: new(big.Int).Set(u)}
}

// Parse converts a plain decimal string ("12", "0.5", "1.00000001") into an
// Amount. It rejects malformed strings, negative values, exponent notation
// and anything more precise than Decimals fractional digits.
func Parse(s string) (Amount, bool) {
	s = strings.TrimSpace(s)
	if !wellFormed(s) {
		return Amount{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, false
	}
	if d.IsNegative() {
		return Amount{}, false
	}

	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return Amount{}, false
	}
	return Amount{Units: shifted.BigInt()}, true
}

// wellFormed restricts input to digits with at most one decimal point.
// decimal.NewFromString is more liberal (signs, exponents) than the amounts
// users are allowed to type.
func wellFormed(s string) bool {
	if s == "" || s == "." {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Display renders the amount as a canonical decimal string without
// trailing fractional zeros.
func (a Amount) Display() string {
	return FormatUnits(a.Units)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.Units == nil || a.Units.Sign() == 0
}

// Cmp compares two amounts like big.Int.Cmp.
func (a Amount) Cmp(b Amount) int {
	return a.Units.Cmp(b.Units)
}

// Add returns a + b as a new Amount.
func (a Amount) Add(b Amount) Amount {
	return Amount{Units: new(big.Int).Add(a.Units, b.Units)}
}

// FormatUnits renders smallest units as a decimal token amount.
func FormatUnits(u *big.Int) string {
	if u == nil {
		return "0"
	}
	return decimal.NewFromBigInt(u, -Decimals).String()
}
