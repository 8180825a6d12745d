// Package number implements the 1e18 fixed-point ("wad") arithmetic the
// risk math runs on. All operations are unsigned 256-bit with truncating
// integer division; any overflow is reported, never wrapped.
package number

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// WadDecimals fixed point scale
const WadDecimals = 18

// Wad 1e18, the fixed point one
func Wad() *uint256.Int {
	return uint256.NewInt(1e18)
}

var (
	// ErrOverflow result exceeds 256 bits
	ErrOverflow = errors.New("number: overflow")
	// ErrDivisionByZero division by zero
	ErrDivisionByZero = errors.New("number: division by zero")
	// ErrDecimalsTooLarge token decimals beyond the 18 the scale assumes
	ErrDecimalsTooLarge = errors.New("number: token decimals > 18")
	// ErrNotAnAmount string is not an unsigned decimal amount
	ErrNotAnAmount = errors.New("number: not an amount")
)

// MulWad a * b / 1e18, truncating
func MulWad(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, b, Wad())
}

// DivWad a * 1e18 / b, truncating
func DivWad(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, Wad(), b)
}

// MulDiv a * b / d with a full 512-bit intermediate, truncating
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}

	q, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, ErrOverflow
	}

	return q, nil
}

// Normalize scale a balance of the given token decimals up to 18 decimals
func Normalize(balance *uint256.Int, decimals uint8) (*uint256.Int, error) {
	if decimals > WadDecimals {
		return nil, ErrDecimalsTooLarge
	}

	scale := pow10(WadDecimals - decimals)
	scaled, overflow := new(uint256.Int).MulOverflow(balance, scale)
	if overflow {
		return nil, ErrOverflow
	}

	return scaled, nil
}

// NormalizedValue 18-decimal USD value of a raw balance: the balance scaled
// to 18 decimals, times an 18-decimal USD price, over 1e18, truncating.
func NormalizedValue(balance *uint256.Int, decimals uint8, price *uint256.Int) (*uint256.Int, error) {
	scaled, err := Normalize(balance, decimals)
	if err != nil {
		return nil, err
	}

	return MulWad(scaled, price)
}

func pow10(n uint8) *uint256.Int {
	x := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint8(0); i < n; i++ {
		x.Mul(x, ten)
	}

	return x
}

// FromString parse an unsigned base-unit integer string
func FromString(s string) (*uint256.Int, error) {
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, ErrNotAnAmount
	}

	return x, nil
}

// WadFromDecimal lift a human decimal (eg "0.8") to 1e18 fixed point
func WadFromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	shifted := d.Shift(WadDecimals)
	if shifted.IsNegative() || !shifted.IsInteger() {
		return nil, ErrNotAnAmount
	}

	return FromString(shifted.String())
}

// WadFromString parse a human decimal string to 1e18 fixed point
func WadFromString(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrNotAnAmount
	}

	return WadFromDecimal(d)
}

// ToDecimal render base units as a human decimal of the given scale
func ToDecimal(x *uint256.Int, decimals uint8) decimal.Decimal {
	d, _ := decimal.NewFromString(x.Dec())
	return d.Shift(-int32(decimals))
}
