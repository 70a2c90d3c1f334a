// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package num

import (
	"errors"
	"sort"
)

// Decimals is the single precision used for every price, amount and size:
// a value v is stored as the integer v * 10^Decimals.
const Decimals = 8

var (
	// ErrTooManyDecimals is returned when a value cannot be represented
	// with Decimals places without rounding.
	ErrTooManyDecimals = errors.New("value has more decimal places than supported")
	// ErrNegativeValue is returned when parsing a negative unsigned value.
	ErrNegativeValue = errors.New("value cannot be negative")

	precision        = NewUint(100_000_000)
	precisionDecimal = DecimalFromInt64(100_000_000)
)

// Precision returns 10^Decimals. The returned value can be mutated freely.
func Precision() *Uint {
	return precision.Clone()
}

// PrecisionDecimal returns 10^Decimals as a decimal.
func PrecisionDecimal() Decimal {
	return precisionDecimal
}

// ScaledUint returns whole units scaled by the precision.
func ScaledUint(units uint64) *Uint {
	u := NewUint(units)
	return u.Mul(u, precision)
}

// ParseFixed parses a human readable decimal string ("100.25") into a
// scaled value.
func ParseFixed(s string) (*Uint, error) {
	d, err := DecimalFromString(s)
	if err != nil {
		return nil, err
	}
	return FixedFromDecimal(d)
}

// FixedFromDecimal scales a human readable decimal.
func FixedFromDecimal(d Decimal) (*Uint, error) {
	if d.IsNegative() {
		return nil, ErrNegativeValue
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooManyDecimals
	}
	u, overflow := UintFromDecimal(scaled)
	if overflow {
		return nil, errors.New("value overflows 256 bits")
	}
	return u, nil
}

// MustParseFixed is ParseFixed for literals.
func MustParseFixed(s string) *Uint {
	u, err := ParseFixed(s)
	if err != nil {
		panic(err)
	}
	return u
}

// ParseFixedSize parses a human readable size ("0.001") into scaled units.
func ParseFixedSize(s string) (uint64, error) {
	u, err := ParseFixed(s)
	if err != nil {
		return 0, err
	}
	if !u.IsUint64() {
		return 0, errors.New("size overflows uint64")
	}
	return u.Uint64(), nil
}

// MustParseFixedSize is ParseFixedSize for literals.
func MustParseFixedSize(s string) uint64 {
	v, err := ParseFixedSize(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatFixed renders a scaled value in human readable form.
func FormatFixed(u *Uint) string {
	return NewDecimalFromBigInt(u.BigInt(), -Decimals).String()
}

// FormatFixedInt renders a signed scaled value in human readable form.
func FormatFixedInt(i *Int) string {
	return DecimalFromInt(i).Shift(-Decimals).String()
}

// Notional returns price * size for a size expressed in scaled units.
func Notional(price *Uint, size uint64) *Uint {
	n := NewUint(size)
	n.Mul(n, price)
	return n.Div(n, precision)
}

// MulScaled multiplies two scaled values, z = x * y / 10^Decimals.
func MulScaled(x, y *Uint) *Uint {
	z := UintZero().Mul(x, y)
	return z.Div(z, precision)
}

// DivScaled divides two scaled values, z = x * 10^Decimals / y.
func DivScaled(x, y *Uint) *Uint {
	z := UintZero().Mul(x, precision)
	return z.Div(z, y)
}

// MulRate applies a dimensionless factor to a scaled value, truncating
// the result.
func MulRate(x *Uint, rate Decimal) *Uint {
	if rate.IsNegative() {
		return UintZero()
	}
	u, _ := UintFromDecimal(x.ToDecimal().Mul(rate))
	return u
}

// MulRateInt applies a signed factor to a scaled value, truncating
// toward zero.
func MulRateInt(x *Uint, rate Decimal) *Int {
	i, _ := IntFromDecimal(x.ToDecimal().Mul(rate))
	return i
}

// Ratio returns x / y as a decimal, zero when y is zero.
func Ratio(x, y *Uint) Decimal {
	if y.IsZero() {
		return DecimalZero()
	}
	return x.ToDecimal().Div(y.ToDecimal())
}

// MedianUint returns the median of the values, averaging (and
// truncating) the two middle values of an even sized set. The input is
// not modified. Nil is returned for an empty set.
func MedianUint(vals []*Uint) *Uint {
	if len(vals) == 0 {
		return nil
	}
	sorted := make([]*Uint, len(vals))
	copy(sorted, vals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LT(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid].Clone()
	}
	m := Sum(sorted[mid-1], sorted[mid])
	return m.Div(m, NewUint(2))
}

// StdDevUint returns the population standard deviation of the values
// around mean, using an integer square root.
func StdDevUint(vals []*Uint, mean *Uint) *Uint {
	if len(vals) == 0 {
		return UintZero()
	}
	variance := UintZero()
	delta := UintZero()
	for _, v := range vals {
		delta.Delta(v, mean)
		variance.Add(variance, UintZero().Mul(delta, delta))
	}
	variance.Div(variance, NewUint(uint64(len(vals))))
	return UintZero().Sqrt(variance)
}
