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
	"fmt"
	"math/big"
)

// Int a wrapper to a signed big int.
type Int struct {
	// The unsigned version of the integer.
	U *Uint
	// The sign of the integer true = positive, false = negative.
	s bool
}

// IntZero returns a new Int set to 0.
func IntZero() *Int {
	return NewInt(0)
}

// NewInt creates a new Int with the value of the
// int64 passed as a parameter.
func NewInt(val int64) *Int {
	if val < 0 {
		return &Int{
			U: NewUint(uint64(-val)),
			s: false,
		}
	}
	return &Int{
		U: NewUint(uint64(val)),
		s: true,
	}
}

// IntFromUint creates a new Int with the value of the
// uint passed as a parameter.
func IntFromUint(u *Uint, s bool) *Int {
	return (&Int{
		U: u.Clone(),
		s: s,
	}).normalise()
}

// IntFromDecimal truncates the decimal toward zero.
func IntFromDecimal(d Decimal) (*Int, bool) {
	u, overflow := UintFromBig(new(big.Int).Abs(d.BigInt()))
	if overflow {
		return IntZero(), true
	}
	return IntFromUint(u, !d.IsNegative()), false
}

// IntFromString parses a base 10 signed integer.
func IntFromString(s string) (*Int, bool) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return IntZero(), true
	}
	u, overflow := UintFromBig(new(big.Int).Abs(b))
	if overflow {
		return IntZero(), true
	}
	return IntFromUint(u, b.Sign() >= 0), false
}

// IsNegative tests if the stored value is negative
// true if < 0
// false if >= 0.
func (i *Int) IsNegative() bool {
	return !i.s && !i.U.IsZero()
}

// IsPositive tests if the stored value is positive
// true if > 0
// false if <= 0.
func (i *Int) IsPositive() bool {
	return i.s && !i.U.IsZero()
}

// IsZero tests if the stored value is zero
// true if == 0.
func (i *Int) IsZero() bool {
	return i.U.IsZero()
}

// FlipSign changes the sign of the number from - to + and back again.
func (i *Int) FlipSign() *Int {
	i.s = !i.s
	return i.normalise()
}

// Negate returns a new Int with the opposite sign.
func (i *Int) Negate() *Int {
	return i.Clone().FlipSign()
}

// Clone creates a copy of the object so nothing is shared.
func (i Int) Clone() *Int {
	return &Int{
		U: i.U.Clone(),
		s: i.s,
	}
}

// Abs returns the absolute value as a new Uint.
func (i *Int) Abs() *Uint {
	return i.U.Clone()
}

// GT returns if i > o.
func (i Int) GT(o *Int) bool {
	if i.IsNegative() {
		if o.IsPositive() || o.IsZero() {
			return false
		}
		return i.U.LT(o.U)
	}
	if i.IsPositive() {
		if o.IsZero() || o.IsNegative() {
			return true
		}
		return i.U.GT(o.U)
	}
	return o.IsNegative()
}

// LT returns if i < o.
func (i Int) LT(o *Int) bool {
	if i.IsNegative() {
		if o.IsPositive() || o.IsZero() {
			return true
		}
		return i.U.GT(o.U)
	}
	if i.IsPositive() {
		if o.IsZero() || o.IsNegative() {
			return false
		}
		return i.U.LT(o.U)
	}
	return o.IsPositive()
}

// EQ returns if i == o.
func (i Int) EQ(o *Int) bool {
	return i.U.EQ(o.U) && (i.s == o.s || i.U.IsZero())
}

// GTE returns if i >= o.
func (i Int) GTE(o *Int) bool {
	return !i.LT(o)
}

// LTE returns if i <= o.
func (i Int) LTE(o *Int) bool {
	return !i.GT(o)
}

// String returns a string version of the number.
func (i Int) String() string {
	if i.IsNegative() {
		return "-" + i.U.String()
	}
	return i.U.String()
}

// Int64 returns the value as an int64, saturating on overflow.
func (i Int) Int64() int64 {
	if !i.U.IsUint64() || i.U.Uint64() > 1<<63-1 {
		if i.IsNegative() {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	v := int64(i.U.Uint64())
	if i.IsNegative() {
		return -v
	}
	return v
}

// Add will add the passed in value to the base value
// i = i + a.
func (i *Int) Add(a *Int) *Int {
	if i.s == a.s {
		i.U.Add(i.U, a.U)
		return i.normalise()
	}
	if i.U.GTE(a.U) {
		i.U.Sub(i.U, a.U)
		return i.normalise()
	}
	i.U.Sub(a.U, i.U)
	i.s = a.s
	return i.normalise()
}

// AddSum adds all of the parameters to i
// i = i + a + b + c.
func (i *Int) AddSum(vals ...*Int) *Int {
	for _, x := range vals {
		i.Add(x)
	}
	return i
}

// Sub will subtract the passed in value from the base value
// i = i - a.
func (i *Int) Sub(a *Int) *Int {
	return i.Add(a.Negate())
}

// Mul will multiply the base value by the passed in value
// i = i * a.
func (i *Int) Mul(a *Int) *Int {
	i.U.Mul(i.U, a.U)
	i.s = i.s == a.s
	return i.normalise()
}

// Div will divide the base value by the passed in value,
// truncating toward zero
// i = i / a.
func (i *Int) Div(a *Int) *Int {
	i.U.Div(i.U, a.U)
	i.s = i.s == a.s
	return i.normalise()
}

// MarshalText implements encoding.TextMarshaler.
func (i Int) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Int) UnmarshalText(text []byte) error {
	v, overflow := IntFromString(string(text))
	if overflow {
		return fmt.Errorf("invalid int value %q", string(text))
	}
	*i = *v
	return nil
}

// zero is always positive so equality and sign checks stay simple.
func (i *Int) normalise() *Int {
	if i.U.IsZero() {
		i.s = true
	}
	return i
}
