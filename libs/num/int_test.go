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

package num_test

import (
	"testing"

	"code.vegaprotocol.io/perps/libs/num"

	"github.com/stretchr/testify/assert"
)

func TestInt256Constructors(t *testing.T) {
	n := num.NewInt(42)
	assert.Equal(t, uint64(42), n.U.Uint64())
	assert.True(t, n.IsPositive())
	assert.False(t, n.IsNegative())
	assert.False(t, n.IsZero())

	n = num.NewInt(-42)
	assert.Equal(t, uint64(42), n.U.Uint64())
	assert.False(t, n.IsPositive())
	assert.True(t, n.IsNegative())

	n = num.NewInt(0)
	assert.False(t, n.IsPositive())
	assert.False(t, n.IsNegative())
	assert.True(t, n.IsZero())
}

func TestIntFromUint(t *testing.T) {
	n := num.NewUint(100)

	i := num.IntFromUint(n, true)
	assert.Equal(t, "100", i.String())

	i = num.IntFromUint(n, false)
	assert.Equal(t, "-100", i.String())

	// the source is not shared
	i.U.SetUint64(1)
	assert.Equal(t, uint64(100), n.Uint64())
}

func TestIntClone(t *testing.T) {
	n := num.NewInt(100)
	n2 := n.Clone()
	n2.FlipSign()
	assert.True(t, n.IsPositive())
	assert.True(t, n2.IsNegative())

	n.AddSum(num.NewInt(50))
	assert.Equal(t, "150", n.String())
	assert.Equal(t, "-100", n2.String())
}

func TestIntComparisons(t *testing.T) {
	mid := num.NewInt(0)
	low := num.NewInt(-10)
	high := num.NewInt(10)

	assert.True(t, mid.GT(low))
	assert.False(t, mid.GT(high))
	assert.False(t, low.GT(mid))
	assert.True(t, high.GT(low))
	assert.False(t, mid.GT(mid))

	assert.True(t, mid.LT(high))
	assert.True(t, low.LT(mid))
	assert.True(t, low.LT(high))
	assert.False(t, high.LT(low))
	assert.False(t, low.LT(low))

	assert.True(t, num.NewInt(-20).LT(low))
	assert.True(t, num.NewInt(20).GT(high))
	assert.True(t, num.NewInt(0).EQ(num.NewInt(0).FlipSign()))
}

func TestIntArithmetic(t *testing.T) {
	cases := []struct {
		name     string
		a, b     int64
		add, sub string
		mul, div string
	}{
		{name: "both positive", a: 30, b: 10, add: "40", sub: "20", mul: "300", div: "3"},
		{name: "negative and positive", a: -30, b: 10, add: "-20", sub: "-40", mul: "-300", div: "-3"},
		{name: "positive and negative", a: 10, b: -30, add: "-20", sub: "40", mul: "-300", div: "0"},
		{name: "both negative", a: -30, b: -10, add: "-40", sub: "-20", mul: "300", div: "3"},
		{name: "cancel out", a: 10, b: -10, add: "0", sub: "20", mul: "-100", div: "-1"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.add, num.NewInt(c.a).Add(num.NewInt(c.b)).String())
			assert.Equal(t, c.sub, num.NewInt(c.a).Sub(num.NewInt(c.b)).String())
			assert.Equal(t, c.mul, num.NewInt(c.a).Mul(num.NewInt(c.b)).String())
			assert.Equal(t, c.div, num.NewInt(c.a).Div(num.NewInt(c.b)).String())
		})
	}
}

func TestIntFromDecimal(t *testing.T) {
	i, overflow := num.IntFromDecimal(num.MustDecimalFromString("-12.9"))
	assert.False(t, overflow)
	assert.Equal(t, "-12", i.String())
	assert.Equal(t, int64(-12), i.Int64())
}
