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

package risk

import (
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
)

// Check is the outcome of the safety check of one position.
type Check struct {
	Notional     *num.Uint
	Maintenance  *num.Uint
	Effective    *num.Int
	Liquidatable bool
}

// CheckPosition evaluates a position against the market maintenance
// margin at price. A position is liquidatable iff its effective margin is
// strictly below the maintenance requirement. Flat positions never are.
func CheckPosition(mkt *types.Market, pos *types.Position, price *num.Uint) Check {
	if pos == nil || pos.Size == 0 || price == nil {
		return Check{
			Notional:    num.UintZero(),
			Maintenance: num.UintZero(),
			Effective:   effectiveOrZero(pos, price),
		}
	}
	notional := pos.Notional(price)
	maintenance := num.MulRate(notional, mkt.MaintenanceMarginRate)
	effective := pos.EffectiveMargin(price)
	return Check{
		Notional:     notional,
		Maintenance:  maintenance,
		Effective:    effective,
		Liquidatable: effective.LT(num.IntFromUint(maintenance, true)),
	}
}

func effectiveOrZero(pos *types.Position, price *num.Uint) *num.Int {
	if pos == nil {
		return num.IntZero()
	}
	return pos.EffectiveMargin(price)
}

// closeSide is the side of the order reducing the position.
func closeSide(pos *types.Position) types.Side {
	if pos.Size > 0 {
		return types.SideSell
	}
	return types.SideBuy
}

// liquidationPrice rounds price onto the tick grid in the direction that
// makes the closing order more aggressive.
func liquidationPrice(mkt *types.Market, side types.Side, price *num.Uint) *num.Uint {
	if mkt.TickSize == nil || mkt.TickSize.IsZero() {
		return price.Clone()
	}
	rem := num.UintZero().Mod(price, mkt.TickSize)
	if rem.IsZero() {
		return price.Clone()
	}
	out := num.UintZero().Sub(price, rem)
	if side == types.SideBuy {
		out.Add(out, mkt.TickSize)
	} else if out.IsZero() {
		out = mkt.TickSize.Clone()
	}
	return out
}

// stepSize returns how much of the position a liquidation step closes:
// the configured fraction (rounded down to the lot, at least one lot) for
// large solvent positions, the whole position otherwise.
func stepSize(mkt *types.Market, pos *types.Position, c Check) (uint64, bool) {
	size := pos.AbsSize()
	lp := mkt.Liquidation
	if lp.PartialThreshold == nil || lp.PartialThreshold.IsZero() ||
		!lp.PartialFraction.IsPositive() || !lp.PartialFraction.LessThan(num.DecimalOne()) {
		return size, false
	}
	if !c.Notional.GT(lp.PartialThreshold) || c.Effective.IsNegative() {
		return size, false
	}
	part := num.DecimalFromUint64(size).Mul(lp.PartialFraction).IntPart()
	step := uint64(part)
	if mkt.LotSize > 0 {
		step -= step % mkt.LotSize
		step = max(step, mkt.LotSize)
	}
	if step == 0 || step >= size {
		return size, false
	}
	return step, true
}

// BankruptcyPrice is the price at which closing the whole position leaves
// zero margin, rounded so the margin never ends negative. It never goes
// below the smallest price unit.
func BankruptcyPrice(pos *types.Position) *num.Uint {
	if pos.Size == 0 {
		return pos.AverageEntryPrice.Clone()
	}
	size := num.NewUint(pos.AbsSize())
	marginNeg := pos.Margin.IsNegative()

	// margin per unit of size, rounded up when it is a debt
	perUnit := num.UintZero().Mul(pos.Margin.Abs(), num.Precision())
	if marginNeg {
		perUnit.Add(perUnit, num.UintZero().Sub(size, num.UintOne()))
	}
	perUnit.Div(perUnit, size)

	// long: entry - margin/size, short: entry + margin/size
	if down := pos.Size > 0 != marginNeg; !down {
		return num.Sum(pos.AverageEntryPrice, perUnit)
	}
	if perUnit.GTE(pos.AverageEntryPrice) {
		return num.UintOne()
	}
	return num.UintZero().Sub(pos.AverageEntryPrice, perUnit)
}
