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

package matching

import (
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
)

// PriceLevel holds the resting orders at a single price in arrival order.
// Orders that leave the level stay in the queue until the next garbage
// collection, volume and live only account for live orders.
type PriceLevel struct {
	price  *num.Uint
	orders []*types.Order
	volume uint64
	live   int
}

// NewPriceLevel instantiate a new PriceLevel.
func NewPriceLevel(price *num.Uint) *PriceLevel {
	return &PriceLevel{
		price:  price.Clone(),
		orders: []*types.Order{},
	}
}

func (l *PriceLevel) addOrder(o *types.Order) {
	l.orders = append(l.orders, o)
	l.volume += o.Remaining
	l.live++
}

// removeOrder accounts for a live order leaving the level, it must be
// called before the order remaining or status are changed.
func (l *PriceLevel) removeOrder(o *types.Order) {
	l.volume -= o.Remaining
	l.live--
}

// reduce accounts for a traded volume of a live order.
func (l *PriceLevel) reduce(size uint64) {
	l.volume -= size
}

func (l *PriceLevel) empty() bool {
	return l.live <= 0
}

// collectGarbage drops orders that are no longer live.
func (l *PriceLevel) collectGarbage() {
	n := 0
	for _, o := range l.orders {
		if o.IsLive() {
			l.orders[n] = o
			n++
		}
	}
	for i := n; i < len(l.orders); i++ {
		l.orders[i] = nil
	}
	l.orders = l.orders[:n]
}

// fillableBy returns the live volume of the level the aggressor can trade
// against, orders of the same party are skipped.
func (l *PriceLevel) fillableBy(agg *types.Order) uint64 {
	var vol uint64
	for _, o := range l.orders {
		if o.IsLive() && o.Party != agg.Party {
			vol += o.Remaining
		}
	}
	return vol
}

func (l *PriceLevel) toPriceLevel() *types.PriceLevel {
	return &types.PriceLevel{
		Price:          l.price.Clone(),
		NumberOfOrders: uint64(l.live),
		Volume:         l.volume,
	}
}
