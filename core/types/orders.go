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

package types

import (
	"code.vegaprotocol.io/perps/libs/num"
)

type PriceLevel struct {
	Price          *num.Uint
	NumberOfOrders uint64
	Volume         uint64
}

type PriceLevels []*PriceLevel

// BookSnapshot is a depth limited view of an order book, best prices first.
type BookSnapshot struct {
	MarketID  string
	Buy       PriceLevels
	Sell      PriceLevels
	Timestamp int64
}

// BestBid returns the best buy price, nil on an empty side.
func (b *BookSnapshot) BestBid() *num.Uint {
	if len(b.Buy) == 0 {
		return nil
	}
	return b.Buy[0].Price.Clone()
}

// BestAsk returns the best sell price, nil on an empty side.
func (b *BookSnapshot) BestAsk() *num.Uint {
	if len(b.Sell) == 0 {
		return nil
	}
	return b.Sell[0].Price.Clone()
}

func (l PriceLevels) clone() PriceLevels {
	out := make(PriceLevels, 0, len(l))
	for _, lvl := range l {
		out = append(out, &PriceLevel{
			Price:          lvl.Price.Clone(),
			NumberOfOrders: lvl.NumberOfOrders,
			Volume:         lvl.Volume,
		})
	}
	return out
}

func (b BookSnapshot) Clone() *BookSnapshot {
	return &BookSnapshot{
		MarketID:  b.MarketID,
		Buy:       b.Buy.clone(),
		Sell:      b.Sell.clone(),
		Timestamp: b.Timestamp,
	}
}
