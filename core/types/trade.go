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
	"fmt"

	"code.vegaprotocol.io/perps/libs/num"
)

// Trade is a single fill between a resting and an aggressive order.
type Trade struct {
	ID          string
	MarketID    string
	Price       *num.Uint
	Size        uint64
	Buyer       string
	Seller      string
	BuyOrder    string
	SellOrder   string
	Aggressor   Side
	SeqNum      uint64
	Timestamp   int64
	BuyerFee    *num.Uint
	SellerFee   *num.Uint
	Liquidation bool
	Deleverage  bool
}

func (t Trade) Clone() *Trade {
	cpy := t
	if t.Price != nil {
		cpy.Price = t.Price.Clone()
	}
	if t.BuyerFee != nil {
		cpy.BuyerFee = t.BuyerFee.Clone()
	}
	if t.SellerFee != nil {
		cpy.SellerFee = t.SellerFee.Clone()
	}
	return &cpy
}

// Notional returns price * size of the trade.
func (t *Trade) Notional() *num.Uint {
	return num.Notional(t.Price, t.Size)
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"ID(%s) marketID(%s) price(%s) size(%v) buyer(%s) seller(%s) buyOrder(%s) sellOrder(%s) aggressor(%s) seq(%v) timestamp(%v) buyerFee(%s) sellerFee(%s) liquidation(%v) deleverage(%v)",
		t.ID,
		t.MarketID,
		uintPointerToString(t.Price),
		t.Size,
		t.Buyer,
		t.Seller,
		t.BuyOrder,
		t.SellOrder,
		t.Aggressor.String(),
		t.SeqNum,
		t.Timestamp,
		uintPointerToString(t.BuyerFee),
		uintPointerToString(t.SellerFee),
		t.Liquidation,
		t.Deleverage,
	)
}

type Trades []*Trade
