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
	"code.vegaprotocol.io/perps/logging"
)

// ValidateOrder runs the admission checks PlaceOrder applies without
// queueing the order.
func (b *OrderBook) ValidateOrder(o *types.Order) error {
	return b.validateOrder(o)
}

func (b *OrderBook) validateOrder(o *types.Order) error {
	switch {
	case o.MarketID != b.marketID:
		b.log.Error("Market ID mismatch",
			logging.MarketID(o.MarketID),
			logging.String("order-book", b.marketID),
			logging.Order(o))
		return types.OrderErrorInvalidMarketID
	case len(o.ID) == 0:
		return types.OrderErrorInvalidOrderID
	case len(o.Party) == 0:
		return types.OrderErrorInvalidParty
	case o.Side != types.SideBuy && o.Side != types.SideSell:
		return types.OrderErrorInvalidSide
	case o.Type != types.OrderTypeLimit && o.Type != types.OrderTypeMarket && o.Type != types.OrderTypePostOnly:
		return types.OrderErrorInvalidType
	case o.TimeInForce != types.OrderTimeInForceGTC && o.TimeInForce != types.OrderTimeInForceIOC && o.TimeInForce != types.OrderTimeInForceFOK:
		return types.OrderErrorInvalidTimeInForce
	case o.Type == types.OrderTypeMarket && o.TimeInForce == types.OrderTimeInForceGTC:
		return types.OrderErrorInvalidTimeInForce
	case o.Type == types.OrderTypePostOnly && o.TimeInForce != types.OrderTimeInForceGTC:
		return types.OrderErrorInvalidTimeInForce
	case o.Remaining != o.Size:
		return types.OrderErrorInvalidSize
	}

	if _, ok := b.ordersByID[o.ID]; ok || b.terminated.Contains(o.ID) {
		return types.OrderErrorInvalidOrderID
	}

	if o.Type != types.OrderTypeMarket {
		if err := b.market.ValidatePrice(o.Price); err != nil {
			return err
		}
	}

	if o.Liquidation {
		if o.Size == 0 {
			return types.OrderErrorInvalidSize
		}
	} else if err := b.market.ValidateSize(o.Size); err != nil {
		return err
	}

	if o.Type == types.OrderTypePostOnly && b.getOppositeSide(o.Side).wouldCross(o) {
		return types.OrderErrorPostOnlyWouldTrade
	}
	return nil
}
