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

package events

import (
	"context"

	"code.vegaprotocol.io/perps/core/types"
)

type Order struct {
	*Base
	o *types.Order
}

func NewOrderEvent(ctx context.Context, o *types.Order) *Order {
	order := &Order{
		Base: newBase(ctx, OrderEvent),
		o:    o.Clone(),
	}
	return order
}

func (o Order) IsParty(id string) bool {
	return o.o.Party == id
}

func (o Order) PartyID() string {
	return o.o.Party
}

func (o Order) MarketID() string {
	return o.o.MarketID
}

func (o *Order) Order() *types.Order {
	return o.o
}

func (o Order) StreamMessage() *BusEvent {
	return newBusEventFromBase(o.Base, o.o.MarketID, o.o)
}
