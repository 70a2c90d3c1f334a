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

type Liquidation struct {
	*Base
	r *types.LiquidationRecord
}

func NewLiquidationEvent(ctx context.Context, r *types.LiquidationRecord) *Liquidation {
	return &Liquidation{
		Base: newBase(ctx, LiquidationEvent),
		r:    r.Clone(),
	}
}

func (l Liquidation) MarketID() string {
	return l.r.MarketID
}

func (l Liquidation) IsParty(id string) bool {
	return l.r.Party == id
}

func (l *Liquidation) Record() *types.LiquidationRecord {
	return l.r
}

func (l Liquidation) StreamMessage() *BusEvent {
	return newBusEventFromBase(l.Base, l.r.MarketID, l.r)
}
