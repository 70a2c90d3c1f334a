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

type MarketUpdated struct {
	*Base
	m types.Market
}

func NewMarketUpdatedEvent(ctx context.Context, m types.Market) *MarketUpdated {
	return &MarketUpdated{
		Base: newBase(ctx, MarketUpdatedEvent),
		m:    *m.DeepClone(),
	}
}

func (m MarketUpdated) MarketID() string {
	return m.m.ID
}

func (m MarketUpdated) Market() types.Market {
	return m.m
}

func (m MarketUpdated) StreamMessage() *BusEvent {
	return newBusEventFromBase(m.Base, m.m.ID, m.m)
}
