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

	"code.vegaprotocol.io/perps/libs/num"
)

type DeleverageData struct {
	MarketID string `json:"market_id"`
	// Party is the distressed party being closed out.
	Party        string    `json:"party"`
	Counterparty string    `json:"counterparty"`
	Size         uint64    `json:"size"`
	Price        *num.Uint `json:"price"`
}

// Deleverage is emitted for each forced trade against an opposite side
// position.
type Deleverage struct {
	*Base
	d DeleverageData
}

func NewDeleverageEvent(ctx context.Context, d DeleverageData) *Deleverage {
	d.Price = d.Price.Clone()
	return &Deleverage{
		Base: newBase(ctx, DeleverageEvent),
		d:    d,
	}
}

func (d Deleverage) MarketID() string {
	return d.d.MarketID
}

func (d Deleverage) IsParty(id string) bool {
	return d.d.Party == id || d.d.Counterparty == id
}

func (d Deleverage) Deleverage() DeleverageData {
	return d.d
}

func (d Deleverage) StreamMessage() *BusEvent {
	return newBusEventFromBase(d.Base, d.d.MarketID, d.d)
}
