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

type MarginChange string

const (
	MarginChangeDeposit    MarginChange = "deposit"
	MarginChangeWithdrawal MarginChange = "withdrawal"
	MarginChangeFee        MarginChange = "fee"
	MarginChangePenalty    MarginChange = "penalty"
	MarginChangeInsurance  MarginChange = "insurance"
	MarginChangeFunding    MarginChange = "funding"
	MarginChangeRealised   MarginChange = "realised_pnl"
)

type MarginUpdate struct {
	MarketID string       `json:"market_id"`
	Party    string       `json:"party"`
	Change   MarginChange `json:"change"`
	Delta    *num.Int     `json:"delta"`
	Margin   *num.Int     `json:"margin"`
}

// Margin is emitted on every movement of a party's posted margin.
type Margin struct {
	*Base
	m MarginUpdate
}

func NewMarginEvent(ctx context.Context, marketID, party string, change MarginChange, delta, margin *num.Int) *Margin {
	return &Margin{
		Base: newBase(ctx, MarginEvent),
		m: MarginUpdate{
			MarketID: marketID,
			Party:    party,
			Change:   change,
			Delta:    delta.Clone(),
			Margin:   margin.Clone(),
		},
	}
}

func (m Margin) MarketID() string {
	return m.m.MarketID
}

func (m Margin) IsParty(id string) bool {
	return m.m.Party == id
}

func (m Margin) Update() MarginUpdate {
	return m.m
}

func (m Margin) StreamMessage() *BusEvent {
	return newBusEventFromBase(m.Base, m.m.MarketID, m.m)
}
