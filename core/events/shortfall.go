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

type ShortfallData struct {
	MarketID string    `json:"market_id"`
	Party    string    `json:"party"`
	Amount   *num.Uint `json:"amount"`
	Covered  *num.Uint `json:"covered"`
	// Deleveraged is the size closed through forced trades.
	Deleveraged uint64 `json:"deleveraged"`
	Error       string `json:"error,omitempty"`
}

// Shortfall reports bad debt the insurance fund could not fully cover.
type Shortfall struct {
	*Base
	s ShortfallData
}

func NewShortfallEvent(ctx context.Context, s ShortfallData) *Shortfall {
	s.Amount = s.Amount.Clone()
	s.Covered = s.Covered.Clone()
	return &Shortfall{
		Base: newBase(ctx, ShortfallEvent),
		s:    s,
	}
}

func (s Shortfall) MarketID() string {
	return s.s.MarketID
}

func (s Shortfall) IsParty(id string) bool {
	return s.s.Party == id
}

func (s Shortfall) Shortfall() ShortfallData {
	return s.s
}

func (s Shortfall) StreamMessage() *BusEvent {
	return newBusEventFromBase(s.Base, s.s.MarketID, s.s)
}
