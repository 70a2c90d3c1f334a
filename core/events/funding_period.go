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

type FundingPeriodData struct {
	MarketID   string      `json:"market_id"`
	Seq        uint64      `json:"seq"`
	Start      int64       `json:"start"`
	End        int64       `json:"end"`
	MarkPrice  *num.Uint   `json:"mark_price"`
	IndexPrice *num.Uint   `json:"index_price"`
	Rate       num.Decimal `json:"rate"`
	Index      *num.Int    `json:"index"`
}

// FundingPeriod is emitted when a funding interval closes and the
// cumulative index moves.
type FundingPeriod struct {
	*Base
	p FundingPeriodData
}

func NewFundingPeriodEvent(ctx context.Context, data FundingPeriodData) *FundingPeriod {
	return &FundingPeriod{
		Base: newBase(ctx, FundingPeriodEvent),
		p:    data,
	}
}

func (f FundingPeriod) MarketID() string {
	return f.p.MarketID
}

func (f FundingPeriod) FundingPeriod() FundingPeriodData {
	return f.p
}

func (f FundingPeriod) StreamMessage() *BusEvent {
	return newBusEventFromBase(f.Base, f.p.MarketID, f.p)
}
