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

type FundingPayment struct {
	Party string `json:"party"`
	// Amount is positive when the party received funding.
	Amount *num.Int `json:"amount"`
}

type FundingPaymentsData struct {
	MarketID string           `json:"market_id"`
	Seq      uint64           `json:"seq"`
	Payments []FundingPayment `json:"payments"`
}

type FundingPayments struct {
	*Base
	p FundingPaymentsData
}

func NewFundingPaymentsEvent(ctx context.Context, marketID string, seq uint64, payments []FundingPayment) *FundingPayments {
	cpy := make([]FundingPayment, 0, len(payments))
	for _, p := range payments {
		cpy = append(cpy, FundingPayment{Party: p.Party, Amount: p.Amount.Clone()})
	}
	return &FundingPayments{
		Base: newBase(ctx, FundingPaymentsEvent),
		p: FundingPaymentsData{
			MarketID: marketID,
			Seq:      seq,
			Payments: cpy,
		},
	}
}

func (p FundingPayments) MarketID() string {
	return p.p.MarketID
}

func (p FundingPayments) IsParty(id string) bool {
	for _, fp := range p.p.Payments {
		if fp.Party == id {
			return true
		}
	}
	return false
}

func (p *FundingPayments) FundingPayments() FundingPaymentsData {
	return p.p
}

func (p FundingPayments) StreamMessage() *BusEvent {
	return newBusEventFromBase(p.Base, p.p.MarketID, p.p)
}
