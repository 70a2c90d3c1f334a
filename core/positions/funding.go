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

package positions

import (
	"context"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/libs/num"
)

// SettleFunding charges the funding accrued since the position's last
// settled index and moves the position to index. A positive index delta
// debits longs and credits shorts. It returns the signed margin change.
func (e *Engine) SettleFunding(ctx context.Context, party string, index *num.Int) *num.Int {
	pos := e.getOrCreate(party)
	payment := fundingPayment(pos.Size, pos.FundingIndex, index)
	pos.FundingIndex = index.Clone()

	if !payment.IsZero() {
		pos.Margin.Add(payment)
		e.broker.Send(events.NewMarginEvent(ctx, e.marketID, party, events.MarginChangeFunding, payment, pos.Margin))
	}
	e.touch(ctx, pos)
	return payment
}

// SettleFundingAll settles every position against the new index in one
// pass, in party order. Positions opened after this call start at index.
func (e *Engine) SettleFundingAll(ctx context.Context, index *num.Int) []events.FundingPayment {
	e.fundingIndex = index.Clone()
	payments := make([]events.FundingPayment, 0, len(e.parties))
	for _, party := range e.parties {
		amount := e.SettleFunding(ctx, party, index)
		if !amount.IsZero() {
			payments = append(payments, events.FundingPayment{
				Party:  party,
				Amount: amount,
			})
		}
	}
	return payments
}

// FundingIndex returns the latest index all positions were settled against.
func (e *Engine) FundingIndex() *num.Int {
	return e.fundingIndex.Clone()
}

// fundingPayment returns -size * (index - last), size and index being both
// scaled, truncated toward zero.
func fundingPayment(size int64, last, index *num.Int) *num.Int {
	if size == 0 {
		return num.IntZero()
	}
	delta := index.Clone().Sub(last)
	payment := delta.Mul(num.NewInt(size)).Div(num.IntFromUint(num.Precision(), true))
	return payment.FlipSign()
}
