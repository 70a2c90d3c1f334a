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
	"errors"
	"fmt"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
)

// ErrInvalidAmount signals a zero or missing margin amount.
var ErrInvalidAmount = errors.New("margin amount must be positive")

// AddMargin posts collateral to the party position.
func (e *Engine) AddMargin(ctx context.Context, party string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: %w", types.ErrValidation, ErrInvalidAmount)
	}
	pos := e.getOrCreate(party)
	delta := num.IntFromUint(amount, true)
	pos.Margin.Add(delta)

	e.broker.Send(events.NewMarginEvent(ctx, e.marketID, party, events.MarginChangeDeposit, delta, pos.Margin))
	e.touch(ctx, pos)
	return nil
}

// RemoveMargin withdraws collateral as long as the posted margin stays
// positive and the effective margin stays above the maintenance
// requirement at price. A missing price rejects the withdrawal.
func (e *Engine) RemoveMargin(ctx context.Context, mkt *types.Market, party string, amount, price *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: %w", types.ErrValidation, ErrInvalidAmount)
	}
	if price == nil || price.IsZero() {
		return types.ErrStalePrice
	}
	pos, ok := e.positions[party]
	if !ok {
		return types.ErrPositionNotFound
	}

	delta := num.IntFromUint(amount, false)
	after := pos.Margin.Clone().Add(delta)
	if after.IsNegative() {
		return fmt.Errorf("%w: posted margin %s, withdrawal %s", types.ErrInsufficientMargin, pos.Margin, amount)
	}

	required := num.IntFromUint(num.MulRate(pos.Notional(price), mkt.MaintenanceMarginRate), true)
	effective := after.Add(pos.UnrealisedPnl(price))
	if effective.LT(required) {
		return fmt.Errorf("%w: effective margin %s below maintenance %s", types.ErrInsufficientMargin, effective, required)
	}

	pos.Margin.Add(delta)
	e.broker.Send(events.NewMarginEvent(ctx, e.marketID, party, events.MarginChangeWithdrawal, delta, pos.Margin))
	e.touch(ctx, pos)
	return nil
}

// TransferMargin moves a signed amount in or out of a party margin on
// behalf of the risk engine (penalties, insurance coverage). No check is
// performed, margin can go negative.
func (e *Engine) TransferMargin(ctx context.Context, party string, delta *num.Int, change events.MarginChange) {
	pos, ok := e.positions[party]
	if !ok {
		e.log.Panic("margin transfer for unknown party",
			logging.PartyID(party),
			logging.MarketID(e.marketID))
	}
	if delta.IsZero() {
		return
	}
	pos.Margin.Add(delta)
	e.broker.Send(events.NewMarginEvent(ctx, e.marketID, party, change, delta, pos.Margin))
	e.touch(ctx, pos)
}
