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

package risk

import (
	"context"
	"strings"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/emirpasic/gods/trees/binaryheap"
)

type adlCandidate struct {
	pos       *types.Position
	pnl       *num.Int
	insolvent bool
	leverage  num.Decimal
}

func newCandidate(pos *types.Position, price *num.Uint) *adlCandidate {
	c := &adlCandidate{
		pos: pos,
		pnl: pos.UnrealisedPnl(price),
	}
	effective := pos.EffectiveMargin(price)
	if !effective.IsPositive() {
		c.insolvent = true
		return c
	}
	c.leverage = num.Ratio(pos.Notional(price), effective.U)
	return c
}

// compareCandidates orders the most profitable first, then the highest
// leverage, then party ID.
func compareCandidates(a, b interface{}) int {
	x, y := a.(*adlCandidate), b.(*adlCandidate)
	switch {
	case x.pnl.GT(y.pnl):
		return -1
	case x.pnl.LT(y.pnl):
		return 1
	}
	switch {
	case x.insolvent != y.insolvent:
		if x.insolvent {
			return -1
		}
		return 1
	case !x.insolvent && !x.leverage.Equal(y.leverage):
		if x.leverage.GreaterThan(y.leverage) {
			return -1
		}
		return 1
	}
	return strings.Compare(x.pos.Party, y.pos.Party)
}

// deleverage closes the whole position of party against opposite
// positions at its bankruptcy price, so the counterparties give up exactly
// the profit the insurance fund could not pay for.
func (e *Engine) deleverage(ctx context.Context, party string, price, shortfall, covered *num.Uint) ([]*types.LiquidationRecord, error) {
	pos := e.ledger.GetPosition(party)
	bankruptcy := BankruptcyPrice(pos)
	side := closeSide(pos)
	sign := int64(1)
	if pos.Size < 0 {
		sign = -1
	}

	heap := binaryheap.NewWith(compareCandidates)
	for _, cp := range e.ledger.OpenPositions() {
		if cp.Party == party || (cp.Size > 0) == (pos.Size > 0) {
			continue
		}
		heap.Push(newCandidate(cp, price))
	}

	e.log.Warn("deleveraging position",
		logging.MarketID(e.marketID),
		logging.PartyID(party),
		logging.Int64("size", pos.Size),
		logging.BigUint("bankruptcy-price", bankruptcy),
		logging.Int("counterparties", heap.Size()))

	var (
		out       []*types.LiquidationRecord
		remaining = pos.AbsSize()
	)
	for remaining > 0 {
		v, ok := heap.Pop()
		if !ok {
			e.log.Panic("not enough opposite positions to deleverage, ledger is not zero-sum",
				logging.MarketID(e.marketID),
				logging.PartyID(party),
				logging.Uint64("remaining", remaining))
		}
		cp := v.(*adlCandidate).pos
		take := min(remaining, cp.AbsSize())

		e.ledger.ApplyFill(ctx, party, -sign*int64(take), bankruptcy)
		e.ledger.ApplyFill(ctx, cp.Party, sign*int64(take), bankruptcy)
		remaining -= take

		e.broker.Send(events.NewDeleverageEvent(ctx, events.DeleverageData{
			MarketID:     e.marketID,
			Party:        party,
			Counterparty: cp.Party,
			Size:         take,
			Price:        bankruptcy.Clone(),
		}))
		rec := &types.LiquidationRecord{
			ID:        e.idgen.NextID(),
			Party:     party,
			MarketID:  e.marketID,
			Size:      take,
			Side:      side,
			Price:     bankruptcy.Clone(),
			Penalty:   num.UintZero(),
			Partial:   remaining > 0,
			ADL:       true,
			Timestamp: e.now,
		}
		e.record(ctx, rec)
		out = append(out, rec)
	}

	return out, e.reportShortfall(ctx, party, shortfall, covered, pos.AbsSize())
}
