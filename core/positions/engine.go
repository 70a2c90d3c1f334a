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
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/crypto"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Broker (no longer need to mock this, use the broker/mocks wrapper).
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the position and margin ledger of a market. It is owned by the
// market execution lane and is not safe for concurrent use.
type Engine struct {
	marketID string
	log      *logging.Logger
	Config

	cfgMu sync.Mutex
	// partyID -> Position
	positions map[string]*types.Position
	// sorted party IDs, for deterministic iteration
	parties []string

	// keep track of the position updated since the last flush
	updatedPositions map[string]struct{}
	positionUpdated  func(context.Context, *types.Position)

	feePool *num.Uint
	// latest cumulative funding index, new positions start from it
	fundingIndex *num.Int
	now          int64

	broker Broker
}

// New instantiates a new positions engine.
func New(log *logging.Logger, config Config, marketID string, broker Broker) *Engine {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	e := &Engine{
		marketID:         marketID,
		Config:           config,
		log:              log,
		positions:        map[string]*types.Position{},
		parties:          []string{},
		broker:           broker,
		updatedPositions: map[string]struct{}{},
		feePool:          num.UintZero(),
		fundingIndex:     num.IntZero(),
	}
	e.positionUpdated = e.bufferPosition
	if config.StreamPositionVerbose {
		e.positionUpdated = e.sendPosition
	}

	return e
}

// ReloadConf update the internal configuration of the positions engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.cfgMu.Lock()
	e.Config = cfg
	e.positionUpdated = e.bufferPosition
	if cfg.StreamPositionVerbose {
		e.positionUpdated = e.sendPosition
	}
	e.cfgMu.Unlock()
}

// OnTimeUpdate sets the time used to stamp position changes.
func (e *Engine) OnTimeUpdate(t time.Time) {
	e.now = t.UnixNano()
}

func (e *Engine) FlushPositionEvents(ctx context.Context) {
	if e.StreamPositionVerbose {
		return
	}

	e.sendBufferedPosition(ctx)
}

func (e *Engine) bufferPosition(_ context.Context, pos *types.Position) {
	e.updatedPositions[pos.Party] = struct{}{}
}

func (e *Engine) sendBufferedPosition(ctx context.Context) {
	if len(e.updatedPositions) == 0 {
		return
	}
	parties := maps.Keys(e.updatedPositions)
	slices.Sort(parties)
	evts := make([]events.Event, 0, len(parties))

	for _, v := range parties {
		if pos, ok := e.positions[v]; ok {
			evts = append(evts, events.NewPositionEvent(ctx, pos))
		}
	}

	e.broker.SendBatch(evts)
	e.updatedPositions = map[string]struct{}{}
}

func (e *Engine) sendPosition(ctx context.Context, pos *types.Position) {
	e.broker.Send(events.NewPositionEvent(ctx, pos))
}

func (e *Engine) getOrCreate(party string) *types.Position {
	pos, ok := e.positions[party]
	if !ok {
		pos = types.NewPosition(party, e.marketID)
		pos.FundingIndex = e.fundingIndex.Clone()
		e.positions[party] = pos
		idx, _ := slices.BinarySearch(e.parties, party)
		e.parties = slices.Insert(e.parties, idx, party)
	}
	return pos
}

func (e *Engine) touch(ctx context.Context, pos *types.Position) {
	pos.UpdatedAt = e.now
	e.positionUpdated(ctx, pos)
}

// RegisterOrder adds the remaining size of a live order to the party
// potential position, as though the order were already filled.
func (e *Engine) RegisterOrder(ctx context.Context, order *types.Order) *types.Position {
	pos := e.getOrCreate(order.Party)
	if order.Side == types.SideBuy {
		pos.BuyPotential += order.Remaining
	} else {
		pos.SellPotential += order.Remaining
	}
	e.touch(ctx, pos)
	return pos.Clone()
}

// UnregisterOrder removes the remaining size of an order leaving the book
// from the potential position.
func (e *Engine) UnregisterOrder(ctx context.Context, order *types.Order) *types.Position {
	pos, found := e.positions[order.Party]
	if !found {
		e.log.Panic("could not find position in engine when unregistering order",
			logging.Order(order))
	}
	if order.Side == types.SideBuy {
		pos.BuyPotential -= min(pos.BuyPotential, order.Remaining)
	} else {
		pos.SellPotential -= min(pos.SellPotential, order.Remaining)
	}
	e.touch(ctx, pos)
	return pos.Clone()
}

// Update applies a trade to both counterparties: sizes, realised P&L,
// potentials and fees. It returns the realised P&L of buyer and seller.
func (e *Engine) Update(ctx context.Context, trade *types.Trade) (*num.Int, *num.Int) {
	if trade.Buyer == trade.Seller {
		e.log.Panic("trade with the same party on both sides",
			logging.Trade(trade))
	}

	size := int64(trade.Size)
	buyerPnl := e.ApplyFill(ctx, trade.Buyer, size, trade.Price)
	sellerPnl := e.ApplyFill(ctx, trade.Seller, -size, trade.Price)

	buyer, seller := e.positions[trade.Buyer], e.positions[trade.Seller]
	// liquidation and deleverage trades are not registered beforehand
	buyer.BuyPotential -= min(buyer.BuyPotential, trade.Size)
	seller.SellPotential -= min(seller.SellPotential, trade.Size)

	e.chargeFee(ctx, buyer, trade.BuyerFee)
	e.chargeFee(ctx, seller, trade.SellerFee)

	if e.log.IsDebug() {
		e.log.Debug("Positions Updated for trade",
			logging.Trade(trade),
			logging.String("buyer-position", fmt.Sprintf("%+v", buyer)),
			logging.String("seller-position", fmt.Sprintf("%+v", seller)))
	}
	return buyerPnl, sellerPnl
}

// ApplyFill changes a party's position by a signed size at a price and
// returns the realised P&L. Exposure increases blend the average entry
// price, reductions realise P&L into margin, and the part of a fill that
// flips the position opens it afresh at the fill price.
func (e *Engine) ApplyFill(ctx context.Context, party string, delta int64, price *num.Uint) *num.Int {
	pos := e.getOrCreate(party)
	realised := num.IntZero()
	if delta == 0 {
		return realised
	}

	var (
		absSize  = pos.AbsSize()
		absDelta = uint64(num.AbsV(delta))
	)

	if pos.Size == 0 || (pos.Size > 0) == (delta > 0) {
		if pos.Size == 0 {
			pos.AverageEntryPrice = price.Clone()
		} else {
			// avg = (avg * |size| + price * |delta|) / (|size| + |delta|)
			w := num.UintZero().Mul(pos.AverageEntryPrice, num.NewUint(absSize))
			w.Add(w, num.UintZero().Mul(price, num.NewUint(absDelta)))
			pos.AverageEntryPrice = w.Div(w, num.NewUint(absSize+absDelta))
		}
	} else {
		closed := min(absSize, absDelta)
		diff, neg := num.UintZero().Delta(price, pos.AverageEntryPrice)
		realised = num.IntFromUint(num.Notional(diff, closed), !neg)
		if pos.Size < 0 {
			realised.FlipSign()
		}
		pos.RealisedPnl.Add(realised)
		pos.Margin.Add(realised)

		switch {
		case absDelta > closed:
			// flipped, the remainder opens a new position
			pos.AverageEntryPrice = price.Clone()
		case absSize == closed:
			pos.AverageEntryPrice = num.UintZero()
		}
	}
	pos.Size += delta

	if !realised.IsZero() {
		e.broker.Send(events.NewMarginEvent(ctx, e.marketID, party, events.MarginChangeRealised, realised, pos.Margin))
	}
	e.touch(ctx, pos)
	return realised
}

func (e *Engine) chargeFee(ctx context.Context, pos *types.Position, fee *num.Uint) {
	if fee == nil || fee.IsZero() {
		return
	}
	delta := num.IntFromUint(fee, false)
	pos.Margin.Add(delta)
	pos.FeesPaid.Add(pos.FeesPaid, fee)
	e.feePool.Add(e.feePool, fee)
	e.broker.Send(events.NewMarginEvent(ctx, e.marketID, pos.Party, events.MarginChangeFee, delta, pos.Margin))
}

// GetPosition returns a copy of the party position, a flat empty position
// if the party never traded.
func (e *Engine) GetPosition(party string) *types.Position {
	if pos, ok := e.positions[party]; ok {
		return pos.Clone()
	}
	return types.NewPosition(party, e.marketID)
}

// GetPositionByPartyID returns a copy of the party position if it exists.
func (e *Engine) GetPositionByPartyID(partyID string) (*types.Position, bool) {
	pos, ok := e.positions[partyID]
	if !ok {
		return nil, false
	}
	return pos.Clone(), true
}

// Positions returns a copy of every position, sorted by party.
func (e *Engine) Positions() []*types.Position {
	out := make([]*types.Position, 0, len(e.parties))
	for _, p := range e.parties {
		out = append(out, e.positions[p].Clone())
	}
	return out
}

// Parties returns a list of all the parties in the position engine.
func (e *Engine) Parties() []string {
	return slices.Clone(e.parties)
}

// OpenPositions returns a copy of the positions with a non zero size,
// sorted by party.
func (e *Engine) OpenPositions() []*types.Position {
	out := []*types.Position{}
	for _, p := range e.parties {
		if pos := e.positions[p]; pos.Size != 0 {
			out = append(out, pos.Clone())
		}
	}
	return out
}

func (e *Engine) GetOpenInterest() uint64 {
	openInterest := uint64(0)
	for _, pos := range e.positions {
		if pos.Size > 0 {
			openInterest += uint64(pos.Size)
		}
	}
	return openInterest
}

// NetSize returns the sum of every signed size, zero unless the ledger is
// corrupted.
func (e *Engine) NetSize() int64 {
	var net int64
	for _, pos := range e.positions {
		net += pos.Size
	}
	return net
}

// FeePool returns the fees collected by the market.
func (e *Engine) FeePool() *num.Uint {
	return e.feePool.Clone()
}

func (e *Engine) Hash() []byte {
	// size, buy, sell + entry price + margin
	output := make([]byte, 0, len(e.parties)*(8*3+32*2))
	for _, p := range e.parties {
		pos := e.positions[p]
		output = binary.BigEndian.AppendUint64(output, uint64(pos.Size))
		output = binary.BigEndian.AppendUint64(output, pos.BuyPotential)
		output = binary.BigEndian.AppendUint64(output, pos.SellPotential)
		aep := pos.AverageEntryPrice.Bytes()
		output = append(output, aep[:]...)
		m := pos.Margin.U.Bytes()
		output = append(output, m[:]...)
	}
	return crypto.Hash(output)
}
