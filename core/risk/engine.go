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
	"fmt"
	"sync"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"

	"golang.org/x/exp/slices"
)

// Ledger is the position ledger of the market.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/perps/core/risk Book,InsuranceFund
type Ledger interface {
	GetPosition(party string) *types.Position
	OpenPositions() []*types.Position
	ApplyFill(ctx context.Context, party string, delta int64, price *num.Uint) *num.Int
	TransferMargin(ctx context.Context, party string, delta *num.Int, change events.MarginChange)
}

// Book executes liquidation orders. Fills are applied to the ledger before
// SubmitLiquidationOrder returns.
type Book interface {
	CancelPartyOrders(ctx context.Context, party string) error
	SubmitLiquidationOrder(ctx context.Context, party string, side types.Side, size uint64, price *num.Uint) (uint64, error)
}

// InsuranceFund covers bad debt and collects liquidation penalties.
type InsuranceFund interface {
	CoverShortfall(ctx context.Context, marketID string, amount *num.Uint) *num.Uint
	Deposit(ctx context.Context, marketID string, amount *num.Uint)
}

type Broker interface {
	Send(e events.Event)
}

type IDGenerator interface {
	NextID() string
}

// Engine is the liquidation engine of one market. It runs inside the
// market lane.
type Engine struct {
	Config
	cfgMu sync.Mutex
	log   *logging.Logger

	marketID  string
	ledger    Ledger
	book      Book
	insurance InsuranceFund
	broker    Broker
	idgen     IDGenerator

	// last price that passed the oracle checks
	lastPrice *num.Uint
	now       int64
	records   []*types.LiquidationRecord
}

func New(
	log *logging.Logger,
	cfg Config,
	marketID string,
	ledger Ledger,
	book Book,
	insurance InsuranceFund,
	broker Broker,
	idgen IDGenerator,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		Config:    cfg,
		log:       log,
		marketID:  marketID,
		ledger:    ledger,
		book:      book,
		insurance: insurance,
		broker:    broker,
		idgen:     idgen,
	}
}

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
	e.cfgMu.Unlock()
}

func (e *Engine) maxSteps(mkt *types.Market) int {
	if mkt.Liquidation.MaxSteps > 0 {
		return mkt.Liquidation.MaxSteps
	}
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	return max(e.DefaultMaxSteps, 1)
}

func (e *Engine) OnTimeUpdate(t time.Time) {
	e.now = t.UnixNano()
}

// UpdatePrice records the latest valid price of the market.
func (e *Engine) UpdatePrice(price *num.Uint) {
	if price == nil || price.IsZero() {
		return
	}
	e.lastPrice = price.Clone()
}

// LastPrice returns the last valid price, nil if none was seen yet.
func (e *Engine) LastPrice() *num.Uint {
	if e.lastPrice == nil {
		return nil
	}
	return e.lastPrice.Clone()
}

// CheckParty runs the safety check of a party at the last valid price.
func (e *Engine) CheckParty(mkt *types.Market, party string) Check {
	return CheckPosition(mkt, e.ledger.GetPosition(party), e.lastPrice)
}

// Records returns the liquidation history of the market.
func (e *Engine) Records() []*types.LiquidationRecord {
	out := make([]*types.LiquidationRecord, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Clone())
	}
	return out
}

// Scan checks every open position at the last valid price and liquidates
// the unsafe ones. Nothing happens before a first valid price.
func (e *Engine) Scan(ctx context.Context, mkt *types.Market) []*types.LiquidationRecord {
	if e.lastPrice == nil {
		return nil
	}
	open := e.ledger.OpenPositions()
	parties := make([]string, 0, len(open))
	for _, p := range open {
		parties = append(parties, p.Party)
	}
	return e.CheckParties(ctx, mkt, parties)
}

// CheckParties liquidates the unsafe positions among parties, in party
// order.
func (e *Engine) CheckParties(ctx context.Context, mkt *types.Market, parties []string) []*types.LiquidationRecord {
	if e.lastPrice == nil || len(parties) == 0 {
		return nil
	}
	parties = slices.Clone(parties)
	slices.Sort(parties)
	parties = slices.Compact(parties)

	var out []*types.LiquidationRecord
	for _, party := range parties {
		recs, err := e.Liquidate(ctx, mkt, party, e.lastPrice)
		out = append(out, recs...)
		if err != nil {
			e.log.Error("liquidation incomplete",
				logging.MarketID(e.marketID),
				logging.PartyID(party),
				logging.Error(err))
		}
	}
	return out
}

// Liquidate reduces an unsafe position until it is safe again or closed.
// Large solvent positions are reduced in partial steps, everything else is
// closed in one step after any projected shortfall was offered to the
// insurance fund. Safe and flat positions are left untouched.
func (e *Engine) Liquidate(ctx context.Context, mkt *types.Market, party string, price *num.Uint) ([]*types.LiquidationRecord, error) {
	if price == nil || price.IsZero() {
		return nil, types.ErrStalePrice
	}
	pos := e.ledger.GetPosition(party)
	c := CheckPosition(mkt, pos, price)
	if !c.Liquidatable {
		return nil, nil
	}

	e.log.Info("liquidating position",
		logging.MarketID(e.marketID),
		logging.PartyID(party),
		logging.Int64("size", pos.Size),
		logging.BigInt("effective-margin", c.Effective),
		logging.BigUint("maintenance", c.Maintenance))

	if err := e.book.CancelPartyOrders(ctx, party); err != nil {
		return nil, fmt.Errorf("cancelling orders of %s: %w", party, err)
	}

	var out []*types.LiquidationRecord
	for step := 0; step < e.maxSteps(mkt) && c.Liquidatable; step++ {
		size, partial := stepSize(mkt, pos, c)
		if !partial {
			recs, err := e.closeOut(ctx, mkt, pos, price)
			return append(out, recs...), err
		}
		rec, err := e.liquidateStep(ctx, mkt, pos, size, price, true)
		if err != nil {
			return out, err
		}
		if rec == nil {
			break
		}
		out = append(out, rec)
		pos = e.ledger.GetPosition(party)
		c = CheckPosition(mkt, pos, price)
	}
	return out, nil
}

// closeOut closes the whole position. A negative effective margin at price
// is first offered to the insurance fund, whatever it cannot cover is
// absorbed by deleveraging opposite positions at the bankruptcy price.
func (e *Engine) closeOut(ctx context.Context, mkt *types.Market, pos *types.Position, price *num.Uint) ([]*types.LiquidationRecord, error) {
	covered := num.UintZero()
	effective := pos.EffectiveMargin(price)
	if effective.IsNegative() {
		shortfall := effective.Abs()
		covered = e.cover(ctx, pos.Party, shortfall)
		if covered.LT(shortfall) {
			return e.deleverage(ctx, pos.Party, price, shortfall, covered)
		}
		pos = e.ledger.GetPosition(pos.Party)
	}

	rec, err := e.liquidateStep(ctx, mkt, pos, pos.AbsSize(), price, false)
	if err != nil || rec == nil {
		// nothing realised, the fund keeps its money until the next attempt
		e.refund(ctx, pos.Party, covered)
		return nil, err
	}

	after := e.ledger.GetPosition(pos.Party)
	switch {
	case after.Size != 0:
		e.refund(ctx, pos.Party, covered)
	case after.Margin.IsNegative():
		// fees or a worse fill can still leave a closed position in debt
		debt := after.Margin.Abs()
		extra := e.cover(ctx, pos.Party, debt)
		if extra.LT(debt) {
			err = e.reportShortfall(ctx, pos.Party, debt, extra, 0)
		}
	case !covered.IsZero() && after.Margin.IsPositive():
		// a better fill than projected needed less of the coverage
		e.refund(ctx, pos.Party, num.Min(covered, after.Margin.Abs()))
	}
	return []*types.LiquidationRecord{rec}, err
}

func (e *Engine) cover(ctx context.Context, party string, amount *num.Uint) *num.Uint {
	covered := e.insurance.CoverShortfall(ctx, e.marketID, amount)
	if covered == nil {
		return num.UintZero()
	}
	covered = num.Min(covered, amount).Clone()
	if !covered.IsZero() {
		e.ledger.TransferMargin(ctx, party, num.IntFromUint(covered, true), events.MarginChangeInsurance)
	}
	return covered
}

// refund returns unused insurance coverage from the party's margin to the
// fund.
func (e *Engine) refund(ctx context.Context, party string, amount *num.Uint) {
	if amount == nil || amount.IsZero() {
		return
	}
	amount = amount.Clone()
	e.ledger.TransferMargin(ctx, party, num.IntFromUint(amount, false), events.MarginChangeInsurance)
	e.insurance.Deposit(ctx, e.marketID, amount)
}

func (e *Engine) reportShortfall(ctx context.Context, party string, amount, covered *num.Uint, deleveraged uint64) error {
	err := fmt.Errorf("%w: %s of %s uncovered for %s", types.ErrShortfallUnrecoverable,
		num.UintZero().Sub(amount, covered), amount, party)
	e.log.Error("insurance fund could not cover shortfall",
		logging.MarketID(e.marketID),
		logging.PartyID(party),
		logging.BigUint("shortfall", amount),
		logging.BigUint("covered", covered),
		logging.Uint64("deleveraged", deleveraged))
	metrics.ShortfallCounterInc(e.marketID)
	e.broker.Send(events.NewShortfallEvent(ctx, events.ShortfallData{
		MarketID:    e.marketID,
		Party:       party,
		Amount:      amount.Clone(),
		Covered:     covered.Clone(),
		Deleveraged: deleveraged,
		Error:       err.Error(),
	}))
	return err
}

// liquidateStep submits one IOC order closing size of the position at
// price. It returns nil when the book could not fill any of it.
func (e *Engine) liquidateStep(ctx context.Context, mkt *types.Market, pos *types.Position, size uint64, price *num.Uint, partial bool) (*types.LiquidationRecord, error) {
	side := closeSide(pos)
	lp := liquidationPrice(mkt, side, price)
	filled, err := e.book.SubmitLiquidationOrder(ctx, pos.Party, side, size, lp)
	if err != nil {
		return nil, fmt.Errorf("liquidation order for %s: %w", pos.Party, err)
	}
	if filled == 0 {
		e.log.Warn("no liquidity for liquidation order, retrying on next scan",
			logging.MarketID(e.marketID),
			logging.PartyID(pos.Party),
			logging.Uint64("size", size),
			logging.BigUint("price", lp))
		return nil, nil
	}

	penalty := num.MulRate(num.Notional(lp, filled), mkt.Liquidation.PenaltyRate)
	after := e.ledger.GetPosition(pos.Party)
	if after.Margin.IsPositive() {
		penalty = num.Min(penalty, after.Margin.Abs()).Clone()
	} else {
		penalty = num.UintZero()
	}
	if !penalty.IsZero() {
		e.ledger.TransferMargin(ctx, pos.Party, num.IntFromUint(penalty, false), events.MarginChangePenalty)
		e.insurance.Deposit(ctx, e.marketID, penalty)
	}

	rec := &types.LiquidationRecord{
		ID:        e.idgen.NextID(),
		Party:     pos.Party,
		MarketID:  e.marketID,
		Size:      filled,
		Side:      side,
		Price:     lp,
		Penalty:   penalty,
		Partial:   partial || filled < size,
		Timestamp: e.now,
	}
	e.record(ctx, rec)
	return rec, nil
}

func (e *Engine) record(ctx context.Context, rec *types.LiquidationRecord) {
	e.records = append(e.records, rec)
	kind := "full"
	switch {
	case rec.ADL:
		kind = "adl"
	case rec.Partial:
		kind = "partial"
	}
	metrics.LiquidationCounterInc(e.marketID, kind)
	e.broker.Send(events.NewLiquidationEvent(ctx, rec))
	if e.log.IsDebug() {
		e.log.Debug("liquidation recorded", logging.String("record", rec.String()))
	}
}
