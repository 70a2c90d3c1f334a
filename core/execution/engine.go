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

package execution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrMarketDoesNotExist signals the market ID is unknown to the engine.
	ErrMarketDoesNotExist = fmt.Errorf("%w: market does not exist", types.ErrValidation)
	// ErrEngineAlreadyStarted is returned when Start is called twice.
	ErrEngineAlreadyStarted = errors.New("engine already started")
)

// MarketProvider supplies the market definitions and their timelocked
// updates.
type MarketProvider interface {
	List() []*types.Market
	OnTick(ctx context.Context, now time.Time) []*types.Market
}

// Engine owns the markets and drives their clock.
type Engine struct {
	Config
	log *logging.Logger

	provider  MarketProvider
	oracle    PriceOracle
	insurance InsuranceFund
	broker    Broker

	mu      sync.RWMutex
	markets map[string]*Market
	group   *errgroup.Group
	gctx    context.Context
	now     time.Time

	tickMu sync.Mutex
}

// New creates the engine and a market for every definition of the
// provider. Markets start processing once Start is called.
func New(
	log *logging.Logger,
	cfg Config,
	provider MarketProvider,
	oracle PriceOracle,
	insurance InsuranceFund,
	broker Broker,
	now time.Time,
) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	e := &Engine{
		Config:    cfg,
		log:       log,
		provider:  provider,
		oracle:    oracle,
		insurance: insurance,
		broker:    broker,
		markets:   map[string]*Market{},
		now:       now,
	}
	for _, mkt := range provider.List() {
		if _, err := e.addMarket(mkt); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ReloadConf updates the internal configuration of the engine and of every
// market.
func (e *Engine) ReloadConf(ctx context.Context, cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.mu.Lock()
	e.Config = cfg
	e.mu.Unlock()

	for _, m := range e.sortedMarkets() {
		if err := m.ReloadConf(ctx, cfg); err != nil {
			e.log.Warn("could not reload market configuration",
				logging.MarketID(m.MarketID()),
				logging.Error(err))
		}
	}
}

func (e *Engine) addMarket(mkt *types.Market) (*Market, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.markets[mkt.ID]; ok {
		return nil, fmt.Errorf("%w: duplicate market %s", types.ErrInvalidMarketConfig, mkt.ID)
	}
	m, err := NewMarket(e.log, e.Config, mkt, e.oracle, e.insurance, e.broker, e.now)
	if err != nil {
		return nil, err
	}
	e.markets[mkt.ID] = m
	if e.group != nil {
		e.group.Go(func() error { return m.Run(e.gctx) })
	}
	e.log.Info("market created",
		logging.MarketID(mkt.ID),
		logging.Uint64("version", mkt.Version))
	return m, nil
}

// Start runs every market and, when a tick interval is configured, the
// engine clock. It returns once ctx is done and every market stopped.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.group != nil {
		e.mu.Unlock()
		return ErrEngineAlreadyStarted
	}
	e.group, e.gctx = errgroup.WithContext(ctx)
	g, gctx := e.group, e.gctx
	for _, m := range e.markets {
		m := m
		g.Go(func() error { return m.Run(gctx) })
	}
	interval := e.TickInterval.Get()
	e.mu.Unlock()

	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case now := <-ticker.C:
					if err := e.Tick(gctx, now); err != nil && gctx.Err() == nil {
						e.log.Error("engine tick failed", logging.Error(err))
					}
				}
			}
		})
	}
	return g.Wait()
}

// Tick advances the engine clock: oracle staleness, timelocked market
// updates, then every market in parallel.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	defer metrics.EngineTimeCounterAdd(time.Now(), "all", "execution", "Tick")

	e.mu.Lock()
	e.now = now
	e.mu.Unlock()

	e.oracle.OnTick(ctx, now)
	for _, mkt := range e.provider.OnTick(ctx, now) {
		e.applyMarket(ctx, mkt)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range e.sortedMarkets() {
		m := m
		g.Go(func() error { return m.OnTick(gctx, now) })
	}
	err := g.Wait()

	e.broker.Send(events.NewTime(ctx, now))
	return err
}

func (e *Engine) applyMarket(ctx context.Context, mkt *types.Market) {
	e.mu.RLock()
	m, ok := e.markets[mkt.ID]
	e.mu.RUnlock()

	if !ok {
		if _, err := e.addMarket(mkt); err != nil {
			e.log.Error("could not create market",
				logging.MarketID(mkt.ID),
				logging.Error(err))
		}
		return
	}
	if err := m.UpdateMarket(ctx, mkt); err != nil {
		e.log.Error("could not update market",
			logging.MarketID(mkt.ID),
			logging.Error(err))
	}
}

func (e *Engine) market(marketID string) (*Market, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.markets[marketID]
	if !ok {
		return nil, ErrMarketDoesNotExist
	}
	return m, nil
}

func (e *Engine) sortedMarkets() []*Market {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Market, 0, len(e.markets))
	for _, m := range e.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID() < out[j].MarketID() })
	return out
}

// Markets returns the IDs of every market, sorted.
func (e *Engine) Markets() []string {
	mkts := e.sortedMarkets()
	ids := make([]string, 0, len(mkts))
	for _, m := range mkts {
		ids = append(ids, m.MarketID())
	}
	return ids
}

// SubmitOrder places an order for party. A rejected order is returned in
// the confirmation along with the rejection reason.
func (e *Engine) SubmitOrder(ctx context.Context, party string, sub types.OrderSubmission) (*types.OrderConfirmation, error) {
	m, err := e.market(sub.MarketID)
	if err != nil {
		return nil, err
	}
	return m.SubmitOrder(ctx, sub.IntoOrder(party))
}

func (e *Engine) CancelOrder(ctx context.Context, party, marketID, orderID string) (*types.Order, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.CancelOrder(ctx, party, orderID)
}

func (e *Engine) CancelAllOrders(ctx context.Context, party, marketID string) ([]*types.Order, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.CancelPartyOrders(ctx, party)
}

func (e *Engine) AddMargin(ctx context.Context, party, marketID string, amount *num.Uint) error {
	m, err := e.market(marketID)
	if err != nil {
		return err
	}
	return m.AddMargin(ctx, party, amount)
}

func (e *Engine) RemoveMargin(ctx context.Context, party, marketID string, amount *num.Uint) error {
	m, err := e.market(marketID)
	if err != nil {
		return err
	}
	return m.RemoveMargin(ctx, party, amount)
}

func (e *Engine) GetPosition(ctx context.Context, party, marketID string) (*types.Position, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.GetPosition(ctx, party)
}

func (e *Engine) Positions(ctx context.Context, marketID string) ([]*types.Position, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.Positions(ctx)
}

func (e *Engine) GetOrderByID(ctx context.Context, marketID, orderID string) (*types.Order, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.GetOrderByID(ctx, orderID)
}

// OrderBookSnapshot returns the aggregated book levels of a market.
func (e *Engine) OrderBookSnapshot(ctx context.Context, marketID string, depth int) (*types.BookSnapshot, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.Snapshot(ctx, depth)
}

func (e *Engine) Liquidations(ctx context.Context, marketID string) ([]*types.LiquidationRecord, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.Liquidations(ctx)
}

func (e *Engine) MarketData(ctx context.Context, marketID string) (*MarketData, error) {
	m, err := e.market(marketID)
	if err != nil {
		return nil, err
	}
	return m.MarketData(ctx)
}
