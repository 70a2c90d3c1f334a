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
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/idgeneration"
	"code.vegaprotocol.io/perps/core/matching"
	"code.vegaprotocol.io/perps/core/monitor/breaker"
	"code.vegaprotocol.io/perps/core/positions"
	"code.vegaprotocol.io/perps/core/products"
	"code.vegaprotocol.io/perps/core/risk"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"

	"golang.org/x/exp/maps"
)

// a liquidation can touch counterparties that become liquidatable in turn.
const maxCheckRounds = 8

var (
	// ErrMarketStopped signals the market lane is no longer processing tasks.
	ErrMarketStopped = errors.New("market stopped")
	// ErrInvalidOrder is returned for a nil submission.
	ErrInvalidOrder = errors.New("invalid order")
)

// PriceOracle is the source of the aggregated market prices.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/perps/core/execution PriceOracle,InsuranceFund,Broker
type PriceOracle interface {
	GetPrice(marketID string, now time.Time) (*types.AggregatedPrice, error)
	OnTick(ctx context.Context, now time.Time)
}

// InsuranceFund covers shortfalls and collects liquidation penalties.
type InsuranceFund interface {
	CoverShortfall(ctx context.Context, marketID string, amount *num.Uint) *num.Uint
	Deposit(ctx context.Context, marketID string, amount *num.Uint)
	Balance(marketID string) *num.Uint
}

// Broker sends events to the sinks.
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// MarketData is the summary state of a market.
type MarketData struct {
	MarketID         string
	Version          uint64
	Halted           bool
	HaltedUntil      time.Time
	MarkPrice        *num.Uint
	LastTradedPrice  *num.Uint
	BestBid          *num.Uint
	BestOffer        *num.Uint
	OpenInterest     uint64
	FundingRate      num.Decimal
	NextFunding      time.Time
	InsuranceBalance *num.Uint
	FeePool          *num.Uint
}

// Market owns every engine of a single perpetual market. All state changes
// run on the market goroutine, one task at a time.
type Market struct {
	log       *logging.Logger
	mkt       *types.Market
	idgen     *idgeneration.IDGenerator
	oracle    PriceOracle
	insurance InsuranceFund
	broker    Broker

	book     *matching.CachedOrderBook
	position *positions.Engine
	risk     *risk.Engine
	perp     *products.Perpetual
	breaker  *breaker.Monitor

	tasks chan func()
	done  chan struct{}

	now           time.Time
	lastScan      time.Time
	scanInterval  time.Duration
	snapshotDepth int
	touched       map[string]struct{}
	tripped       bool
	liquidating   bool
}

// NewMarket creates the market and its engines. The market does not
// process anything until Run is called.
func NewMarket(
	log *logging.Logger,
	cfg Config,
	mkt *types.Market,
	oracle PriceOracle,
	insurance InsuranceFund,
	broker Broker,
	now time.Time,
) (*Market, error) {
	if mkt == nil {
		return nil, products.ErrNilMarket
	}
	log = log.Named(mkt.ID)

	m := &Market{
		log:           log,
		mkt:           mkt,
		idgen:         idgeneration.NewForMarket(mkt.ID),
		oracle:        oracle,
		insurance:     insurance,
		broker:        broker,
		tasks:         make(chan func(), cfg.TaskQueueSize),
		done:          make(chan struct{}),
		now:           now,
		lastScan:      now,
		scanInterval:  cfg.Risk.ScanInterval.Get(),
		snapshotDepth: cfg.SnapshotDepth,
		touched:       map[string]struct{}{},
	}

	m.position = positions.New(log, cfg.Position, mkt.ID, broker)
	m.book = matching.NewCachedOrderBook(log, cfg.Matching, mkt, m.idgen, m)
	m.risk = risk.New(log, cfg.Risk, mkt.ID, m.position, &liquidationBook{m: m}, insurance, broker, m.idgen)
	m.breaker = breaker.NewMonitor(log, mkt, broker)

	perp, err := products.NewPerpetual(log, mkt, oracle, m.position, broker, now)
	if err != nil {
		return nil, err
	}
	m.perp = perp

	m.book.OnTimeUpdate(now)
	m.position.OnTimeUpdate(now)
	m.risk.OnTimeUpdate(now)
	return m, nil
}

func (m *Market) MarketID() string {
	return m.mkt.ID
}

// Run processes the market tasks until ctx is done.
func (m *Market) Run(ctx context.Context) error {
	defer close(m.done)
	m.log.Info("market started", logging.MarketID(m.mkt.ID))
	for {
		select {
		case <-ctx.Done():
			m.log.Info("market stopped", logging.MarketID(m.mkt.ID))
			return nil
		case task := <-m.tasks:
			task()
		}
	}
}

// do runs task on the market goroutine and waits for it to complete.
// Once a task is queued the caller waits for it even if ctx is done, the
// task captures the caller's results.
func (m *Market) do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		task()
	}

	select {
	case m.tasks <- wrapped:
	case <-m.done:
		return ErrMarketStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-m.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrMarketStopped
		}
	}
}

// SubmitOrder validates, places and matches an order.
func (m *Market) SubmitOrder(ctx context.Context, order *types.Order) (conf *types.OrderConfirmation, err error) {
	if order == nil {
		return nil, ErrInvalidOrder
	}
	if derr := m.do(ctx, func() { conf, err = m.submitOrder(ctx, order) }); derr != nil {
		return nil, derr
	}
	return conf, err
}

// CancelOrder removes a live order of party from the book. Orders of other
// parties are reported as not found.
func (m *Market) CancelOrder(ctx context.Context, party, orderID string) (order *types.Order, err error) {
	if derr := m.do(ctx, func() { order, err = m.cancelOrder(ctx, party, orderID) }); derr != nil {
		return nil, derr
	}
	return order, err
}

// CancelPartyOrders removes every live order of a party.
func (m *Market) CancelPartyOrders(ctx context.Context, party string) (orders []*types.Order, err error) {
	if derr := m.do(ctx, func() { orders = m.cancelParty(ctx, party) }); derr != nil {
		return nil, derr
	}
	return orders, nil
}

func (m *Market) AddMargin(ctx context.Context, party string, amount *num.Uint) (err error) {
	if derr := m.do(ctx, func() {
		err = m.position.AddMargin(ctx, party, amount)
		m.position.FlushPositionEvents(ctx)
	}); derr != nil {
		return derr
	}
	return err
}

// RemoveMargin withdraws margin as long as the position stays above its
// maintenance requirement at the current market price.
func (m *Market) RemoveMargin(ctx context.Context, party string, amount *num.Uint) (err error) {
	if derr := m.do(ctx, func() { err = m.removeMargin(ctx, party, amount) }); derr != nil {
		return derr
	}
	return err
}

func (m *Market) GetPosition(ctx context.Context, party string) (pos *types.Position, err error) {
	if derr := m.do(ctx, func() {
		var ok bool
		if pos, ok = m.position.GetPositionByPartyID(party); !ok {
			err = types.ErrPositionNotFound
		}
	}); derr != nil {
		return nil, derr
	}
	return pos, err
}

func (m *Market) Positions(ctx context.Context) (positions []*types.Position, err error) {
	err = m.do(ctx, func() { positions = m.position.Positions() })
	return positions, err
}

// Snapshot returns the aggregated book up to depth levels per side, the
// configured depth when depth is not positive.
func (m *Market) Snapshot(ctx context.Context, depth int) (snap *types.BookSnapshot, err error) {
	if depth <= 0 {
		depth = m.snapshotDepth
	}
	err = m.do(ctx, func() { snap = m.book.Snapshot(depth) })
	return snap, err
}

func (m *Market) GetOrderByID(ctx context.Context, orderID string) (order *types.Order, err error) {
	if derr := m.do(ctx, func() { order, err = m.book.GetOrderByID(orderID) }); derr != nil {
		return nil, derr
	}
	return order, err
}

func (m *Market) Liquidations(ctx context.Context) (recs []*types.LiquidationRecord, err error) {
	err = m.do(ctx, func() { recs = m.risk.Records() })
	return recs, err
}

func (m *Market) MarketData(ctx context.Context) (data *MarketData, err error) {
	err = m.do(ctx, func() { data = m.marketData() })
	return data, err
}

// OnTick advances the market clock: pending matches, prices, circuit
// breaker, funding and the liquidation scan.
func (m *Market) OnTick(ctx context.Context, now time.Time) error {
	return m.do(ctx, func() { m.onTick(ctx, now) })
}

// UpdateMarket applies a new version of the market parameters.
func (m *Market) UpdateMarket(ctx context.Context, mkt *types.Market) error {
	return m.do(ctx, func() {
		m.mkt = mkt
		m.book.UpdateMarket(mkt)
		m.perp.UpdateMarket(mkt)
		m.breaker.UpdateSettings(mkt)
		m.log.Info("market parameters updated",
			logging.MarketID(mkt.ID),
			logging.Uint64("version", mkt.Version))
	})
}

func (m *Market) ReloadConf(ctx context.Context, cfg Config) error {
	return m.do(ctx, func() {
		m.book.ReloadConf(cfg.Matching)
		m.position.ReloadConf(cfg.Position)
		m.risk.ReloadConf(cfg.Risk)
		m.scanInterval = cfg.Risk.ScanInterval.Get()
		m.snapshotDepth = cfg.SnapshotDepth
	})
}

func (m *Market) submitOrder(ctx context.Context, o *types.Order) (*types.OrderConfirmation, error) {
	defer metrics.EngineTimeCounterAdd(time.Now(), m.mkt.ID, "execution", "SubmitOrder")

	if len(o.ID) == 0 {
		o.ID = m.idgen.NextID()
	}
	o.Status = types.OrderStatusPending
	o.Reason = types.OrderErrorUnspecified
	o.Liquidation = false
	o.CreatedAt = m.now.UnixNano()

	if err := m.book.ValidateOrder(o); err != nil {
		return m.rejectOrder(ctx, o, err)
	}
	if reason := m.preTradeChecks(o); reason != types.OrderErrorUnspecified {
		return m.rejectOrder(ctx, o, reason)
	}

	if err := m.book.PlaceOrder(o); err != nil {
		return m.rejectOrder(ctx, o, err)
	}
	m.position.RegisterOrder(ctx, o)
	m.broker.Send(events.NewOrderEvent(ctx, o))
	metrics.OrderCounterInc(m.mkt.ID, o.Status.String())

	trades, err := m.book.MatchStep(ctx)
	if err != nil {
		m.log.Warn("matching interrupted, pending orders resume on next tick",
			logging.Order(o),
			logging.Error(err))
	}
	m.afterMatch(ctx)

	return &types.OrderConfirmation{
		Order:  o.Clone(),
		Trades: trades,
	}, err
}

func (m *Market) rejectOrder(ctx context.Context, o *types.Order, err error) (*types.OrderConfirmation, error) {
	reason, _ := types.IsOrderError(err)
	o.Status = types.OrderStatusRejected
	o.Reason = reason
	o.UpdatedAt = m.now.UnixNano()

	if m.log.IsDebug() {
		m.log.Debug("order rejected",
			logging.Order(o),
			logging.Error(err))
	}
	m.broker.Send(events.NewOrderEvent(ctx, o))
	metrics.OrderCounterInc(m.mkt.ID, o.Status.String())
	return &types.OrderConfirmation{Order: o.Clone()}, err
}

// reduces tells whether the order, together with the party's live orders
// on the same side, can only bring the position closer to flat.
func reduces(pos *types.Position, o *types.Order) bool {
	if pos.Size == 0 {
		return false
	}
	if pos.IsLong() {
		return o.Side == types.SideSell && pos.SellPotential+o.Size <= pos.AbsSize()
	}
	return o.Side == types.SideBuy && pos.BuyPotential+o.Size <= pos.AbsSize()
}

func (m *Market) preTradeChecks(o *types.Order) types.OrderError {
	pos := m.position.GetPosition(o.Party)
	reducing := reduces(pos, o)

	if o.ReduceOnly && !reducing {
		return types.OrderErrorReduceOnlyWouldNotReduce
	}
	if err := m.breaker.CanSubmit(reducing); err != nil {
		return types.OrderErrorMarketHalted
	}
	if reducing {
		return types.OrderErrorUnspecified
	}

	if o.Side == types.SideBuy {
		pos.BuyPotential += o.Size
	} else {
		pos.SellPotential += o.Size
	}
	worst := pos.WorstCaseSize()
	if m.mkt.MaxPositionSize > 0 && worst > m.mkt.MaxPositionSize {
		return types.OrderErrorPositionAboveMaximum
	}

	price, err := m.oracle.GetPrice(m.mkt.ID, m.now)
	if err != nil {
		m.log.Warn("no valid price for margin check",
			logging.Order(o),
			logging.Error(err))
		return types.OrderErrorNoValidPrice
	}
	m.risk.UpdatePrice(price.Price)

	required := num.MulRate(num.Notional(price.Price, worst), m.mkt.InitialRate())
	if pos.EffectiveMargin(price.Price).LT(num.IntFromUint(required, true)) {
		return types.OrderErrorMarginCheckFailed
	}
	return types.OrderErrorUnspecified
}

func (m *Market) cancelOrder(ctx context.Context, party, orderID string) (*types.Order, error) {
	if existing, err := m.book.GetOrderByID(orderID); err == nil && existing.Party != party {
		return nil, types.ErrOrderNotFound
	}
	o, err := m.book.CancelOrder(orderID)
	if err != nil {
		return nil, err
	}
	m.orderLeftBook(ctx, o)
	m.position.FlushPositionEvents(ctx)
	return o, nil
}

func (m *Market) cancelParty(ctx context.Context, party string) []*types.Order {
	orders := m.book.CancelPartyOrders(party)
	for _, o := range orders {
		m.orderLeftBook(ctx, o)
	}
	m.position.FlushPositionEvents(ctx)
	return orders
}

func (m *Market) cancelAll(ctx context.Context) {
	orders := m.book.CancelAllOrders()
	for _, o := range orders {
		m.orderLeftBook(ctx, o)
	}
	m.log.Info("cancelled all orders",
		logging.MarketID(m.mkt.ID),
		logging.Int("count", len(orders)))
}

func (m *Market) orderLeftBook(ctx context.Context, o *types.Order) {
	if !o.Liquidation {
		m.position.UnregisterOrder(ctx, o)
	}
	m.broker.Send(events.NewOrderEvent(ctx, o))
	metrics.OrderCounterInc(m.mkt.ID, o.Status.String())
}

func (m *Market) removeMargin(ctx context.Context, party string, amount *num.Uint) error {
	price, err := m.oracle.GetPrice(m.mkt.ID, m.now)
	if err != nil {
		return err
	}
	m.risk.UpdatePrice(price.Price)
	if err := m.position.RemoveMargin(ctx, m.mkt, party, amount, price.Price); err != nil {
		return err
	}
	m.position.FlushPositionEvents(ctx)
	return nil
}

// OnTrade charges fees and applies a fill to both counterparties.
func (m *Market) OnTrade(ctx context.Context, trade *types.Trade) {
	notional := num.Notional(trade.Price, trade.Size)
	taker := num.MulRate(notional, m.mkt.TakerFeeRate)
	maker := num.MulRate(notional, m.mkt.MakerFeeRate)
	if trade.Aggressor == types.SideBuy {
		trade.BuyerFee, trade.SellerFee = taker, maker
	} else {
		trade.BuyerFee, trade.SellerFee = maker, taker
	}

	m.position.Update(ctx, trade)
	m.broker.Send(events.NewTradeEvent(ctx, *trade))
	metrics.TradeCounterAdd(1, m.mkt.ID)

	m.touched[trade.Buyer] = struct{}{}
	m.touched[trade.Seller] = struct{}{}

	if m.breaker.OnPrice(ctx, trade.Price, m.now) {
		m.tripped = true
	}
}

// OnOrderUpdate publishes order changes made by matching and releases the
// potential of orders that will not rest.
func (m *Market) OnOrderUpdate(ctx context.Context, o *types.Order) {
	if !o.Liquidation && o.Remaining > 0 &&
		(o.Status == types.OrderStatusExpired || o.Status == types.OrderStatusRejected) {
		m.position.UnregisterOrder(ctx, o)
	}
	m.broker.Send(events.NewOrderEvent(ctx, o))
	if o.IsFinished() {
		metrics.OrderCounterInc(m.mkt.ID, o.Status.String())
	}
}

// afterMatch runs once a matching step is complete: liquidations of the
// parties the step touched, then the halt cancellation if the breaker
// tripped.
func (m *Market) afterMatch(ctx context.Context) {
	m.checkTouched(ctx)
	if m.tripped {
		m.tripped = false
		m.cancelAll(ctx)
	}
	m.position.FlushPositionEvents(ctx)
}

func (m *Market) checkTouched(ctx context.Context) {
	if m.liquidating {
		return
	}
	m.liquidating = true
	defer func() { m.liquidating = false }()

	for round := 0; round < maxCheckRounds && len(m.touched) > 0; round++ {
		parties := maps.Keys(m.touched)
		m.touched = map[string]struct{}{}
		m.risk.CheckParties(ctx, m.mkt, parties)
	}
	if len(m.touched) > 0 {
		m.log.Warn("parties left for the next scan",
			logging.Strings("parties", maps.Keys(m.touched)))
		m.touched = map[string]struct{}{}
	}
}

func (m *Market) onTick(ctx context.Context, now time.Time) {
	defer metrics.EngineTimeCounterAdd(time.Now(), m.mkt.ID, "execution", "OnTick")

	if now.Before(m.now) {
		now = m.now
	}
	m.now = now
	m.book.OnTimeUpdate(now)
	m.position.OnTimeUpdate(now)
	m.risk.OnTimeUpdate(now)

	if m.book.PendingOrders() > 0 {
		if _, err := m.book.MatchStep(ctx); err != nil {
			m.log.Warn("matching interrupted", logging.Error(err))
		}
	}

	if price, err := m.oracle.GetPrice(m.mkt.ID, now); err == nil {
		m.risk.UpdatePrice(price.Price)
		if m.breaker.OnPrice(ctx, price.Price, now) {
			m.tripped = true
		}
	}
	m.breaker.OnTick(ctx, now)

	settled, err := m.perp.OnTick(ctx, now)
	if err != nil && m.log.IsDebug() {
		m.log.Debug("funding period not settled", logging.Error(err))
	}
	if settled {
		for _, pos := range m.position.OpenPositions() {
			m.touched[pos.Party] = struct{}{}
		}
	}

	if now.Sub(m.lastScan) >= m.scanInterval {
		m.lastScan = now
		m.liquidating = true
		m.risk.Scan(ctx, m.mkt)
		m.liquidating = false
	}

	m.afterMatch(ctx)
}

func (m *Market) marketData() *MarketData {
	data := &MarketData{
		MarketID:         m.mkt.ID,
		Version:          m.mkt.Version,
		Halted:           m.breaker.Halted(),
		HaltedUntil:      m.breaker.HaltedUntil(),
		MarkPrice:        m.risk.LastPrice(),
		LastTradedPrice:  m.book.LastTradedPrice(),
		OpenInterest:     m.position.GetOpenInterest(),
		FundingRate:      m.perp.LastRate(),
		NextFunding:      m.perp.NextFundingTime(),
		InsuranceBalance: m.insurance.Balance(m.mkt.ID),
		FeePool:          m.position.FeePool(),
	}
	if p, err := m.book.BestBidPrice(); err == nil {
		data.BestBid = p
	}
	if p, err := m.book.BestOfferPrice(); err == nil {
		data.BestOffer = p
	}
	return data
}

// liquidationBook gives the risk engine access to the book of its market.
// It is only used from the market goroutine.
type liquidationBook struct {
	m *Market
}

func (b *liquidationBook) CancelPartyOrders(ctx context.Context, party string) error {
	b.m.cancelParty(ctx, party)
	return nil
}

func (b *liquidationBook) SubmitLiquidationOrder(ctx context.Context, party string, side types.Side, size uint64, price *num.Uint) (uint64, error) {
	m := b.m
	o := &types.Order{
		ID:          m.idgen.NextID(),
		MarketID:    m.mkt.ID,
		Party:       party,
		Side:        side,
		Type:        types.OrderTypeLimit,
		Price:       price.Clone(),
		Size:        size,
		Remaining:   size,
		TimeInForce: types.OrderTimeInForceIOC,
		Status:      types.OrderStatusPending,
		CreatedAt:   m.now.UnixNano(),
		ReduceOnly:  true,
		Liquidation: true,
	}
	if err := m.book.PlaceOrder(o); err != nil {
		return 0, err
	}
	m.broker.Send(events.NewOrderEvent(ctx, o))
	if _, err := m.book.MatchStep(ctx); err != nil {
		return o.Filled(), err
	}
	return o.Filled(), nil
}
