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

package matching

import (
	"context"
	"time"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/crypto"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// IDGenerator provides the deterministic trade IDs.
type IDGenerator interface {
	NextID() string
}

// TradeHandler receives the effects of matching synchronously: every fill
// is delivered before the next one is computed.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/trade_handler_mock.go -package mocks code.vegaprotocol.io/perps/core/matching TradeHandler
type TradeHandler interface {
	OnTrade(ctx context.Context, trade *types.Trade)
	OnOrderUpdate(ctx context.Context, order *types.Order)
}

// OrderBook represents the book holding all orders in the system.
type OrderBook struct {
	Config

	log             *logging.Logger
	marketID        string
	market          *types.Market
	buy             *OrderBookSide
	sell            *OrderBookSide
	lastTradedPrice *num.Uint

	// pending and resting orders
	ordersByID map[string]*types.Order
	// admission queue, in sequence order
	queue      []*types.Order
	terminated *lru.Cache[string, types.OrderStatus]

	seq      uint64
	tradeSeq uint64
	now      int64

	idgen   IDGenerator
	handler TradeHandler
}

// NewOrderBook create an order book with a given name.
func NewOrderBook(log *logging.Logger, config Config, market *types.Market, idgen IDGenerator, handler TradeHandler) *OrderBook {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	size := config.TerminatedCacheSize
	if size <= 0 {
		size = NewDefaultConfig().TerminatedCacheSize
	}
	terminated, _ := lru.New[string, types.OrderStatus](size)

	return &OrderBook{
		log:             log,
		marketID:        market.ID,
		market:          market,
		buy:             newOrderBookSide(log, types.SideBuy),
		sell:            newOrderBookSide(log, types.SideSell),
		Config:          config,
		ordersByID:      map[string]*types.Order{},
		queue:           []*types.Order{},
		terminated:      terminated,
		lastTradedPrice: num.UintZero(),
		idgen:           idgen,
		handler:         handler,
	}
}

// ReloadConf is used in order to reload the internal configuration of
// the OrderBook.
func (b *OrderBook) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}
	b.Config = cfg
}

// UpdateMarket swaps the market parameters used for validation, orders
// already on the book are untouched.
func (b *OrderBook) UpdateMarket(mkt *types.Market) {
	if mkt.ID != b.marketID {
		b.log.Panic("market parameters for another market",
			logging.MarketID(b.marketID),
			logging.String("update", mkt.ID))
	}
	b.market = mkt
}

// OnTimeUpdate sets the time used to stamp orders and trades.
func (b *OrderBook) OnTimeUpdate(t time.Time) {
	b.now = t.UnixNano()
}

func (b *OrderBook) MarketID() string {
	return b.marketID
}

// PlaceOrder validates an order and queues it for the next match step. The
// book takes ownership of the order.
func (b *OrderBook) PlaceOrder(o *types.Order) error {
	if err := b.validateOrder(o); err != nil {
		if oe, ok := err.(types.OrderError); ok {
			o.Reason = oe
		}
		o.Status = types.OrderStatusRejected
		if b.log.IsDebug() {
			b.log.Debug("order rejected", logging.Order(o), logging.Error(err))
		}
		return err
	}

	b.seq++
	o.SeqNum = b.seq
	o.Status = types.OrderStatusPending
	o.CreatedAt = b.now
	o.UpdatedAt = b.now
	if o.Type == types.OrderTypeMarket {
		o.Price = nil
	}
	b.ordersByID[o.ID] = o
	b.queue = append(b.queue, o)
	return nil
}

// CancelOrder cancels a pending or resting order. Cancelling an order
// that already reached a terminal state returns ErrOrderAlreadyTerminal
// as long as the book still remembers it.
func (b *OrderBook) CancelOrder(orderID string) (*types.Order, error) {
	o, ok := b.ordersByID[orderID]
	if !ok {
		if _, ok := b.terminated.Get(orderID); ok {
			return nil, types.ErrOrderAlreadyTerminal
		}
		return nil, types.ErrOrderNotFound
	}
	b.cancel(o)
	return o.Clone(), nil
}

// CancelAllOrders cancels every pending and resting order of the book.
func (b *OrderBook) CancelAllOrders() []*types.Order {
	return b.cancelWhere(func(*types.Order) bool { return true })
}

// CancelPartyOrders cancels every pending and resting order of a party.
func (b *OrderBook) CancelPartyOrders(party string) []*types.Order {
	return b.cancelWhere(func(o *types.Order) bool { return o.Party == party })
}

func (b *OrderBook) cancelWhere(f func(*types.Order) bool) []*types.Order {
	// stable order: queued orders first, then each side best price first
	candidates := make([]*types.Order, 0, len(b.ordersByID))
	for _, o := range b.queue {
		if o.IsLive() {
			candidates = append(candidates, o)
		}
	}
	candidates = append(candidates, b.buy.liveOrders()...)
	candidates = append(candidates, b.sell.liveOrders()...)

	cancelled := []*types.Order{}
	for _, o := range candidates {
		if !f(o) {
			continue
		}
		b.cancel(o)
		cancelled = append(cancelled, o.Clone())
	}
	return cancelled
}

func (b *OrderBook) cancel(o *types.Order) {
	if o.Status != types.OrderStatusPending {
		if err := b.getSide(o.Side).RemoveOrder(o); err != nil {
			b.log.Panic("resting order missing from its price level",
				logging.Order(o),
				logging.Error(err))
		}
		metrics.OrderGaugeAdd(-1, b.marketID)
	}
	o.Status = types.OrderStatusCancelled
	o.UpdatedAt = b.now
	b.finish(o)
	if b.LogRemovedOrdersDebug {
		b.log.Debug("order cancelled", logging.Order(o))
	}
}

// finish forgets a terminated order, keeping its status around for
// cancellations racing with it.
func (b *OrderBook) finish(o *types.Order) {
	delete(b.ordersByID, o.ID)
	b.terminated.Add(o.ID, o.Status)
}

// MatchStep drains the admission queue in sequence order and matches each
// order against the book. Fills reach the TradeHandler one at a time before
// MatchStep returns. A cancelled context stops between two orders, the rest
// of the queue is processed by the next step.
func (b *OrderBook) MatchStep(ctx context.Context) ([]*types.Trade, error) {
	trades := []*types.Trade{}
	for len(b.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return trades, err
		}
		agg := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]

		// cancelled while waiting in the queue
		if !agg.IsLive() {
			continue
		}
		trades = append(trades, b.matchOrder(ctx, agg)...)
	}

	if b.LogPriceLevelsDebug {
		b.PrintState("after match step")
	}
	return trades, nil
}

func (b *OrderBook) matchOrder(ctx context.Context, agg *types.Order) []*types.Trade {
	var (
		opposite  = b.getOppositeSide(agg.Side)
		maxLevels = 0
	)
	if agg.Type == types.OrderTypeMarket {
		maxLevels = b.market.MaxMarketOrderLevels
	}

	switch {
	case agg.Type == types.OrderTypePostOnly && opposite.wouldCross(agg):
		b.reject(ctx, agg, types.OrderErrorPostOnlyWouldTrade)
		return nil
	case agg.TimeInForce == types.OrderTimeInForceFOK && opposite.fillableVolume(agg, maxLevels) < agg.Remaining:
		b.reject(ctx, agg, types.OrderErrorFOKNotFilled)
		return nil
	case agg.Type == types.OrderTypeMarket && opposite.fillableVolume(agg, maxLevels) == 0:
		b.reject(ctx, agg, types.OrderErrorNoLiquidity)
		return nil
	}

	trades := []*types.Trade{}
	if agg.Type != types.OrderTypePostOnly {
		for _, lvl := range opposite.crossingLevels(agg, maxLevels) {
			trades = append(trades, b.uncrossLevel(ctx, agg, lvl)...)
			lvl.collectGarbage()
			opposite.removeIfEmpty(lvl)
			if agg.Remaining == 0 {
				break
			}
		}
	}

	agg.UpdatedAt = b.now
	switch {
	case agg.Remaining == 0:
		agg.Status = types.OrderStatusFilled
		b.finish(agg)
	case agg.IsPersistent():
		agg.Status = types.OrderStatusActive
		if agg.HasTraded() {
			agg.Status = types.OrderStatusPartiallyFilled
		}
		b.getSide(agg.Side).addOrder(agg)
		metrics.OrderGaugeAdd(1, b.marketID)
	default:
		// IOC and market remainders never rest
		agg.Status = types.OrderStatusExpired
		b.finish(agg)
	}
	b.handler.OnOrderUpdate(ctx, agg.Clone())
	return trades
}

// uncrossLevel consumes the level in arrival order. Every resting order is
// re-checked right before being consumed, orders of the aggressor's party
// are skipped and left untouched.
func (b *OrderBook) uncrossLevel(ctx context.Context, agg *types.Order, lvl *PriceLevel) []*types.Trade {
	trades := []*types.Trade{}
	for _, passive := range lvl.orders {
		if agg.Remaining == 0 {
			break
		}
		if !passive.IsLive() || passive.Party == agg.Party {
			continue
		}

		size := min(agg.Remaining, passive.Remaining)
		lvl.reduce(size)
		agg.Remaining -= size
		agg.Status = types.OrderStatusPartiallyFilled
		passive.Remaining -= size
		passive.UpdatedAt = b.now
		passive.Status = types.OrderStatusPartiallyFilled
		if passive.Remaining == 0 {
			lvl.removeOrder(passive)
			passive.Status = types.OrderStatusFilled
			b.finish(passive)
			metrics.OrderGaugeAdd(-1, b.marketID)
		}

		trade := b.newTrade(agg, passive, size, lvl.price)
		b.lastTradedPrice = trade.Price.Clone()
		b.handler.OnTrade(ctx, trade)
		b.handler.OnOrderUpdate(ctx, passive.Clone())
		trades = append(trades, trade)
	}
	return trades
}

func (b *OrderBook) newTrade(agg, passive *types.Order, size uint64, price *num.Uint) *types.Trade {
	b.tradeSeq++
	buy, sell := agg, passive
	if agg.Side == types.SideSell {
		buy, sell = passive, agg
	}
	return &types.Trade{
		ID:          b.idgen.NextID(),
		MarketID:    b.marketID,
		Price:       price.Clone(),
		Size:        size,
		Buyer:       buy.Party,
		Seller:      sell.Party,
		BuyOrder:    buy.ID,
		SellOrder:   sell.ID,
		Aggressor:   agg.Side,
		SeqNum:      b.tradeSeq,
		Timestamp:   b.now,
		BuyerFee:    num.UintZero(),
		SellerFee:   num.UintZero(),
		Liquidation: agg.Liquidation || passive.Liquidation,
	}
}

func (b *OrderBook) reject(ctx context.Context, o *types.Order, reason types.OrderError) {
	o.Status = types.OrderStatusRejected
	o.Reason = reason
	o.UpdatedAt = b.now
	b.finish(o)
	if b.log.IsDebug() {
		b.log.Debug("order rejected at matching", logging.Order(o))
	}
	b.handler.OnOrderUpdate(ctx, o.Clone())
}

// GetOrderByID returns a copy of a pending or resting order.
func (b *OrderBook) GetOrderByID(orderID string) (*types.Order, error) {
	o, ok := b.ordersByID[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// BestBidPrice returns the highest bid on the book.
func (b *OrderBook) BestBidPrice() (*num.Uint, error) {
	price, _, err := b.buy.BestPriceAndVolume()
	return price, err
}

// BestOfferPrice returns the lowest offer on the book.
func (b *OrderBook) BestOfferPrice() (*num.Uint, error) {
	price, _, err := b.sell.BestPriceAndVolume()
	return price, err
}

func (b *OrderBook) LastTradedPrice() *num.Uint {
	return b.lastTradedPrice.Clone()
}

// Snapshot returns the aggregated levels of both sides, best first, at
// most depth levels per side when depth is positive.
func (b *OrderBook) Snapshot(depth int) *types.BookSnapshot {
	return &types.BookSnapshot{
		MarketID:  b.marketID,
		Buy:       b.buy.snapshot(depth),
		Sell:      b.sell.snapshot(depth),
		Timestamp: b.now,
	}
}

// Hash returns a digest of the aggregated book state.
func (b *OrderBook) Hash() []byte {
	return crypto.Hash(append(b.buy.Hash(), b.sell.Hash()...))
}

// GetTotalNumberOfOrders returns the number of resting orders.
func (b *OrderBook) GetTotalNumberOfOrders() int64 {
	return b.buy.getOrderCount() + b.sell.getOrderCount()
}

// GetTotalVolume returns the resting volume of both sides.
func (b *OrderBook) GetTotalVolume() uint64 {
	return b.buy.getTotalVolume() + b.sell.getTotalVolume()
}

// PendingOrders returns how many orders wait for the next match step.
func (b *OrderBook) PendingOrders() int {
	return len(b.queue)
}

func (b *OrderBook) getSide(side types.Side) *OrderBookSide {
	if side == types.SideBuy {
		return b.buy
	}
	return b.sell
}

func (b *OrderBook) getOppositeSide(side types.Side) *OrderBookSide {
	if side == types.SideBuy {
		return b.sell
	}
	return b.buy
}

// PrintState prints the actual state of the book.
// this should be use only in debug / non production environment as it
// rely a lot on logging.
func (b *OrderBook) PrintState(types string) {
	b.log.Debug("PrintState",
		logging.String("types", types))
	b.log.Debug("------------------------------------------------------------")
	b.log.Debug("                        BUY SIDE                            ")
	for _, lvl := range b.buy.snapshot(0) {
		b.log.Debug("level", logging.BigUint("price", lvl.Price), logging.Uint64("volume", lvl.Volume))
	}
	b.log.Debug("------------------------------------------------------------")
	b.log.Debug("                        SELL SIDE                           ")
	for _, lvl := range b.sell.snapshot(0) {
		b.log.Debug("level", logging.BigUint("price", lvl.Price), logging.Uint64("volume", lvl.Volume))
	}
	b.log.Debug("------------------------------------------------------------")
}
