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

package execution_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/execution"
	"code.vegaprotocol.io/perps/core/execution/mocks"
	"code.vegaprotocol.io/perps/core/insurance"
	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketID = "BTC-PERP"

var t0 = time.Unix(1700000000, 0)

type testEngine struct {
	*execution.Engine
	ctx      context.Context
	oracle   *mocks.MockPriceOracle
	broker   *mocks.MockBroker
	pool     *insurance.Pool
	provider *markets.Provider

	mu     sync.Mutex
	prices map[string]*num.Uint
	events []events.Event
}

func px(s string) *num.Uint {
	return num.MustParseFixed(s)
}

func sz(s string) uint64 {
	return num.MustParseFixedSize(s)
}

func btcPerp(opts ...func(*types.Market)) *types.Market {
	mkt := markets.DefaultMarkets()[0]
	for _, o := range opts {
		o(mkt)
	}
	return mkt
}

func noBreaker(mkt *types.Market) {
	mkt.CircuitBreaker.Windows = nil
}

func startEngine(t *testing.T, mkts ...*types.Market) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logging.NewTestLogger()

	te := &testEngine{
		ctx:    context.Background(),
		prices: map[string]*num.Uint{},
	}
	te.oracle = mocks.NewMockPriceOracle(ctrl)
	te.oracle.EXPECT().OnTick(gomock.Any(), gomock.Any()).AnyTimes()
	te.oracle.EXPECT().GetPrice(gomock.Any(), gomock.Any()).DoAndReturn(te.getPrice).AnyTimes()
	te.broker = mocks.NewMockBroker(ctrl)
	te.broker.EXPECT().Send(gomock.Any()).Do(func(evt events.Event) { te.record(evt) }).AnyTimes()
	te.broker.EXPECT().SendBatch(gomock.Any()).Do(func(evts []events.Event) { te.record(evts...) }).AnyTimes()

	var err error
	te.pool, err = insurance.New(log, insurance.NewDefaultConfig())
	require.NoError(t, err)
	te.provider, err = markets.New(log, markets.NewDefaultConfig(), te.broker, mkts)
	require.NoError(t, err)

	cfg := execution.NewDefaultConfig()
	// ticks are driven by the tests
	cfg.TickInterval = encoding.Duration{}
	te.Engine, err = execution.New(log, cfg, te.provider, te.oracle, te.pool, te.broker, t0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- te.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return te
}

func (te *testEngine) getPrice(id string, now time.Time) (*types.AggregatedPrice, error) {
	te.mu.Lock()
	defer te.mu.Unlock()
	p, ok := te.prices[id]
	if !ok {
		return nil, types.ErrStalePrice
	}
	return &types.AggregatedPrice{
		MarketID:   id,
		Price:      p.Clone(),
		Confidence: num.DecimalOne(),
		Timestamp:  now.UnixNano(),
	}, nil
}

func (te *testEngine) setPrice(id, price string) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.prices[id] = px(price)
}

func (te *testEngine) record(evts ...events.Event) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.events = append(te.events, evts...)
}

func (te *testEngine) count(typ events.Type) int {
	te.mu.Lock()
	defer te.mu.Unlock()
	n := 0
	for _, e := range te.events {
		if e.Type() == typ {
			n++
		}
	}
	return n
}

func (te *testEngine) submit(party string, side types.Side, price, size string) (*types.OrderConfirmation, error) {
	return te.SubmitOrder(te.ctx, party, types.OrderSubmission{
		MarketID:    marketID,
		Side:        side,
		Type:        types.OrderTypeLimit,
		Price:       px(price),
		Size:        sz(size),
		TimeInForce: types.OrderTimeInForceGTC,
	})
}

func (te *testEngine) deposit(t *testing.T, party, amount string) {
	t.Helper()
	require.NoError(t, te.AddMargin(te.ctx, party, marketID, px(amount)))
}

func (te *testEngine) margin(t *testing.T, party string) string {
	t.Helper()
	pos, err := te.GetPosition(te.ctx, party, marketID)
	require.NoError(t, err)
	return num.FormatFixedInt(pos.Margin)
}

func TestCrossingOrdersTrade(t *testing.T) {
	te := startEngine(t, btcPerp())
	te.setPrice(marketID, "100")
	te.deposit(t, "A", "10")
	te.deposit(t, "B", "10")

	bid, err := te.submit("A", types.SideBuy, "100", "1")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, bid.Order.Status)
	assert.Empty(t, bid.Trades)

	ask, err := te.submit("B", types.SideSell, "100", "1")
	require.NoError(t, err)
	require.Len(t, ask.Trades, 1)
	assert.Equal(t, types.OrderStatusFilled, ask.Order.Status)

	trade := ask.Trades[0]
	assert.Equal(t, "A", trade.Buyer)
	assert.Equal(t, "B", trade.Seller)
	assert.Equal(t, sz("1"), trade.Size)
	assert.Equal(t, "100", num.FormatFixed(trade.Price))
	assert.Equal(t, types.SideSell, trade.Aggressor)

	resting, err := te.GetOrderByID(te.ctx, marketID, bid.Order.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
	assert.Nil(t, resting)

	a, err := te.GetPosition(te.ctx, "A", marketID)
	require.NoError(t, err)
	assert.Equal(t, int64(sz("1")), a.Size)
	assert.Equal(t, "100", num.FormatFixed(a.AverageEntryPrice))
	b, err := te.GetPosition(te.ctx, "B", marketID)
	require.NoError(t, err)
	assert.Equal(t, -int64(sz("1")), b.Size)
	assert.Equal(t, "100", num.FormatFixed(b.AverageEntryPrice))

	// maker pays 2bps, taker 5bps
	assert.Equal(t, "9.98", te.margin(t, "A"))
	assert.Equal(t, "9.95", te.margin(t, "B"))

	snap, err := te.OrderBookSnapshot(te.ctx, marketID, 0)
	require.NoError(t, err)
	assert.Empty(t, snap.Buy)
	assert.Empty(t, snap.Sell)
	assert.Equal(t, 1, te.count(events.TradeEvent))

	data, err := te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.Equal(t, sz("1"), data.OpenInterest)
	assert.Equal(t, "100", num.FormatFixed(data.LastTradedPrice))
	assert.Equal(t, "0.07", num.FormatFixed(data.FeePool))
}

func TestOrderRejections(t *testing.T) {
	te := startEngine(t, btcPerp())
	te.deposit(t, "A", "10")

	t.Run("risk increasing order needs a price", func(t *testing.T) {
		conf, err := te.submit("A", types.SideBuy, "100", "1")
		assert.ErrorIs(t, err, types.OrderErrorNoValidPrice)
		require.NotNil(t, conf)
		assert.Equal(t, types.OrderStatusRejected, conf.Order.Status)
		assert.Equal(t, types.OrderErrorNoValidPrice, conf.Order.Reason)
	})

	te.setPrice(marketID, "100")

	t.Run("initial margin covers the worst case exposure", func(t *testing.T) {
		// 3 * 100 * 5% = 15 > 10
		conf, err := te.submit("A", types.SideBuy, "100", "3")
		assert.ErrorIs(t, err, types.ErrInsufficientMargin)
		assert.Equal(t, types.OrderErrorMarginCheckFailed, conf.Order.Reason)

		_, err = te.submit("A", types.SideBuy, "99", "1")
		require.NoError(t, err)
		// the resting bid counts towards the worst case
		_, err = te.submit("A", types.SideBuy, "98", "1.5")
		assert.ErrorIs(t, err, types.OrderErrorMarginCheckFailed)
	})

	t.Run("reduce only needs a position to reduce", func(t *testing.T) {
		o := types.OrderSubmission{
			MarketID:    marketID,
			Side:        types.SideSell,
			Type:        types.OrderTypeLimit,
			Price:       px("101"),
			Size:        sz("1"),
			TimeInForce: types.OrderTimeInForceGTC,
			ReduceOnly:  true,
		}
		_, err := te.SubmitOrder(te.ctx, "A", o)
		assert.ErrorIs(t, err, types.OrderErrorReduceOnlyWouldNotReduce)
	})

	t.Run("tick and lot sizes are enforced", func(t *testing.T) {
		_, err := te.submit("A", types.SideBuy, "99.001", "0.1")
		assert.ErrorIs(t, err, types.OrderErrorInvalidTickSize)
		_, err = te.submit("A", types.SideBuy, "99", "0.0001")
		assert.ErrorIs(t, err, types.OrderErrorInvalidLotSize)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("unknown market", func(t *testing.T) {
		_, err := te.SubmitOrder(te.ctx, "A", types.OrderSubmission{MarketID: "ETH-PERP"})
		assert.ErrorIs(t, err, execution.ErrMarketDoesNotExist)
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestCancelOrder(t *testing.T) {
	te := startEngine(t, btcPerp())
	te.setPrice(marketID, "100")
	te.deposit(t, "A", "10")

	conf, err := te.submit("A", types.SideBuy, "99", "1")
	require.NoError(t, err)

	pos, err := te.GetPosition(te.ctx, "A", marketID)
	require.NoError(t, err)
	assert.Equal(t, sz("1"), pos.BuyPotential)

	_, err = te.CancelOrder(te.ctx, "B", marketID, conf.Order.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)

	cancelled, err := te.CancelOrder(te.ctx, "A", marketID, conf.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, cancelled.Status)

	pos, err = te.GetPosition(te.ctx, "A", marketID)
	require.NoError(t, err)
	assert.Zero(t, pos.BuyPotential)

	_, err = te.CancelOrder(te.ctx, "A", marketID, conf.Order.ID)
	assert.ErrorIs(t, err, types.ErrOrderAlreadyTerminal)
}

func TestRemoveMarginUsesMarketPrice(t *testing.T) {
	te := startEngine(t, btcPerp())
	te.deposit(t, "A", "10")

	err := te.RemoveMargin(te.ctx, "A", marketID, px("1"))
	assert.ErrorIs(t, err, types.ErrStalePrice)

	te.setPrice(marketID, "100")
	require.NoError(t, te.RemoveMargin(te.ctx, "A", marketID, px("4")))
	assert.Equal(t, "6", te.margin(t, "A"))
}

func TestCircuitBreakerHaltsMarket(t *testing.T) {
	te := startEngine(t, btcPerp())
	te.setPrice(marketID, "100")
	for _, p := range []string{"A", "B", "D"} {
		te.deposit(t, p, "100")
	}

	_, err := te.submit("B", types.SideSell, "100", "1")
	require.NoError(t, err)
	_, err = te.submit("B", types.SideSell, "110", "1")
	require.NoError(t, err)
	conf, err := te.submit("A", types.SideBuy, "100", "1")
	require.NoError(t, err)
	require.Len(t, conf.Trades, 1)

	_, err = te.submit("D", types.SideSell, "106", "1")
	require.NoError(t, err)
	// 6% above the last minute reference trips the breaker
	conf, err = te.submit("A", types.SideBuy, "106", "1")
	require.NoError(t, err)
	require.Len(t, conf.Trades, 1)

	data, err := te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.True(t, data.Halted)
	assert.Equal(t, t0.Add(5*time.Minute), data.HaltedUntil)
	assert.Equal(t, 1, te.count(events.CircuitBreakerEvent))

	// resting orders were cancelled on the trip
	snap, err := te.OrderBookSnapshot(te.ctx, marketID, 10)
	require.NoError(t, err)
	assert.Empty(t, snap.Sell)
	pos, err := te.GetPosition(te.ctx, "B", marketID)
	require.NoError(t, err)
	assert.Zero(t, pos.SellPotential)

	_, err = te.submit("A", types.SideBuy, "100", "0.5")
	assert.ErrorIs(t, err, types.OrderErrorMarketHalted)

	reduce, err := te.SubmitOrder(te.ctx, "A", types.OrderSubmission{
		MarketID:    marketID,
		Side:        types.SideSell,
		Type:        types.OrderTypeLimit,
		Price:       px("120"),
		Size:        sz("1"),
		TimeInForce: types.OrderTimeInForceGTC,
		ReduceOnly:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, reduce.Order.Status)

	t.Run("plain order that only reduces is accepted", func(t *testing.T) {
		conf, err := te.submit("A", types.SideSell, "125", "1")
		require.NoError(t, err)
		assert.Equal(t, types.OrderStatusActive, conf.Order.Status)

		// with both sells resting a third one would flip the position
		_, err = te.submit("A", types.SideSell, "130", "1")
		assert.ErrorIs(t, err, types.OrderErrorMarketHalted)
	})

	require.NoError(t, te.Tick(te.ctx, t0.Add(time.Minute)))
	data, err = te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.True(t, data.Halted)

	require.NoError(t, te.Tick(te.ctx, t0.Add(6*time.Minute)))
	data, err = te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.False(t, data.Halted)

	conf, err = te.submit("A", types.SideBuy, "100", "0.5")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, conf.Order.Status)
}

func TestLiquidationOnTick(t *testing.T) {
	te := startEngine(t, btcPerp(noBreaker))
	te.setPrice(marketID, "100")
	te.deposit(t, "A", "6")
	te.deposit(t, "B", "100")
	te.deposit(t, "C", "100")

	_, err := te.submit("B", types.SideSell, "100", "1")
	require.NoError(t, err)
	_, err = te.submit("A", types.SideBuy, "100", "1")
	require.NoError(t, err)
	assert.Equal(t, "5.95", te.margin(t, "A"))

	_, err = te.submit("C", types.SideBuy, "95", "1")
	require.NoError(t, err)

	// 5.95 - 5 = 0.95 above 0.006 * 95 = 0.57
	te.setPrice(marketID, "95")
	require.NoError(t, te.Tick(te.ctx, t0.Add(2*time.Second)))
	recs, err := te.Liquidations(te.ctx, marketID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// 5.95 - 5.5 = 0.45 below 0.006 * 94.5 = 0.567
	te.setPrice(marketID, "94.5")
	require.NoError(t, te.Tick(te.ctx, t0.Add(4*time.Second)))

	recs, err = te.Liquidations(te.ctx, marketID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Party)
	assert.Equal(t, sz("1"), recs[0].Size)
	assert.Equal(t, types.SideSell, recs[0].Side)
	assert.False(t, recs[0].Partial)

	a, err := te.GetPosition(te.ctx, "A", marketID)
	require.NoError(t, err)
	assert.Zero(t, a.Size)
	// filled at 95: 0.95 - 0.0475 taker fee, the rest goes to insurance
	assert.True(t, a.Margin.IsZero())
	assert.Equal(t, "0.9025", num.FormatFixed(te.pool.Balance(marketID)))

	c, err := te.GetPosition(te.ctx, "C", marketID)
	require.NoError(t, err)
	assert.Equal(t, int64(sz("1")), c.Size)

	// liquidating again is a no-op
	require.NoError(t, te.Tick(te.ctx, t0.Add(6*time.Second)))
	recs, err = te.Liquidations(te.ctx, marketID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestFundingOnTick(t *testing.T) {
	te := startEngine(t, btcPerp(func(m *types.Market) {
		m.Funding.Interval = time.Hour
	}))
	te.setPrice(marketID, "100")
	te.setPrice("BTC-INDEX", "100")
	te.deposit(t, "A", "10")
	te.deposit(t, "B", "10")

	_, err := te.submit("A", types.SideBuy, "100", "1")
	require.NoError(t, err)
	_, err = te.submit("B", types.SideSell, "100", "1")
	require.NoError(t, err)

	require.NoError(t, te.Tick(te.ctx, t0.Add(30*time.Minute)))
	assert.Zero(t, te.count(events.FundingPeriodEvent))

	// 1bp + 1% premium, capped at 75bps of the index
	te.setPrice(marketID, "101")
	require.NoError(t, te.Tick(te.ctx, t0.Add(time.Hour)))
	assert.Equal(t, 1, te.count(events.FundingPeriodEvent))
	assert.Equal(t, 1, te.count(events.FundingPaymentsEvent))

	assert.Equal(t, "9.23", te.margin(t, "A"))
	assert.Equal(t, "10.7", te.margin(t, "B"))

	data, err := te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.Equal(t, "0.0075", data.FundingRate.String())
	assert.Equal(t, t0.Add(2*time.Hour), data.NextFunding)
}

func TestTimelockedMarketUpdates(t *testing.T) {
	te := startEngine(t, btcPerp())

	updated := btcPerp()
	updated.TakerFeeRate = num.MustDecimalFromString("0.001")
	require.NoError(t, te.provider.ProposeUpdate(te.ctx, updated, t0.Add(time.Minute)))

	eth := btcPerp()
	eth.ID = "ETH-PERP"
	eth.Funding.IndexFeed = "ETH-INDEX"
	require.NoError(t, te.provider.ProposeUpdate(te.ctx, eth, t0.Add(time.Minute)))

	require.NoError(t, te.Tick(te.ctx, t0.Add(30*time.Second)))
	data, err := te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), data.Version)
	assert.Equal(t, []string{marketID}, te.Markets())

	require.NoError(t, te.Tick(te.ctx, t0.Add(2*time.Minute)))
	data, err = te.MarketData(te.ctx, marketID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), data.Version)
	assert.Equal(t, []string{"BTC-PERP", "ETH-PERP"}, te.Markets())

	// the new market is running
	ethData, err := te.MarketData(te.ctx, "ETH-PERP")
	require.NoError(t, err)
	assert.False(t, ethData.Halted)
}

func TestStoppedMarketRefusesWork(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logging.NewTestLogger()
	oracle := mocks.NewMockPriceOracle(ctrl)
	broker := mocks.NewMockBroker(ctrl)
	broker.EXPECT().Send(gomock.Any()).AnyTimes()
	broker.EXPECT().SendBatch(gomock.Any()).AnyTimes()
	pool, err := insurance.New(log, insurance.NewDefaultConfig())
	require.NoError(t, err)

	m, err := execution.NewMarket(log, execution.NewDefaultConfig(), btcPerp(), oracle, pool, broker, t0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Run(ctx))

	_, err = m.MarketData(context.Background())
	assert.ErrorIs(t, err, execution.ErrMarketStopped)
}
