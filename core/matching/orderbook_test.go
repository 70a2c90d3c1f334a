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

package matching_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"code.vegaprotocol.io/perps/core/idgeneration"
	"code.vegaprotocol.io/perps/core/matching"
	"code.vegaprotocol.io/perps/core/matching/mocks"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gtc = types.OrderTimeInForceGTC
	ioc = types.OrderTimeInForceIOC
	fok = types.OrderTimeInForceFOK
)

func TestOrderBook_SimpleCross(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()

	bid := order("o1", "A", types.SideBuy, "100", "1", gtc)
	ask := order("o2", "B", types.SideSell, "100", "1", gtc)

	assert.Empty(t, book.submit(t, bid))
	assert.Equal(t, types.OrderStatusActive, bid.Status)
	assert.Equal(t, uint64(1), bid.SeqNum)

	trades := book.submit(t, ask)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(2), ask.SeqNum)

	tr := trades[0]
	assert.Equal(t, "100", num.FormatFixed(tr.Price))
	assert.Equal(t, num.MustParseFixedSize("1"), tr.Size)
	assert.Equal(t, "A", tr.Buyer)
	assert.Equal(t, "B", tr.Seller)
	assert.Equal(t, "o1", tr.BuyOrder)
	assert.Equal(t, "o2", tr.SellOrder)
	assert.Equal(t, types.SideSell, tr.Aggressor)

	assert.Equal(t, types.OrderStatusFilled, bid.Status)
	assert.Equal(t, types.OrderStatusFilled, ask.Status)
	assert.Equal(t, types.OrderStatusFilled, book.rec.last("o1").Status)
	assert.Equal(t, types.OrderStatusFilled, book.rec.last("o2").Status)
	assert.Equal(t, int64(0), book.ob.GetTotalNumberOfOrders())
	assert.Len(t, book.rec.trades, 1)
}

func TestOrderBook_PriceTimePriority(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()

	book.submit(t, order("o1", "A", types.SideBuy, "100", "1", gtc))
	book.submit(t, order("o2", "C", types.SideBuy, "100", "1", gtc))
	book.submit(t, order("o3", "D", types.SideBuy, "101", "1", gtc))

	trades := book.submit(t, order("o4", "B", types.SideSell, "100", "2", gtc))
	require.Len(t, trades, 2)
	// best price first, then the earliest order at the price
	assert.Equal(t, "o3", trades[0].BuyOrder)
	assert.Equal(t, "101", num.FormatFixed(trades[0].Price))
	assert.Equal(t, "o1", trades[1].BuyOrder)
	assert.Equal(t, "100", num.FormatFixed(trades[1].Price))

	o2, err := book.ob.GetOrderByID("o2")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, o2.Status)
}

func TestOrderBook_PriceImprovementGoesToTaker(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()

	book.submit(t, order("s1", "A", types.SideSell, "101", "1", gtc))
	book.submit(t, order("s2", "A", types.SideSell, "102", "1", gtc))
	book.submit(t, order("s3", "A", types.SideSell, "103", "1", gtc))

	trades := book.submit(t, order("b1", "B", types.SideBuy, "102.5", "3", gtc))
	require.Len(t, trades, 2)
	assert.Equal(t, "101", num.FormatFixed(trades[0].Price))
	assert.Equal(t, "102", num.FormatFixed(trades[1].Price))

	// the remainder rests at its limit
	bid, err := book.ob.BestBidPrice()
	require.NoError(t, err)
	assert.Equal(t, "102.5", num.FormatFixed(bid))
	b1, err := book.ob.GetOrderByID("b1")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusPartiallyFilled, b1.Status)
	assert.Equal(t, num.MustParseFixedSize("1"), b1.Remaining)
}

func TestOrderBook_SelfTradePrevention(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()

	book.submit(t, order("s1", "A", types.SideSell, "100", "1", gtc))
	book.submit(t, order("s2", "B", types.SideSell, "100", "1", gtc))

	trades := book.submit(t, order("b1", "A", types.SideBuy, "100", "2", ioc))
	require.Len(t, trades, 1)
	assert.Equal(t, "s2", trades[0].SellOrder)
	assert.NotEqual(t, trades[0].Buyer, trades[0].Seller)

	// the order of the same party is left untouched
	s1, err := book.ob.GetOrderByID("s1")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, s1.Status)
	assert.Equal(t, s1.Size, s1.Remaining)
	assert.Equal(t, types.OrderStatusExpired, book.rec.last("b1").Status)
}

func TestOrderBook_TimeInForce(t *testing.T) {
	t.Run("IOC remainder expires", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		book.submit(t, order("s1", "A", types.SideSell, "100", "1", gtc))

		o := order("b1", "B", types.SideBuy, "100", "3", ioc)
		trades := book.submit(t, o)
		require.Len(t, trades, 1)
		assert.Equal(t, types.OrderStatusExpired, o.Status)
		assert.Equal(t, o.Size-trades[0].Size, o.Remaining)
		assert.Equal(t, int64(0), book.ob.GetTotalNumberOfOrders())
	})

	t.Run("IOC without liquidity expires untouched", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		o := order("b1", "B", types.SideBuy, "100", "3", ioc)
		assert.Empty(t, book.submit(t, o))
		assert.Equal(t, types.OrderStatusExpired, o.Status)
	})

	t.Run("FOK is all or nothing", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		book.submit(t, order("s1", "A", types.SideSell, "100", "1", gtc))
		book.submit(t, order("s2", "C", types.SideSell, "101", "1", gtc))
		before := book.ob.Hash()

		o := order("b1", "B", types.SideBuy, "101", "3", fok)
		assert.Empty(t, book.submit(t, o))
		assert.Equal(t, types.OrderStatusRejected, o.Status)
		assert.Equal(t, types.OrderErrorFOKNotFilled, o.Reason)
		assert.ErrorIs(t, o.Reason, types.ErrInsufficientLiquidity)
		assert.Equal(t, before, book.ob.Hash())

		o = order("b2", "B", types.SideBuy, "101", "2", fok)
		trades := book.submit(t, o)
		assert.Len(t, trades, 2)
		assert.Equal(t, types.OrderStatusFilled, o.Status)
	})

	t.Run("FOK does not count own orders", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		book.submit(t, order("s1", "B", types.SideSell, "100", "1", gtc))
		book.submit(t, order("s2", "C", types.SideSell, "100", "1", gtc))

		o := order("b1", "B", types.SideBuy, "100", "2", fok)
		assert.Empty(t, book.submit(t, o))
		assert.Equal(t, types.OrderStatusRejected, o.Status)
	})

	t.Run("GTC remainder queues behind existing orders", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		book.submit(t, order("b0", "A", types.SideBuy, "100", "1", gtc))
		// same party, no trade, both rest at 100
		book.submit(t, order("s1", "A", types.SideSell, "100", "1", gtc))
		// trades with s1 then rests at 100 behind b0
		trades := book.submit(t, order("b1", "B", types.SideBuy, "100", "2", gtc))
		require.Len(t, trades, 1)
		assert.Equal(t, "s1", trades[0].SellOrder)

		trades = book.submit(t, order("s2", "D", types.SideSell, "100", "1", gtc))
		require.Len(t, trades, 1)
		assert.Equal(t, "b0", trades[0].BuyOrder)
	})
}

func TestOrderBook_MarketOrders(t *testing.T) {
	t.Run("empty book rejects", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		o := order("m1", "A", types.SideBuy, "", "1", ioc)
		assert.Empty(t, book.submit(t, o))
		assert.Equal(t, types.OrderStatusRejected, o.Status)
		assert.Equal(t, types.OrderErrorNoLiquidity, o.Reason)
	})

	t.Run("stops after the maximum number of levels", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		for i, px := range []string{"100", "101", "102", "103"} {
			book.submit(t, order(fmt.Sprintf("s%d", i), "A", types.SideSell, px, "1", gtc))
		}
		o := order("m1", "B", types.SideBuy, "", "10", ioc)
		trades := book.submit(t, o)
		require.Len(t, trades, 3)
		assert.Equal(t, "102", num.FormatFixed(trades[2].Price))
		assert.Equal(t, types.OrderStatusExpired, o.Status)
		assert.Equal(t, int64(1), book.ob.GetTotalNumberOfOrders())
	})

	t.Run("GTC market orders are invalid", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		err := book.ob.PlaceOrder(order("m1", "B", types.SideBuy, "", "1", gtc))
		assert.Equal(t, types.OrderErrorInvalidTimeInForce, err)
	})
}

func TestOrderBook_PostOnly(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()
	book.submit(t, order("s1", "A", types.SideSell, "100", "1", gtc))

	crossing := order("p1", "B", types.SideBuy, "100", "1", gtc)
	crossing.Type = types.OrderTypePostOnly
	err := book.ob.PlaceOrder(crossing)
	assert.Equal(t, types.OrderErrorPostOnlyWouldTrade, err)
	assert.Equal(t, types.OrderStatusRejected, crossing.Status)

	passive := order("p2", "B", types.SideBuy, "99.99", "1", gtc)
	passive.Type = types.OrderTypePostOnly
	assert.Empty(t, book.submit(t, passive))
	assert.Equal(t, types.OrderStatusActive, passive.Status)

	// the book moves between admission and matching
	require.NoError(t, book.ob.PlaceOrder(order("s2", "D", types.SideSell, "99.5", "2", gtc)))
	late := order("p3", "C", types.SideBuy, "99.5", "1", gtc)
	late.Type = types.OrderTypePostOnly
	require.NoError(t, book.ob.PlaceOrder(late))
	trades, err := book.ob.MatchStep(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "p2", trades[0].BuyOrder)
	assert.Equal(t, types.OrderStatusRejected, late.Status)
	assert.Equal(t, types.OrderErrorPostOnlyWouldTrade, late.Reason)
}

func TestOrderBook_Validation(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(o *types.Order)
		err   types.OrderError
	}{
		{"off tick price", func(o *types.Order) { o.Price = num.MustParseFixed("100.005") }, types.OrderErrorInvalidTickSize},
		{"zero price", func(o *types.Order) { o.Price = num.UintZero() }, types.OrderErrorInvalidPrice},
		{"off lot size", func(o *types.Order) { o.Size, o.Remaining = 150_000, 150_000 }, types.OrderErrorInvalidLotSize},
		{"above maximum", func(o *types.Order) {
			o.Size = num.MustParseFixedSize("1001")
			o.Remaining = o.Size
		}, types.OrderErrorSizeAboveMaximum},
		{"missing party", func(o *types.Order) { o.Party = "" }, types.OrderErrorInvalidParty},
		{"wrong market", func(o *types.Order) { o.MarketID = "ETH-PERP" }, types.OrderErrorInvalidMarketID},
		{"post only IOC", func(o *types.Order) { o.Type = types.OrderTypePostOnly; o.TimeInForce = ioc }, types.OrderErrorInvalidTimeInForce},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			book := getTestOrderBook(t)
			defer book.Finish()
			o := order("o1", "A", types.SideBuy, "100", "1", gtc)
			c.tweak(o)
			err := book.ob.PlaceOrder(o)
			assert.Equal(t, c.err, err)
			assert.ErrorIs(t, err, types.ErrValidation)
			assert.Equal(t, 0, book.ob.PendingOrders())
		})
	}

	t.Run("duplicate ID", func(t *testing.T) {
		book := getTestOrderBook(t)
		defer book.Finish()
		book.submit(t, order("o1", "A", types.SideBuy, "100", "1", gtc))
		err := book.ob.PlaceOrder(order("o1", "A", types.SideBuy, "100", "1", gtc))
		assert.Equal(t, types.OrderErrorInvalidOrderID, err)
	})
}

func TestOrderBook_Cancel(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()

	book.submit(t, order("b1", "A", types.SideBuy, "100", "1", gtc))
	book.submit(t, order("b2", "B", types.SideBuy, "100", "2", gtc))

	cancelled, err := book.ob.CancelOrder("b1")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, cancelled.Status)

	snap := book.ob.Snapshot(0)
	require.Len(t, snap.Buy, 1)
	assert.Equal(t, num.MustParseFixedSize("2"), snap.Buy[0].Volume)
	assert.Equal(t, uint64(1), snap.Buy[0].NumberOfOrders)

	_, err = book.ob.CancelOrder("b1")
	assert.ErrorIs(t, err, types.ErrOrderAlreadyTerminal)
	_, err = book.ob.CancelOrder("nope")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)

	// the cancelled order is never matched
	trades := book.submit(t, order("s1", "C", types.SideSell, "100", "1", gtc))
	require.Len(t, trades, 1)
	assert.Equal(t, "b2", trades[0].BuyOrder)
}

func TestOrderBook_CancelWhileQueued(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()
	book.submit(t, order("s1", "A", types.SideSell, "100", "1", gtc))

	require.NoError(t, book.ob.PlaceOrder(order("b1", "B", types.SideBuy, "100", "1", gtc)))
	_, err := book.ob.CancelOrder("b1")
	require.NoError(t, err)

	trades, err := book.ob.MatchStep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, int64(1), book.ob.GetTotalNumberOfOrders())
}

func TestOrderBook_CancelPartyOrders(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()
	book.submit(t, order("b1", "A", types.SideBuy, "99", "1", gtc))
	book.submit(t, order("s1", "A", types.SideSell, "101", "1", gtc))
	book.submit(t, order("b2", "B", types.SideBuy, "98", "1", gtc))

	cancelled := book.ob.CancelPartyOrders("A")
	assert.Len(t, cancelled, 2)
	assert.Equal(t, int64(1), book.ob.GetTotalNumberOfOrders())

	cancelled = book.ob.CancelAllOrders()
	assert.Len(t, cancelled, 1)
	assert.Equal(t, uint64(0), book.ob.GetTotalVolume())
}

func TestOrderBook_MatchStepStopsOnCancelledContext(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()
	require.NoError(t, book.ob.PlaceOrder(order("b1", "A", types.SideBuy, "100", "1", gtc)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := book.ob.MatchStep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, book.ob.PendingOrders())

	_, err = book.ob.MatchStep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, book.ob.PendingOrders())
}

func TestOrderBook_SnapshotCache(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()
	book.submit(t, order("b1", "A", types.SideBuy, "100", "1", gtc))
	book.submit(t, order("b2", "A", types.SideBuy, "99", "1", gtc))

	snap := book.ob.Snapshot(1)
	require.Len(t, snap.Buy, 1)
	assert.Equal(t, "100", num.FormatFixed(snap.BestBid()))
	assert.Nil(t, snap.BestAsk())

	// callers cannot alter the cached copy
	snap.Buy[0].Volume = 0
	assert.Equal(t, num.MustParseFixedSize("1"), book.ob.Snapshot(1).Buy[0].Volume)

	_, err := book.ob.CancelOrder("b1")
	require.NoError(t, err)
	assert.Equal(t, "99", num.FormatFixed(book.ob.Snapshot(1).BestBid()))
}

func TestOrderBook_FillsDeliveredInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockTradeHandler(ctrl)
	ob := matching.NewOrderBook(logging.NewTestLogger(), matching.NewDefaultConfig(), testMarket(), idgeneration.NewForMarket(market), handler)

	handler.EXPECT().OnOrderUpdate(gomock.Any(), gomock.Any()).Times(2)
	require.NoError(t, ob.PlaceOrder(order("s1", "A", types.SideSell, "100", "1", gtc)))
	require.NoError(t, ob.PlaceOrder(order("s2", "A", types.SideSell, "101", "1", gtc)))
	_, err := ob.MatchStep(context.Background())
	require.NoError(t, err)

	gomock.InOrder(
		handler.EXPECT().OnTrade(gomock.Any(), gomock.Any()).Do(func(_ context.Context, tr *types.Trade) {
			assert.Equal(t, "s1", tr.SellOrder)
		}),
		handler.EXPECT().OnOrderUpdate(gomock.Any(), gomock.Any()).Do(func(_ context.Context, o *types.Order) {
			assert.Equal(t, "s1", o.ID)
			assert.Equal(t, types.OrderStatusFilled, o.Status)
		}),
		handler.EXPECT().OnTrade(gomock.Any(), gomock.Any()).Do(func(_ context.Context, tr *types.Trade) {
			assert.Equal(t, "s2", tr.SellOrder)
		}),
		handler.EXPECT().OnOrderUpdate(gomock.Any(), gomock.Any()).Do(func(_ context.Context, o *types.Order) {
			assert.Equal(t, "s2", o.ID)
		}),
		handler.EXPECT().OnOrderUpdate(gomock.Any(), gomock.Any()).Do(func(_ context.Context, o *types.Order) {
			assert.Equal(t, "b1", o.ID)
			assert.Equal(t, types.OrderStatusFilled, o.Status)
		}),
	)
	require.NoError(t, ob.PlaceOrder(order("b1", "B", types.SideBuy, "101", "2", gtc)))
	trades, err := ob.MatchStep(context.Background())
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestOrderBook_RandomFlowKeepsInvariants(t *testing.T) {
	book := getTestOrderBook(t)
	defer book.Finish()

	r := rand.New(rand.NewSource(42))
	parties := []string{"A", "B", "C", "D"}
	orders := map[string]*types.Order{}
	tifs := []types.OrderTimeInForce{gtc, gtc, ioc, fok}

	for i := 0; i < 500; i++ {
		side := types.SideBuy
		if r.Intn(2) == 0 {
			side = types.SideSell
		}
		price := fmt.Sprintf("%d", 95+r.Intn(10))
		size := fmt.Sprintf("0.%03d", 1+r.Intn(999))
		o := order(fmt.Sprintf("o%d", i), parties[r.Intn(len(parties))], side, price, size, tifs[r.Intn(len(tifs))])
		orders[o.ID] = o
		book.submit(t, o)

		if r.Intn(5) == 0 {
			_, _ = book.ob.CancelOrder(fmt.Sprintf("o%d", r.Intn(i+1)))
		}
	}

	net := map[string]int64{}
	var lastSeq uint64
	for _, tr := range book.rec.trades {
		assert.NotEqual(t, tr.Buyer, tr.Seller)
		assert.Greater(t, tr.SeqNum, lastSeq)
		lastSeq = tr.SeqNum
		net[tr.Buyer] += int64(tr.Size)
		net[tr.Seller] -= int64(tr.Size)
	}
	var sum int64
	for _, n := range net {
		sum += n
	}
	assert.Zero(t, sum)

	for _, o := range orders {
		assert.LessOrEqual(t, o.Filled(), o.Size)
		if o.Status == types.OrderStatusFilled {
			assert.Equal(t, o.Size, o.Filled())
		}
	}

	// the book is never left crossed between different parties
	snap := book.ob.Snapshot(0)
	if bid, ask := snap.BestBid(), snap.BestAsk(); bid != nil && ask != nil && bid.GTE(ask) {
		for _, o := range orders {
			if o.IsLive() && o.Side == types.SideBuy && o.Price.GTE(ask) {
				for _, s := range orders {
					if s.IsLive() && s.Side == types.SideSell && s.Price.LTE(o.Price) {
						assert.Equal(t, o.Party, s.Party)
					}
				}
			}
		}
	}
}
