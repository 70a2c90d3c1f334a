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
	"testing"
	"time"

	"code.vegaprotocol.io/perps/core/idgeneration"
	"code.vegaprotocol.io/perps/core/matching"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/stretchr/testify/require"
)

const market = "BTC-PERP"

type recorder struct {
	trades  []*types.Trade
	updates []*types.Order
}

func (r *recorder) OnTrade(_ context.Context, t *types.Trade) {
	r.trades = append(r.trades, t.Clone())
}

func (r *recorder) OnOrderUpdate(_ context.Context, o *types.Order) {
	r.updates = append(r.updates, o)
}

// last returns the latest update seen for an order.
func (r *recorder) last(id string) *types.Order {
	for i := len(r.updates) - 1; i >= 0; i-- {
		if r.updates[i].ID == id {
			return r.updates[i]
		}
	}
	return nil
}

type tstOB struct {
	ob  *matching.CachedOrderBook
	rec *recorder
	log *logging.Logger
}

func (t *tstOB) Finish() {
	t.log.Sync()
}

func testMarket() *types.Market {
	return &types.Market{
		ID:                    market,
		TickSize:              num.MustParseFixed("0.01"),
		LotSize:               num.MustParseFixedSize("0.001"),
		MaxLeverage:           num.DecimalFromInt64(20),
		InitialMarginRate:     num.MustDecimalFromString("0.01"),
		MaintenanceMarginRate: num.MustDecimalFromString("0.006"),
		MaxOrderSize:          num.MustParseFixedSize("1000"),
		MaxMarketOrderLevels:  3,
	}
}

func getTestOrderBook(t *testing.T) *tstOB {
	t.Helper()
	tob := &tstOB{
		rec: &recorder{},
		log: logging.NewTestLogger(),
	}
	cfg := matching.NewDefaultConfig()
	cfg.LogPriceLevelsDebug = true
	cfg.LogRemovedOrdersDebug = true
	tob.ob = matching.NewCachedOrderBook(tob.log, cfg, testMarket(), idgeneration.NewForMarket(market), tob.rec)
	tob.ob.OnTimeUpdate(time.Unix(1700000000, 0))
	return tob
}

func order(id, party string, side types.Side, price, size string, tif types.OrderTimeInForce) *types.Order {
	o := &types.Order{
		ID:          id,
		MarketID:    market,
		Party:       party,
		Side:        side,
		Type:        types.OrderTypeLimit,
		Size:        num.MustParseFixedSize(size),
		TimeInForce: tif,
	}
	o.Remaining = o.Size
	if len(price) > 0 {
		o.Price = num.MustParseFixed(price)
	} else {
		o.Type = types.OrderTypeMarket
	}
	return o
}

// submit places and matches a single order.
func (t *tstOB) submit(tt *testing.T, o *types.Order) []*types.Trade {
	tt.Helper()
	require.NoError(tt, t.ob.PlaceOrder(o))
	trades, err := t.ob.MatchStep(context.Background())
	require.NoError(tt, err)
	return trades
}
