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

package markets_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	bmocks "code.vegaprotocol.io/perps/core/broker/mocks"
	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsFile = `
[[market]]
id = "ETH-PERP"
tick_size = "0.05"
lot_size = "0.01"
max_leverage = "10"
initial_margin_rate = "0.1"
maintenance_margin_rate = "0.05"
maker_fee_rate = "0.0001"
taker_fee_rate = "0.0004"
max_order_size = "500"
max_position_size = "5000"
max_market_order_levels = 5

[market.liquidation]
partial_threshold = "50000"
partial_fraction = "0.5"
penalty_rate = "0.02"
max_steps = 2

[market.funding]
interval = "1h"
premium_multiplier = "1"
interest_rate = "0"
rate_cap = "0.01"
index_feed = "ETH-INDEX"

[market.circuit_breaker]
cooldown = "2m"

[[market.circuit_breaker.window]]
window = "30s"
threshold = "0.03"
`

func TestDecode(t *testing.T) {
	mkts, err := markets.Decode([]byte(marketsFile))
	require.NoError(t, err)
	require.Len(t, mkts, 1)

	m := mkts[0]
	assert.Equal(t, "ETH-PERP", m.ID)
	assert.Equal(t, "0.05", num.FormatFixed(m.TickSize))
	assert.Equal(t, num.MustParseFixedSize("0.01"), m.LotSize)
	assert.Equal(t, num.MustParseFixedSize("500"), m.MaxOrderSize)
	assert.Equal(t, "0.05", m.MaintenanceMarginRate.String())
	assert.Equal(t, time.Hour, m.Funding.Interval)
	assert.Equal(t, "ETH-INDEX", m.Funding.IndexFeed)
	assert.Equal(t, 2*time.Minute, m.CircuitBreaker.Cooldown)
	require.Len(t, m.CircuitBreaker.Windows, 1)
	assert.Equal(t, 30*time.Second, m.CircuitBreaker.Windows[0].Window)
	assert.Equal(t, "50000", num.FormatFixed(m.Liquidation.PartialThreshold))
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, markets.Encode(&buf, markets.DefaultMarkets()))

	mkts, err := markets.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, mkts, 1)
	assert.Equal(t, markets.DefinitionFromMarket(markets.DefaultMarkets()[0]), markets.DefinitionFromMarket(mkts[0]))
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"bad decimal": `
[[market]]
id = "X"
tick_size = "abc"
`,
		"missing lot": `
[[market]]
id = "X"
tick_size = "0.01"
maintenance_margin_rate = "0.01"
initial_margin_rate = "0.02"
`,
		"duplicate": `
[[market]]
id = "X"
tick_size = "0.01"
lot_size = "1"
maintenance_margin_rate = "0.01"
initial_margin_rate = "0.02"
[[market]]
id = "X"
tick_size = "0.01"
lot_size = "1"
maintenance_margin_rate = "0.01"
initial_margin_rate = "0.02"
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := markets.Decode([]byte(content))
			assert.ErrorIs(t, err, types.ErrInvalidMarketConfig)
		})
	}
}

type testProvider struct {
	*markets.Provider
	broker *bmocks.MockBrokerI
}

func getTestProvider(t *testing.T) *testProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := bmocks.NewMockBrokerI(ctrl)
	p, err := markets.New(logging.NewTestLogger(), markets.NewDefaultConfig(), broker, markets.DefaultMarkets())
	require.NoError(t, err)
	return &testProvider{Provider: p, broker: broker}
}

func TestTimelockedUpdate(t *testing.T) {
	ctx := context.Background()
	tp := getTestProvider(t)
	now := time.Unix(1700000000, 0)
	assert.Empty(t, tp.OnTick(ctx, now))

	current, err := tp.Get("BTC-PERP")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), current.Version)

	update := current.DeepClone()
	update.MaintenanceMarginRate = num.MustDecimalFromString("0.01")

	err = tp.ProposeUpdate(ctx, update, now.Add(30*time.Second))
	assert.ErrorIs(t, err, markets.ErrTimelockNotRespected)

	require.NoError(t, tp.ProposeUpdate(ctx, update, now.Add(time.Minute)))
	require.Len(t, tp.Pending(), 1)

	// not due yet
	assert.Empty(t, tp.OnTick(ctx, now.Add(59*time.Second)))
	current, _ = tp.Get("BTC-PERP")
	assert.Equal(t, "0.006", current.MaintenanceMarginRate.String())

	tp.broker.EXPECT().Send(gomock.Any()).Times(1).Do(func(evt events.Event) {
		assert.Equal(t, events.MarketUpdatedEvent, evt.Type())
	})
	applied := tp.OnTick(ctx, now.Add(time.Minute))
	require.Len(t, applied, 1)
	assert.Equal(t, uint64(2), applied[0].Version)
	assert.Equal(t, uint64(2), tp.Version())
	assert.Empty(t, tp.Pending())

	current, _ = tp.Get("BTC-PERP")
	assert.Equal(t, "0.01", current.MaintenanceMarginRate.String())
	assert.Equal(t, uint64(2), current.Version)
}

func TestNewMarketThroughProposal(t *testing.T) {
	ctx := context.Background()
	tp := getTestProvider(t)
	now := time.Unix(1700000000, 0)
	tp.OnTick(ctx, now)

	mkts, err := markets.Decode([]byte(marketsFile))
	require.NoError(t, err)

	_, err = tp.Get("ETH-PERP")
	assert.ErrorIs(t, err, markets.ErrMarketNotFound)

	// unchanged definitions are not proposed again
	tp.OnMarketsFile(ctx, append(mkts, markets.DefaultMarkets()...))
	pending := tp.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "ETH-PERP", pending[0].MarketID)

	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	tp.OnTick(ctx, now.Add(time.Minute))
	eth, err := tp.Get("ETH-PERP")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), eth.Version)

	list := tp.List()
	require.Len(t, list, 2)
	assert.Equal(t, "BTC-PERP", list[0].ID)
	assert.Equal(t, "ETH-PERP", list[1].ID)
}

func TestInvalidProposal(t *testing.T) {
	tp := getTestProvider(t)
	bad := markets.DefaultMarkets()[0]
	bad.LotSize = 0
	err := tp.ProposeUpdate(context.Background(), bad, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, types.ErrInvalidMarketConfig)
}

func TestConcurrentReadsDuringUpdate(t *testing.T) {
	ctx := context.Background()
	tp := getTestProvider(t)
	tp.broker.EXPECT().Send(gomock.Any()).AnyTimes()
	now := time.Unix(1700000000, 0)
	tp.OnTick(ctx, now)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 20; i++ {
			m, _ := tp.Get("BTC-PERP")
			upd := m.DeepClone()
			upd.MaxOrderSize = uint64(i) * num.MustParseFixedSize("1")
			at := now.Add(time.Duration(i) * time.Minute)
			assert.NoError(t, tp.ProposeUpdate(ctx, upd, at))
			tp.OnTick(ctx, at)
		}
	}()
	for i := 0; i < 200; i++ {
		m, err := tp.Get("BTC-PERP")
		require.NoError(t, err)
		// a snapshot is never observed half applied
		assert.NotZero(t, m.MaxOrderSize)
		assert.NotNil(t, m.TickSize)
	}
	wg.Wait()
	m, _ := tp.Get("BTC-PERP")
	assert.Equal(t, uint64(21), m.Version)
}
