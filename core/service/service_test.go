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

package service_test

import (
	"context"
	"testing"
	"time"

	"code.vegaprotocol.io/perps/core/auth"
	"code.vegaprotocol.io/perps/core/oracle"
	"code.vegaprotocol.io/perps/core/service"
	"code.vegaprotocol.io/perps/core/service/mocks"
	"code.vegaprotocol.io/perps/core/types"
	vgcontext "code.vegaprotocol.io/perps/libs/context"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testService struct {
	*service.Service
	ctx     context.Context
	exec    *mocks.MockExecutionEngine
	oracle  *mocks.MockPriceOracle
	markets *mocks.MockMarketAdmin
}

func getTestService(t *testing.T) *testService {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logging.NewTestLogger()

	cfg := auth.NewDefaultConfig()
	cfg.Grants["feed-1"] = []string{"price-feed"}
	cfg.Grants["ops"] = []string{"admin"}
	authoriser, err := auth.NewStatic(log, cfg)
	require.NoError(t, err)

	ts := &testService{
		ctx:     context.Background(),
		exec:    mocks.NewMockExecutionEngine(ctrl),
		oracle:  mocks.NewMockPriceOracle(ctrl),
		markets: mocks.NewMockMarketAdmin(ctrl),
	}
	ts.Service = service.New(log, service.NewDefaultConfig(), authoriser, ts.exec, ts.oracle, ts.markets)
	return ts
}

func TestTradingCalls(t *testing.T) {
	ts := getTestService(t)
	sub := types.OrderSubmission{MarketID: "BTC-PERP", Side: types.SideBuy}

	ts.exec.EXPECT().SubmitOrder(gomock.Any(), "A", sub).DoAndReturn(
		func(ctx context.Context, party string, _ types.OrderSubmission) (*types.OrderConfirmation, error) {
			// every call carries a trace ID
			_, traceID := vgcontext.TraceIDFromContext(context.Background())
			_, callID := vgcontext.TraceIDFromContext(ctx)
			assert.NotEqual(t, traceID, callID)
			return &types.OrderConfirmation{Order: &types.Order{ID: "o1", Party: party}}, nil
		})
	conf, err := ts.SubmitOrder(ts.ctx, "A", sub)
	require.NoError(t, err)
	assert.Equal(t, "o1", conf.Order.ID)

	ts.exec.EXPECT().CancelOrder(gomock.Any(), "A", "BTC-PERP", "o1").Return(&types.Order{ID: "o1"}, nil)
	_, err = ts.CancelOrder(ts.ctx, "A", "BTC-PERP", "o1")
	require.NoError(t, err)

	ts.exec.EXPECT().AddMargin(gomock.Any(), "A", "BTC-PERP", num.NewUint(10)).Return(nil)
	require.NoError(t, ts.AddMargin(ts.ctx, "A", "BTC-PERP", num.NewUint(10)))

	ts.exec.EXPECT().RemoveMargin(gomock.Any(), "A", "BTC-PERP", num.NewUint(5)).Return(types.ErrInsufficientMargin)
	assert.ErrorIs(t, ts.RemoveMargin(ts.ctx, "A", "BTC-PERP", num.NewUint(5)), types.ErrInsufficientMargin)

	t.Run("anonymous callers never reach the engine", func(t *testing.T) {
		_, err := ts.SubmitOrder(ts.ctx, "", sub)
		assert.ErrorIs(t, err, auth.ErrUnauthorised)
		_, err = ts.CancelAllOrders(ts.ctx, "", "BTC-PERP")
		assert.ErrorIs(t, err, auth.ErrUnauthorised)
	})
}

func TestSourcePrices(t *testing.T) {
	ts := getTestService(t)
	sp := &types.SourcePrice{MarketID: "BTC-PERP", Price: num.NewUint(100)}

	err := ts.SubmitSourcePrice(ts.ctx, "A", sp)
	assert.ErrorIs(t, err, auth.ErrUnauthorised)

	ts.oracle.EXPECT().SubmitSourcePrice(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, got *types.SourcePrice) error {
			assert.Equal(t, "feed-1", got.SourceID)
			return nil
		})
	require.NoError(t, ts.SubmitSourcePrice(ts.ctx, "feed-1", sp))

	spoofed := &types.SourcePrice{SourceID: "feed-2", MarketID: "BTC-PERP", Price: num.NewUint(100)}
	assert.ErrorIs(t, ts.SubmitSourcePrice(ts.ctx, "feed-1", spoofed), auth.ErrUnauthorised)

	t.Run("missing report", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.ErrorIs(t, ts.SubmitSourcePrice(ts.ctx, "feed-1", nil), oracle.ErrInvalidReport)
		})
	})
}

func TestProposeMarketUpdate(t *testing.T) {
	ts := getTestService(t)
	mkt := &types.Market{ID: "BTC-PERP"}
	at := time.Unix(1700000000, 0)

	assert.ErrorIs(t, ts.ProposeMarketUpdate(ts.ctx, "A", mkt, at), auth.ErrUnauthorised)

	ts.markets.EXPECT().ProposeUpdate(gomock.Any(), mkt, at).Return(nil)
	require.NoError(t, ts.ProposeMarketUpdate(ts.ctx, "ops", mkt, at))
}

func TestReadsNeedNoCapability(t *testing.T) {
	ts := getTestService(t)
	ts.exec.EXPECT().OrderBookSnapshot(gomock.Any(), "BTC-PERP", 5).Return(&types.BookSnapshot{MarketID: "BTC-PERP"}, nil)
	snap, err := ts.OrderBookSnapshot(ts.ctx, "BTC-PERP", 5)
	require.NoError(t, err)
	assert.Equal(t, "BTC-PERP", snap.MarketID)

	ts.exec.EXPECT().GetPosition(gomock.Any(), "nobody", "BTC-PERP").Return(nil, types.ErrPositionNotFound)
	_, err = ts.GetPosition(ts.ctx, "nobody", "BTC-PERP")
	assert.ErrorIs(t, err, types.ErrPositionNotFound)
}
