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

package breaker_test

import (
	"context"
	"testing"
	"time"

	bmocks "code.vegaprotocol.io/perps/core/broker/mocks"
	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/monitor/breaker"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1700000000, 0)

type testMonitor struct {
	*breaker.Monitor
	broker *bmocks.MockBrokerI
	sent   []events.CircuitBreakerData
}

func getTestMonitor(t *testing.T) *testMonitor {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := bmocks.NewMockBrokerI(ctrl)
	mkt := &types.Market{
		ID: "BTC-PERP",
		CircuitBreaker: types.CircuitBreakerParameters{
			Windows: []types.BreakerWindow{
				{Window: time.Minute, Threshold: num.MustDecimalFromString("0.05")},
				{Window: 15 * time.Minute, Threshold: num.MustDecimalFromString("0.1")},
			},
			Cooldown: 5 * time.Minute,
		},
	}
	tm := &testMonitor{
		Monitor: breaker.NewMonitor(logging.NewTestLogger(), mkt, broker),
		broker:  broker,
	}
	broker.EXPECT().Send(gomock.Any()).AnyTimes().Do(func(evt events.Event) {
		cb, ok := evt.(*events.CircuitBreaker)
		require.True(t, ok)
		tm.sent = append(tm.sent, cb.CircuitBreaker())
	})
	return tm
}

func (tm *testMonitor) price(s string, after time.Duration) bool {
	return tm.OnPrice(context.Background(), num.MustParseFixed(s), t0.Add(after))
}

func TestTripAndResume(t *testing.T) {
	ctx := context.Background()
	tm := getTestMonitor(t)

	assert.False(t, tm.price("100", 0))
	assert.False(t, tm.price("104", 30*time.Second))
	assert.NoError(t, tm.CanSubmit(false))

	assert.True(t, tm.price("106", 50*time.Second))
	require.Len(t, tm.sent, 1)
	assert.True(t, tm.sent[0].Halted)
	assert.Equal(t, time.Minute, tm.sent[0].Window)
	assert.Equal(t, "0.06", tm.sent[0].Move.String())
	assert.Equal(t, t0.Add(50*time.Second+5*time.Minute), tm.HaltedUntil())

	assert.ErrorIs(t, tm.CanSubmit(false), breaker.ErrMarketHalted)
	assert.NoError(t, tm.CanSubmit(true))

	// no further trips while halted
	assert.False(t, tm.price("200", time.Minute))
	assert.Len(t, tm.sent, 1)

	assert.False(t, tm.OnTick(ctx, t0.Add(50*time.Second+4*time.Minute)))
	assert.True(t, tm.Halted())
	assert.True(t, tm.OnTick(ctx, t0.Add(50*time.Second+5*time.Minute)))
	assert.False(t, tm.Halted())
	require.Len(t, tm.sent, 2)
	assert.False(t, tm.sent[1].Halted)
	assert.NoError(t, tm.CanSubmit(false))

	// windows restart after the halt
	assert.False(t, tm.price("200", 6*time.Minute))
	assert.False(t, tm.OnTick(ctx, t0.Add(7*time.Minute)))
}

func TestThresholdIsExclusive(t *testing.T) {
	tm := getTestMonitor(t)
	assert.False(t, tm.price("100", 0))
	assert.False(t, tm.price("105", 30*time.Second))
	assert.False(t, tm.price("95.5", 40*time.Second))
	assert.Empty(t, tm.sent)
}

func TestLongWindowTrip(t *testing.T) {
	tm := getTestMonitor(t)
	assert.False(t, tm.price("100", 0))
	assert.False(t, tm.price("104", 2*time.Minute))
	assert.False(t, tm.price("108", 4*time.Minute))
	assert.True(t, tm.price("111", 6*time.Minute))
	require.Len(t, tm.sent, 1)
	assert.Equal(t, 15*time.Minute, tm.sent[0].Window)
	assert.Equal(t, "0.11", tm.sent[0].Move.String())
}

func TestOldSamplesExpire(t *testing.T) {
	ctx := context.Background()
	tm := getTestMonitor(t)
	assert.False(t, tm.price("100", 0))
	tm.OnTick(ctx, t0.Add(20*time.Minute))
	// the first sample left every window
	assert.False(t, tm.price("150", 20*time.Minute))
	assert.Empty(t, tm.sent)
}

func TestNoWindowsNeverTrips(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := breaker.NewMonitor(logging.NewTestLogger(), &types.Market{ID: "X"}, bmocks.NewMockBrokerI(ctrl))
	assert.False(t, m.OnPrice(context.Background(), num.MustParseFixed("1"), t0))
	assert.False(t, m.OnPrice(context.Background(), num.MustParseFixed("1000"), t0.Add(time.Second)))
	assert.NoError(t, m.CanSubmit(false))
}
