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
	"testing"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue reads a perps counter for the test market from the default
// registry, zero when the series does not exist yet.
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	series:
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if want, ok := labels[l.GetName()]; ok && want != l.GetValue() {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestOrderAndTradeCountersCountOnce(t *testing.T) {
	require.NoError(t, metrics.Setup())

	te := startEngine(t, btcPerp(noBreaker))
	te.setPrice(marketID, "100")
	te.deposit(t, "A", "100")
	te.deposit(t, "B", "100")

	trades := func() float64 {
		return counterValue(t, "perps_trades_total", map[string]string{"market": marketID})
	}
	orders := func(status types.OrderStatus) float64 {
		return counterValue(t, "perps_orders_total", map[string]string{"market": marketID, "status": status.String()})
	}

	tradesBefore := trades()
	filledBefore := orders(types.OrderStatusFilled)
	cancelledBefore := orders(types.OrderStatusCancelled)

	_, err := te.submit("B", types.SideSell, "100", "1")
	require.NoError(t, err)
	conf, err := te.submit("A", types.SideBuy, "100", "1")
	require.NoError(t, err)
	require.Len(t, conf.Trades, 1)

	assert.Equal(t, tradesBefore+1, trades())
	assert.Equal(t, filledBefore+2, orders(types.OrderStatusFilled))

	resting, err := te.submit("B", types.SideSell, "110", "1")
	require.NoError(t, err)
	_, err = te.CancelOrder(te.ctx, "B", marketID, resting.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, cancelledBefore+1, orders(types.OrderStatusCancelled))
	assert.Equal(t, tradesBefore+1, trades())
}
