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

package protocol_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.vegaprotocol.io/perps/config"
	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/core/oracle"
	"code.vegaprotocol.io/perps/core/protocol"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/perptools/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.NewDefaultConfig()
	cfg.Execution.TickInterval = encoding.Duration{Duration: 10 * time.Millisecond}
	cfg.Broker.Journal.Enabled = encoding.Bool(true)
	cfg.Oracle.Sources = []oracle.SourceConfig{
		{ID: "feed", Weight: num.DecimalOne(), Enabled: encoding.Bool(true)},
	}
	cfg.Auth.Grants["feed"] = []string{"price-feed"}
	require.NoError(t, config.Write(dir, cfg, false))

	f, err := os.Create(cfg.MarketsPath(dir))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, markets.Encode(f, markets.DefaultMarkets()))
	return dir
}

func TestProtocolTradesAndJournals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logging.NewTestLogger()
	dir := writeHome(t)

	watcher, err := config.NewFromFile(ctx, log, dir)
	require.NoError(t, err)

	p, err := protocol.New(ctx, watcher, log, dir, time.Now())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	assert.Equal(t, "0.1.0", p.Protocol().String())
	svc := p.Service()
	require.NoError(t, svc.SubmitSourcePrice(ctx, "feed", &types.SourcePrice{
		MarketID:   "BTC-PERP",
		Price:      num.MustParseFixed("100"),
		Confidence: num.DecimalOne(),
		Timestamp:  time.Now().UnixNano(),
	}))
	require.NoError(t, svc.AddMargin(ctx, "a", "BTC-PERP", num.MustParseFixed("100")))
	require.NoError(t, svc.AddMargin(ctx, "b", "BTC-PERP", num.MustParseFixed("100")))

	order := func(side types.Side) types.OrderSubmission {
		return types.OrderSubmission{
			MarketID:    "BTC-PERP",
			Side:        side,
			Type:        types.OrderTypeLimit,
			Price:       num.MustParseFixed("100"),
			Size:        num.MustParseFixedSize("1"),
			TimeInForce: types.OrderTimeInForceGTC,
		}
	}

	// the mark price becomes available on the next engine tick
	assert.Eventually(t, func() bool {
		_, err := svc.SubmitOrder(ctx, "a", order(types.SideBuy))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	conf, err := svc.SubmitOrder(ctx, "b", order(types.SideSell))
	require.NoError(t, err)
	require.Len(t, conf.Trades, 1)

	pos, err := svc.GetPosition(ctx, "a", "BTC-PERP")
	require.NoError(t, err)
	assert.Equal(t, int64(num.MustParseFixedSize("1")), pos.Size)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("node did not stop")
	}
	require.NoError(t, p.Stop())

	rep, err := journal.Replay(context.Background(), log, filepath.Join(dir, "perps.journal"))
	require.NoError(t, err)
	assert.True(t, rep.OK())
	require.Len(t, rep.Markets, 1)
	assert.Equal(t, 1, rep.Markets[0].Trades)
}

func TestProtocolRefusesUnauthorisedFeeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logging.NewTestLogger()
	dir := writeHome(t)

	watcher, err := config.NewFromFile(ctx, log, dir)
	require.NoError(t, err)
	p, err := protocol.New(ctx, watcher, log, dir, time.Now())
	require.NoError(t, err)
	defer p.Stop()

	err = p.Service().SubmitSourcePrice(ctx, "a", &types.SourcePrice{
		MarketID:   "BTC-PERP",
		Price:      num.MustParseFixed("100"),
		Confidence: num.DecimalOne(),
		Timestamp:  time.Now().UnixNano(),
	})
	assert.Error(t, err)
}
