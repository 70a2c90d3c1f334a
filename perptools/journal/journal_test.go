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

package journal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/perptools/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const market = "BTC-PERP"

type journalBuilder struct {
	t   *testing.T
	buf bytes.Buffer
}

func (b *journalBuilder) add(evts ...events.Event) *journalBuilder {
	b.t.Helper()
	enc := json.NewEncoder(&b.buf)
	for _, e := range evts {
		require.NoError(b.t, enc.Encode(e.StreamMessage()))
	}
	return b
}

func trade(buyer, seller string, size, price uint64) events.Event {
	return events.NewTradeEvent(context.Background(), types.Trade{
		ID:       buyer + seller,
		MarketID: market,
		Price:    num.NewUint(price),
		Size:     size,
		Buyer:    buyer,
		Seller:   seller,
	})
}

func position(party string, size int64, entry uint64) events.Event {
	p := types.NewPosition(party, market)
	p.Size = size
	p.AverageEntryPrice = num.NewUint(entry)
	return events.NewPositionEvent(context.Background(), p)
}

func deleverage(party, cp string, size, price uint64) events.Event {
	return events.NewDeleverageEvent(context.Background(), events.DeleverageData{
		MarketID:     market,
		Party:        party,
		Counterparty: cp,
		Size:         size,
		Price:        num.NewUint(price),
	})
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	log := logging.NewTestLogger()

	t.Run("trades net to zero and match reported positions", func(t *testing.T) {
		b := &journalBuilder{t: t}
		b.add(
			events.NewTime(ctx, time.Unix(1700000000, 0)),
			trade("a", "b", 2, 100),
			trade("a", "c", 2, 110),
			position("a", 4, 105),
			position("b", -2, 100),
			position("c", -2, 110),
		)

		rep, err := journal.ReplayReader(ctx, log, &b.buf)
		require.NoError(t, err)
		assert.True(t, rep.OK())
		assert.Equal(t, 6, rep.Events)
		require.Len(t, rep.Markets, 1)
		assert.Equal(t, market, rep.Markets[0].MarketID)
		assert.Equal(t, 2, rep.Markets[0].Trades)
		assert.Equal(t, int64(0), rep.Markets[0].NetSize)
		assert.Equal(t, uint64(4), rep.Markets[0].OpenInterest)
		assert.Equal(t, 3, rep.Markets[0].Parties)
	})

	t.Run("deleverage closes both sides at the bankruptcy price", func(t *testing.T) {
		b := &journalBuilder{t: t}
		b.add(
			trade("a", "b", 2, 100),
			deleverage("a", "b", 2, 90),
			position("a", 0, 0),
			position("b", 0, 0),
		)

		rep, err := journal.ReplayReader(ctx, log, &b.buf)
		require.NoError(t, err)
		assert.True(t, rep.OK())
		assert.Equal(t, 1, rep.Markets[0].Deleverages)
		assert.Equal(t, uint64(0), rep.Markets[0].OpenInterest)
	})

	t.Run("a short distressed party is bought back", func(t *testing.T) {
		b := &journalBuilder{t: t}
		b.add(
			trade("a", "b", 3, 100),
			deleverage("b", "a", 1, 120),
			position("a", 2, 100),
			position("b", -2, 100),
		)

		rep, err := journal.ReplayReader(ctx, log, &b.buf)
		require.NoError(t, err)
		assert.True(t, rep.OK())
	})

	t.Run("a diverging position is reported", func(t *testing.T) {
		b := &journalBuilder{t: t}
		b.add(
			trade("a", "b", 2, 100),
			position("a", 3, 100),
			position("b", -2, 100),
		)

		rep, err := journal.ReplayReader(ctx, log, &b.buf)
		require.NoError(t, err)
		assert.False(t, rep.OK())
		require.Len(t, rep.Mismatches, 1)
		assert.Equal(t, "a", rep.Mismatches[0].Party)
		assert.Equal(t, int64(2), rep.Mismatches[0].ReplayedSize)
		assert.Equal(t, int64(3), rep.Mismatches[0].ReportedSize)
		assert.Contains(t, rep.Mismatches[0].String(), "replayed 2@100")
	})

	t.Run("deleveraging a flat party fails", func(t *testing.T) {
		b := &journalBuilder{t: t}
		b.add(deleverage("a", "b", 1, 100))

		_, err := journal.ReplayReader(ctx, log, &b.buf)
		assert.Error(t, err)
	})

	t.Run("unknown event types are skipped", func(t *testing.T) {
		buf := bytes.NewBufferString(`{"version":1,"id":"x","type":"SomethingNew","payload":{}}` + "\n")
		rep, err := journal.ReplayReader(ctx, log, buf)
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Events)
		assert.True(t, rep.OK())
	})
}

func TestStatsAndExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perps.journal")

	b := &journalBuilder{t: t}
	b.add(
		trade("a", "b", 1, 100),
		trade("b", "a", 1, 101),
		position("a", 0, 0),
	)
	require.NoError(t, os.WriteFile(path, b.buf.Bytes(), 0o600))

	counts, err := journal.Stats(path)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[events.TradeEvent.String()])
	assert.Equal(t, 1, counts[events.PositionEvent.String()])

	out := filepath.Join(dir, "out.json")
	n, err := journal.Export(path, out, market)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = journal.Export(path, out, "ETH-PERP")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = journal.Stats(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
