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

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"code.vegaprotocol.io/perps/core/broker"
	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/positions"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/pkg/errors"
)

// Mismatch is a party whose replayed position differs from the last
// position the node reported.
type Mismatch struct {
	MarketID      string
	Party         string
	ReplayedSize  int64
	ReportedSize  int64
	ReplayedEntry *num.Uint
	ReportedEntry *num.Uint
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s/%s: replayed %d@%s, reported %d@%s",
		m.MarketID, m.Party,
		m.ReplayedSize, price(m.ReplayedEntry),
		m.ReportedSize, price(m.ReportedEntry),
	)
}

func price(p *num.Uint) string {
	if p == nil {
		return "0"
	}
	return p.String()
}

type MarketReport struct {
	MarketID     string
	Trades       int
	Deleverages  int
	NetSize      int64
	OpenInterest uint64
	Parties      int
}

// Report is the outcome of replaying a journal.
type Report struct {
	Events     int
	Markets    []MarketReport
	Mismatches []Mismatch
}

// OK is true when every market nets to zero and every replayed position
// matches what was reported.
func (r *Report) OK() bool {
	if len(r.Mismatches) > 0 {
		return false
	}
	for _, m := range r.Markets {
		if m.NetSize != 0 {
			return false
		}
	}
	return true
}

type discard struct{}

func (discard) Send(events.Event)        {}
func (discard) SendBatch([]events.Event) {}

type replayer struct {
	log      *logging.Logger
	ledgers  map[string]*positions.Engine
	reports  map[string]*MarketReport
	reported map[string]map[string]*types.Position
	events   int
}

func newReplayer(log *logging.Logger) *replayer {
	return &replayer{
		log:      log,
		ledgers:  map[string]*positions.Engine{},
		reports:  map[string]*MarketReport{},
		reported: map[string]map[string]*types.Position{},
	}
}

func (r *replayer) ledger(marketID string) (*positions.Engine, *MarketReport) {
	l, ok := r.ledgers[marketID]
	if !ok {
		l = positions.New(r.log, positions.NewDefaultConfig(), marketID, discard{})
		r.ledgers[marketID] = l
		r.reports[marketID] = &MarketReport{MarketID: marketID}
	}
	return l, r.reports[marketID]
}

func (r *replayer) apply(ctx context.Context, evt *events.BusEvent) error {
	r.events++
	t, err := evt.EventType()
	if err != nil {
		// newer nodes may add event types, skip them
		r.log.Debug("skipping unknown event", logging.String("type", evt.Type))
		return nil
	}

	switch t {
	case events.TradeEvent:
		trade := types.Trade{}
		if err := evt.Decode(&trade); err != nil {
			return errors.Wrapf(err, "invalid trade payload at seq %d", evt.Sequence)
		}
		l, rep := r.ledger(trade.MarketID)
		l.Update(ctx, &trade)
		rep.Trades++
	case events.DeleverageEvent:
		d := events.DeleverageData{}
		if err := evt.Decode(&d); err != nil {
			return errors.Wrapf(err, "invalid deleverage payload at seq %d", evt.Sequence)
		}
		l, rep := r.ledger(d.MarketID)
		pos, ok := l.GetPositionByPartyID(d.Party)
		if !ok || pos.Size == 0 {
			return fmt.Errorf("deleverage of flat party %s in %s at seq %d", d.Party, d.MarketID, evt.Sequence)
		}
		sign := int64(1)
		if pos.Size < 0 {
			sign = -1
		}
		l.ApplyFill(ctx, d.Party, -sign*int64(d.Size), d.Price)
		l.ApplyFill(ctx, d.Counterparty, sign*int64(d.Size), d.Price)
		rep.Deleverages++
	case events.PositionEvent:
		pos := types.Position{}
		if err := evt.Decode(&pos); err != nil {
			return errors.Wrapf(err, "invalid position payload at seq %d", evt.Sequence)
		}
		byParty, ok := r.reported[pos.MarketID]
		if !ok {
			byParty = map[string]*types.Position{}
			r.reported[pos.MarketID] = byParty
		}
		byParty[pos.Party] = &pos
	}
	return nil
}

func (r *replayer) report() *Report {
	rep := &Report{Events: r.events}
	ids := make([]string, 0, len(r.reports))
	for id := range r.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		l, mr := r.ledgers[id], r.reports[id]
		mr.NetSize = l.NetSize()
		mr.OpenInterest = l.GetOpenInterest()
		mr.Parties = len(l.Positions())
		rep.Markets = append(rep.Markets, *mr)

		for _, reported := range sortedPositions(r.reported[id]) {
			replayed := l.GetPosition(reported.Party)
			if replayed.Size == reported.Size && entryEqual(replayed.AverageEntryPrice, reported.AverageEntryPrice) {
				continue
			}
			rep.Mismatches = append(rep.Mismatches, Mismatch{
				MarketID:      id,
				Party:         reported.Party,
				ReplayedSize:  replayed.Size,
				ReportedSize:  reported.Size,
				ReplayedEntry: replayed.AverageEntryPrice,
				ReportedEntry: reported.AverageEntryPrice,
			})
		}
	}
	return rep
}

func sortedPositions(m map[string]*types.Position) []*types.Position {
	out := make([]*types.Position, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Party < out[j].Party })
	return out
}

func entryEqual(a, b *num.Uint) bool {
	if a == nil || b == nil {
		return (a == nil || a.IsZero()) && (b == nil || b.IsZero())
	}
	return a.EQ(b)
}

// Replay rebuilds every position from the trades and deleverages in the
// journal at path and checks the result against the reported positions.
func Replay(ctx context.Context, log *logging.Logger, path string) (*Report, error) {
	r := newReplayer(log)
	if err := broker.ReadJournal(path, func(evt *events.BusEvent) error {
		return r.apply(ctx, evt)
	}); err != nil {
		return nil, err
	}
	return r.report(), nil
}

// ReplayReader is Replay over an already opened journal.
func ReplayReader(ctx context.Context, log *logging.Logger, in io.Reader) (*Report, error) {
	r := newReplayer(log)
	if err := broker.DecodeJournal(in, func(evt *events.BusEvent) error {
		return r.apply(ctx, evt)
	}); err != nil {
		return nil, err
	}
	return r.report(), nil
}

// Stats counts the events of the journal at path by type.
func Stats(path string) (map[string]int, error) {
	counts := map[string]int{}
	err := broker.ReadJournal(path, func(evt *events.BusEvent) error {
		counts[evt.Type]++
		return nil
	})
	return counts, err
}

// Export writes the journal at in as indented JSON documents to out,
// optionally keeping only the events of one market.
func Export(in, out, marketID string) (int, error) {
	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "   ")
	n := 0
	err = broker.ReadJournal(in, func(evt *events.BusEvent) error {
		if marketID != "" && evt.MarketID != marketID {
			return nil
		}
		n++
		return enc.Encode(evt)
	})
	return n, err
}
