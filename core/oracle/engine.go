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

package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"
)

var (
	// ErrUnknownSource signals a report from a source that is not configured.
	ErrUnknownSource = errors.New("unknown price source")
	// ErrSourceDisabled signals a report from a disabled source.
	ErrSourceDisabled = errors.New("price source disabled")
	// ErrSourceNotAllowed signals a report for a market the source does not cover.
	ErrSourceNotAllowed = errors.New("price source not allowed for market")
	// ErrInvalidReport signals a report with a missing price or a confidence outside [0, 1].
	ErrInvalidReport = errors.New("invalid price report")
	// ErrOutOfOrderReport signals a report older than the latest one of the same source.
	ErrOutOfOrderReport = errors.New("report older than the latest from this source")
)

// Broker is used to emit aggregation events.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.vegaprotocol.io/perps/core/oracle Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

type source struct {
	weight  num.Decimal
	enabled bool
	markets map[string]struct{}
}

func (s source) covers(marketID string) bool {
	if len(s.markets) == 0 {
		return true
	}
	_, ok := s.markets[marketID]
	return ok
}

// state is immutable once published, writers replace it as a whole.
type state struct {
	params  params
	sources map[string]source
	reports map[string]map[string]*types.SourcePrice
}

// Engine aggregates the reports of independent price sources. Reports can
// be submitted concurrently, reads never block writers.
type Engine struct {
	log    *logging.Logger
	broker Broker

	// mu serialises writers
	mu sync.Mutex
	st atomic.Pointer[state]

	emitMu      sync.Mutex
	lastEmitted map[string]*types.AggregatedPrice
}

// New instantiates a new price aggregator.
func New(log *logging.Logger, cfg Config, broker Broker) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	e := &Engine{
		log:         log,
		broker:      broker,
		lastEmitted: map[string]*types.AggregatedPrice{},
	}
	e.st.Store(&state{
		params:  paramsFromConfig(cfg),
		sources: sourcesFromConfig(cfg.Sources),
		reports: map[string]map[string]*types.SourcePrice{},
	})
	return e
}

func sourcesFromConfig(cfgs []SourceConfig) map[string]source {
	sources := make(map[string]source, len(cfgs))
	for _, c := range cfgs {
		s := source{
			weight:  c.Weight,
			enabled: bool(c.Enabled),
			markets: map[string]struct{}{},
		}
		if !s.weight.IsPositive() {
			s.weight = num.DecimalOne()
		}
		for _, m := range c.Markets {
			s.markets[m] = struct{}{}
		}
		sources[c.ID] = s
	}
	return sources
}

// ReloadConf updates the internal configuration; reports already received are kept.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.st.Load()
	e.st.Store(&state{
		params:  paramsFromConfig(cfg),
		sources: sourcesFromConfig(cfg.Sources),
		reports: cur.reports,
	})
}

// SubmitSourcePrice records the latest report of a source for a market.
func (e *Engine) SubmitSourcePrice(ctx context.Context, sp *types.SourcePrice) error {
	if sp == nil || sp.Price == nil || sp.Price.IsZero() {
		return fmt.Errorf("%w: missing price", ErrInvalidReport)
	}
	if sp.Confidence.IsNegative() || sp.Confidence.GreaterThan(num.DecimalOne()) {
		return fmt.Errorf("%w: confidence %s", ErrInvalidReport, sp.Confidence.String())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.st.Load()
	src, ok := cur.sources[sp.SourceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, sp.SourceID)
	}
	if !src.enabled {
		return fmt.Errorf("%w: %s", ErrSourceDisabled, sp.SourceID)
	}
	if !src.covers(sp.MarketID) {
		return fmt.Errorf("%w: %s on %s", ErrSourceNotAllowed, sp.SourceID, sp.MarketID)
	}
	if prev, ok := cur.reports[sp.MarketID][sp.SourceID]; ok && prev.Timestamp > sp.Timestamp {
		return ErrOutOfOrderReport
	}

	marketReports := make(map[string]*types.SourcePrice, len(cur.reports[sp.MarketID])+1)
	for k, v := range cur.reports[sp.MarketID] {
		marketReports[k] = v
	}
	marketReports[sp.SourceID] = sp.Clone()

	reports := make(map[string]map[string]*types.SourcePrice, len(cur.reports)+1)
	for k, v := range cur.reports {
		reports[k] = v
	}
	reports[sp.MarketID] = marketReports

	e.st.Store(&state{
		params:  cur.params,
		sources: cur.sources,
		reports: reports,
	})

	if e.log.IsDebug() {
		e.log.Debug("source price received", logging.String("report", sp.String()))
	}
	return nil
}

// GetPrice returns the aggregated price of a market as of now, or
// ErrStalePrice / ErrInsufficientSources when no price can be trusted.
func (e *Engine) GetPrice(marketID string, now time.Time) (*types.AggregatedPrice, error) {
	res, err := e.get(marketID, now)
	if err != nil {
		return nil, err
	}
	return res.price, nil
}

func (e *Engine) get(marketID string, now time.Time) (*result, error) {
	st := e.st.Load()
	reports := make([]weightedReport, 0, len(st.reports[marketID]))
	for id, r := range st.reports[marketID] {
		src, ok := st.sources[id]
		if !ok || !src.enabled || !src.covers(marketID) {
			continue
		}
		reports = append(reports, weightedReport{SourcePrice: r, weight: src.weight})
	}
	if len(reports) == 0 {
		return &result{}, types.ErrStalePrice
	}
	sortReports(reports)
	return aggregate(marketID, reports, now, st.params)
}

// Markets returns the IDs of every market with at least one report, sorted.
func (e *Engine) Markets() []string {
	st := e.st.Load()
	ids := make([]string, 0, len(st.reports))
	for id := range st.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnTick recomputes every market's price and emits an event when the
// aggregate changed or became unavailable.
func (e *Engine) OnTick(ctx context.Context, now time.Time) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	evts := []events.Event{}
	for _, mkt := range e.Markets() {
		res, err := e.get(mkt, now)
		last := e.lastEmitted[mkt]
		if err != nil {
			if res != nil {
				for _, src := range res.rejected {
					metrics.OracleRejectionCounterInc(mkt, src)
				}
			}
			metrics.PriceUnavailableCounterInc(mkt, err.Error())
			if last != nil {
				e.log.Warn("price unavailable",
					logging.MarketID(mkt),
					logging.Error(err))
				evts = append(evts, events.NewPriceUnavailableEvent(ctx, mkt, err))
				delete(e.lastEmitted, mkt)
			}
			continue
		}
		if last != nil && last.Price.EQ(res.price.Price) && last.Timestamp == res.price.Timestamp {
			continue
		}
		for _, src := range res.rejected {
			metrics.OracleRejectionCounterInc(mkt, src)
			e.log.Warn("source report rejected as outlier",
				logging.MarketID(mkt),
				logging.String("source", src))
		}
		e.lastEmitted[mkt] = res.price
		evts = append(evts, events.NewOracleDataEvent(ctx, res.price, res.rejected))
	}
	if len(evts) > 0 {
		e.broker.SendBatch(evts)
	}
}
