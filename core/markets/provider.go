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

package markets

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/logging"
)

var (
	// ErrMarketNotFound signals no market exists with the given ID.
	ErrMarketNotFound = errors.New("market not found")
	// ErrTimelockNotRespected is returned when an update is proposed to take
	// effect before the timelock elapsed.
	ErrTimelockNotRespected = errors.New("update effective before the timelock")
)

// Broker send events.
type Broker interface {
	Send(e events.Event)
}

// snapshot is never mutated once published.
type snapshot struct {
	version uint64
	markets map[string]*types.Market
}

type pendingUpdate struct {
	market      *types.Market
	effectiveAt time.Time
	seq         uint64
}

// PendingUpdate describes a proposed update waiting for its timelock.
type PendingUpdate struct {
	MarketID    string
	EffectiveAt time.Time
}

// Provider holds the versioned market configuration. Readers load one
// immutable snapshot, writers go through timelocked proposals applied on
// tick.
type Provider struct {
	log *logging.Logger

	cfgMu    sync.Mutex
	timelock time.Duration

	current atomic.Pointer[snapshot]

	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*pendingUpdate

	broker Broker
}

// New creates a provider with the initial markets, all at version 1.
func New(log *logging.Logger, cfg Config, broker Broker, initial []*types.Market) (*Provider, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	snap := &snapshot{version: 1, markets: make(map[string]*types.Market, len(initial))}
	for _, m := range initial {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, ok := snap.markets[m.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate market %s", types.ErrInvalidMarketConfig, m.ID)
		}
		cpy := m.DeepClone()
		cpy.Version = 1
		snap.markets[m.ID] = cpy
	}

	p := &Provider{
		log:      log,
		timelock: cfg.Timelock.Get(),
		broker:   broker,
	}
	p.current.Store(snap)
	return p, nil
}

func (p *Provider) ReloadConf(cfg Config) {
	p.log.Info("reloading configuration")
	if p.log.GetLevel() != cfg.Level.Get() {
		p.log.Info("updating log level",
			logging.String("old", p.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		p.log.SetLevel(cfg.Level.Get())
	}

	p.cfgMu.Lock()
	p.timelock = cfg.Timelock.Get()
	p.cfgMu.Unlock()
}

func (p *Provider) getTimelock() time.Duration {
	p.cfgMu.Lock()
	defer p.cfgMu.Unlock()
	return p.timelock
}

// Get returns the current configuration of a market. The returned value
// is shared and must not be modified.
func (p *Provider) Get(marketID string) (*types.Market, error) {
	m, ok := p.current.Load().markets[marketID]
	if !ok {
		return nil, ErrMarketNotFound
	}
	return m, nil
}

// List returns the current markets ordered by ID.
func (p *Provider) List() []*types.Market {
	snap := p.current.Load()
	out := make([]*types.Market, 0, len(snap.markets))
	for _, m := range snap.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Version is bumped every time a set of updates is applied.
func (p *Provider) Version() uint64 {
	return p.current.Load().version
}

// ProposeUpdate schedules a new configuration for a market, existing or
// not, to take effect at effectiveAt. The timelock is measured from the
// last tick.
func (p *Provider) ProposeUpdate(ctx context.Context, mkt *types.Market, effectiveAt time.Time) error {
	if err := mkt.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if earliest := p.now.Add(p.getTimelock()); effectiveAt.Before(earliest) {
		return fmt.Errorf("%w: %s effective at %s, earliest %s", ErrTimelockNotRespected, mkt.ID, effectiveAt.UTC(), earliest.UTC())
	}

	p.seq++
	p.pending = append(p.pending, &pendingUpdate{
		market:      mkt.DeepClone(),
		effectiveAt: effectiveAt,
		seq:         p.seq,
	})
	sort.SliceStable(p.pending, func(i, j int) bool {
		return p.pending[i].effectiveAt.Before(p.pending[j].effectiveAt)
	})

	p.log.Info("market update proposed",
		logging.MarketID(mkt.ID),
		logging.Time("effective-at", effectiveAt))
	return nil
}

// Pending lists the proposals still waiting for their timelock.
func (p *Provider) Pending() []PendingUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PendingUpdate, 0, len(p.pending))
	for _, u := range p.pending {
		out = append(out, PendingUpdate{MarketID: u.market.ID, EffectiveAt: u.effectiveAt})
	}
	return out
}

// OnTick applies every due proposal in one new snapshot and returns the
// markets that changed.
func (p *Provider) OnTick(ctx context.Context, now time.Time) []*types.Market {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now

	i := 0
	for i < len(p.pending) && !p.pending[i].effectiveAt.After(now) {
		i++
	}
	if i == 0 {
		return nil
	}
	due := p.pending[:i]
	p.pending = append([]*pendingUpdate(nil), p.pending[i:]...)

	old := p.current.Load()
	next := &snapshot{
		version: old.version + 1,
		markets: make(map[string]*types.Market, len(old.markets)+len(due)),
	}
	for k, v := range old.markets {
		next.markets[k] = v
	}

	applied := make([]*types.Market, 0, len(due))
	for _, u := range due {
		m := u.market
		m.Version = 1
		if prev, ok := next.markets[m.ID]; ok {
			m.Version = prev.Version + 1
		}
		next.markets[m.ID] = m
		applied = append(applied, m)
	}
	p.current.Store(next)

	for _, m := range applied {
		p.log.Info("market update applied",
			logging.MarketID(m.ID),
			logging.Uint64("version", m.Version))
		p.broker.Send(events.NewMarketUpdatedEvent(ctx, *m))
	}
	return applied
}

// OnMarketsFile turns a reloaded markets file into proposals for the
// markets whose definition changed, effective once the timelock elapsed.
func (p *Provider) OnMarketsFile(ctx context.Context, mkts []*types.Market) {
	p.mu.Lock()
	effectiveAt := p.now.Add(p.getTimelock())
	p.mu.Unlock()

	for _, m := range mkts {
		if cur, err := p.Get(m.ID); err == nil && sameDefinition(cur, m) {
			continue
		}
		if err := p.ProposeUpdate(ctx, m, effectiveAt); err != nil {
			p.log.Error("could not propose market update from file",
				logging.MarketID(m.ID),
				logging.Error(err))
		}
	}
}

func sameDefinition(a, b *types.Market) bool {
	return reflect.DeepEqual(DefinitionFromMarket(a), DefinitionFromMarket(b))
}
