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

package insurance

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
)

// Pool is the in-process insurance fund. It holds one balance per market,
// collects liquidation penalties and covers shortfalls up to its balance.
// Market lanes call it concurrently.
type Pool struct {
	log *logging.Logger

	mu       sync.Mutex
	balances map[string]*num.Uint
}

func New(log *logging.Logger, cfg Config) (*Pool, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	p := &Pool{
		log:      log,
		balances: map[string]*num.Uint{},
	}
	for market, amount := range cfg.Seed {
		bal, err := num.ParseFixed(amount)
		if err != nil {
			return nil, fmt.Errorf("insurance seed for %s: %w", market, err)
		}
		p.balances[market] = bal
	}
	return p, nil
}

// Deposit credits the market pool.
func (p *Pool) Deposit(_ context.Context, marketID string, amount *num.Uint) {
	if amount == nil || amount.IsZero() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	bal, ok := p.balances[marketID]
	if !ok {
		bal = num.UintZero()
		p.balances[marketID] = bal
	}
	bal.AddSum(amount)
}

// CoverShortfall pays out as much of amount as the market pool holds and
// returns what was covered.
func (p *Pool) CoverShortfall(_ context.Context, marketID string, amount *num.Uint) *num.Uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	bal, ok := p.balances[marketID]
	if !ok || amount == nil || amount.IsZero() || bal.IsZero() {
		return num.UintZero()
	}
	covered := num.Min(bal, amount).Clone()
	bal.Sub(bal, covered)

	if covered.LT(amount) {
		p.log.Warn("insurance pool depleted",
			logging.MarketID(marketID),
			logging.BigUint("requested", amount),
			logging.BigUint("covered", covered))
	}
	return covered
}

func (p *Pool) Balance(marketID string) *num.Uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bal, ok := p.balances[marketID]; ok {
		return bal.Clone()
	}
	return num.UintZero()
}

// Markets returns the markets holding a pool, sorted.
func (p *Pool) Markets() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.balances))
	for k := range p.balances {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
