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

package matching

import (
	"context"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/logging"
)

// CachedOrderBook serves repeated snapshot reads without walking the
// book again until the next mutation.
type CachedOrderBook struct {
	*OrderBook
	cache BookCache
}

func NewCachedOrderBook(
	log *logging.Logger, config Config, market *types.Market, idgen IDGenerator, handler TradeHandler,
) *CachedOrderBook {
	return &CachedOrderBook{
		OrderBook: NewOrderBook(log, config, market, idgen, handler),
		cache:     NewBookCache(),
	}
}

func (b *CachedOrderBook) CancelOrder(orderID string) (*types.Order, error) {
	b.cache.Invalidate()
	return b.OrderBook.CancelOrder(orderID)
}

func (b *CachedOrderBook) CancelAllOrders() []*types.Order {
	b.cache.Invalidate()
	return b.OrderBook.CancelAllOrders()
}

func (b *CachedOrderBook) CancelPartyOrders(party string) []*types.Order {
	b.cache.Invalidate()
	return b.OrderBook.CancelPartyOrders(party)
}

func (b *CachedOrderBook) MatchStep(ctx context.Context) ([]*types.Trade, error) {
	// pending orders do not show in snapshots
	if b.PendingOrders() == 0 {
		return []*types.Trade{}, nil
	}
	b.cache.Invalidate()
	return b.OrderBook.MatchStep(ctx)
}

// Snapshot returns a copy of the cached view for the depth, computing it
// when the book changed since.
func (b *CachedOrderBook) Snapshot(depth int) *types.BookSnapshot {
	s, ok := b.cache.GetSnapshot(depth)
	if !ok {
		s = b.OrderBook.Snapshot(depth)
		b.cache.SetSnapshot(depth, s)
	}
	return s.Clone()
}
