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
	"encoding/binary"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/crypto"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/google/btree"
	"github.com/pkg/errors"
)

const btreeDegree = 32

var (
	// ErrPriceNotFound signals that a price was not found on the book side.
	ErrPriceNotFound = errors.New("price-volume pair not found")
	// ErrEmptySide signals there are no orders on the side of the book.
	ErrEmptySide = errors.New("no orders on the book")
)

// OrderBookSide represent a side of the book, either Sell or Buy.
// Levels are kept best price first, so the minimum of the tree is the
// top of the book.
type OrderBookSide struct {
	side   types.Side
	log    *logging.Logger
	levels *btree.BTreeG[*PriceLevel]
}

func newOrderBookSide(log *logging.Logger, side types.Side) *OrderBookSide {
	less := func(a, b *PriceLevel) bool { return a.price.LT(b.price) }
	if side == types.SideBuy {
		less = func(a, b *PriceLevel) bool { return a.price.GT(b.price) }
	}
	return &OrderBookSide{
		side:   side,
		log:    log,
		levels: btree.NewG(btreeDegree, less),
	}
}

func (s *OrderBookSide) Hash() []byte {
	// 32 num.Uint.Bytes() for price + 8 for volume
	output := make([]byte, s.levels.Len()*40)
	var i int
	s.levels.Ascend(func(l *PriceLevel) bool {
		price := l.price.Bytes()
		copy(output[i:], price[:])
		i += 32
		binary.BigEndian.PutUint64(output[i:], l.volume)
		i += 8
		return true
	})
	return crypto.Hash(output)
}

func (s *OrderBookSide) addOrder(o *types.Order) {
	// update the price-volume map
	s.getPriceLevel(o.Price).addOrder(o)
}

func (s *OrderBookSide) getPriceLevelIfExists(price *num.Uint) *PriceLevel {
	lvl, ok := s.levels.Get(&PriceLevel{price: price})
	if !ok {
		return nil
	}
	return lvl
}

func (s *OrderBookSide) getPriceLevel(price *num.Uint) *PriceLevel {
	if lvl := s.getPriceLevelIfExists(price); lvl != nil {
		return lvl
	}
	lvl := NewPriceLevel(price)
	s.levels.ReplaceOrInsert(lvl)
	return lvl
}

// RemoveOrder takes a live order off the side in constant time on its
// level, the order itself is collected later.
func (s *OrderBookSide) RemoveOrder(o *types.Order) error {
	lvl := s.getPriceLevelIfExists(o.Price)
	if lvl == nil {
		return ErrPriceNotFound
	}
	lvl.removeOrder(o)
	s.removeIfEmpty(lvl)
	return nil
}

func (s *OrderBookSide) removeIfEmpty(lvl *PriceLevel) {
	if lvl.empty() {
		s.levels.Delete(lvl)
	}
}

// BestPriceAndVolume returns the top of book price and volume
// returns an error if the book is empty.
func (s *OrderBookSide) BestPriceAndVolume() (*num.Uint, uint64, error) {
	lvl, ok := s.levels.Min()
	if !ok {
		return num.UintZero(), 0, ErrEmptySide
	}
	return lvl.price.Clone(), lvl.volume, nil
}

// crossingLevels returns the levels the aggressor could trade with, best
// first, capped at maxLevels when positive.
func (s *OrderBookSide) crossingLevels(agg *types.Order, maxLevels int) []*PriceLevel {
	levels := []*PriceLevel{}
	s.levels.Ascend(func(l *PriceLevel) bool {
		if !agg.Crosses(l.price) {
			return false
		}
		levels = append(levels, l)
		return maxLevels <= 0 || len(levels) < maxLevels
	})
	return levels
}

// fillableVolume returns how much of the aggressor could trade right away.
func (s *OrderBookSide) fillableVolume(agg *types.Order, maxLevels int) uint64 {
	var vol uint64
	for _, l := range s.crossingLevels(agg, maxLevels) {
		vol += l.fillableBy(agg)
		if vol >= agg.Remaining {
			break
		}
	}
	return vol
}

// wouldCross returns true if a passive order at price would trade with the side.
func (s *OrderBookSide) wouldCross(o *types.Order) bool {
	lvl, ok := s.levels.Min()
	return ok && o.Crosses(lvl.price)
}

func (s *OrderBookSide) snapshot(depth int) types.PriceLevels {
	out := types.PriceLevels{}
	s.levels.Ascend(func(l *PriceLevel) bool {
		out = append(out, l.toPriceLevel())
		return depth <= 0 || len(out) < depth
	})
	return out
}

// liveOrders returns every live order, best price first then arrival order.
func (s *OrderBookSide) liveOrders() []*types.Order {
	orders := []*types.Order{}
	s.levels.Ascend(func(l *PriceLevel) bool {
		for _, o := range l.orders {
			if o.IsLive() {
				orders = append(orders, o)
			}
		}
		return true
	})
	return orders
}

func (s *OrderBookSide) getOrderCount() int64 {
	var orderCount int64
	s.levels.Ascend(func(l *PriceLevel) bool {
		orderCount += int64(l.live)
		return true
	})
	return orderCount
}

func (s *OrderBookSide) getTotalVolume() uint64 {
	var volume uint64
	s.levels.Ascend(func(l *PriceLevel) bool {
		volume += l.volume
		return true
	})
	return volume
}

func (s *OrderBookSide) cleanup() {
	s.levels.Clear(false)
}
