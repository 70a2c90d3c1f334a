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

package breaker

import (
	"context"
	"errors"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"
)

// ErrMarketHalted is returned for risk increasing requests while the
// breaker holds the market halted.
var ErrMarketHalted = errors.New("market halted by circuit breaker")

type Broker interface {
	Send(e events.Event)
}

type sample struct {
	at    time.Time
	price *num.Uint
}

// Monitor watches price moves of one market over rolling windows and
// halts trading when a move exceeds the window threshold. Not safe for
// concurrent use, it runs inside the market lane.
type Monitor struct {
	log      *logging.Logger
	marketID string
	params   types.CircuitBreakerParameters
	broker   Broker

	// samples in time order, none older than the longest window
	samples []sample
	now     time.Time

	halted bool
	until  time.Time
}

func NewMonitor(log *logging.Logger, mkt *types.Market, broker Broker) *Monitor {
	return &Monitor{
		log:      log.Named("breaker"),
		marketID: mkt.ID,
		params:   mkt.CircuitBreaker,
		broker:   broker,
	}
}

// UpdateSettings applies new windows. A running halt keeps its end time.
func (m *Monitor) UpdateSettings(mkt *types.Market) {
	m.params = mkt.CircuitBreaker
	m.trim()
}

func (m *Monitor) Halted() bool {
	return m.halted
}

// HaltedUntil returns the end of the running halt, zero when trading.
func (m *Monitor) HaltedUntil() time.Time {
	if !m.halted {
		return time.Time{}
	}
	return m.until
}

// CanSubmit tells whether an order may enter the book. While halted only
// reduce-only orders are admitted.
func (m *Monitor) CanSubmit(reduceOnly bool) error {
	if m.halted && !reduceOnly {
		return ErrMarketHalted
	}
	return nil
}

func (m *Monitor) longest() time.Duration {
	var d time.Duration
	for _, w := range m.params.Windows {
		d = max(d, w.Window)
	}
	return d
}

func (m *Monitor) trim() {
	if len(m.samples) == 0 {
		return
	}
	cutoff := m.now.Add(-m.longest())
	i := 0
	for i < len(m.samples)-1 && m.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		m.samples = append(m.samples[:0], m.samples[i:]...)
	}
}

// reference returns the oldest sample within the window ending at now.
func (m *Monitor) reference(window time.Duration) *num.Uint {
	from := m.now.Add(-window)
	for _, s := range m.samples {
		if !s.at.Before(from) {
			return s.price
		}
	}
	return nil
}

// OnPrice records a traded or aggregated price and trips the breaker when
// the move against any window reference exceeds that window threshold.
// Samples are ignored while halted. Out of order times are clamped to the
// last known time.
func (m *Monitor) OnPrice(ctx context.Context, price *num.Uint, at time.Time) bool {
	if m.halted || price == nil || price.IsZero() || len(m.params.Windows) == 0 {
		return false
	}
	if at.After(m.now) {
		m.now = at
	}
	m.samples = append(m.samples, sample{at: m.now, price: price.Clone()})
	m.trim()

	for _, w := range m.params.Windows {
		ref := m.reference(w.Window)
		if ref == nil || ref.IsZero() {
			continue
		}
		delta, _ := num.UintZero().Delta(price, ref)
		move := num.Ratio(delta, ref)
		if move.GreaterThan(w.Threshold) {
			m.trip(ctx, w, move)
			return true
		}
	}
	return false
}

func (m *Monitor) trip(ctx context.Context, w types.BreakerWindow, move num.Decimal) {
	m.halted = true
	m.until = m.now.Add(m.params.Cooldown)
	m.samples = m.samples[:0]

	m.log.Warn("circuit breaker tripped",
		logging.MarketID(m.marketID),
		logging.Duration("window", w.Window),
		logging.Decimal("move", move),
		logging.Decimal("threshold", w.Threshold),
		logging.Time("until", m.until))
	metrics.BreakerTripCounterInc(m.marketID)

	m.broker.Send(events.NewCircuitBreakerEvent(ctx, events.CircuitBreakerData{
		MarketID:  m.marketID,
		Halted:    true,
		Until:     m.until.UnixNano(),
		Window:    w.Window,
		Move:      move,
		Threshold: w.Threshold,
	}))
}

// OnTick advances time and resumes trading once the cooldown elapsed. It
// returns true on the tick trading resumed.
func (m *Monitor) OnTick(ctx context.Context, now time.Time) bool {
	if now.After(m.now) {
		m.now = now
	}
	if !m.halted {
		m.trim()
		return false
	}
	if m.now.Before(m.until) {
		return false
	}

	m.halted = false
	m.until = time.Time{}
	m.samples = m.samples[:0]
	m.log.Info("circuit breaker cooldown over, trading resumed",
		logging.MarketID(m.marketID))
	m.broker.Send(events.NewCircuitBreakerEvent(ctx, events.CircuitBreakerData{
		MarketID:  m.marketID,
		Halted:    false,
		Move:      num.DecimalZero(),
		Threshold: num.DecimalZero(),
	}))
	return true
}
