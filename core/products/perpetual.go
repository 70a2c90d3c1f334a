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

package products

import (
	"context"
	"fmt"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
)

// Perpetual runs the funding schedule of one perpetual market.
type Perpetual struct {
	log      *logging.Logger
	marketID string
	params   types.FundingParameters

	oracle PriceOracle
	ledger Ledger
	broker Broker

	// start of the current funding period
	start    int64
	seq      uint64
	lastRate num.Decimal
}

func NewPerpetual(log *logging.Logger, mkt *types.Market, oracle PriceOracle, ledger Ledger, broker Broker, now time.Time) (*Perpetual, error) {
	if mkt == nil {
		return nil, ErrNilMarket
	}
	return &Perpetual{
		log:      log.Named("perpetual"),
		marketID: mkt.ID,
		params:   mkt.Funding,
		oracle:   oracle,
		ledger:   ledger,
		broker:   broker,
		start:    now.UnixNano(),
		lastRate: num.DecimalZero(),
	}, nil
}

// UpdateMarket picks up new funding parameters. The running period keeps
// its start time.
func (p *Perpetual) UpdateMarket(mkt *types.Market) {
	p.params = mkt.Funding
}

// FundingRate combines the premium of mark over index with the interest
// rate and clamps the result to the configured cap.
func FundingRate(mark, index *num.Uint, params types.FundingParameters) num.Decimal {
	rate := params.InterestRate
	if index != nil && !index.IsZero() && mark != nil {
		premium := mark.ToDecimal().Sub(index.ToDecimal()).Div(index.ToDecimal())
		rate = rate.Add(premium.Mul(params.PremiumMultiplier))
	}
	if params.RateCap.IsPositive() {
		rate = num.ClampD(rate, params.RateCap.Neg(), params.RateCap)
	}
	return rate
}

// NextFundingTime returns when the running period ends, or zero when
// funding is disabled.
func (p *Perpetual) NextFundingTime() time.Time {
	if p.params.Interval <= 0 {
		return time.Time{}
	}
	return time.Unix(0, p.start).Add(p.params.Interval)
}

func (p *Perpetual) LastRate() num.Decimal {
	return p.lastRate
}

// OnTick closes the funding period once its interval elapsed. The index
// moves by rate * index price and every position is settled against it
// before returning. When either price is unavailable the period is left
// open and retried on the next tick.
func (p *Perpetual) OnTick(ctx context.Context, now time.Time) (bool, error) {
	if p.params.Interval <= 0 || now.Before(p.NextFundingTime()) {
		return false, nil
	}

	mark, err := p.oracle.GetPrice(p.marketID, now)
	if err != nil {
		return false, fmt.Errorf("mark price for funding: %w", err)
	}
	index := mark
	if len(p.params.IndexFeed) > 0 {
		if index, err = p.oracle.GetPrice(p.params.IndexFeed, now); err != nil {
			return false, fmt.Errorf("index price %s for funding: %w", p.params.IndexFeed, err)
		}
	}

	rate := FundingRate(mark.Price, index.Price, p.params)
	cumulative := p.ledger.FundingIndex().Clone()
	cumulative.Add(num.MulRateInt(index.Price, rate))

	payments := p.ledger.SettleFundingAll(ctx, cumulative)
	p.seq++
	p.lastRate = rate

	if p.log.IsDebug() {
		p.log.Debug("funding period settled",
			logging.MarketID(p.marketID),
			logging.Uint64("seq", p.seq),
			logging.Decimal("rate", rate),
			logging.BigInt("index", cumulative),
			logging.Int("payments", len(payments)))
	}

	p.broker.SendBatch([]events.Event{
		events.NewFundingPeriodEvent(ctx, events.FundingPeriodData{
			MarketID:   p.marketID,
			Seq:        p.seq,
			Start:      p.start,
			End:        now.UnixNano(),
			MarkPrice:  mark.Price.Clone(),
			IndexPrice: index.Price.Clone(),
			Rate:       rate,
			Index:      cumulative.Clone(),
		}),
		events.NewFundingPaymentsEvent(ctx, p.marketID, p.seq, payments),
	})
	p.start = now.UnixNano()
	return true, nil
}
