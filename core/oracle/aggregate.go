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
	"sort"
	"time"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
)

type params struct {
	maxAge           time.Duration
	stalenessBound   time.Duration
	decayWindow      time.Duration
	outlierThreshold num.Decimal
	minDeviationRate num.Decimal
	minSources       int
}

func paramsFromConfig(cfg Config) params {
	return params{
		maxAge:           cfg.MaxAge.Get(),
		stalenessBound:   cfg.StalenessBound.Get(),
		decayWindow:      cfg.DecayWindow.Get(),
		outlierThreshold: cfg.OutlierThreshold,
		minDeviationRate: cfg.MinDeviationRate,
		minSources:       cfg.MinSources,
	}
}

type weightedReport struct {
	*types.SourcePrice
	weight num.Decimal
}

type result struct {
	price    *types.AggregatedPrice
	rejected []string
}

// aggregate combines the latest reports of a market into a single price.
// reports are expected in deterministic order and are not modified.
func aggregate(marketID string, reports []weightedReport, now time.Time, p params) (*result, error) {
	nowNano := now.UnixNano()

	fresh := make([]weightedReport, 0, len(reports))
	for _, r := range reports {
		if age(r.Timestamp, nowNano) > p.maxAge {
			continue
		}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return nil, types.ErrStalePrice
	}

	prices := make([]*num.Uint, 0, len(fresh))
	for _, r := range fresh {
		prices = append(prices, r.Price)
	}
	median := num.MedianUint(prices)

	deviations := make([]*num.Uint, 0, len(fresh))
	for _, r := range fresh {
		d, _ := num.UintZero().Delta(r.Price, median)
		deviations = append(deviations, d)
	}
	mad := num.MedianUint(deviations).ToDecimal()
	mad = num.MaxD(mad, median.ToDecimal().Mul(p.minDeviationRate))
	bound := mad.Mul(p.outlierThreshold)

	res := &result{}
	survivors := make([]weightedReport, 0, len(fresh))
	for i, r := range fresh {
		if deviations[i].ToDecimal().GreaterThan(bound) {
			res.rejected = append(res.rejected, r.SourceID)
			continue
		}
		survivors = append(survivors, r)
	}
	if len(survivors) < p.minSources || len(survivors) == 0 {
		return res, types.ErrInsufficientSources
	}

	var (
		weightSum    = num.DecimalZero()
		weightedSum  = num.DecimalZero()
		newest       int64
		minConf      = num.DecimalOne()
		survivorVals = make([]*num.Uint, 0, len(survivors))
		sum          = num.UintZero()
	)
	for _, r := range survivors {
		w := r.weight.Mul(decay(age(r.Timestamp, nowNano), p.decayWindow))
		weightSum = weightSum.Add(w)
		weightedSum = weightedSum.Add(r.Price.ToDecimal().Mul(w))
		if r.Timestamp > newest {
			newest = r.Timestamp
		}
		minConf = num.MinD(minConf, r.Confidence)
		survivorVals = append(survivorVals, r.Price)
		sum.Add(sum, r.Price)
	}
	if !weightSum.IsPositive() {
		return res, types.ErrStalePrice
	}
	if age(newest, nowNano) > p.stalenessBound {
		return res, types.ErrStalePrice
	}

	price, _ := num.UintFromDecimal(weightedSum.Div(weightSum))

	mean := sum.Div(sum, num.NewUint(uint64(len(survivorVals))))
	cv := num.Ratio(num.StdDevUint(survivorVals, mean), mean)
	agreement := num.MaxD(num.DecimalZero(), num.DecimalOne().Sub(cv))

	res.price = &types.AggregatedPrice{
		MarketID:   marketID,
		Price:      price,
		Confidence: num.MaxD(num.DecimalZero(), minConf).Mul(agreement),
		Timestamp:  newest,
		Sources:    len(survivors),
	}
	return res, nil
}

// age of a report, reports from the future are treated as brand new.
func age(ts, now int64) time.Duration {
	if ts >= now {
		return 0
	}
	return time.Duration(now - ts)
}

// decay returns the linear time decay factor, 1 for a new report down to
// 0 at the end of the window.
func decay(age, window time.Duration) num.Decimal {
	if window <= 0 {
		return num.DecimalOne()
	}
	if age >= window {
		return num.DecimalZero()
	}
	return num.DecimalOne().Sub(num.DecimalFromInt64(int64(age)).Div(num.DecimalFromInt64(int64(window))))
}

func sortReports(reports []weightedReport) {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].SourceID < reports[j].SourceID
	})
}
