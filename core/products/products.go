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
	"errors"
	"time"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"
)

// ErrNilMarket signals the market passed in the constructor was nil.
var ErrNilMarket = errors.New("nil market")

// PriceOracle supplies the mark and index prices used by the funding
// calculation.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/perps/core/products PriceOracle,Ledger,Broker
type PriceOracle interface {
	GetPrice(marketID string, now time.Time) (*types.AggregatedPrice, error)
}

// Ledger settles every position of a market against a new cumulative
// funding index.
type Ledger interface {
	SettleFundingAll(ctx context.Context, index *num.Int) []events.FundingPayment
	FundingIndex() *num.Int
}

type Broker interface {
	Send(e events.Event)
	SendBatch(es []events.Event)
}
