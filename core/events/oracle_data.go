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

package events

import (
	"context"

	"code.vegaprotocol.io/perps/core/types"
)

type OracleDataPayload struct {
	Price *types.AggregatedPrice `json:"price"`
	// Rejected lists the sources dropped as outliers.
	Rejected []string `json:"rejected,omitempty"`
}

// OracleData is emitted every time an aggregated price is recomputed.
type OracleData struct {
	*Base
	d OracleDataPayload
}

func NewOracleDataEvent(ctx context.Context, price *types.AggregatedPrice, rejected []string) *OracleData {
	return &OracleData{
		Base: newBase(ctx, OracleDataEvent),
		d: OracleDataPayload{
			Price:    price.Clone(),
			Rejected: append([]string(nil), rejected...),
		},
	}
}

func (o OracleData) MarketID() string {
	return o.d.Price.MarketID
}

func (o OracleData) Data() OracleDataPayload {
	return o.d
}

func (o OracleData) StreamMessage() *BusEvent {
	return newBusEventFromBase(o.Base, o.d.Price.MarketID, o.d)
}

// PriceUnavailable signals a consumer could not obtain a valid price.
type PriceUnavailable struct {
	*Base
	marketID string
	reason   string
}

func NewPriceUnavailableEvent(ctx context.Context, marketID string, err error) *PriceUnavailable {
	return &PriceUnavailable{
		Base:     newBase(ctx, PriceUnavailableEvent),
		marketID: marketID,
		reason:   err.Error(),
	}
}

func (p PriceUnavailable) MarketID() string {
	return p.marketID
}

func (p PriceUnavailable) Reason() string {
	return p.reason
}

func (p PriceUnavailable) StreamMessage() *BusEvent {
	return newBusEventFromBase(p.Base, p.marketID, struct {
		Reason string `json:"reason"`
	}{p.reason})
}
