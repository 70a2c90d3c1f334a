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

package types

import (
	"fmt"

	"code.vegaprotocol.io/perps/libs/num"
)

// SourcePrice is a single report from an independent price source.
type SourcePrice struct {
	SourceID   string
	MarketID   string
	Price      *num.Uint
	Confidence num.Decimal
	Timestamp  int64
}

func (s SourcePrice) Clone() *SourcePrice {
	cpy := s
	if s.Price != nil {
		cpy.Price = s.Price.Clone()
	}
	return &cpy
}

func (s SourcePrice) String() string {
	return fmt.Sprintf(
		"sourceID(%s) marketID(%s) price(%s) confidence(%s) timestamp(%v)",
		s.SourceID,
		s.MarketID,
		uintPointerToString(s.Price),
		s.Confidence.String(),
		s.Timestamp,
	)
}

// AggregatedPrice is the trusted price of a market combined from the
// sources that passed validation.
type AggregatedPrice struct {
	MarketID   string
	Price      *num.Uint
	Confidence num.Decimal
	Timestamp  int64
	Sources    int
}

func (a AggregatedPrice) Clone() *AggregatedPrice {
	cpy := a
	if a.Price != nil {
		cpy.Price = a.Price.Clone()
	}
	return &cpy
}

func (a AggregatedPrice) String() string {
	return fmt.Sprintf(
		"marketID(%s) price(%s) confidence(%s) timestamp(%v) sources(%v)",
		a.MarketID,
		uintPointerToString(a.Price),
		a.Confidence.String(),
		a.Timestamp,
		a.Sources,
	)
}
