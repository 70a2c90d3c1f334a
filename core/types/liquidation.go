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

// LiquidationRecord is the audit entry for one forced reduction of a
// position. Records are never mutated once created.
type LiquidationRecord struct {
	ID        string
	Party     string
	MarketID  string
	Size      uint64
	Side      Side
	Price     *num.Uint
	Penalty   *num.Uint
	Partial   bool
	ADL       bool
	Timestamp int64
}

func (l LiquidationRecord) Clone() *LiquidationRecord {
	cpy := l
	if l.Price != nil {
		cpy.Price = l.Price.Clone()
	}
	if l.Penalty != nil {
		cpy.Penalty = l.Penalty.Clone()
	}
	return &cpy
}

func (l LiquidationRecord) String() string {
	return fmt.Sprintf(
		"ID(%s) party(%s) marketID(%s) size(%v) side(%s) price(%s) penalty(%s) partial(%v) adl(%v) timestamp(%v)",
		l.ID,
		l.Party,
		l.MarketID,
		l.Size,
		l.Side.String(),
		uintPointerToString(l.Price),
		uintPointerToString(l.Penalty),
		l.Partial,
		l.ADL,
		l.Timestamp,
	)
}
