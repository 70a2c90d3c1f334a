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

// Position carries the state of a position after it changed.
type Position struct {
	*Base
	p *types.Position
}

func NewPositionEvent(ctx context.Context, p *types.Position) *Position {
	return &Position{
		Base: newBase(ctx, PositionEvent),
		p:    p.Clone(),
	}
}

func (p Position) MarketID() string {
	return p.p.MarketID
}

func (p Position) PartyID() string {
	return p.p.Party
}

func (p Position) IsParty(id string) bool {
	return p.p.Party == id
}

func (p Position) Size() int64 {
	return p.p.Size
}

func (p *Position) Position() *types.Position {
	return p.p
}

func (p Position) StreamMessage() *BusEvent {
	return newBusEventFromBase(p.Base, p.p.MarketID, p.p)
}
