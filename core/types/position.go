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

// Position is a party's exposure in a single market. Size is signed,
// positive for long.
type Position struct {
	Party             string
	MarketID          string
	Size              int64
	AverageEntryPrice *num.Uint
	// Margin is the collateral posted against the position. Realised losses
	// can push it negative.
	Margin       *num.Int
	FundingIndex *num.Int
	RealisedPnl  *num.Int
	FeesPaid     *num.Uint
	// BuyPotential and SellPotential are the sizes of the party's live
	// orders on each side.
	BuyPotential  uint64
	SellPotential uint64
	UpdatedAt     int64
}

func NewPosition(party, marketID string) *Position {
	return &Position{
		Party:             party,
		MarketID:          marketID,
		AverageEntryPrice: num.UintZero(),
		Margin:            num.IntZero(),
		FundingIndex:      num.IntZero(),
		RealisedPnl:       num.IntZero(),
		FeesPaid:          num.UintZero(),
	}
}

func (p Position) Clone() *Position {
	cpy := p
	cpy.AverageEntryPrice = p.AverageEntryPrice.Clone()
	cpy.Margin = p.Margin.Clone()
	cpy.FundingIndex = p.FundingIndex.Clone()
	cpy.RealisedPnl = p.RealisedPnl.Clone()
	cpy.FeesPaid = p.FeesPaid.Clone()
	return &cpy
}

// AbsSize returns the unsigned size of the position.
func (p *Position) AbsSize() uint64 {
	if p.Size < 0 {
		return uint64(-p.Size)
	}
	return uint64(p.Size)
}

// IsLong returns true for a strictly positive size.
func (p *Position) IsLong() bool {
	return p.Size > 0
}

// Notional returns |size| * price.
func (p *Position) Notional(price *num.Uint) *num.Uint {
	return num.Notional(price, p.AbsSize())
}

// UnrealisedPnl returns the profit or loss of closing the whole position
// at price.
func (p *Position) UnrealisedPnl(price *num.Uint) *num.Int {
	if p.Size == 0 || price == nil {
		return num.IntZero()
	}
	diff, neg := num.UintZero().Delta(price, p.AverageEntryPrice)
	pnl := num.IntFromUint(num.Notional(diff, p.AbsSize()), !neg)
	if p.Size < 0 {
		pnl.FlipSign()
	}
	return pnl
}

// EffectiveMargin returns posted margin plus unrealised P&L at price.
func (p *Position) EffectiveMargin(price *num.Uint) *num.Int {
	return p.Margin.Clone().Add(p.UnrealisedPnl(price))
}

// WorstCaseSize returns the largest absolute size the position could
// reach if every live order on one side were filled.
func (p *Position) WorstCaseSize() uint64 {
	long := p.Size + int64(p.BuyPotential)
	short := p.Size - int64(p.SellPotential)
	return num.MaxV(uint64(num.AbsV(long)), uint64(num.AbsV(short)))
}

func (p Position) String() string {
	return fmt.Sprintf(
		"party(%s) marketID(%s) size(%v) averageEntryPrice(%s) margin(%s) fundingIndex(%s) realisedPnl(%s) feesPaid(%s) buyPotential(%v) sellPotential(%v) updatedAt(%v)",
		p.Party,
		p.MarketID,
		p.Size,
		uintPointerToString(p.AverageEntryPrice),
		intPointerToString(p.Margin),
		intPointerToString(p.FundingIndex),
		intPointerToString(p.RealisedPnl),
		uintPointerToString(p.FeesPaid),
		p.BuyPotential,
		p.SellPotential,
		p.UpdatedAt,
	)
}

type Positions []*Position

func intPointerToString(v *num.Int) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}
