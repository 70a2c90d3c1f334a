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

package idgeneration

import (
	"encoding/hex"

	"code.vegaprotocol.io/perps/libs/crypto"
)

// IDGenerator produces a deterministic hash chain of IDs. No mutex
// required, each market lane owns its generator and uses it sequentially.
type IDGenerator struct {
	nextIDBytes []byte
	count       uint64
}

// New returns an IDGenerator starting at the hex encoded rootID.
func New(rootID string) *IDGenerator { //revive:disable:unexported-return
	nextIDBytes, err := hex.DecodeString(rootID)
	if err != nil {
		panic("failed to create new deterministic id generator: " + err.Error())
	}

	return &IDGenerator{
		nextIDBytes: nextIDBytes,
	}
}

// NewForMarket seeds a generator from a market ID so that replaying the
// same inputs on a market yields the same IDs.
func NewForMarket(marketID string) *IDGenerator { //revive:disable:unexported-return
	return New(crypto.HashStr(marketID))
}

func (i *IDGenerator) NextID() string {
	if i == nil {
		panic("id generator instance is not initialised")
	}

	nextID := hex.EncodeToString(i.nextIDBytes)
	i.nextIDBytes = crypto.Hash(i.nextIDBytes)
	i.count++
	return nextID
}

// Count returns how many IDs were generated so far.
func (i *IDGenerator) Count() uint64 {
	return i.count
}
