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

package execution

import (
	"testing"

	"code.vegaprotocol.io/perps/core/types"

	"github.com/stretchr/testify/assert"
)

func TestReduces(t *testing.T) {
	cases := []struct {
		name    string
		size    int64
		sellPot uint64
		buyPot  uint64
		side    types.Side
		order   uint64
		reduces bool
	}{
		{name: "flat", size: 0, side: types.SideSell, order: 1},
		{name: "long sells part", size: 3, side: types.SideSell, order: 2, reduces: true},
		{name: "long sells all", size: 3, side: types.SideSell, order: 3, reduces: true},
		{name: "long sells through", size: 3, side: types.SideSell, order: 4},
		{name: "long with resting sells", size: 3, sellPot: 2, side: types.SideSell, order: 2},
		{name: "long buys", size: 3, side: types.SideBuy, order: 1},
		{name: "short buys", size: -3, buyPot: 1, side: types.SideBuy, order: 2, reduces: true},
		{name: "short sells", size: -3, side: types.SideSell, order: 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pos := types.NewPosition("p", "m")
			pos.Size = c.size
			pos.SellPotential = c.sellPot
			pos.BuyPotential = c.buyPot
			o := &types.Order{Side: c.side, Size: c.order}
			assert.Equal(t, c.reduces, reduces(pos, o))
		})
	}
}
