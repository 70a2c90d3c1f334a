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

package types_test

import (
	"errors"
	"fmt"
	"testing"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderErrorClasses(t *testing.T) {
	cases := []struct {
		err   types.OrderError
		class error
	}{
		{types.OrderErrorInvalidTickSize, types.ErrValidation},
		{types.OrderErrorPostOnlyWouldTrade, types.ErrValidation},
		{types.OrderErrorMarketHalted, types.ErrValidation},
		{types.OrderErrorMarginCheckFailed, types.ErrInsufficientMargin},
		{types.OrderErrorFOKNotFilled, types.ErrInsufficientLiquidity},
		{types.OrderErrorNoLiquidity, types.ErrInsufficientLiquidity},
	}

	for _, c := range cases {
		t.Run(c.err.String(), func(t *testing.T) {
			wrapped := fmt.Errorf("submit: %w", c.err)
			assert.ErrorIs(t, wrapped, c.class)
			oerr, ok := types.IsOrderError(wrapped)
			require.True(t, ok)
			assert.Equal(t, c.err, oerr)
			assert.True(t, types.IsRejectionError(wrapped))
		})
	}

	assert.False(t, errors.Is(types.OrderErrorInvalidLotSize, types.ErrInsufficientMargin))
	assert.False(t, types.IsRejectionError(types.ErrStalePrice))
	assert.True(t, types.IsDataQualityError(fmt.Errorf("x: %w", types.ErrInsufficientSources)))
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[types.OrderStatus]bool{
		types.OrderStatusPending:         false,
		types.OrderStatusActive:          false,
		types.OrderStatusPartiallyFilled: false,
		types.OrderStatusFilled:          true,
		types.OrderStatusCancelled:       true,
		types.OrderStatusExpired:         true,
		types.OrderStatusRejected:        true,
	}
	for st, exp := range terminal {
		assert.Equal(t, exp, st.IsTerminal(), st.String())
	}
}

func TestPositionUnrealisedPnl(t *testing.T) {
	pos := types.NewPosition("p1", "BTC-PERP")
	pos.AverageEntryPrice = num.MustParseFixed("100")

	t.Run("flat position has no pnl", func(t *testing.T) {
		assert.True(t, pos.UnrealisedPnl(num.MustParseFixed("150")).IsZero())
	})

	t.Run("long gains when price rises", func(t *testing.T) {
		pos.Size = int64(num.MustParseFixedSize("2"))
		pnl := pos.UnrealisedPnl(num.MustParseFixed("110"))
		assert.Equal(t, num.MustParseFixed("20").String(), pnl.String())
		pnl = pos.UnrealisedPnl(num.MustParseFixed("95"))
		assert.Equal(t, "-"+num.MustParseFixed("10").String(), pnl.String())
	})

	t.Run("short gains when price falls", func(t *testing.T) {
		pos.Size = -int64(num.MustParseFixedSize("2"))
		pnl := pos.UnrealisedPnl(num.MustParseFixed("95"))
		assert.Equal(t, num.MustParseFixed("10").String(), pnl.String())
	})
}

func TestPositionWorstCaseSize(t *testing.T) {
	pos := types.NewPosition("p1", "BTC-PERP")
	pos.Size = 5
	pos.BuyPotential = 3
	pos.SellPotential = 12
	assert.Equal(t, uint64(8), pos.WorstCaseSize())
	pos.SellPotential = 20
	assert.Equal(t, uint64(15), pos.WorstCaseSize())
}

func TestMarketValidation(t *testing.T) {
	mkt := types.Market{
		ID:                    "BTC-PERP",
		TickSize:              num.MustParseFixed("0.01"),
		LotSize:               num.MustParseFixedSize("0.001"),
		MaxLeverage:           num.DecimalFromInt64(20),
		InitialMarginRate:     num.MustDecimalFromString("0.01"),
		MaintenanceMarginRate: num.MustDecimalFromString("0.006"),
		MaxOrderSize:          num.MustParseFixedSize("100"),
	}
	require.NoError(t, mkt.Validate())
	// 1/20 is above the configured initial rate
	assert.True(t, mkt.InitialRate().Equal(num.MustDecimalFromString("0.05")))

	assert.NoError(t, mkt.ValidatePrice(num.MustParseFixed("100.01")))
	assert.ErrorIs(t, mkt.ValidatePrice(num.MustParseFixed("100.005")), types.OrderErrorInvalidTickSize)
	assert.ErrorIs(t, mkt.ValidatePrice(nil), types.OrderErrorInvalidPrice)

	assert.NoError(t, mkt.ValidateSize(num.MustParseFixedSize("1.001")))
	assert.ErrorIs(t, mkt.ValidateSize(num.MustParseFixedSize("1.0005")), types.OrderErrorInvalidLotSize)
	assert.ErrorIs(t, mkt.ValidateSize(num.MustParseFixedSize("101")), types.OrderErrorSizeAboveMaximum)
	assert.ErrorIs(t, mkt.ValidateSize(0), types.OrderErrorInvalidSize)

	bad := mkt.DeepClone()
	bad.InitialMarginRate = num.MustDecimalFromString("0.001")
	assert.ErrorIs(t, bad.Validate(), types.ErrInvalidMarketConfig)
}
