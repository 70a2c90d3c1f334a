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

package insurance_test

import (
	"context"
	"sync"
	"testing"

	"code.vegaprotocol.io/perps/core/insurance"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestPool(t *testing.T, seed map[string]string) *insurance.Pool {
	t.Helper()
	cfg := insurance.NewDefaultConfig()
	cfg.Seed = seed
	p, err := insurance.New(logging.NewTestLogger(), cfg)
	require.NoError(t, err)
	return p
}

func TestCoverShortfall(t *testing.T) {
	ctx := context.Background()
	p := getTestPool(t, map[string]string{"BTC-PERP": "100"})

	covered := p.CoverShortfall(ctx, "BTC-PERP", num.MustParseFixed("40"))
	assert.Equal(t, "40", num.FormatFixed(covered))
	assert.Equal(t, "60", num.FormatFixed(p.Balance("BTC-PERP")))

	// never pays more than the balance
	covered = p.CoverShortfall(ctx, "BTC-PERP", num.MustParseFixed("75"))
	assert.Equal(t, "60", num.FormatFixed(covered))
	assert.True(t, p.Balance("BTC-PERP").IsZero())

	assert.True(t, p.CoverShortfall(ctx, "BTC-PERP", num.MustParseFixed("1")).IsZero())
	assert.True(t, p.CoverShortfall(ctx, "ETH-PERP", num.MustParseFixed("1")).IsZero())
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	p := getTestPool(t, nil)

	p.Deposit(ctx, "ETH-PERP", num.MustParseFixed("2.5"))
	p.Deposit(ctx, "ETH-PERP", num.UintZero())
	p.Deposit(ctx, "BTC-PERP", num.MustParseFixed("1"))
	assert.Equal(t, "2.5", num.FormatFixed(p.Balance("ETH-PERP")))
	assert.Equal(t, []string{"BTC-PERP", "ETH-PERP"}, p.Markets())

	covered := p.CoverShortfall(ctx, "ETH-PERP", num.MustParseFixed("1"))
	assert.Equal(t, "1", num.FormatFixed(covered))
	assert.Equal(t, "1.5", num.FormatFixed(p.Balance("ETH-PERP")))
}

func TestInvalidSeed(t *testing.T) {
	cfg := insurance.NewDefaultConfig()
	cfg.Seed = map[string]string{"BTC-PERP": "abc"}
	_, err := insurance.New(logging.NewTestLogger(), cfg)
	assert.Error(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	p := getTestPool(t, nil)
	one := num.MustParseFixed("1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Deposit(ctx, "BTC-PERP", one)
		}()
		go func() {
			defer wg.Done()
			p.Balance("BTC-PERP")
		}()
	}
	wg.Wait()
	assert.Equal(t, "50", num.FormatFixed(p.Balance("BTC-PERP")))
}
