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

package auth_test

import (
	"testing"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/core/auth"
	"code.vegaprotocol.io/perps/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapability(t *testing.T) {
	c, err := auth.ParseCapability(" Price-Feed ")
	require.NoError(t, err)
	assert.Equal(t, auth.CapabilityPriceFeed, c)

	_, err = auth.ParseCapability("root")
	assert.ErrorIs(t, err, auth.ErrUnknownCapability)

	both := auth.CapabilityTrade | auth.CapabilityAdmin
	assert.Equal(t, "trade|admin", both.String())
	assert.True(t, both.Has(auth.CapabilityAdmin))
	assert.False(t, both.Has(auth.CapabilityAdmin|auth.CapabilityMargin))
}

func TestStaticAuthoriser(t *testing.T) {
	cfg := auth.NewDefaultConfig()
	cfg.Grants["oracle-1"] = []string{"price-feed"}
	cfg.Grants["ops"] = []string{"admin"}

	s, err := auth.NewStatic(logging.NewTestLogger(), cfg)
	require.NoError(t, err)

	t.Run("everyone trades", func(t *testing.T) {
		assert.NoError(t, s.Authorise("A", auth.CapabilityTrade))
		assert.NoError(t, s.Authorise("A", auth.CapabilityMargin))
		assert.ErrorIs(t, s.Authorise("A", auth.CapabilityAdmin), auth.ErrUnauthorised)
	})

	t.Run("named grants add up", func(t *testing.T) {
		assert.NoError(t, s.Authorise("oracle-1", auth.CapabilityPriceFeed))
		assert.NoError(t, s.Authorise("oracle-1", auth.CapabilityTrade))
		assert.ErrorIs(t, s.Authorise("ops", auth.CapabilityPriceFeed), auth.ErrUnauthorised)
	})

	t.Run("anonymous callers are refused", func(t *testing.T) {
		assert.ErrorIs(t, s.Authorise("", auth.CapabilityTrade), auth.ErrUnauthorised)
	})

	t.Run("reload", func(t *testing.T) {
		s.ReloadConf(auth.Config{
			Level:  encoding.LogLevel{Level: logging.InfoLevel},
			Grants: map[string][]string{"ops": {"admin", "trade"}},
		})
		assert.ErrorIs(t, s.Authorise("A", auth.CapabilityTrade), auth.ErrUnauthorised)
		assert.NoError(t, s.Authorise("ops", auth.CapabilityTrade))

		// invalid grants keep the previous ones
		s.ReloadConf(auth.Config{Grants: map[string][]string{"ops": {"god"}}})
		assert.NoError(t, s.Authorise("ops", auth.CapabilityAdmin))
	})
}

func TestInvalidGrants(t *testing.T) {
	cfg := auth.NewDefaultConfig()
	cfg.Grants["x"] = []string{"everything"}
	_, err := auth.NewStatic(logging.NewTestLogger(), cfg)
	assert.ErrorIs(t, err, auth.ErrUnknownCapability)
}
