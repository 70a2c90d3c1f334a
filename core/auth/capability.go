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

package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCapability signals a capability name that cannot be parsed.
var ErrUnknownCapability = errors.New("unknown capability")

// Capability is a set of operations a caller may perform.
type Capability uint8

const (
	// CapabilityTrade allows placing and cancelling orders.
	CapabilityTrade Capability = 1 << iota
	// CapabilityMargin allows moving margin in and out of positions.
	CapabilityMargin
	// CapabilityPriceFeed allows submitting source prices.
	CapabilityPriceFeed
	// CapabilityAdmin allows proposing market updates.
	CapabilityAdmin

	CapabilityNone Capability = 0
)

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapabilityTrade, "trade"},
	{CapabilityMargin, "margin"},
	{CapabilityPriceFeed, "price-feed"},
	{CapabilityAdmin, "admin"},
}

func ParseCapability(s string) (Capability, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range capabilityNames {
		if n.name == s {
			return n.c, nil
		}
	}
	return CapabilityNone, fmt.Errorf("%w: %q", ErrUnknownCapability, s)
}

// Has returns true if every capability of other is in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	if c == CapabilityNone {
		return "none"
	}
	names := make([]string, 0, len(capabilityNames))
	for _, n := range capabilityNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}
