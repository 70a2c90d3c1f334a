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
	"errors"
)

var (
	// ErrValidation is the class of malformed or out of bounds requests.
	ErrValidation = errors.New("validation error")
	// ErrInsufficientMargin is the class of requests rejected because the
	// party does not have enough margin.
	ErrInsufficientMargin = errors.New("insufficient margin")
	// ErrInsufficientLiquidity is the class of orders rejected because the
	// book cannot fill them as requested.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrStalePrice signals no price is fresh enough to be consumed.
	ErrStalePrice = errors.New("stale price")
	// ErrInsufficientSources signals too few sources survived validation.
	ErrInsufficientSources = errors.New("insufficient price sources")
	// ErrShortfallUnrecoverable signals the insurance fund could not cover
	// bad debt and positions had to be deleveraged.
	ErrShortfallUnrecoverable = errors.New("shortfall unrecoverable")
	// ErrOrderNotFound signals an unknown order ID.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyTerminal signals an order already filled, cancelled,
	// expired or rejected.
	ErrOrderAlreadyTerminal = errors.New("order already terminal")
	// ErrInvalidMarketConfig is returned by market configuration validation.
	ErrInvalidMarketConfig = errors.New("invalid market configuration")
	// ErrMarketNotFound signals an unknown market ID.
	ErrMarketNotFound = errors.New("market not found")
	// ErrPositionNotFound signals no position exists for the party.
	ErrPositionNotFound = errors.New("position not found")
)

// IsDataQualityError returns true for errors caused by a missing price.
func IsDataQualityError(err error) bool {
	return errors.Is(err, ErrStalePrice) || errors.Is(err, ErrInsufficientSources)
}
