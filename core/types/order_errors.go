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

// OrderError is the reason an order was rejected. It implements error and
// belongs to exactly one class of ErrValidation, ErrInsufficientMargin or
// ErrInsufficientLiquidity.
type OrderError int32

const (
	// OrderErrorUnspecified is the default for orders without a rejection.
	OrderErrorUnspecified OrderError = iota
	// OrderErrorInvalidMarketID the market does not exist.
	OrderErrorInvalidMarketID
	// OrderErrorInvalidOrderID the order ID is malformed or unknown.
	OrderErrorInvalidOrderID
	// OrderErrorInvalidParty the party is missing.
	OrderErrorInvalidParty
	// OrderErrorInvalidSide the side is neither buy nor sell.
	OrderErrorInvalidSide
	// OrderErrorInvalidType the order type is unknown.
	OrderErrorInvalidType
	// OrderErrorInvalidTimeInForce the time in force is unknown or not
	// allowed for the order type.
	OrderErrorInvalidTimeInForce
	// OrderErrorInvalidPrice the price is missing, zero, or set on a market order.
	OrderErrorInvalidPrice
	// OrderErrorInvalidTickSize the price is not a multiple of the tick size.
	OrderErrorInvalidTickSize
	// OrderErrorInvalidSize the size is zero.
	OrderErrorInvalidSize
	// OrderErrorInvalidLotSize the size is not a multiple of the lot size.
	OrderErrorInvalidLotSize
	// OrderErrorSizeAboveMaximum the size exceeds the per order ceiling.
	OrderErrorSizeAboveMaximum
	// OrderErrorPositionAboveMaximum the order could take the position above
	// the per position ceiling.
	OrderErrorPositionAboveMaximum
	// OrderErrorPostOnlyWouldTrade a post only order crosses the book.
	OrderErrorPostOnlyWouldTrade
	// OrderErrorReduceOnlyWouldNotReduce a reduce only order would increase
	// the position.
	OrderErrorReduceOnlyWouldNotReduce
	// OrderErrorMarketHalted the circuit breaker only admits reduce only orders.
	OrderErrorMarketHalted
	// OrderErrorNoValidPrice a risk increasing order needs a valid price.
	OrderErrorNoValidPrice
	// OrderErrorMarginCheckFailed the party's margin does not cover the
	// initial requirement.
	OrderErrorMarginCheckFailed
	// OrderErrorInsufficientFundsToPayFees the party cannot pay the fees.
	OrderErrorInsufficientFundsToPayFees
	// OrderErrorFOKNotFilled a fill or kill order cannot be filled in full.
	OrderErrorFOKNotFilled
	// OrderErrorNoLiquidity a market order faces an empty book.
	OrderErrorNoLiquidity
)

var orderErrorStrings = map[OrderError]string{
	OrderErrorUnspecified:                "ORDER_ERROR_UNSPECIFIED",
	OrderErrorInvalidMarketID:            "ORDER_ERROR_INVALID_MARKET_ID",
	OrderErrorInvalidOrderID:             "ORDER_ERROR_INVALID_ORDER_ID",
	OrderErrorInvalidParty:               "ORDER_ERROR_INVALID_PARTY_ID",
	OrderErrorInvalidSide:                "ORDER_ERROR_INVALID_SIDE",
	OrderErrorInvalidType:                "ORDER_ERROR_INVALID_TYPE",
	OrderErrorInvalidTimeInForce:         "ORDER_ERROR_INVALID_TIME_IN_FORCE",
	OrderErrorInvalidPrice:               "ORDER_ERROR_INVALID_PRICE",
	OrderErrorInvalidTickSize:            "ORDER_ERROR_INVALID_TICK_SIZE",
	OrderErrorInvalidSize:                "ORDER_ERROR_INVALID_SIZE",
	OrderErrorInvalidLotSize:             "ORDER_ERROR_INVALID_LOT_SIZE",
	OrderErrorSizeAboveMaximum:           "ORDER_ERROR_SIZE_ABOVE_MAXIMUM",
	OrderErrorPositionAboveMaximum:       "ORDER_ERROR_POSITION_ABOVE_MAXIMUM",
	OrderErrorPostOnlyWouldTrade:         "ORDER_ERROR_POST_ONLY_ORDER_WOULD_TRADE",
	OrderErrorReduceOnlyWouldNotReduce:   "ORDER_ERROR_REDUCE_ONLY_ORDER_WOULD_NOT_REDUCE_POSITION",
	OrderErrorMarketHalted:               "ORDER_ERROR_MARKET_HALTED",
	OrderErrorNoValidPrice:               "ORDER_ERROR_NO_VALID_PRICE",
	OrderErrorMarginCheckFailed:          "ORDER_ERROR_MARGIN_CHECK_FAILED",
	OrderErrorInsufficientFundsToPayFees: "ORDER_ERROR_INSUFFICIENT_FUNDS_TO_PAY_FEES",
	OrderErrorFOKNotFilled:               "ORDER_ERROR_FOK_NOT_FILLED",
	OrderErrorNoLiquidity:                "ORDER_ERROR_NO_LIQUIDITY",
}

func (e OrderError) String() string {
	if s, ok := orderErrorStrings[e]; ok {
		return s
	}
	return "ORDER_ERROR_UNKNOWN"
}

func (e OrderError) Error() string {
	return e.String()
}

// Class returns the taxonomy class of the rejection.
func (e OrderError) Class() error {
	switch e {
	case OrderErrorMarginCheckFailed, OrderErrorInsufficientFundsToPayFees:
		return ErrInsufficientMargin
	case OrderErrorFOKNotFilled, OrderErrorNoLiquidity:
		return ErrInsufficientLiquidity
	default:
		return ErrValidation
	}
}

// Is lets errors.Is match an OrderError against its class.
func (e OrderError) Is(target error) bool {
	return target == e.Class()
}

func IsOrderError(err error) (OrderError, bool) {
	var oerr OrderError
	ok := errors.As(err, &oerr)
	return oerr, ok
}

// IsRejectionError returns true for business rule rejections which leave
// no state change behind.
func IsRejectionError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientMargin) ||
		errors.Is(err, ErrInsufficientLiquidity)
}
