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
	"strings"

	"code.vegaprotocol.io/perps/libs/num"
)

type Side int32

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "SIDE_BUY"
	case SideSell:
		return "SIDE_SELL"
	default:
		return "SIDE_UNSPECIFIED"
	}
}

// Opposite returns the side an order would match against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign returns +1 for buys and -1 for sells.
func (s Side) Sign() int64 {
	if s == SideSell {
		return -1
	}
	return 1
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "SIDE_BUY", "BUY":
		*s = SideBuy
	case "SIDE_SELL", "SELL":
		*s = SideSell
	default:
		return fmt.Errorf("invalid side %q", string(b))
	}
	return nil
}

type OrderType int32

const (
	OrderTypeUnspecified OrderType = iota
	// OrderTypeLimit is a limit order resting any unfilled GTC remainder.
	OrderTypeLimit
	// OrderTypeMarket takes whatever liquidity is available, never rests.
	OrderTypeMarket
	// OrderTypePostOnly is a limit order rejected instead of matched if it
	// would cross the book.
	OrderTypePostOnly
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "TYPE_LIMIT"
	case OrderTypeMarket:
		return "TYPE_MARKET"
	case OrderTypePostOnly:
		return "TYPE_POST_ONLY"
	default:
		return "TYPE_UNSPECIFIED"
	}
}

func (t OrderType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *OrderType) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "TYPE_LIMIT", "LIMIT":
		*t = OrderTypeLimit
	case "TYPE_MARKET", "MARKET":
		*t = OrderTypeMarket
	case "TYPE_POST_ONLY", "POST_ONLY":
		*t = OrderTypePostOnly
	default:
		return fmt.Errorf("invalid order type %q", string(b))
	}
	return nil
}

type OrderTimeInForce int32

const (
	OrderTimeInForceUnspecified OrderTimeInForce = iota
	// OrderTimeInForceGTC good till cancelled.
	OrderTimeInForceGTC
	// OrderTimeInForceIOC immediate or cancel.
	OrderTimeInForceIOC
	// OrderTimeInForceFOK fill or kill.
	OrderTimeInForceFOK
)

func (t OrderTimeInForce) String() string {
	switch t {
	case OrderTimeInForceGTC:
		return "TIME_IN_FORCE_GTC"
	case OrderTimeInForceIOC:
		return "TIME_IN_FORCE_IOC"
	case OrderTimeInForceFOK:
		return "TIME_IN_FORCE_FOK"
	default:
		return "TIME_IN_FORCE_UNSPECIFIED"
	}
}

func (t OrderTimeInForce) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *OrderTimeInForce) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "TIME_IN_FORCE_GTC", "GTC":
		*t = OrderTimeInForceGTC
	case "TIME_IN_FORCE_IOC", "IOC":
		*t = OrderTimeInForceIOC
	case "TIME_IN_FORCE_FOK", "FOK":
		*t = OrderTimeInForceFOK
	default:
		return fmt.Errorf("invalid time in force %q", string(b))
	}
	return nil
}

type OrderStatus int32

const (
	OrderStatusUnspecified OrderStatus = iota
	// OrderStatusPending the order passed validation and waits to be matched.
	OrderStatusPending
	// OrderStatusActive the order is resting on the book.
	OrderStatusActive
	// OrderStatusPartiallyFilled the order traded and is still resting.
	OrderStatusPartiallyFilled
	// OrderStatusFilled the order has been fully filled.
	OrderStatusFilled
	// OrderStatusCancelled the order was cancelled by its party or by the market.
	OrderStatusCancelled
	// OrderStatusExpired the unfilled remainder of a non persistent order was discarded.
	OrderStatusExpired
	// OrderStatusRejected the order never entered the book.
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "STATUS_PENDING"
	case OrderStatusActive:
		return "STATUS_ACTIVE"
	case OrderStatusPartiallyFilled:
		return "STATUS_PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "STATUS_FILLED"
	case OrderStatusCancelled:
		return "STATUS_CANCELLED"
	case OrderStatusExpired:
		return "STATUS_EXPIRED"
	case OrderStatusRejected:
		return "STATUS_REJECTED"
	default:
		return "STATUS_UNSPECIFIED"
	}
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	for v := OrderStatusPending; v <= OrderStatusRejected; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("invalid order status %q", string(b))
}

// IsTerminal returns true for statuses no order ever leaves.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled ||
		s == OrderStatusCancelled ||
		s == OrderStatusExpired ||
		s == OrderStatusRejected
}

type Order struct {
	ID          string
	MarketID    string
	Party       string
	Side        Side
	Type        OrderType
	Price       *num.Uint
	Size        uint64
	Remaining   uint64
	TimeInForce OrderTimeInForce
	Status      OrderStatus
	Reason      OrderError
	SeqNum      uint64
	CreatedAt   int64
	UpdatedAt   int64
	ReduceOnly  bool
	Liquidation bool
}

func (o Order) Clone() *Order {
	cpy := o
	if o.Price != nil {
		cpy.Price = o.Price.Clone()
	}
	return &cpy
}

// Filled returns the size already traded.
func (o *Order) Filled() uint64 {
	return o.Size - o.Remaining
}

// HasTraded returns true if any part of the order was matched.
func (o *Order) HasTraded() bool {
	return o.Size != o.Remaining
}

// IsFinished returns true if the order will never trade again.
func (o *Order) IsFinished() bool {
	return o.Status.IsTerminal()
}

// IsLive returns true if the order can still be consumed by matching.
func (o *Order) IsLive() bool {
	return o.Remaining > 0 &&
		(o.Status == OrderStatusPending || o.Status == OrderStatusActive || o.Status == OrderStatusPartiallyFilled)
}

// IsPersistent returns true if the unfilled remainder rests on the book.
func (o *Order) IsPersistent() bool {
	return o.TimeInForce == OrderTimeInForceGTC &&
		(o.Type == OrderTypeLimit || o.Type == OrderTypePostOnly) &&
		o.Remaining > 0
}

// Crosses returns true if a limit order at this price would trade against
// a resting order at price.
func (o *Order) Crosses(price *num.Uint) bool {
	if o.Type == OrderTypeMarket || o.Price == nil {
		return true
	}
	if o.Side == SideBuy {
		return o.Price.GTE(price)
	}
	return o.Price.LTE(price)
}

func (o Order) String() string {
	return fmt.Sprintf(
		"ID(%s) marketID(%s) party(%s) side(%s) type(%s) price(%s) size(%v) remaining(%v) timeInForce(%s) status(%s) reason(%s) seq(%v) createdAt(%v) updatedAt(%v) reduceOnly(%v) liquidation(%v)",
		o.ID,
		o.MarketID,
		o.Party,
		o.Side.String(),
		o.Type.String(),
		uintPointerToString(o.Price),
		o.Size,
		o.Remaining,
		o.TimeInForce.String(),
		o.Status.String(),
		o.Reason.String(),
		o.SeqNum,
		o.CreatedAt,
		o.UpdatedAt,
		o.ReduceOnly,
		o.Liquidation,
	)
}

type Orders []*Order

// OrderSubmission is the request a party sends to place an order.
type OrderSubmission struct {
	MarketID    string
	Side        Side
	Type        OrderType
	Price       *num.Uint
	Size        uint64
	TimeInForce OrderTimeInForce
	ReduceOnly  bool
}

// IntoOrder creates the order for a submission.
func (s OrderSubmission) IntoOrder(party string) *Order {
	o := &Order{
		MarketID:    s.MarketID,
		Party:       party,
		Side:        s.Side,
		Type:        s.Type,
		Size:        s.Size,
		Remaining:   s.Size,
		TimeInForce: s.TimeInForce,
		ReduceOnly:  s.ReduceOnly,
		Status:      OrderStatusPending,
	}
	if s.Price != nil {
		o.Price = s.Price.Clone()
	}
	return o
}

// OrderConfirmation is the outcome of a submission once matched.
type OrderConfirmation struct {
	Order                 *Order
	Trades                []*Trade
	PassiveOrdersAffected []*Order
}

func uintPointerToString(v *num.Uint) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}
