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

package events

import (
	"context"
	"time"

	"code.vegaprotocol.io/perps/libs/num"
)

type CircuitBreakerData struct {
	MarketID string `json:"market_id"`
	Halted   bool   `json:"halted"`
	// Until is the end of the cooldown, zero when trading resumed.
	Until     int64         `json:"until"`
	Window    time.Duration `json:"window,omitempty"`
	Move      num.Decimal   `json:"move"`
	Threshold num.Decimal   `json:"threshold"`
}

type CircuitBreaker struct {
	*Base
	c CircuitBreakerData
}

func NewCircuitBreakerEvent(ctx context.Context, c CircuitBreakerData) *CircuitBreaker {
	return &CircuitBreaker{
		Base: newBase(ctx, CircuitBreakerEvent),
		c:    c,
	}
}

func (c CircuitBreaker) MarketID() string {
	return c.c.MarketID
}

func (c CircuitBreaker) Halted() bool {
	return c.c.Halted
}

func (c CircuitBreaker) CircuitBreaker() CircuitBreakerData {
	return c.c
}

func (c CircuitBreaker) StreamMessage() *BusEvent {
	return newBusEventFromBase(c.Base, c.c.MarketID, c.c)
}
