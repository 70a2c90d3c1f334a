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
	"encoding/json"
	"fmt"
	"strings"

	vgcontext "code.vegaprotocol.io/perps/libs/context"

	"github.com/pkg/errors"
)

// Version of the bus event envelope.
const Version = 1

var ErrInvalidEventType = errors.New("invalid event type")

type Type int

// simple interface for event filtering on market ID.
type marketFilterable interface {
	Event
	MarketID() string
}

// simple interface for event filtering on party ID.
type partyFilterable interface {
	Event
	IsParty(id string) bool
}

// Base common denominator all event-bus events share.
type Base struct {
	ctx     context.Context
	traceID string
	seq     uint64
	et      Type
}

// Event - the base event interface type. The sequence ID is set by the
// broker and can only be set once.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Sequence() uint64
	SetSequenceID(s uint64)
	StreamMessage() *BusEvent
	Replace(context.Context)
}

const (
	// All event type -> used by subscribers to just receive all events, has no actual corresponding event payload.
	All Type = iota
	TimeUpdate
	OrderEvent
	TradeEvent
	PositionEvent
	MarginEvent
	FundingPeriodEvent
	FundingPaymentsEvent
	LiquidationEvent
	DeleverageEvent
	ShortfallEvent
	CircuitBreakerEvent
	OracleDataEvent
	PriceUnavailableEvent
	MarketUpdatedEvent
)

var (
	marketEvents = []Type{
		OrderEvent,
		TradeEvent,
		PositionEvent,
		MarginEvent,
		FundingPeriodEvent,
		FundingPaymentsEvent,
		LiquidationEvent,
		DeleverageEvent,
		ShortfallEvent,
		CircuitBreakerEvent,
		MarketUpdatedEvent,
	}

	eventStrings = map[Type]string{
		All:                   "ALL",
		TimeUpdate:            "TimeUpdate",
		OrderEvent:            "OrderEvent",
		TradeEvent:            "TradeEvent",
		PositionEvent:         "PositionEvent",
		MarginEvent:           "MarginEvent",
		FundingPeriodEvent:    "FundingPeriodEvent",
		FundingPaymentsEvent:  "FundingPaymentsEvent",
		LiquidationEvent:      "LiquidationEvent",
		DeleverageEvent:       "DeleverageEvent",
		ShortfallEvent:        "ShortfallEvent",
		CircuitBreakerEvent:   "CircuitBreakerEvent",
		OracleDataEvent:       "OracleDataEvent",
		PriceUnavailableEvent: "PriceUnavailableEvent",
		MarketUpdatedEvent:    "MarketUpdatedEvent",
	}
)

// BusEvent is the serialised form of an event, as written to the journal
// and to external sinks.
type BusEvent struct {
	Version  int             `json:"version"`
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	TraceID  string          `json:"trace_id"`
	Sequence uint64          `json:"seq"`
	MarketID string          `json:"market_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// EventType returns the internal type of the bus event.
func (b *BusEvent) EventType() (Type, error) {
	t, ok := TryFromString(b.Type)
	if !ok {
		return All, fmt.Errorf("%w: %s", ErrInvalidEventType, b.Type)
	}
	return *t, nil
}

// Decode unmarshals the payload into v.
func (b *BusEvent) Decode(v interface{}) error {
	return json.Unmarshal(b.Payload, v)
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := vgcontext.TraceIDFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		et:      t,
	}
}

// Replace updates the event to be based on the new given context.
func (b *Base) Replace(ctx context.Context) {
	nb := newBase(ctx, b.Type())
	*b = *nb
}

// TraceID returns the... traceID obviously.
func (b Base) TraceID() string {
	return b.traceID
}

func (b *Base) SetSequenceID(s uint64) {
	// sequence ID can only be set once
	if b.seq != 0 {
		return
	}
	b.seq = s
}

// Sequence returns event sequence number.
func (b Base) Sequence() uint64 {
	return b.seq
}

// Context returns context.
func (b Base) Context() context.Context {
	return b.ctx
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}

func (b Base) eventID() string {
	return fmt.Sprintf("%s-%d", b.traceID, b.seq)
}

// MarketEvents return all the possible market events.
func MarketEvents() []Type {
	return marketEvents
}

// String get string representation of event type.
func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}

// TryFromString tries to parse a raw string into an event type, false indicates that.
func TryFromString(s string) (*Type, bool) {
	for k, v := range eventStrings {
		if strings.EqualFold(s, v) {
			return &k, true
		}
	}
	return nil, false
}

func GetMarketIDFilter(mID string) func(Event) bool {
	return func(e Event) bool {
		me, ok := e.(marketFilterable)
		if !ok {
			return false
		}
		return me.MarketID() == mID
	}
}

func GetPartyIDFilter(pID string) func(Event) bool {
	return func(e Event) bool {
		pe, ok := e.(partyFilterable)
		if !ok {
			return false
		}
		return pe.IsParty(pID)
	}
}

func newBusEventFromBase(base *Base, marketID string, payload interface{}) *BusEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		// payloads are plain data, this can only be a programming error
		panic(fmt.Sprintf("could not marshal %s payload: %v", base.Type(), err))
	}
	return &BusEvent{
		Version:  Version,
		ID:       base.eventID(),
		Type:     base.Type().String(),
		TraceID:  base.TraceID(),
		Sequence: base.Sequence(),
		MarketID: marketID,
		Payload:  raw,
	}
}
