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
	"fmt"
	"strconv"
	"strings"

	vgcontext "github.com/CKS-Systems/manifest-sub000/libs/context"

	"github.com/pkg/errors"
)

var ErrInvalidEventID = errors.New("invalid event id")

type Type int

// simple interface for event filtering on market key.
type marketFilterable interface {
	Event
	MarketID() string
}

// simple interface for event filtering on trader key.
type traderFilterable interface {
	Event
	IsTrader(id string) bool
}

// Base common denominator all event-bus events share.
type Base struct {
	ctx     context.Context
	traceID string
	slot    uint32
	seq     uint64
	et      Type
}

// Event is the interface every event sent to the broker implements. The
// sequence id is set by the processor when the instruction commits and can
// only be set once.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Slot() uint32
	Sequence() uint64
	SetSequenceID(s uint64)
	StreamMessage() *BusEvent
	Replace(context.Context)
}

// BusEvent is the wire form of an event, streamed as JSON to the indexer.
type BusEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	TraceID string `json:"trace_id"`
	Slot    uint32 `json:"slot"`
	Payload any    `json:"payload"`
}

const (
	// All event type -> used by subscribers to just receive all events, has no actual corresponding event payload.
	All Type = iota
	FillEvent
	PlaceOrderEvent
	CancelOrderEvent
	DepositEvent
	WithdrawEvent
	ClaimSeatEvent
	ReleaseSeatEvent
	MarketCreatedEvent
	MarketExpandedEvent
	GlobalCreatedEvent
	GlobalAddTraderEvent
	GlobalDepositEvent
	GlobalWithdrawEvent
	GlobalEvictEvent
	GlobalCleanEvent
)

var (
	marketEvents = []Type{
		FillEvent,
		PlaceOrderEvent,
		CancelOrderEvent,
		MarketCreatedEvent,
		MarketExpandedEvent,
	}

	globalEvents = []Type{
		GlobalCreatedEvent,
		GlobalAddTraderEvent,
		GlobalDepositEvent,
		GlobalWithdrawEvent,
		GlobalEvictEvent,
		GlobalCleanEvent,
	}

	eventStrings = map[Type]string{
		All:                  "ALL",
		FillEvent:            "Fill",
		PlaceOrderEvent:      "PlaceOrder",
		CancelOrderEvent:     "CancelOrder",
		DepositEvent:         "Deposit",
		WithdrawEvent:        "Withdraw",
		ClaimSeatEvent:       "ClaimSeat",
		ReleaseSeatEvent:     "ReleaseSeat",
		MarketCreatedEvent:   "MarketCreated",
		MarketExpandedEvent:  "MarketExpanded",
		GlobalCreatedEvent:   "GlobalCreated",
		GlobalAddTraderEvent: "GlobalAddTrader",
		GlobalDepositEvent:   "GlobalDeposit",
		GlobalWithdrawEvent:  "GlobalWithdraw",
		GlobalEvictEvent:     "GlobalEvict",
		GlobalCleanEvent:     "GlobalClean",
	}
)

// A base event holds no data, so the constructor will not be called directly.
func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := vgcontext.TraceIDFromContext(ctx)
	slot, _ := vgcontext.SlotFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		slot:    slot,
		et:      t,
	}
}

// Replace updates the event to be based on the new given context.
func (b *Base) Replace(ctx context.Context) {
	nb := newBase(ctx, b.Type())
	*b = *nb
}

// TraceID returns the id of the instruction that emitted the event.
func (b Base) TraceID() string {
	return b.traceID
}

// Slot returns the slot the emitting instruction executed in.
func (b Base) Slot() uint32 {
	return b.slot
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
	return fmt.Sprintf("%d-%d", b.slot, b.seq)
}

func newBusEventFromBase(b *Base, payload any) *BusEvent {
	return &BusEvent{
		ID:      b.eventID(),
		Type:    b.et.String(),
		TraceID: b.traceID,
		Slot:    b.slot,
		Payload: payload,
	}
}

// DecodeEventID splits a bus event id into its slot and sequence number.
func DecodeEventID(id string) (slot uint32, seq uint64, err error) {
	s1, s2, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, errors.Wrap(ErrInvalidEventID, id)
	}
	sl, err := strconv.ParseUint(s1, 10, 32)
	if err != nil {
		return 0, 0, errors.Wrap(ErrInvalidEventID, id)
	}
	if seq, err = strconv.ParseUint(s2, 10, 64); err != nil {
		return 0, 0, errors.Wrap(ErrInvalidEventID, id)
	}
	return uint32(sl), seq, nil
}

// MarketEvents return all the possible market events.
func MarketEvents() []Type {
	return marketEvents
}

// GlobalEvents return all the events emitted by global accounts.
func GlobalEvents() []Type {
	return globalEvents
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

func GetTraderFilter(trader string) func(Event) bool {
	return func(e Event) bool {
		te, ok := e.(traderFilterable)
		if !ok {
			return false
		}
		return te.IsTrader(trader)
	}
}
