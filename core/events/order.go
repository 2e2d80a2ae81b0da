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

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/types"
)

// OrderPayload is the streamed form of a placed or cancelled order.
type OrderPayload struct {
	Market         string `json:"market"`
	Trader         string `json:"trader"`
	SequenceNumber uint64 `json:"sequence_number"`
	OrderIndex     uint32 `json:"order_index"`
	Price          string `json:"price"`
	EffectivePrice string `json:"effective_price"`
	BaseAtoms      uint64 `json:"base_atoms"`
	IsBid          bool   `json:"is_bid"`
	LastValidSlot  uint32 `json:"last_valid_slot"`
	OrderType      string `json:"order_type"`
}

// Order is emitted when an order starts resting on a book or leaves it
// through a cancel.
type Order struct {
	*Base
	market types.Pubkey
	trader types.Pubkey
	index  hypertree.DataIndex
	o      types.RestingOrder
}

func NewPlaceOrderEvent(ctx context.Context, market, trader types.Pubkey, index hypertree.DataIndex, o types.RestingOrder) *Order {
	return &Order{
		Base:   newBase(ctx, PlaceOrderEvent),
		market: market,
		trader: trader,
		index:  index,
		o:      o,
	}
}

func NewCancelOrderEvent(ctx context.Context, market, trader types.Pubkey, o types.RestingOrder) *Order {
	return &Order{
		Base:   newBase(ctx, CancelOrderEvent),
		market: market,
		trader: trader,
		index:  hypertree.NIL,
		o:      o,
	}
}

func (o Order) Order() types.RestingOrder {
	return o.o
}

// Index returns the order's data index, NIL for cancels.
func (o Order) Index() hypertree.DataIndex {
	return o.index
}

func (o Order) MarketID() string {
	return o.market.String()
}

func (o Order) TraderID() string {
	return o.trader.String()
}

func (o Order) IsTrader(id string) bool {
	return o.trader.String() == id
}

func (o Order) Payload() OrderPayload {
	return OrderPayload{
		Market:         o.market.String(),
		Trader:         o.trader.String(),
		SequenceNumber: o.o.SequenceNumber,
		OrderIndex:     uint32(o.index),
		Price:          o.o.Price.String(),
		EffectivePrice: o.o.EffectivePrice.String(),
		BaseAtoms:      o.o.NumBaseAtoms.Uint64(),
		IsBid:          o.o.IsBid,
		LastValidSlot:  o.o.LastValidSlot,
		OrderType:      o.o.OrderType.String(),
	}
}

func (o Order) StreamMessage() *BusEvent {
	return newBusEventFromBase(o.Base, o.Payload())
}
