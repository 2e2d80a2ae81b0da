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

	"github.com/CKS-Systems/manifest-sub000/core/types"
)

// FillPayload is the streamed form of a fill.
type FillPayload struct {
	Market              string `json:"market"`
	Maker               string `json:"maker"`
	Taker               string `json:"taker"`
	BaseMint            string `json:"base_mint"`
	QuoteMint           string `json:"quote_mint"`
	MakerSequenceNumber uint64 `json:"maker_sequence_number"`
	TakerSequenceNumber uint64 `json:"taker_sequence_number"`
	BaseAtoms           uint64 `json:"base_atoms"`
	QuoteAtoms          uint64 `json:"quote_atoms"`
	Price               string `json:"price"`
	TakerIsBuy          bool   `json:"taker_is_buy"`
	IsMakerGlobal       bool   `json:"is_maker_global"`
	Slot                uint32 `json:"slot"`
}

type Fill struct {
	*Base
	f types.Fill
}

func NewFillEvent(ctx context.Context, f types.Fill) *Fill {
	return &Fill{
		Base: newBase(ctx, FillEvent),
		f:    f,
	}
}

func (f Fill) Fill() types.Fill {
	return f.f
}

func (f Fill) MarketID() string {
	return f.f.Market.String()
}

func (f Fill) IsTrader(id string) bool {
	return f.f.Maker.String() == id || f.f.Taker.String() == id
}

func (f Fill) Payload() FillPayload {
	return FillPayload{
		Market:              f.f.Market.String(),
		Maker:               f.f.Maker.String(),
		Taker:               f.f.Taker.String(),
		BaseMint:            f.f.BaseMint.String(),
		QuoteMint:           f.f.QuoteMint.String(),
		MakerSequenceNumber: f.f.MakerSequenceNumber,
		TakerSequenceNumber: f.f.TakerSequenceNumber,
		BaseAtoms:           f.f.BaseAtoms.Uint64(),
		QuoteAtoms:          f.f.QuoteAtoms.Uint64(),
		Price:               f.f.Price.String(),
		TakerIsBuy:          f.f.TakerIsBuy,
		IsMakerGlobal:       f.f.IsMakerGlobal,
		Slot:                f.f.Slot,
	}
}

func (f Fill) StreamMessage() *BusEvent {
	return newBusEventFromBase(f.Base, f.Payload())
}
