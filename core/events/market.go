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

type MarketCreatedPayload struct {
	Market        string `json:"market"`
	BaseMint      string `json:"base_mint"`
	QuoteMint     string `json:"quote_mint"`
	BaseDecimals  uint8  `json:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals"`
}

type MarketCreated struct {
	*Base
	p MarketCreatedPayload
}

func NewMarketCreatedEvent(ctx context.Context, market, baseMint, quoteMint types.Pubkey, baseDecimals, quoteDecimals uint8) *MarketCreated {
	return &MarketCreated{
		Base: newBase(ctx, MarketCreatedEvent),
		p: MarketCreatedPayload{
			Market:        market.String(),
			BaseMint:      baseMint.String(),
			QuoteMint:     quoteMint.String(),
			BaseDecimals:  baseDecimals,
			QuoteDecimals: quoteDecimals,
		},
	}
}

func (m MarketCreated) MarketID() string { return m.p.Market }

func (m MarketCreated) Payload() MarketCreatedPayload { return m.p }

func (m MarketCreated) StreamMessage() *BusEvent {
	return newBusEventFromBase(m.Base, m.p)
}

type MarketExpandedPayload struct {
	Market         string `json:"market"`
	Blocks         uint32 `json:"blocks"`
	BytesAllocated uint32 `json:"bytes_allocated"`
}

type MarketExpanded struct {
	*Base
	p MarketExpandedPayload
}

func NewMarketExpandedEvent(ctx context.Context, market types.Pubkey, blocks, bytesAllocated uint32) *MarketExpanded {
	return &MarketExpanded{
		Base: newBase(ctx, MarketExpandedEvent),
		p: MarketExpandedPayload{
			Market:         market.String(),
			Blocks:         blocks,
			BytesAllocated: bytesAllocated,
		},
	}
}

func (m MarketExpanded) MarketID() string { return m.p.Market }

func (m MarketExpanded) StreamMessage() *BusEvent {
	return newBusEventFromBase(m.Base, m.p)
}
