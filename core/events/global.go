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

type GlobalPayload struct {
	Mint   string `json:"mint"`
	Trader string `json:"trader,omitempty"`
}

// Global is emitted when a global account is created or gains a trader.
type Global struct {
	*Base
	mint   types.Pubkey
	trader types.Pubkey
}

func NewGlobalCreatedEvent(ctx context.Context, mint types.Pubkey) *Global {
	return &Global{
		Base: newBase(ctx, GlobalCreatedEvent),
		mint: mint,
	}
}

func NewGlobalAddTraderEvent(ctx context.Context, mint, trader types.Pubkey) *Global {
	return &Global{
		Base:   newBase(ctx, GlobalAddTraderEvent),
		mint:   mint,
		trader: trader,
	}
}

func (g Global) IsTrader(id string) bool {
	return !g.trader.IsZero() && g.trader.String() == id
}

func (g Global) StreamMessage() *BusEvent {
	p := GlobalPayload{Mint: g.mint.String()}
	if !g.trader.IsZero() {
		p.Trader = g.trader.String()
	}
	return newBusEventFromBase(g.Base, p)
}

type GlobalEvictPayload struct {
	Mint           string `json:"mint"`
	Evictor        string `json:"evictor"`
	Evictee        string `json:"evictee"`
	DepositAtoms   uint64 `json:"deposit_atoms"`
	WithdrawnAtoms uint64 `json:"withdrawn_atoms"`
}

type GlobalEvict struct {
	*Base
	p GlobalEvictPayload
}

func NewGlobalEvictEvent(ctx context.Context, mint, evictor, evictee types.Pubkey, deposit, withdrawn types.GlobalAtoms) *GlobalEvict {
	return &GlobalEvict{
		Base: newBase(ctx, GlobalEvictEvent),
		p: GlobalEvictPayload{
			Mint:           mint.String(),
			Evictor:        evictor.String(),
			Evictee:        evictee.String(),
			DepositAtoms:   deposit.Uint64(),
			WithdrawnAtoms: withdrawn.Uint64(),
		},
	}
}

func (g GlobalEvict) IsTrader(id string) bool {
	return g.p.Evictor == id || g.p.Evictee == id
}

func (g GlobalEvict) StreamMessage() *BusEvent {
	return newBusEventFromBase(g.Base, g.p)
}

type GlobalCleanPayload struct {
	Mint           string `json:"mint"`
	Market         string `json:"market"`
	Cleaner        string `json:"cleaner"`
	Maker          string `json:"maker"`
	SequenceNumber uint64 `json:"sequence_number"`
	GasAtoms       uint64 `json:"gas_atoms"`
}

// GlobalClean is emitted when a stale global order is removed by a third
// party, who collects the order's gas deposit.
type GlobalClean struct {
	*Base
	p GlobalCleanPayload
}

func NewGlobalCleanEvent(ctx context.Context, mint, market, cleaner, maker types.Pubkey, seq, gas uint64) *GlobalClean {
	return &GlobalClean{
		Base: newBase(ctx, GlobalCleanEvent),
		p: GlobalCleanPayload{
			Mint:           mint.String(),
			Market:         market.String(),
			Cleaner:        cleaner.String(),
			Maker:          maker.String(),
			SequenceNumber: seq,
			GasAtoms:       gas,
		},
	}
}

func (g GlobalClean) MarketID() string { return g.p.Market }

func (g GlobalClean) IsTrader(id string) bool {
	return g.p.Cleaner == id || g.p.Maker == id
}

func (g GlobalClean) StreamMessage() *BusEvent {
	return newBusEventFromBase(g.Base, g.p)
}
