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

// SeatPayload is the streamed form of a seat claim or release.
type SeatPayload struct {
	Market string `json:"market"`
	Trader string `json:"trader"`
}

type Seat struct {
	*Base
	market types.Pubkey
	trader types.Pubkey
}

func NewClaimSeatEvent(ctx context.Context, market, trader types.Pubkey) *Seat {
	return &Seat{
		Base:   newBase(ctx, ClaimSeatEvent),
		market: market,
		trader: trader,
	}
}

func NewReleaseSeatEvent(ctx context.Context, market, trader types.Pubkey) *Seat {
	return &Seat{
		Base:   newBase(ctx, ReleaseSeatEvent),
		market: market,
		trader: trader,
	}
}

func (s Seat) MarketID() string { return s.market.String() }

func (s Seat) IsTrader(id string) bool { return s.trader.String() == id }

func (s Seat) StreamMessage() *BusEvent {
	return newBusEventFromBase(s.Base, SeatPayload{
		Market: s.market.String(),
		Trader: s.trader.String(),
	})
}

// TransferPayload is the streamed form of a movement of atoms between a
// trader's wallet and a market seat or a global account.
type TransferPayload struct {
	Account string `json:"account"`
	Trader  string `json:"trader"`
	Mint    string `json:"mint"`
	Atoms   uint64 `json:"atoms"`
}

// Transfer is emitted by deposits and withdrawals on markets and global
// accounts. For global accounts the account is the global mint.
type Transfer struct {
	*Base
	account types.Pubkey
	trader  types.Pubkey
	mint    types.Pubkey
	atoms   uint64
}

func newTransfer(ctx context.Context, t Type, account, trader, mint types.Pubkey, atoms uint64) *Transfer {
	return &Transfer{
		Base:    newBase(ctx, t),
		account: account,
		trader:  trader,
		mint:    mint,
		atoms:   atoms,
	}
}

func NewDepositEvent(ctx context.Context, market, trader, mint types.Pubkey, atoms uint64) *Transfer {
	return newTransfer(ctx, DepositEvent, market, trader, mint, atoms)
}

func NewWithdrawEvent(ctx context.Context, market, trader, mint types.Pubkey, atoms uint64) *Transfer {
	return newTransfer(ctx, WithdrawEvent, market, trader, mint, atoms)
}

func NewGlobalDepositEvent(ctx context.Context, trader, mint types.Pubkey, atoms types.GlobalAtoms) *Transfer {
	return newTransfer(ctx, GlobalDepositEvent, mint, trader, mint, atoms.Uint64())
}

func NewGlobalWithdrawEvent(ctx context.Context, trader, mint types.Pubkey, atoms types.GlobalAtoms) *Transfer {
	return newTransfer(ctx, GlobalWithdrawEvent, mint, trader, mint, atoms.Uint64())
}

func (t Transfer) Atoms() uint64 { return t.atoms }

func (t Transfer) Mint() types.Pubkey { return t.mint }

// MarketID returns the account the atoms moved in or out of.
func (t Transfer) MarketID() string { return t.account.String() }

func (t Transfer) IsTrader(id string) bool { return t.trader.String() == id }

func (t Transfer) StreamMessage() *BusEvent {
	return newBusEventFromBase(t.Base, TransferPayload{
		Account: t.account.String(),
		Trader:  t.trader.String(),
		Mint:    t.mint.String(),
		Atoms:   t.atoms,
	})
}
