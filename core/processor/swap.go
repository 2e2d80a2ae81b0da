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

package processor

import (
	"context"

	"github.com/CKS-Systems/manifest-sub000/core/events"
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/core/vault"

	"github.com/pkg/errors"
)

type Swap struct {
	Market types.Pubkey
	Payer  types.Pubkey
	// InAtoms is the exact input of an exact in swap, the most the payer
	// gives for an exact out one.
	InAtoms uint64
	// OutAtoms is the least the payer receives.
	OutAtoms  uint64
	IsBaseIn  bool
	IsExactIn bool
}

type SwapResult struct {
	InAtoms  uint64
	OutAtoms uint64
}

// Swap trades against the book without leaving anything on it. The payer
// gets a seat for the duration of the swap if it has none, and its seat
// balances end where they started: only the traded atoms move between its
// wallet and custody.
func (p *Processor) Swap(ctx context.Context, args Swap) (*SwapResult, error) {
	out := &SwapResult{}
	err := p.apply(ctx, "Swap", args.Payer, func(tx *txn) error {
		if args.InAtoms == 0 {
			return errors.Wrap(ErrZeroAmount, "in atoms")
		}
		m, err := p.market(tx, args.Market)
		if err != nil {
			return err
		}
		globals, err := p.globalsFor(tx, m)
		if err != nil {
			return err
		}

		idx := m.TraderIndex(args.Payer)
		temporary := idx == hypertree.NIL
		if temporary {
			if idx, err = m.ClaimSeat(args.Payer); err != nil {
				return err
			}
		}
		before, err := m.Seat(idx)
		if err != nil {
			return err
		}
		if err := m.Deposit(idx, args.InAtoms, args.IsBaseIn); err != nil {
			return err
		}

		base, err := p.swapSize(m, tx.slot, args)
		if err != nil {
			return err
		}
		if base == 0 {
			return errors.Wrap(ErrSwapOutNotMet, "book is empty")
		}

		price := types.PriceMax
		if args.IsBaseIn {
			price = types.PriceMin
		}
		_, err = p.place(tx, m, args.Payer, market.PlaceOrderArgs{
			TraderIndex:  idx,
			NumBaseAtoms: base,
			Price:        price,
			IsBid:        !args.IsBaseIn,
			OrderType:    types.OrderTypeImmediateOrCancel,
			MinOutAtoms:  args.OutAtoms,
			CurrentSlot:  tx.slot,
			Globals:      globals,
		})
		if err != nil {
			return err
		}

		after, err := m.Seat(idx)
		if err != nil {
			return err
		}
		in, got := swapDeltas(before, after, args)
		if args.InAtoms < in {
			return errors.Wrapf(ErrSwapInExceeded, "needs %d, allowed %d", in, args.InAtoms)
		}
		if got < args.OutAtoms {
			return errors.Wrapf(ErrSwapOutNotMet, "got %d, wanted %d", got, args.OutAtoms)
		}

		// back to the balances the seat held before the swap
		if err := m.Withdraw(idx, args.InAtoms-in, args.IsBaseIn); err != nil {
			return err
		}
		if err := m.Withdraw(idx, got, !args.IsBaseIn); err != nil {
			return err
		}
		if temporary {
			if err := m.ReleaseSeat(args.Payer); err != nil {
				return err
			}
		}

		inMint, outMint := m.QuoteMint(), m.BaseMint()
		if args.IsBaseIn {
			inMint, outMint = outMint, inMint
		}
		tx.transfer(args.Payer, inMint, in, vault.In)
		tx.transfer(args.Payer, outMint, got, vault.Out)
		tx.emit(
			events.NewDepositEvent(tx.ctx, args.Market, args.Payer, inMint, in),
			events.NewWithdrawEvent(tx.ctx, args.Market, args.Payer, outMint, got),
		)
		out.InAtoms, out.OutAtoms = in, got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// swapSize is the base size of the order that implements a swap.
func (p *Processor) swapSize(m *market.Market, slot uint32, args Swap) (types.BaseAtoms, error) {
	switch {
	case args.IsExactIn && args.IsBaseIn:
		return types.BaseAtoms(args.InAtoms), nil
	case args.IsExactIn:
		// spend InAtoms of quote
		base, _, err := m.ImpactBaseAtoms(true, types.QuoteAtoms(args.InAtoms), slot)
		return base, err
	case args.IsBaseIn:
		// sell enough base to receive OutAtoms of quote
		base, _, err := m.ImpactBaseAtoms(false, types.QuoteAtoms(args.OutAtoms), slot)
		if err != nil {
			return 0, err
		}
		if base.Uint64() > args.InAtoms {
			return 0, errors.Wrapf(ErrSwapInExceeded, "needs %d base, allowed %d", base, args.InAtoms)
		}
		return base, nil
	default:
		return types.BaseAtoms(args.OutAtoms), nil
	}
}

// swapDeltas returns what the swap took from and gave to the seat, net of
// the virtual deposit of InAtoms.
func swapDeltas(before, after types.ClaimedSeat, args Swap) (in, got uint64) {
	if args.IsBaseIn {
		in = before.BaseBalance.Uint64() + args.InAtoms - after.BaseBalance.Uint64()
		got = after.QuoteBalance.Uint64() - before.QuoteBalance.Uint64()
		return in, got
	}
	in = before.QuoteBalance.Uint64() + args.InAtoms - after.QuoteBalance.Uint64()
	got = after.BaseBalance.Uint64() - before.BaseBalance.Uint64()
	return in, got
}
