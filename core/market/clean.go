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

package market

import (
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

// CleanGlobalOrder lets anyone remove a global order that can no longer
// trade: it has expired at slot, or its backing account no longer covers
// it. The removed order and its owner are returned so the caller can pay
// out the order's gas deposit.
func (m *Market) CleanGlobalOrder(seq uint64, hint hypertree.DataIndex, slot uint32, globals GlobalAccounts) (types.RestingOrder, types.Pubkey, error) {
	if err := m.checkGlobals(globals); err != nil {
		return types.RestingOrder{}, types.Pubkey{}, err
	}
	book, idx := m.locate(seq, hint)
	if idx == hypertree.NIL {
		return types.RestingOrder{}, types.Pubkey{}, errors.Wrapf(ErrOrderNotFound, "sequence number %d", seq)
	}
	o := book.Get(idx)
	if !o.IsGlobal() {
		return types.RestingOrder{}, types.Pubkey{}, errors.Wrapf(ErrNotGlobalOrder, "order %d", seq)
	}
	acct := globals.forSide(o.IsBid)
	if acct == nil {
		return types.RestingOrder{}, types.Pubkey{}, errors.Wrapf(ErrMissingGlobal, "order %d is global", seq)
	}
	trader := m.seats.Get(o.TraderIndex).Trader

	if !o.IsExpired(slot) {
		exposure, err := globalExposure(o.Price, o.NumBaseAtoms, o.IsBid)
		if err != nil {
			return types.RestingOrder{}, types.Pubkey{}, err
		}
		if acct.Available(trader, o.GlobalGeneration) >= exposure {
			return types.RestingOrder{}, types.Pubkey{}, errors.Wrapf(ErrOrderStillValid, "order %d", seq)
		}
	}

	book.Remove(idx)
	if err := m.releaseOrder(&o, acct, trader); err != nil {
		return types.RestingOrder{}, types.Pubkey{}, err
	}
	m.log.Debug("global order cleaned",
		logging.SequenceNumber(seq),
		logging.TraderID(trader),
		logging.Uint32("slot", slot),
	)
	return o, trader, nil
}

// locate resolves an order by an index hint, falling back to a search by
// sequence number when the hint does not address it.
func (m *Market) locate(seq uint64, hint hypertree.DataIndex) (*hypertree.RedBlackTree[types.RestingOrder], hypertree.DataIndex) {
	if pt, err := m.arena.PayloadType(hint); err == nil {
		var book *hypertree.RedBlackTree[types.RestingOrder]
		switch pt {
		case PayloadBid:
			book = m.bids
		case PayloadAsk:
			book = m.asks
		}
		if book != nil && book.Get(hint).SequenceNumber == seq {
			return book, hint
		}
	}
	return m.findBySequence(seq)
}
