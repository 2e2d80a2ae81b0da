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

// CancelOrder removes the order with sequence number seq and returns its
// reserves to the seat at traderIndex. An order that is no longer on the
// book, because it filled, expired or was cancelled already, is not an
// error: ok is false and nothing changes.
func (m *Market) CancelOrder(traderIndex hypertree.DataIndex, seq uint64, globals GlobalAccounts) (o types.RestingOrder, ok bool, err error) {
	if err := m.checkSeat(traderIndex); err != nil {
		return o, false, err
	}
	if err := m.checkGlobals(globals); err != nil {
		return o, false, err
	}
	book, idx := m.findBySequence(seq)
	if idx == hypertree.NIL {
		return o, false, nil
	}
	return m.cancelAt(book, idx, traderIndex, globals)
}

// CancelOrderByIndex is CancelOrder with a hint of where the order rests.
// A hint that does not address the order is ignored in favour of a search.
func (m *Market) CancelOrderByIndex(traderIndex hypertree.DataIndex, seq uint64, hint hypertree.DataIndex, globals GlobalAccounts) (types.RestingOrder, bool, error) {
	if err := m.checkSeat(traderIndex); err != nil {
		return types.RestingOrder{}, false, err
	}
	if err := m.checkGlobals(globals); err != nil {
		return types.RestingOrder{}, false, err
	}
	book, idx := m.locate(seq, hint)
	if idx == hypertree.NIL {
		return types.RestingOrder{}, false, nil
	}
	if idx != hint {
		m.log.Debug("ignoring stale order index hint",
			logging.DataIndex(hint),
			logging.SequenceNumber(seq),
		)
	}
	return m.cancelAt(book, idx, traderIndex, globals)
}

// CancelAll removes every order of the seat at traderIndex.
func (m *Market) CancelAll(traderIndex hypertree.DataIndex, globals GlobalAccounts) ([]types.RestingOrder, error) {
	if err := m.checkSeat(traderIndex); err != nil {
		return nil, err
	}
	if err := m.checkGlobals(globals); err != nil {
		return nil, err
	}
	cancelled := []types.RestingOrder{}
	for _, book := range []*hypertree.RedBlackTree[types.RestingOrder]{m.bids, m.asks} {
		for it := book.Descend(); it.Next(); {
			if it.Value().TraderIndex != traderIndex {
				continue
			}
			o, _, err := m.cancelAt(book, it.Index(), traderIndex, globals)
			if err != nil {
				return nil, err
			}
			cancelled = append(cancelled, o)
		}
	}
	return cancelled, nil
}

func (m *Market) cancelAt(
	book *hypertree.RedBlackTree[types.RestingOrder],
	idx hypertree.DataIndex,
	traderIndex hypertree.DataIndex,
	globals GlobalAccounts,
) (types.RestingOrder, bool, error) {
	o := book.Get(idx)
	if o.TraderIndex != traderIndex {
		return types.RestingOrder{}, false, errors.Wrapf(ErrNotOrderOwner, "order %d", o.SequenceNumber)
	}
	var acct GlobalAccount
	if o.IsGlobal() {
		if acct = globals.forSide(o.IsBid); acct == nil {
			return types.RestingOrder{}, false, errors.Wrapf(ErrMissingGlobal, "order %d is global", o.SequenceNumber)
		}
	}
	trader := m.seats.Get(traderIndex).Trader
	book.Remove(idx)
	if err := m.releaseOrder(&o, acct, trader); err != nil {
		return types.RestingOrder{}, false, err
	}
	m.log.Debug("order cancelled",
		logging.SequenceNumber(o.SequenceNumber),
		logging.TraderID(trader),
	)
	return o, true, nil
}

func (m *Market) findBySequence(seq uint64) (*hypertree.RedBlackTree[types.RestingOrder], hypertree.DataIndex) {
	for _, book := range []*hypertree.RedBlackTree[types.RestingOrder]{m.bids, m.asks} {
		for it := book.Ascend(); it.Next(); {
			if it.Value().SequenceNumber == seq {
				return book, it.Index()
			}
		}
	}
	return nil, hypertree.NIL
}
