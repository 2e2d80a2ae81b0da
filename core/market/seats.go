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

// ClaimSeat gives trader a seat on the market. Claiming twice returns the
// index of the existing seat.
func (m *Market) ClaimSeat(trader types.Pubkey) (hypertree.DataIndex, error) {
	if idx := m.TraderIndex(trader); idx != hypertree.NIL {
		return idx, nil
	}
	idx, err := m.seats.Insert(types.ClaimedSeat{Trader: trader})
	if err != nil {
		return hypertree.NIL, errors.Wrap(err, "claiming seat")
	}
	m.log.Debug("seat claimed",
		logging.TraderID(trader),
		logging.DataIndex(idx),
	)
	return idx, nil
}

// ReleaseSeat removes the seat of trader. The seat must be empty and the
// trader must not have any order resting.
func (m *Market) ReleaseSeat(trader types.Pubkey) error {
	idx := m.TraderIndex(trader)
	if idx == hypertree.NIL {
		return ErrSeatNotFound
	}
	seat := m.seats.Get(idx)
	if !seat.IsEmpty() {
		return ErrSeatNotEmpty
	}
	if m.hasOrders(idx) {
		return ErrSeatHasOrders
	}
	m.seats.Remove(idx)
	m.log.Debug("seat released", logging.TraderID(trader))
	return nil
}

// TraderIndex returns the index of the seat of trader, NIL if it has none.
func (m *Market) TraderIndex(trader types.Pubkey) hypertree.DataIndex {
	return m.seats.Find(types.ClaimedSeat{Trader: trader})
}

// Seat returns the seat at traderIndex.
func (m *Market) Seat(traderIndex hypertree.DataIndex) (types.ClaimedSeat, error) {
	if err := m.checkSeat(traderIndex); err != nil {
		return types.ClaimedSeat{}, err
	}
	return m.seats.Get(traderIndex), nil
}

// Seats returns every claimed seat ordered by trader.
func (m *Market) Seats() []types.ClaimedSeat {
	out := make([]types.ClaimedSeat, 0, m.seats.Len())
	for it := m.seats.Ascend(); it.Next(); {
		out = append(out, it.Value())
	}
	return out
}

// Deposit credits the seat at traderIndex.
func (m *Market) Deposit(traderIndex hypertree.DataIndex, atoms uint64, isBase bool) error {
	if err := m.checkSeat(traderIndex); err != nil {
		return err
	}
	if isBase {
		return m.creditBase(traderIndex, types.BaseAtoms(atoms))
	}
	return m.creditQuote(traderIndex, types.QuoteAtoms(atoms))
}

// Withdraw debits the seat at traderIndex, failing if the balance is short.
func (m *Market) Withdraw(traderIndex hypertree.DataIndex, atoms uint64, isBase bool) error {
	if err := m.checkSeat(traderIndex); err != nil {
		return err
	}
	if isBase {
		return m.debitBase(traderIndex, types.BaseAtoms(atoms))
	}
	return m.debitQuote(traderIndex, types.QuoteAtoms(atoms))
}

// checkSeat rejects indices that do not address a seat of this market.
func (m *Market) checkSeat(idx hypertree.DataIndex) error {
	pt, err := m.arena.PayloadType(idx)
	if err != nil || pt != PayloadSeat {
		return errors.Wrapf(ErrInvalidTraderIndex, "index %d", idx)
	}
	return nil
}

func (m *Market) hasOrders(traderIndex hypertree.DataIndex) bool {
	for _, side := range []*hypertree.RedBlackTree[types.RestingOrder]{m.bids, m.asks} {
		for it := side.Ascend(); it.Next(); {
			if it.Value().TraderIndex == traderIndex {
				return true
			}
		}
	}
	return false
}

func (m *Market) creditBase(idx hypertree.DataIndex, atoms types.BaseAtoms) error {
	seat := m.seats.Get(idx)
	b, err := seat.BaseBalance.CheckedAdd(atoms)
	if err != nil {
		return errors.Wrap(err, "crediting base")
	}
	seat.BaseBalance = b
	m.seats.Update(idx, seat)
	return nil
}

func (m *Market) creditQuote(idx hypertree.DataIndex, atoms types.QuoteAtoms) error {
	seat := m.seats.Get(idx)
	q, err := seat.QuoteBalance.CheckedAdd(atoms)
	if err != nil {
		return errors.Wrap(err, "crediting quote")
	}
	seat.QuoteBalance = q
	m.seats.Update(idx, seat)
	return nil
}

func (m *Market) debitBase(idx hypertree.DataIndex, atoms types.BaseAtoms) error {
	seat := m.seats.Get(idx)
	b, err := seat.BaseBalance.CheckedSub(atoms)
	if err != nil {
		return errors.Wrapf(ErrInsufficientFunds, "base balance %s, need %s", seat.BaseBalance, atoms)
	}
	seat.BaseBalance = b
	m.seats.Update(idx, seat)
	return nil
}

func (m *Market) debitQuote(idx hypertree.DataIndex, atoms types.QuoteAtoms) error {
	seat := m.seats.Get(idx)
	q, err := seat.QuoteBalance.CheckedSub(atoms)
	if err != nil {
		return errors.Wrapf(ErrInsufficientFunds, "quote balance %s, need %s", seat.QuoteBalance, atoms)
	}
	seat.QuoteBalance = q
	m.seats.Update(idx, seat)
	return nil
}

func (m *Market) addVolume(idx hypertree.DataIndex, quote types.QuoteAtoms) {
	seat := m.seats.Get(idx)
	seat.QuoteVolume = seat.QuoteVolume.WrappingAdd(quote)
	m.seats.Update(idx, seat)
}

// releaseReserves returns the reserves of an order leaving the book to its owner.
func (m *Market) releaseReserves(o *types.RestingOrder) error {
	base, quote, err := o.Reserved()
	if err != nil {
		return err
	}
	if base > 0 {
		if err := m.creditBase(o.TraderIndex, base); err != nil {
			return err
		}
	}
	if quote > 0 {
		if err := m.creditQuote(o.TraderIndex, quote); err != nil {
			return err
		}
	}
	return nil
}
