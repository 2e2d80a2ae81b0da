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
)

// Level aggregates the orders resting at one effective price.
type Level struct {
	Price     types.Price
	BaseAtoms types.BaseAtoms
	Orders    int
}

// GetOrder returns the order resting at idx.
func (m *Market) GetOrder(idx hypertree.DataIndex) (types.RestingOrder, error) {
	pt, err := m.arena.PayloadType(idx)
	if err != nil {
		return types.RestingOrder{}, err
	}
	switch pt {
	case PayloadBid:
		return m.bids.Get(idx), nil
	case PayloadAsk:
		return m.asks.Get(idx), nil
	}
	return types.RestingOrder{}, ErrInvalidMarketData
}

// Orders lists one side of the book in priority order, expired orders
// included.
func (m *Market) Orders(isBid bool) []types.RestingOrder {
	book := m.side(isBid)
	out := make([]types.RestingOrder, 0, book.Len())
	for it := book.Descend(); it.Next(); {
		out = append(out, it.Value())
	}
	return out
}

// OrdersOf lists the orders of the seat at traderIndex, bids first.
func (m *Market) OrdersOf(traderIndex hypertree.DataIndex) []types.RestingOrder {
	out := []types.RestingOrder{}
	for _, isBid := range []bool{true, false} {
		for it := m.side(isBid).Descend(); it.Next(); {
			if o := it.Value(); o.TraderIndex == traderIndex {
				out = append(out, o)
			}
		}
	}
	return out
}

// BestPrice returns the effective price of the best live order of a side.
func (m *Market) BestPrice(isBid bool, slot uint32) (types.Price, bool) {
	for it := m.side(isBid).Descend(); it.Next(); {
		if o := it.Value(); !o.IsExpired(slot) {
			return o.EffectivePrice, true
		}
	}
	return types.PriceZero, false
}

// Depth aggregates the live orders of a side by effective price, best level
// first. A non positive levels returns every level.
func (m *Market) Depth(isBid bool, slot uint32, levels int) []Level {
	out := []Level{}
	for it := m.side(isBid).Descend(); it.Next(); {
		o := it.Value()
		if o.IsExpired(slot) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Price == o.EffectivePrice {
			out[n-1].BaseAtoms = out[n-1].BaseAtoms.WrappingAdd(o.NumBaseAtoms)
			out[n-1].Orders++
			continue
		}
		if levels > 0 && len(out) == levels {
			break
		}
		out = append(out, Level{Price: o.EffectivePrice, BaseAtoms: o.NumBaseAtoms, Orders: 1})
	}
	return out
}

// OrderbookBaseAtoms is the base reserved by local asks.
func (m *Market) OrderbookBaseAtoms() (types.BaseAtoms, error) {
	var total types.BaseAtoms
	for it := m.asks.Ascend(); it.Next(); {
		o := it.Value()
		base, _, err := o.Reserved()
		if err != nil {
			return 0, err
		}
		if total, err = total.CheckedAdd(base); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// OrderbookQuoteAtoms is the quote reserved by local bids.
func (m *Market) OrderbookQuoteAtoms() (types.QuoteAtoms, error) {
	var total types.QuoteAtoms
	for it := m.bids.Ascend(); it.Next(); {
		o := it.Value()
		_, quote, err := o.Reserved()
		if err != nil {
			return 0, err
		}
		if total, err = total.CheckedAdd(quote); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// WithdrawableBaseAtoms is the sum of the base balances of all seats.
func (m *Market) WithdrawableBaseAtoms() (types.BaseAtoms, error) {
	var (
		total types.BaseAtoms
		err   error
	)
	for it := m.seats.Ascend(); it.Next(); {
		if total, err = total.CheckedAdd(it.Value().BaseBalance); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// WithdrawableQuoteAtoms is the sum of the quote balances of all seats.
func (m *Market) WithdrawableQuoteAtoms() (types.QuoteAtoms, error) {
	var (
		total types.QuoteAtoms
		err   error
	)
	for it := m.seats.Ascend(); it.Next(); {
		if total, err = total.CheckedAdd(it.Value().QuoteBalance); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// ImpactQuoteAtoms is the quote a taker on side isBid would pay (bid) or
// receive (ask) for baseAtoms, walking live orders the way a fill would.
// Global orders are assumed backed. The second result is the base the book
// could fill, lower than baseAtoms when the book is too thin.
func (m *Market) ImpactQuoteAtoms(isBid bool, baseAtoms types.BaseAtoms, slot uint32) (types.QuoteAtoms, types.BaseAtoms, error) {
	var (
		quote  types.QuoteAtoms
		filled types.BaseAtoms
	)
	remaining := baseAtoms
	for it := m.side(!isBid).Descend(); remaining > 0 && it.Next(); {
		o := it.Value()
		if o.IsExpired(slot) {
			continue
		}
		base := remaining.Min(o.NumBaseAtoms)
		q, err := o.EffectivePrice.QuoteForBase(base, isBid != (base == o.NumBaseAtoms))
		if err != nil {
			return 0, 0, err
		}
		if quote, err = quote.CheckedAdd(q); err != nil {
			return 0, 0, err
		}
		remaining -= base
		filled += base
	}
	return quote, filled, nil
}

// ImpactBaseAtoms is the base a taker on side isBid gets for spending
// quoteAtoms (bid), or must sell to receive quoteAtoms (ask). The second
// result is the quote the book could absorb.
func (m *Market) ImpactBaseAtoms(isBid bool, quoteAtoms types.QuoteAtoms, slot uint32) (types.BaseAtoms, types.QuoteAtoms, error) {
	var (
		base types.BaseAtoms
		used types.QuoteAtoms
	)
	remaining := quoteAtoms
	for it := m.side(!isBid).Descend(); remaining > 0 && it.Next(); {
		o := it.Value()
		if o.IsExpired(slot) {
			continue
		}
		full, err := o.EffectivePrice.QuoteForBase(o.NumBaseAtoms, !isBid)
		if err != nil {
			return 0, 0, err
		}
		if full <= remaining {
			base += o.NumBaseAtoms
			used += full
			remaining -= full
			continue
		}
		// partial level: a buyer may not get more base than its quote pays
		// for, a seller must give enough base to cover the quote
		b, err := o.EffectivePrice.BaseForQuote(remaining, !isBid)
		if err != nil {
			return 0, 0, err
		}
		base += b.Min(o.NumBaseAtoms)
		used += remaining
		break
	}
	return base, used, nil
}
