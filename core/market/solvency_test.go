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

package market_test

import (
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"pgregory.net/rapid"
)

var solvencyOrderTypes = []types.OrderType{
	types.OrderTypeLimit,
	types.OrderTypeImmediateOrCancel,
	types.OrderTypePostOnly,
	types.OrderTypeFillOrKill,
	types.OrderTypeReversible,
	types.OrderTypeReversibleTight,
}

// TestSolvencyProperty checks that whatever the sequence of instructions,
// the atoms held in seats plus those reserved by resting orders equal what
// was deposited minus what was withdrawn, and that the live orders never
// leave the book crossed. A failing instruction is undone
// the way the processor does it, by restoring the bytes taken before it.
func TestSolvencyProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m, err := market.New(logging.NewTestLogger(), market.NewDefaultConfig(), marketKey, baseMint, quoteMint, 0, 0)
		if err != nil {
			rt.Fatal(err)
		}
		traders := []hypertree.DataIndex{}
		for _, name := range []string{"a", "b", "c"} {
			idx, err := m.ClaimSeat(types.PubkeyFromSeed(name))
			if err != nil {
				rt.Fatal(err)
			}
			traders = append(traders, idx)
		}

		var netBase, netQuote uint64
		slot := uint32(1)
		placed := []uint64{}

		steps := rapid.IntRange(1, 80).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			before, err := m.MarshalBinary()
			if err != nil {
				rt.Fatal(err)
			}
			trader := rapid.SampledFrom(traders).Draw(rt, "trader")

			switch rapid.IntRange(0, 4).Draw(rt, "op") {
			case 0:
				isBase := rapid.Bool().Draw(rt, "isBase")
				amount := rapid.Uint64Range(1, 200).Draw(rt, "amount")
				if err = m.Deposit(trader, amount, isBase); err == nil {
					if isBase {
						netBase += amount
					} else {
						netQuote += amount
					}
				}
			case 1:
				isBase := rapid.Bool().Draw(rt, "isBase")
				amount := rapid.Uint64Range(1, 100).Draw(rt, "amount")
				if err = m.Withdraw(trader, amount, isBase); err == nil {
					if isBase {
						netBase -= amount
					} else {
						netQuote -= amount
					}
				}
			case 2:
				exponent := int8(rapid.IntRange(-1, 0).Draw(rt, "exponent"))
				p, perr := types.PriceFromMantissaExponent(rapid.Uint32Range(1, 30).Draw(rt, "mantissa"), exponent)
				if perr != nil {
					rt.Fatal(perr)
				}
				args := market.PlaceOrderArgs{
					TraderIndex:  trader,
					NumBaseAtoms: types.BaseAtoms(rapid.Uint64Range(1, 25).Draw(rt, "base")),
					Price:        p,
					IsBid:        rapid.Bool().Draw(rt, "isBid"),
					OrderType:    rapid.SampledFrom(solvencyOrderTypes).Draw(rt, "type"),
					Spread:       uint16(rapid.IntRange(0, 5000).Draw(rt, "spread")),
					CurrentSlot:  slot,
				}
				if rapid.Bool().Draw(rt, "expires") {
					args.LastValidSlot = slot + uint32(rapid.IntRange(0, 4).Draw(rt, "ttl"))
				}
				var res *market.PlaceOrderResult
				if res, err = m.PlaceOrder(args); err == nil {
					if res.OrderIndex != hypertree.NIL {
						placed = append(placed, res.SequenceNumber)
					}
					for _, f := range res.Fills {
						// never more quote than the base is worth at the
						// fill price, rounded up
						limit, qerr := f.Price.QuoteForBase(f.BaseAtoms, true)
						if qerr != nil || f.QuoteAtoms > limit {
							rt.Fatalf("fill %+v pays more than its price implies", f)
						}
					}
				}
			case 3:
				if len(placed) == 0 {
					continue
				}
				seq := rapid.SampledFrom(placed).Draw(rt, "cancel")
				_, _, err = m.CancelOrder(trader, seq, market.GlobalAccounts{})
			case 4:
				slot += uint32(rapid.IntRange(1, 3).Draw(rt, "advance"))
			}

			if err != nil {
				if uerr := m.UnmarshalBinary(before); uerr != nil {
					rt.Fatal(uerr)
				}
			}
			if verr := m.Verify(); verr != nil {
				rt.Fatalf("step %d: %v", i, verr)
			}
			checkSolvency(rt, m, netBase, netQuote)
			checkUncrossed(rt, m, slot)
		}
	})
}

func checkSolvency(rt *rapid.T, m *market.Market, netBase, netQuote uint64) {
	seatsBase, err := m.WithdrawableBaseAtoms()
	if err != nil {
		rt.Fatal(err)
	}
	seatsQuote, err := m.WithdrawableQuoteAtoms()
	if err != nil {
		rt.Fatal(err)
	}
	bookBase, err := m.OrderbookBaseAtoms()
	if err != nil {
		rt.Fatal(err)
	}
	bookQuote, err := m.OrderbookQuoteAtoms()
	if err != nil {
		rt.Fatal(err)
	}
	if uint64(seatsBase+bookBase) != netBase {
		rt.Fatalf("base: seats %s + book %s != net deposits %d", seatsBase, bookBase, netBase)
	}
	if uint64(seatsQuote+bookQuote) != netQuote {
		rt.Fatalf("quote: seats %s + book %s != net deposits %d", seatsQuote, bookQuote, netQuote)
	}
}

func checkUncrossed(rt *rapid.T, m *market.Market, slot uint32) {
	bid, hasBid := m.BestPrice(true, slot)
	ask, hasAsk := m.BestPrice(false, slot)
	if hasBid && hasAsk && !bid.LT(ask) {
		rt.Fatalf("book crossed at slot %d: best bid %s, best ask %s", slot, bid, ask)
	}
}
