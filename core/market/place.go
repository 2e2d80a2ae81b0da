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

// PlaceOrderArgs describes an incoming order.
type PlaceOrderArgs struct {
	TraderIndex   hypertree.DataIndex
	NumBaseAtoms  types.BaseAtoms
	Price         types.Price
	IsBid         bool
	LastValidSlot uint32
	OrderType     types.OrderType
	// Spread of a reversible order, ignored for other types.
	Spread uint16
	// MinOutAtoms is the least the order must receive: base for a bid, quote
	// for an ask. Zero disables the check.
	MinOutAtoms uint64
	CurrentSlot uint32
	Globals     GlobalAccounts
}

// PlaceOrderResult reports what happened to an order.
type PlaceOrderResult struct {
	SequenceNumber uint64
	// OrderIndex addresses the resting remainder, NIL when nothing rests.
	OrderIndex       hypertree.DataIndex
	BaseAtomsTraded  types.BaseAtoms
	QuoteAtomsTraded types.QuoteAtoms
	Fills            []types.Fill
	// GlobalBaseConsumed and GlobalQuoteConsumed are the atoms pulled from
	// global accounts into the market by fills against global orders.
	GlobalBaseConsumed  types.GlobalAtoms
	GlobalQuoteConsumed types.GlobalAtoms
	// Pruned lists the expired or unbacked orders removed during the walk.
	Pruned []types.RestingOrder
	// Filled lists the resting orders the walk filled completely.
	Filled []types.RestingOrder
}

// PlaceOrder matches an order against the opposite side and rests what is
// left when the order type allows it. Fill or kill, post only, global and
// minimum output orders are checked with a dry run of the walk first, so
// they either apply in full or leave the market untouched.
func (m *Market) PlaceOrder(args PlaceOrderArgs) (*PlaceOrderResult, error) {
	if err := m.validatePlace(&args); err != nil {
		return nil, err
	}
	seq := m.fixed.OrderSequenceNumber

	if needsDryRun(&args) {
		res, remaining, err := m.walk(&args, seq, true)
		if err != nil {
			return nil, err
		}
		if args.OrderType == types.OrderTypeFillOrKill && remaining > 0 {
			return nil, errors.Wrapf(ErrFillOrKillUnfilled, "%s of %s unfilled", remaining, args.NumBaseAtoms)
		}
		if err := checkMinOut(&args, res); err != nil {
			return nil, err
		}
	}

	m.fixed.OrderSequenceNumber++
	res, remaining, err := m.walk(&args, seq, false)
	if err != nil {
		return nil, err
	}
	m.fixed.QuoteVolume = m.fixed.QuoteVolume.WrappingAdd(res.QuoteAtomsTraded)
	if err := checkMinOut(&args, res); err != nil {
		return nil, err
	}

	if remaining == 0 || !args.OrderType.CanRest() {
		return res, nil
	}
	idx, err := m.rest(&args, seq, remaining)
	if err != nil {
		return nil, err
	}
	res.OrderIndex = idx
	return res, nil
}

func (m *Market) validatePlace(args *PlaceOrderArgs) error {
	if !args.OrderType.IsValid() {
		return errors.Wrapf(ErrInvalidOrderType, "%d", uint8(args.OrderType))
	}
	if err := m.checkSeat(args.TraderIndex); err != nil {
		return err
	}
	if err := m.checkGlobals(args.Globals); err != nil {
		return err
	}
	if args.NumBaseAtoms == 0 {
		return ErrZeroSize
	}
	if args.Price.IsZero() {
		return types.ErrZeroPrice
	}
	if args.OrderType.IsReversible() {
		args.LastValidSlot = types.NoExpiration
	} else {
		args.Spread = 0
		if args.LastValidSlot != types.NoExpiration && args.LastValidSlot < args.CurrentSlot {
			return errors.Wrapf(ErrAlreadyExpired, "last valid slot %d, current slot %d", args.LastValidSlot, args.CurrentSlot)
		}
	}
	if args.OrderType == types.OrderTypeGlobal && args.Globals.forSide(args.IsBid) == nil {
		return ErrMissingGlobal
	}
	return nil
}

func needsDryRun(args *PlaceOrderArgs) bool {
	return args.OrderType == types.OrderTypeFillOrKill ||
		!args.OrderType.CanTake() ||
		args.MinOutAtoms > 0
}

func checkMinOut(args *PlaceOrderArgs, res *PlaceOrderResult) error {
	if args.MinOutAtoms == 0 {
		return nil
	}
	out := uint64(res.QuoteAtomsTraded)
	if args.IsBid {
		out = uint64(res.BaseAtomsTraded)
	}
	if out < args.MinOutAtoms {
		return errors.Wrapf(ErrMinOutNotMet, "received %d, want at least %d", out, args.MinOutAtoms)
	}
	return nil
}

func crosses(takerPrice types.Price, takerIsBid bool, makerPrice types.Price) bool {
	if takerIsBid {
		return takerPrice.Cmp(makerPrice) >= 0
	}
	return takerPrice.Cmp(makerPrice) <= 0
}

// walk takes liquidity from the opposite side, best order first. Expired
// orders and global orders their account can no longer back are pruned and
// skipped. With dryRun set nothing is written: pruning is only skipped and
// global consumption is tracked locally, so the outcome matches a real walk
// over the same state.
func (m *Market) walk(args *PlaceOrderArgs, seq uint64, dryRun bool) (*PlaceOrderResult, types.BaseAtoms, error) {
	res := &PlaceOrderResult{
		SequenceNumber: seq,
		OrderIndex:     hypertree.NIL,
	}
	book := m.side(!args.IsBid)
	taker := m.seats.Get(args.TraderIndex).Trader
	consumed := map[types.Pubkey]types.GlobalAtoms{}

	remaining := args.NumBaseAtoms
	for it := book.Descend(); remaining > 0 && it.Next(); {
		idx, maker := it.Index(), it.Value()
		makerTrader := m.seats.Get(maker.TraderIndex).Trader
		var acct GlobalAccount
		if maker.IsGlobal() {
			acct = args.Globals.forSide(maker.IsBid)
		}

		if maker.IsExpired(args.CurrentSlot) {
			// a global order stays until its account is at hand to release it
			if maker.IsGlobal() && acct == nil {
				continue
			}
			if !dryRun {
				if err := m.prune(book, idx, &maker, acct, makerTrader, res); err != nil {
					return nil, 0, err
				}
			}
			continue
		}
		if !crosses(args.Price, args.IsBid, maker.EffectivePrice) {
			break
		}
		if maker.IsGlobal() && acct == nil {
			if args.OrderType.CanRest() {
				return nil, 0, errors.Wrapf(ErrMissingGlobal, "order %d is global", maker.SequenceNumber)
			}
			break
		}

		base := remaining.Min(maker.NumBaseAtoms)
		full := base == maker.NumBaseAtoms
		// a partial fill rounds in favour of the maker and a fill that clears
		// the maker in favour of the taker: a taker bid pays quote rounded up
		// on a partial fill and down on a full one, a taker ask receives
		// quote rounded down on a partial fill and up on a full one
		quote, err := maker.EffectivePrice.QuoteForBase(base, args.IsBid != full)
		if err != nil {
			return nil, 0, err
		}

		if maker.IsGlobal() {
			need := types.GlobalAtoms(base)
			if maker.IsBid {
				need = types.GlobalAtoms(quote)
			}
			backed, err := m.consumeGlobal(acct, &maker, makerTrader, base, need, consumed, dryRun || !args.OrderType.CanTake())
			if err != nil {
				return nil, 0, err
			}
			if !backed {
				if !dryRun {
					if err := m.prune(book, idx, &maker, acct, makerTrader, res); err != nil {
						return nil, 0, err
					}
				}
				continue
			}
			if maker.IsBid {
				res.GlobalQuoteConsumed += need
			} else {
				res.GlobalBaseConsumed += need
			}
		}
		if !args.OrderType.CanTake() {
			return nil, 0, errors.Wrapf(ErrPostOnlyCrosses, "crosses order %d at %s", maker.SequenceNumber, maker.EffectivePrice)
		}

		if !dryRun {
			fill := types.Fill{
				Market:              m.fixed.Key,
				Maker:               makerTrader,
				Taker:               taker,
				BaseMint:            m.fixed.BaseMint,
				QuoteMint:           m.fixed.QuoteMint,
				MakerSequenceNumber: maker.SequenceNumber,
				TakerSequenceNumber: seq,
				BaseAtoms:           base,
				QuoteAtoms:          quote,
				Price:               maker.EffectivePrice,
				TakerIsBuy:          args.IsBid,
				IsMakerGlobal:       maker.IsGlobal(),
				Slot:                args.CurrentSlot,
			}
			if err := m.settle(args, &maker, base, quote); err != nil {
				return nil, 0, err
			}
			if full {
				book.Remove(idx)
				res.Filled = append(res.Filled, maker)
			} else {
				maker.NumBaseAtoms -= base
				bound, bounded := m.tightenBound(maker.IsBid, args.CurrentSlot)
				maker.Tighten(bound, bounded)
				// still the best order, and tightening only makes it better
				book.Update(idx, maker)
			}
			res.Fills = append(res.Fills, fill)
			m.logFill(&fill)
		}

		remaining -= base
		if res.BaseAtomsTraded, err = res.BaseAtomsTraded.CheckedAdd(base); err != nil {
			return nil, 0, err
		}
		if res.QuoteAtomsTraded, err = res.QuoteAtomsTraded.CheckedAdd(quote); err != nil {
			return nil, 0, err
		}
	}
	return res, remaining, nil
}

// tightenBound is the best effective price a resting order on side isBid
// can tighten to without crossing the live orders of the other side.
func (m *Market) tightenBound(isBid bool, slot uint32) (types.Price, bool) {
	best, ok := m.BestPrice(!isBid, slot)
	if !ok {
		return types.PriceZero, false
	}
	if isBid {
		return best.Prev(), true
	}
	return best.Next(), true
}

// consumeGlobal checks that the global account still backs need atoms of a
// fill against maker and, unless checkOnly, pulls them into the market. In a
// check the atoms already claimed earlier in the walk are accounted for in
// consumed.
func (m *Market) consumeGlobal(
	acct GlobalAccount,
	maker *types.RestingOrder,
	trader types.Pubkey,
	base types.BaseAtoms,
	need types.GlobalAtoms,
	consumed map[types.Pubkey]types.GlobalAtoms,
	checkOnly bool,
) (bool, error) {
	if checkOnly {
		avail := acct.Available(trader, maker.GlobalGeneration).SaturatingSub(consumed[trader])
		if avail < need {
			return false, nil
		}
		consumed[trader] += need
		return true, nil
	}
	before, err := globalExposure(maker.Price, maker.NumBaseAtoms, maker.IsBid)
	if err != nil {
		return false, err
	}
	after, err := globalExposure(maker.Price, maker.NumBaseAtoms-base, maker.IsBid)
	if err != nil {
		return false, err
	}
	return acct.TryConsume(trader, m.fixed.Key, need, before-after, maker.GlobalGeneration)
}

// settle moves the balances of one fill between the maker and taker seats.
// A global maker's side of the trade arrives from its global account, so
// only its proceeds are credited.
func (m *Market) settle(args *PlaceOrderArgs, maker *types.RestingOrder, base types.BaseAtoms, quote types.QuoteAtoms) error {
	if args.IsBid {
		if err := m.debitQuote(args.TraderIndex, quote); err != nil {
			return err
		}
		if err := m.creditBase(args.TraderIndex, base); err != nil {
			return err
		}
		if err := m.creditQuote(maker.TraderIndex, quote); err != nil {
			return err
		}
	} else {
		if err := m.debitBase(args.TraderIndex, base); err != nil {
			return err
		}
		if err := m.creditQuote(args.TraderIndex, quote); err != nil {
			return err
		}
		if err := m.creditBase(maker.TraderIndex, base); err != nil {
			return err
		}
		if !maker.IsGlobal() {
			// the maker reserved quote at its limit price rounded up, hand
			// back what the fill did not use
			refund, err := bidRefund(maker, base, quote)
			if err != nil {
				return err
			}
			if refund > 0 {
				if err := m.creditQuote(maker.TraderIndex, refund); err != nil {
					return err
				}
			}
		}
	}
	m.addVolume(args.TraderIndex, quote)
	m.addVolume(maker.TraderIndex, quote)
	return nil
}

func bidRefund(maker *types.RestingOrder, base types.BaseAtoms, quote types.QuoteAtoms) (types.QuoteAtoms, error) {
	before, err := maker.Price.QuoteForBase(maker.NumBaseAtoms, true)
	if err != nil {
		return 0, err
	}
	after, err := maker.Price.QuoteForBase(maker.NumBaseAtoms-base, true)
	if err != nil {
		return 0, err
	}
	released, err := before.CheckedSub(after)
	if err != nil {
		return 0, err
	}
	return released.CheckedSub(quote)
}

// prune removes an order that can no longer trade and releases what it
// holds: reserves go back to the seat, global exposure to the account.
func (m *Market) prune(
	book *hypertree.RedBlackTree[types.RestingOrder],
	idx hypertree.DataIndex,
	o *types.RestingOrder,
	acct GlobalAccount,
	trader types.Pubkey,
	res *PlaceOrderResult,
) error {
	book.Remove(idx)
	if err := m.releaseOrder(o, acct, trader); err != nil {
		return err
	}
	res.Pruned = append(res.Pruned, *o)
	if bool(m.cfg.LogPrunedDebug) && m.log.IsDebug() {
		m.log.Debug("order pruned",
			logging.SequenceNumber(o.SequenceNumber),
			logging.TraderID(trader),
			logging.Bool("global", o.IsGlobal()),
		)
	}
	return nil
}

// releaseOrder settles the bookkeeping of an order that left the book
// without trading.
func (m *Market) releaseOrder(o *types.RestingOrder, acct GlobalAccount, trader types.Pubkey) error {
	if !o.IsGlobal() {
		return m.releaseReserves(o)
	}
	exposure, err := globalExposure(o.Price, o.NumBaseAtoms, o.IsBid)
	if err != nil {
		return err
	}
	return acct.RemoveOrder(trader, m.fixed.Key, exposure, o.GlobalGeneration)
}

func (m *Market) rest(args *PlaceOrderArgs, seq uint64, remaining types.BaseAtoms) (hypertree.DataIndex, error) {
	eff, err := types.InitialEffectivePrice(args.Price, args.IsBid, args.OrderType, args.Spread)
	if err != nil {
		return hypertree.NIL, err
	}
	o := types.RestingOrder{
		Price:          args.Price,
		EffectivePrice: eff,
		NumBaseAtoms:   remaining,
		SequenceNumber: seq,
		TraderIndex:    args.TraderIndex,
		LastValidSlot:  args.LastValidSlot,
		IsBid:          args.IsBid,
		OrderType:      args.OrderType,
		Spread:         args.Spread,
	}

	if o.IsGlobal() {
		exposure, err := globalExposure(o.Price, o.NumBaseAtoms, o.IsBid)
		if err != nil {
			return hypertree.NIL, err
		}
		trader := m.seats.Get(o.TraderIndex).Trader
		gen, err := args.Globals.forSide(o.IsBid).AddOrder(trader, m.fixed.Key, exposure)
		if err != nil {
			return hypertree.NIL, err
		}
		o.GlobalGeneration = gen
	} else {
		base, quote, err := o.Reserved()
		if err != nil {
			return hypertree.NIL, err
		}
		if err := m.debitBase(o.TraderIndex, base); err != nil {
			return hypertree.NIL, err
		}
		if err := m.debitQuote(o.TraderIndex, quote); err != nil {
			return hypertree.NIL, err
		}
	}

	idx, err := m.side(o.IsBid).Insert(o)
	if err != nil {
		return hypertree.NIL, errors.Wrap(err, "resting order")
	}
	m.log.Debug("order resting",
		logging.SequenceNumber(seq),
		logging.DataIndex(idx),
		logging.Stringer("order", o),
	)
	return idx, nil
}

func (m *Market) logFill(f *types.Fill) {
	if !bool(m.cfg.LogFillsDebug) || !m.log.IsDebug() {
		return
	}
	m.log.Debug("fill",
		logging.SequenceNumber(f.MakerSequenceNumber),
		logging.Uint64("taker-seq", f.TakerSequenceNumber),
		logging.String("base", f.BaseAtoms.String()),
		logging.String("quote", f.QuoteAtoms.String()),
		logging.String("price", f.Price.String()),
	)
}
