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
	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/core/vault"
	"github.com/CKS-Systems/manifest-sub000/logging"
	"github.com/CKS-Systems/manifest-sub000/metrics"

	"github.com/pkg/errors"
)

// OrderParams describes one order of a batch update.
type OrderParams struct {
	BaseAtoms     uint64
	PriceMantissa uint32
	PriceExponent int8
	IsBid         bool
	LastValidSlot uint32
	OrderType     types.OrderType
	Spread        uint16
}

// CancelParams names an order to cancel. IndexHint is where the order is
// believed to rest; a wrong hint costs a search and nothing else.
type CancelParams struct {
	SequenceNumber uint64
	IndexHint      hypertree.DataIndex
}

type BatchUpdate struct {
	Market types.Pubkey
	Trader types.Pubkey
	// CancelAll removes every order of the trader before Cancels apply.
	CancelAll bool
	Cancels   []CancelParams
	Orders    []OrderParams
}

// PlacedOrder reports one order of a batch update.
type PlacedOrder struct {
	SequenceNumber uint64
	// OrderIndex addresses the resting remainder, NIL when nothing rests.
	OrderIndex       hypertree.DataIndex
	BaseAtomsTraded  types.BaseAtoms
	QuoteAtomsTraded types.QuoteAtoms
}

type BatchUpdateResult struct {
	Cancelled []uint64
	Placed    []PlacedOrder
}

// BatchUpdate cancels then places orders for one trader on one market. The
// batch is a single unit: if any order fails, nothing in it happens.
func (p *Processor) BatchUpdate(ctx context.Context, args BatchUpdate) (*BatchUpdateResult, error) {
	out := &BatchUpdateResult{}
	err := p.apply(ctx, "BatchUpdate", args.Trader, func(tx *txn) error {
		if n := len(args.Cancels) + len(args.Orders); p.cfg.MaxBatchOrders > 0 && n > p.cfg.MaxBatchOrders {
			return errors.Wrapf(ErrTooManyOrders, "%d > %d", n, p.cfg.MaxBatchOrders)
		}
		m, err := p.market(tx, args.Market)
		if err != nil {
			return err
		}
		idx, err := p.traderIndex(m, args.Trader)
		if err != nil {
			return err
		}
		globals, err := p.globalsFor(tx, m)
		if err != nil {
			return err
		}

		if args.CancelAll {
			cancelled, err := m.CancelAll(idx, globals)
			if err != nil {
				return err
			}
			for _, o := range cancelled {
				if err := p.cancelled(tx, m, args.Trader, o); err != nil {
					return err
				}
				out.Cancelled = append(out.Cancelled, o.SequenceNumber)
			}
		}

		for _, c := range args.Cancels {
			o, ok, err := m.CancelOrderByIndex(idx, c.SequenceNumber, c.IndexHint, globals)
			if err != nil {
				return errors.Wrapf(err, "cancel %d", c.SequenceNumber)
			}
			if !ok {
				continue
			}
			if err := p.cancelled(tx, m, args.Trader, o); err != nil {
				return err
			}
			out.Cancelled = append(out.Cancelled, o.SequenceNumber)
		}

		for i, op := range args.Orders {
			if err := tx.ctx.Err(); err != nil {
				return err
			}
			price, err := types.PriceForOrder(op.PriceMantissa, op.PriceExponent, op.OrderType)
			if err != nil {
				return errors.Wrapf(err, "order %d", i)
			}
			res, err := p.place(tx, m, args.Trader, market.PlaceOrderArgs{
				TraderIndex:   idx,
				NumBaseAtoms:  types.BaseAtoms(op.BaseAtoms),
				Price:         price,
				IsBid:         op.IsBid,
				LastValidSlot: op.LastValidSlot,
				OrderType:     op.OrderType,
				Spread:        op.Spread,
				CurrentSlot:   tx.slot,
				Globals:       globals,
			})
			if err != nil {
				return errors.Wrapf(err, "order %d", i)
			}
			out.Placed = append(out.Placed, PlacedOrder{
				SequenceNumber:   res.SequenceNumber,
				OrderIndex:       res.OrderIndex,
				BaseAtomsTraded:  res.BaseAtomsTraded,
				QuoteAtomsTraded: res.QuoteAtomsTraded,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// place runs one order through the market and accounts for what it did
// outside the market: events, gas deposits and metrics.
func (p *Processor) place(tx *txn, m *market.Market, trader types.Pubkey, args market.PlaceOrderArgs) (*market.PlaceOrderResult, error) {
	res, err := m.PlaceOrder(args)
	if err != nil {
		return nil, err
	}

	mkey := m.Key().String()
	metrics.OrderCounterInc(mkey, args.OrderType.String())
	if len(res.Fills) > 0 {
		metrics.FillsAdd(mkey, len(res.Fills), res.QuoteAtomsTraded.Uint64())
		for _, f := range res.Fills {
			tx.emit(events.NewFillEvent(tx.ctx, f))
		}
	}

	// whoever prunes an order collects its gas deposit
	metrics.PrunedAdd(mkey, len(res.Pruned))
	for _, o := range res.Pruned {
		owner, err := m.Seat(o.TraderIndex)
		if err != nil {
			return nil, err
		}
		tx.emit(events.NewCancelOrderEvent(tx.ctx, m.Key(), owner.Trader, o))
		if err := p.releaseGas(tx, m, o, tx.signer); err != nil {
			return nil, err
		}
	}
	for _, o := range res.Filled {
		owner, err := m.Seat(o.TraderIndex)
		if err != nil {
			return nil, err
		}
		if err := p.releaseGas(tx, m, o, owner.Trader); err != nil {
			return nil, err
		}
	}

	if res.OrderIndex != hypertree.NIL {
		o, err := m.GetOrder(res.OrderIndex)
		if err != nil {
			return nil, err
		}
		tx.emit(events.NewPlaceOrderEvent(tx.ctx, m.Key(), trader, res.OrderIndex, o))
		if o.IsGlobal() {
			g, err := p.backingGlobal(tx, m, o.IsBid)
			if err != nil {
				return nil, err
			}
			gas, err := g.ChargeGas(1)
			if err != nil {
				return nil, err
			}
			tx.transfer(trader, p.nativeMint, gas, vault.In)
		}
	}
	return res, nil
}

// cancelled settles an order its owner removed.
func (p *Processor) cancelled(tx *txn, m *market.Market, owner types.Pubkey, o types.RestingOrder) error {
	tx.emit(events.NewCancelOrderEvent(tx.ctx, m.Key(), owner, o))
	return p.releaseGas(tx, m, o, owner)
}

// releaseGas pays the gas deposit of a global order that left the book to
// recipient.
func (p *Processor) releaseGas(tx *txn, m *market.Market, o types.RestingOrder, recipient types.Pubkey) error {
	if !o.IsGlobal() {
		return nil
	}
	g, err := p.backingGlobal(tx, m, o.IsBid)
	if err != nil {
		return err
	}
	gas := g.ReleaseGas(1)
	tx.transfer(recipient, p.nativeMint, gas, vault.Out)
	if p.log.IsDebug() {
		p.log.Debug("gas deposit released",
			logging.MarketID(m.Key()),
			logging.SequenceNumber(o.SequenceNumber),
			logging.TraderID(recipient),
			logging.Uint64("atoms", gas),
		)
	}
	return nil
}

// backingGlobal is the global account behind orders on one side of m: bids
// are backed by quote, asks by base.
func (p *Processor) backingGlobal(tx *txn, m *market.Market, isBid bool) (*global.Global, error) {
	if isBid {
		return p.mustGlobal(tx, m.QuoteMint())
	}
	return p.mustGlobal(tx, m.BaseMint())
}
