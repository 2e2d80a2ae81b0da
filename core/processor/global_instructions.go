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
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/core/vault"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

// GlobalCreate opens the global account of mint.
func (p *Processor) GlobalCreate(ctx context.Context, signer, mint types.Pubkey) error {
	return p.apply(ctx, "GlobalCreate", signer, func(tx *txn) error {
		if _, ok := p.globals.Get(globalItem{mint: mint}); ok {
			return errors.Wrapf(ErrGlobalExists, "mint %s", mint)
		}
		g, err := global.New(p.log, p.globalCfg, mint)
		if err != nil {
			return err
		}
		p.globals.ReplaceOrInsert(globalItem{mint: mint, g: g})
		tx.globals[mint] = nil
		tx.emit(events.NewGlobalCreatedEvent(tx.ctx, mint))
		p.log.Info("global account created", logging.String("mint", mint.String()))
		return nil
	})
}

// GlobalAddTrader takes one of the seats of a global account for trader.
func (p *Processor) GlobalAddTrader(ctx context.Context, trader, mint types.Pubkey) error {
	return p.apply(ctx, "GlobalAddTrader", trader, func(tx *txn) error {
		g, err := p.mustGlobal(tx, mint)
		if err != nil {
			return err
		}
		if err := g.AddTrader(trader); err != nil {
			return err
		}
		tx.emit(events.NewGlobalAddTraderEvent(tx.ctx, mint, trader))
		return nil
	})
}

type GlobalTransfer struct {
	Trader types.Pubkey
	Mint   types.Pubkey
	Atoms  uint64
}

// GlobalDeposit moves atoms from the wallet of the trader into its global
// balance.
func (p *Processor) GlobalDeposit(ctx context.Context, args GlobalTransfer) error {
	return p.apply(ctx, "GlobalDeposit", args.Trader, func(tx *txn) error {
		if args.Atoms == 0 {
			return ErrZeroAmount
		}
		g, err := p.mustGlobal(tx, args.Mint)
		if err != nil {
			return err
		}
		if err := g.Deposit(args.Trader, types.GlobalAtoms(args.Atoms)); err != nil {
			return err
		}
		tx.transfer(args.Trader, args.Mint, args.Atoms, vault.In)
		tx.emit(events.NewGlobalDepositEvent(tx.ctx, args.Trader, args.Mint, types.GlobalAtoms(args.Atoms)))
		return nil
	})
}

// GlobalWithdraw moves atoms from the global balance of the trader back to
// its wallet. What is left must cover the exposure of its resting orders.
func (p *Processor) GlobalWithdraw(ctx context.Context, args GlobalTransfer) error {
	return p.apply(ctx, "GlobalWithdraw", args.Trader, func(tx *txn) error {
		if args.Atoms == 0 {
			return ErrZeroAmount
		}
		g, err := p.mustGlobal(tx, args.Mint)
		if err != nil {
			return err
		}
		if err := g.Withdraw(args.Trader, types.GlobalAtoms(args.Atoms)); err != nil {
			return err
		}
		tx.transfer(args.Trader, args.Mint, args.Atoms, vault.Out)
		tx.emit(events.NewGlobalWithdrawEvent(tx.ctx, args.Trader, args.Mint, types.GlobalAtoms(args.Atoms)))
		return nil
	})
}

type GlobalEvict struct {
	Evictor types.Pubkey
	Evictee types.Pubkey
	Mint    types.Pubkey
	// Deposit of the evictor, more than the evictee holds.
	Deposit uint64
}

// GlobalEvict replaces the trader with the lowest balance of a full global
// account. The evictee's balance goes back to its wallet; its resting
// orders stay on their books unbacked until they are cleaned.
func (p *Processor) GlobalEvict(ctx context.Context, args GlobalEvict) error {
	return p.apply(ctx, "GlobalEvict", args.Evictor, func(tx *txn) error {
		g, err := p.mustGlobal(tx, args.Mint)
		if err != nil {
			return err
		}
		withdrawn, err := g.Evict(args.Evictor, args.Evictee, types.GlobalAtoms(args.Deposit))
		if err != nil {
			return err
		}
		tx.transfer(args.Evictor, args.Mint, args.Deposit, vault.In)
		tx.transfer(args.Evictee, args.Mint, withdrawn.Uint64(), vault.Out)
		tx.emit(events.NewGlobalEvictEvent(tx.ctx, args.Mint, args.Evictor, args.Evictee, types.GlobalAtoms(args.Deposit), withdrawn))
		return nil
	})
}

type GlobalClean struct {
	Market         types.Pubkey
	SequenceNumber uint64
	IndexHint      hypertree.DataIndex
}

// GlobalClean removes a global order that expired or lost its backing. The
// cleaner collects the gas deposit of the order.
func (p *Processor) GlobalClean(ctx context.Context, cleaner types.Pubkey, args GlobalClean) error {
	return p.apply(ctx, "GlobalClean", cleaner, func(tx *txn) error {
		m, err := p.market(tx, args.Market)
		if err != nil {
			return err
		}
		globals, err := p.globalsFor(tx, m)
		if err != nil {
			return err
		}
		o, owner, err := m.CleanGlobalOrder(args.SequenceNumber, args.IndexHint, tx.slot, globals)
		if err != nil {
			return err
		}
		g, err := p.backingGlobal(tx, m, o.IsBid)
		if err != nil {
			return err
		}
		gas := g.ReleaseGas(1)
		tx.transfer(cleaner, p.nativeMint, gas, vault.Out)
		tx.emit(
			events.NewCancelOrderEvent(tx.ctx, args.Market, owner, o),
			events.NewGlobalCleanEvent(tx.ctx, g.Mint(), args.Market, cleaner, owner, o.SequenceNumber, gas),
		)
		return nil
	})
}
