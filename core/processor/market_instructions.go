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
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

type CreateMarket struct {
	// Key of the new market. A zero key derives one from the two mints.
	Key           types.Pubkey
	BaseMint      types.Pubkey
	QuoteMint     types.Pubkey
	BaseDecimals  uint8
	QuoteDecimals uint8
}

// MarketKey is the key a market gets when none is chosen by its creator.
func MarketKey(baseMint, quoteMint types.Pubkey) types.Pubkey {
	return types.PubkeyFromSeed("market/" + baseMint.String() + "/" + quoteMint.String())
}

// CreateMarket opens an empty order book for a pair of mints.
func (p *Processor) CreateMarket(ctx context.Context, signer types.Pubkey, args CreateMarket) (key types.Pubkey, err error) {
	key = args.Key
	if key.IsZero() {
		key = MarketKey(args.BaseMint, args.QuoteMint)
	}
	err = p.apply(ctx, "CreateMarket", signer, func(tx *txn) error {
		if _, ok := p.markets.Get(marketItem{key: key}); ok {
			return errors.Wrapf(ErrMarketExists, "%s", key)
		}
		m, err := market.New(p.log, p.marketCfg, key, args.BaseMint, args.QuoteMint, args.BaseDecimals, args.QuoteDecimals)
		if err != nil {
			return err
		}
		p.markets.ReplaceOrInsert(marketItem{key: key, m: m})
		tx.markets[key] = nil
		tx.emit(events.NewMarketCreatedEvent(tx.ctx, key, args.BaseMint, args.QuoteMint, args.BaseDecimals, args.QuoteDecimals))
		p.log.Info("market created",
			logging.MarketID(key),
			logging.String("base", args.BaseMint.String()),
			logging.String("quote", args.QuoteMint.String()),
		)
		return nil
	})
	return key, err
}

// ClaimSeat gives trader a seat on a market.
func (p *Processor) ClaimSeat(ctx context.Context, trader, marketKey types.Pubkey) error {
	return p.apply(ctx, "ClaimSeat", trader, func(tx *txn) error {
		m, err := p.market(tx, marketKey)
		if err != nil {
			return err
		}
		if m.TraderIndex(trader) != hypertree.NIL {
			return nil
		}
		idx, err := m.ClaimSeat(trader)
		if err != nil {
			return err
		}
		p.seats.Add(seatKey{market: marketKey, trader: trader}, idx)
		tx.emit(events.NewClaimSeatEvent(tx.ctx, marketKey, trader))
		return nil
	})
}

// ReleaseSeat frees the seat of trader. It must be empty and have nothing
// resting.
func (p *Processor) ReleaseSeat(ctx context.Context, trader, marketKey types.Pubkey) error {
	return p.apply(ctx, "ReleaseSeat", trader, func(tx *txn) error {
		m, err := p.market(tx, marketKey)
		if err != nil {
			return err
		}
		if err := m.ReleaseSeat(trader); err != nil {
			return err
		}
		p.seats.Remove(seatKey{market: marketKey, trader: trader})
		tx.emit(events.NewReleaseSeatEvent(tx.ctx, marketKey, trader))
		return nil
	})
}

type Transfer struct {
	Market types.Pubkey
	Trader types.Pubkey
	Mint   types.Pubkey
	Atoms  uint64
}

func isBaseMint(m *market.Market, mint types.Pubkey) (bool, error) {
	switch mint {
	case m.BaseMint():
		return true, nil
	case m.QuoteMint():
		return false, nil
	default:
		return false, errors.Wrapf(ErrInvalidMint, "%s", mint)
	}
}

// Deposit moves atoms from the wallet of the trader into its seat.
func (p *Processor) Deposit(ctx context.Context, args Transfer) error {
	return p.apply(ctx, "Deposit", args.Trader, func(tx *txn) error {
		if args.Atoms == 0 {
			return ErrZeroAmount
		}
		m, err := p.market(tx, args.Market)
		if err != nil {
			return err
		}
		isBase, err := isBaseMint(m, args.Mint)
		if err != nil {
			return err
		}
		idx, err := p.traderIndex(m, args.Trader)
		if err != nil {
			return err
		}
		if err := m.Deposit(idx, args.Atoms, isBase); err != nil {
			return err
		}
		tx.transfer(args.Trader, args.Mint, args.Atoms, vault.In)
		tx.emit(events.NewDepositEvent(tx.ctx, args.Market, args.Trader, args.Mint, args.Atoms))
		return nil
	})
}

// Withdraw moves atoms from the seat of the trader back to its wallet.
func (p *Processor) Withdraw(ctx context.Context, args Transfer) error {
	return p.apply(ctx, "Withdraw", args.Trader, func(tx *txn) error {
		if args.Atoms == 0 {
			return ErrZeroAmount
		}
		m, err := p.market(tx, args.Market)
		if err != nil {
			return err
		}
		isBase, err := isBaseMint(m, args.Mint)
		if err != nil {
			return err
		}
		idx, err := p.traderIndex(m, args.Trader)
		if err != nil {
			return err
		}
		if err := m.Withdraw(idx, args.Atoms, isBase); err != nil {
			return err
		}
		tx.transfer(args.Trader, args.Mint, args.Atoms, vault.Out)
		tx.emit(events.NewWithdrawEvent(tx.ctx, args.Market, args.Trader, args.Mint, args.Atoms))
		return nil
	})
}

// Expand adds free blocks to a market ahead of the orders that need them.
func (p *Processor) Expand(ctx context.Context, signer, marketKey types.Pubkey, blocks uint32) error {
	return p.apply(ctx, "Expand", signer, func(tx *txn) error {
		m, err := p.market(tx, marketKey)
		if err != nil {
			return err
		}
		if err := m.Expand(blocks); err != nil {
			return err
		}
		tx.emit(events.NewMarketExpandedEvent(tx.ctx, marketKey, blocks, m.BytesAllocated()))
		return nil
	})
}
