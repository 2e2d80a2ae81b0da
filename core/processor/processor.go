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
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/CKS-Systems/manifest-sub000/core/events"
	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/core/vault"
	vgcontext "github.com/CKS-Systems/manifest-sub000/libs/context"
	"github.com/CKS-Systems/manifest-sub000/logging"
	"github.com/CKS-Systems/manifest-sub000/metrics"

	"github.com/google/btree"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks github.com/CKS-Systems/manifest-sub000/core/processor Broker
type Broker interface {
	SendBatch(evts []events.Event)
}

//go:generate go run github.com/golang/mock/mockgen -destination mocks/vault_mock.go -package mocks github.com/CKS-Systems/manifest-sub000/core/processor Vault
// Vault moves tokens between trader wallets and custody. Apply must move
// all transfers or none.
type Vault interface {
	Apply(ctx context.Context, transfers []vault.Transfer) error
}

type marketItem struct {
	key types.Pubkey
	m   *market.Market
}

type globalItem struct {
	mint types.Pubkey
	g    *global.Global
}

type seatKey struct {
	market types.Pubkey
	trader types.Pubkey
}

// Processor executes instructions against the markets and global accounts
// it holds. Each instruction applies in full or not at all: account state is
// restored, no token moves and no event is sent when it fails.
type Processor struct {
	log       *logging.Logger
	cfg       Config
	marketCfg market.Config
	globalCfg global.Config

	broker Broker
	vault  Vault

	mu         sync.Mutex
	markets    *btree.BTreeG[marketItem]
	globals    *btree.BTreeG[globalItem]
	seats      *lru.Cache
	nativeMint types.Pubkey
	lastSlot   uint32
	eventSeq   uint64
}

func New(
	log *logging.Logger,
	cfg Config,
	marketCfg market.Config,
	globalCfg global.Config,
	broker Broker,
	vault Vault,
) (*Processor, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	size := cfg.SeatCacheSize
	if size <= 0 {
		size = NewDefaultConfig().SeatCacheSize
	}
	seats, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "could not create seat cache")
	}

	return &Processor{
		log:       log,
		cfg:       cfg,
		marketCfg: marketCfg,
		globalCfg: globalCfg,
		broker:    broker,
		vault:     vault,
		markets: btree.NewG(32, func(a, b marketItem) bool {
			return a.key.Compare(b.key) < 0
		}),
		globals: btree.NewG(32, func(a, b globalItem) bool {
			return a.mint.Compare(b.mint) < 0
		}),
		seats:      seats,
		nativeMint: types.ParsePubkey(cfg.NativeMint),
	}, nil
}

// ReloadConf updates the configuration of the processor and of every
// account it holds.
func (p *Processor) ReloadConf(cfg Config, marketCfg market.Config, globalCfg global.Config) {
	p.log.Info("reloading configuration")
	if p.log.GetLevel() != cfg.Level.Get() {
		p.log.Info("updating log level",
			logging.String("old", p.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		p.log.SetLevel(cfg.Level.Get())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.MaxBatchOrders = cfg.MaxBatchOrders
	p.cfg.LogInstructions = cfg.LogInstructions
	p.cfg.Level = cfg.Level
	p.marketCfg = marketCfg
	p.globalCfg = globalCfg
	p.markets.Ascend(func(it marketItem) bool {
		it.m.ReloadConf(marketCfg)
		return true
	})
	p.globals.Ascend(func(it globalItem) bool {
		it.g.ReloadConf(globalCfg)
		return true
	})
}

// NativeMint is the mint gas deposits are taken in.
func (p *Processor) NativeMint() types.Pubkey {
	return p.nativeMint
}

// txn collects what an instruction did so it can be committed or undone.
type txn struct {
	ctx    context.Context
	slot   uint32
	signer types.Pubkey

	// pre-images of the accounts touched, nil for accounts created by the
	// instruction
	markets map[types.Pubkey][]byte
	globals map[types.Pubkey][]byte

	transfers []vault.Transfer
	events    []events.Event
}

func (tx *txn) emit(evts ...events.Event) {
	tx.events = append(tx.events, evts...)
}

func (tx *txn) transfer(trader, mint types.Pubkey, atoms uint64, dir vault.Direction) {
	if atoms == 0 {
		return
	}
	tx.transfers = append(tx.transfers, vault.Transfer{
		Trader:    trader,
		Mint:      mint,
		Atoms:     atoms,
		Direction: dir,
	})
}

// apply runs fn as one instruction signed by signer.
func (p *Processor) apply(ctx context.Context, name string, signer types.Pubkey, fn func(tx *txn) error) (err error) {
	done := metrics.StartInstruction(name)
	defer func() { done(err) }()

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, traceID := vgcontext.TraceIDFromContext(ctx)
	slot, ok := vgcontext.SlotFromContext(ctx)
	if ok {
		p.lastSlot = slot
	} else {
		slot = p.lastSlot
		ctx = vgcontext.WithSlot(ctx, slot)
	}

	tx := &txn{
		ctx:     ctx,
		slot:    slot,
		signer:  signer,
		markets: map[types.Pubkey][]byte{},
		globals: map[types.Pubkey][]byte{},
	}

	err = p.run(tx, fn)
	if err == nil && len(tx.transfers) > 0 {
		if verr := p.vault.Apply(ctx, tx.transfers); verr != nil {
			err = errors.Wrap(verr, "token transfer failed")
		}
	}
	if err != nil {
		p.rollback(tx)
		p.log.Debug("instruction rejected",
			logging.String("instruction", name),
			logging.TraceID(traceID),
			logging.TraderID(signer),
			logging.Error(err),
		)
		return errors.Wrap(err, name)
	}

	p.commit(tx)
	if bool(p.cfg.LogInstructions) {
		p.log.Info("instruction applied",
			logging.String("instruction", name),
			logging.TraceID(traceID),
			logging.TraderID(signer),
			logging.Uint32("slot", slot),
			logging.Int("events", len(tx.events)),
			logging.Int("transfers", len(tx.transfers)),
		)
	}
	return nil
}

func (p *Processor) run(tx *txn, fn func(tx *txn) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("instruction panicked",
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
			)
			err = errors.Wrapf(ErrInternalFault, "%v", r)
		}
	}()
	return fn(tx)
}

func (p *Processor) rollback(tx *txn) {
	for key, data := range tx.markets {
		if data == nil {
			p.markets.Delete(marketItem{key: key})
			continue
		}
		it, ok := p.markets.Get(marketItem{key: key})
		if !ok {
			continue
		}
		if err := it.m.UnmarshalBinary(data); err != nil {
			p.log.Panic("could not restore market", logging.MarketID(key), logging.Error(err))
		}
	}
	for mint, data := range tx.globals {
		if data == nil {
			p.globals.Delete(globalItem{mint: mint})
			continue
		}
		it, ok := p.globals.Get(globalItem{mint: mint})
		if !ok {
			continue
		}
		if err := it.g.UnmarshalBinary(data); err != nil {
			p.log.Panic("could not restore global account", logging.String("mint", mint.String()), logging.Error(err))
		}
	}
	// indices cached during the instruction may point at blocks that no
	// longer hold the seat
	p.seats.Purge()
}

func (p *Processor) commit(tx *txn) {
	for key := range tx.markets {
		it, ok := p.markets.Get(marketItem{key: key})
		if !ok {
			continue
		}
		metrics.RestingOrdersSet(key.String(), "bid", len(it.m.Orders(true)))
		metrics.RestingOrdersSet(key.String(), "ask", len(it.m.Orders(false)))
	}
	if len(tx.events) == 0 {
		return
	}
	for _, e := range tx.events {
		p.eventSeq++
		e.SetSequenceID(p.eventSeq)
	}
	p.broker.SendBatch(tx.events)
	metrics.EventsSentAdd(len(tx.events))
}

// market returns the market at key, recording its pre-image the first time
// the instruction touches it.
func (p *Processor) market(tx *txn, key types.Pubkey) (*market.Market, error) {
	it, ok := p.markets.Get(marketItem{key: key})
	if !ok {
		return nil, errors.Wrapf(ErrMarketNotFound, "%s", key)
	}
	if _, seen := tx.markets[key]; !seen {
		data, err := it.m.MarshalBinary()
		if err != nil {
			return nil, err
		}
		tx.markets[key] = data
	}
	return it.m, nil
}

// global returns the global account of mint, nil if there is none. Its
// pre-image is recorded like a market's.
func (p *Processor) global(tx *txn, mint types.Pubkey) (*global.Global, error) {
	it, ok := p.globals.Get(globalItem{mint: mint})
	if !ok {
		return nil, nil
	}
	if _, seen := tx.globals[mint]; !seen {
		data, err := it.g.MarshalBinary()
		if err != nil {
			return nil, err
		}
		tx.globals[mint] = data
	}
	return it.g, nil
}

func (p *Processor) mustGlobal(tx *txn, mint types.Pubkey) (*global.Global, error) {
	g, err := p.global(tx, mint)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.Wrapf(ErrGlobalNotFound, "mint %s", mint)
	}
	return g, nil
}

// globalsFor gathers the global accounts of the two mints of m.
func (p *Processor) globalsFor(tx *txn, m *market.Market) (market.GlobalAccounts, error) {
	var accts market.GlobalAccounts
	base, err := p.global(tx, m.BaseMint())
	if err != nil {
		return accts, err
	}
	quote, err := p.global(tx, m.QuoteMint())
	if err != nil {
		return accts, err
	}
	// a nil *global.Global must not become a non nil interface
	if base != nil {
		accts.Base = base
	}
	if quote != nil {
		accts.Quote = quote
	}
	return accts, nil
}

// traderIndex finds the seat of trader on m, using the cache as a hint.
func (p *Processor) traderIndex(m *market.Market, trader types.Pubkey) (hypertree.DataIndex, error) {
	key := seatKey{market: m.Key(), trader: trader}
	if v, ok := p.seats.Get(key); ok {
		idx := v.(hypertree.DataIndex)
		if seat, err := m.Seat(idx); err == nil && seat.Trader == trader {
			return idx, nil
		}
		p.seats.Remove(key)
	}
	idx := m.TraderIndex(trader)
	if idx == hypertree.NIL {
		return hypertree.NIL, errors.Wrapf(market.ErrSeatNotFound, "trader %s", trader)
	}
	p.seats.Add(key, idx)
	return idx, nil
}

// Market returns the market at key. The market must only be read while no
// instruction runs.
func (p *Processor) Market(key types.Pubkey) (*market.Market, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.markets.Get(marketItem{key: key})
	return it.m, ok
}

// Global returns the global account of mint.
func (p *Processor) Global(mint types.Pubkey) (*global.Global, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.globals.Get(globalItem{mint: mint})
	return it.g, ok
}

// Markets lists the market keys in ascending order.
func (p *Processor) Markets() []types.Pubkey {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Pubkey, 0, p.markets.Len())
	p.markets.Ascend(func(it marketItem) bool {
		out = append(out, it.key)
		return true
	})
	return out
}

// Accounts serialises every account for a snapshot, globals first.
func (p *Processor) Accounts() ([]snapshot.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]snapshot.Account, 0, p.markets.Len()+p.globals.Len())
	var err error
	p.globals.Ascend(func(it globalItem) bool {
		var data []byte
		if data, err = it.g.MarshalBinary(); err != nil {
			return false
		}
		out = append(out, snapshot.Account{Kind: snapshot.KindGlobal, Key: it.mint, Data: data})
		return true
	})
	if err != nil {
		return nil, err
	}
	p.markets.Ascend(func(it marketItem) bool {
		var data []byte
		if data, err = it.m.MarshalBinary(); err != nil {
			return false
		}
		out = append(out, snapshot.Account{Kind: snapshot.KindMarket, Key: it.key, Data: data})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Restore replaces every account with the ones given, checking each loads
// and verifies before anything is swapped in.
func (p *Processor) Restore(slot uint32, accounts []snapshot.Account) error {
	markets := btree.NewG(32, func(a, b marketItem) bool { return a.key.Compare(b.key) < 0 })
	globals := btree.NewG(32, func(a, b globalItem) bool { return a.mint.Compare(b.mint) < 0 })

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, acc := range accounts {
		switch acc.Kind {
		case snapshot.KindMarket:
			m, err := market.Load(p.log, p.marketCfg, acc.Data)
			if err != nil {
				return errors.Wrapf(err, "market %s", acc.Key)
			}
			if err := m.Verify(); err != nil {
				return errors.Wrapf(err, "market %s", acc.Key)
			}
			if m.Key() != acc.Key {
				return errors.Wrapf(ErrInvalidAccount, "market %s stored under %s", m.Key(), acc.Key)
			}
			markets.ReplaceOrInsert(marketItem{key: acc.Key, m: m})
		case snapshot.KindGlobal:
			g, err := global.Load(p.log, p.globalCfg, acc.Data)
			if err != nil {
				return errors.Wrapf(err, "global %s", acc.Key)
			}
			if err := g.Verify(); err != nil {
				return errors.Wrapf(err, "global %s", acc.Key)
			}
			if g.Mint() != acc.Key {
				return errors.Wrapf(ErrInvalidAccount, "global %s stored under %s", g.Mint(), acc.Key)
			}
			globals.ReplaceOrInsert(globalItem{mint: acc.Key, g: g})
		default:
			return errors.Wrapf(ErrInvalidAccount, "kind %q", byte(acc.Kind))
		}
	}

	p.markets, p.globals = markets, globals
	p.seats.Purge()
	p.lastSlot = slot
	p.log.Info("state restored",
		logging.Uint32("slot", slot),
		logging.Int("markets", markets.Len()),
		logging.Int("globals", globals.Len()),
	)
	return nil
}
