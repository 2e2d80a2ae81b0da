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

package global

import (
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

// Global holds deposits of one mint that back resting orders on any number
// of markets. Funds only leave it when a fill consumes them, when their
// owner withdraws, or when the owner is evicted.
type Global struct {
	log *logging.Logger
	cfg Config

	fixed     Fixed
	arena     *hypertree.Arena
	traders   *hypertree.RedBlackTree[Trader]
	positions *hypertree.RedBlackTree[Position]
}

// New creates an empty global account for mint.
func New(log *logging.Logger, cfg Config, mint types.Pubkey) (*Global, error) {
	g := newGlobal(log, cfg)
	g.fixed = Fixed{
		Mint:           mint,
		TradersRoot:    hypertree.NIL,
		PositionsRoot:  hypertree.NIL,
		FreeListHead:   hypertree.NIL,
		NextGeneration: 1,
	}
	if err := g.open(nil); err != nil {
		return nil, err
	}
	return g, nil
}

// Load restores a global account from the bytes produced by MarshalBinary.
func Load(log *logging.Logger, cfg Config, data []byte) (*Global, error) {
	g := newGlobal(log, cfg)
	if err := g.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return g, nil
}

func newGlobal(log *logging.Logger, cfg Config) *Global {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Global{log: log, cfg: cfg}
}

func (g *Global) open(dynamic []byte) error {
	arena, err := hypertree.NewArena(BlockSize, dynamic, g.fixed.FreeListHead, g.cfg.MaxDynamicBytes.Get())
	if err != nil {
		return errors.Wrap(ErrInvalidGlobalData, err.Error())
	}
	g.arena = arena
	g.traders = hypertree.NewRedBlackTree[Trader](arena, traderCodec{}, g.fixed.TradersRoot, hypertree.NIL)
	g.positions = hypertree.NewRedBlackTree[Position](arena, positionCodec{}, g.fixed.PositionsRoot, hypertree.NIL)
	return nil
}

// ReloadConf updates the internal configuration of the global account.
func (g *Global) ReloadConf(cfg Config) {
	g.log.Info("reloading configuration")
	if g.log.GetLevel() != cfg.Level.Get() {
		g.log.Info("updating log level",
			logging.String("old", g.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		g.log.SetLevel(cfg.Level.Get())
	}
	g.cfg = cfg
}

func (g *Global) Mint() types.Pubkey { return g.fixed.Mint }

func (g *Global) NumTraders() int { return int(g.fixed.NumTraders) }

func (g *Global) TotalBalance() types.GlobalAtoms { return g.fixed.TotalBalance }

func (g *Global) GasPool() uint64 { return g.fixed.GasPool }

func (g *Global) Fixed() Fixed {
	g.syncFixed()
	return g.fixed
}

// Trader returns the seat of trader.
func (g *Global) Trader(trader types.Pubkey) (Trader, error) {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return Trader{}, errors.Wrapf(ErrTraderNotFound, "%s", trader)
	}
	return g.traders.Get(idx), nil
}

// HasTrader reports whether trader has a seat.
func (g *Global) HasTrader(trader types.Pubkey) bool {
	return g.find(trader) != hypertree.NIL
}

// Traders lists every seat ordered by trader.
func (g *Global) Traders() []Trader {
	out := make([]Trader, 0, g.traders.Len())
	for it := g.traders.Ascend(); it.Next(); {
		out = append(out, it.Value())
	}
	return out
}

// Positions lists the per market exposure of trader.
func (g *Global) Positions(trader types.Pubkey) []Position {
	out := []Position{}
	for it := g.positions.Ascend(); it.Next(); {
		if p := it.Value(); p.Trader == trader {
			out = append(out, p)
		}
	}
	return out
}

// AddTrader seats trader. Adding a seated trader does nothing.
func (g *Global) AddTrader(trader types.Pubkey) error {
	if g.HasTrader(trader) {
		return nil
	}
	if g.fixed.NumTraders >= g.cfg.MaxGlobalSeats {
		return errors.Wrapf(ErrGlobalFull, "%d seats", g.cfg.MaxGlobalSeats)
	}
	return g.insertTrader(trader)
}

func (g *Global) insertTrader(trader types.Pubkey) error {
	gen := g.fixed.NextGeneration
	if _, err := g.traders.Insert(Trader{Trader: trader, Generation: gen}); err != nil {
		return errors.Wrap(err, "adding global trader")
	}
	g.fixed.NextGeneration++
	g.fixed.NumTraders++
	g.log.Debug("global trader added",
		logging.TraderID(trader),
		logging.Uint32("generation", gen),
	)
	return nil
}

// Deposit credits the balance of trader.
func (g *Global) Deposit(trader types.Pubkey, atoms types.GlobalAtoms) error {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return errors.Wrapf(ErrTraderNotFound, "%s", trader)
	}
	t := g.traders.Get(idx)
	balance, err := t.Balance.CheckedAdd(atoms)
	if err != nil {
		return errors.Wrap(err, "global deposit")
	}
	total, err := g.fixed.TotalBalance.CheckedAdd(atoms)
	if err != nil {
		return errors.Wrap(err, "global deposit")
	}
	t.Balance = balance
	g.traders.Update(idx, t)
	g.fixed.TotalBalance = total
	return nil
}

// Withdraw debits the balance of trader. The balance left must still cover
// the exposure of the trader's resting orders.
func (g *Global) Withdraw(trader types.Pubkey, atoms types.GlobalAtoms) error {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return errors.Wrapf(ErrTraderNotFound, "%s", trader)
	}
	t := g.traders.Get(idx)
	left, err := t.Balance.CheckedSub(atoms)
	if err != nil || left < t.Exposure {
		return errors.Wrapf(ErrGlobalInsufficient, "balance %s, exposure %s, withdrawing %s", t.Balance, t.Exposure, atoms)
	}
	t.Balance = left
	g.traders.Update(idx, t)
	g.fixed.TotalBalance -= atoms
	return nil
}

// ChargeGas records the gas deposit of a new resting order.
func (g *Global) ChargeGas(orders int) (uint64, error) {
	amount := uint64(orders) * g.cfg.GasDepositAtoms
	pool := g.fixed.GasPool + amount
	if pool < g.fixed.GasPool {
		return 0, types.ErrOverflow
	}
	g.fixed.GasPool = pool
	return amount, nil
}

// ReleaseGas pays out the gas deposits of orders that left the book. The
// pool never goes negative.
func (g *Global) ReleaseGas(orders int) uint64 {
	amount := uint64(orders) * g.cfg.GasDepositAtoms
	if amount > g.fixed.GasPool {
		amount = g.fixed.GasPool
	}
	g.fixed.GasPool -= amount
	return amount
}

func (g *Global) find(trader types.Pubkey) hypertree.DataIndex {
	return g.traders.Find(Trader{Trader: trader})
}

func (g *Global) syncFixed() {
	g.fixed.TradersRoot = g.traders.Root()
	g.fixed.PositionsRoot = g.positions.Root()
	g.fixed.FreeListHead = g.arena.FreeHead()
	g.fixed.NumBytesAllocated = g.arena.BytesAllocated()
}

// MarshalBinary encodes the header followed by a copy of the dynamic region.
func (g *Global) MarshalBinary() ([]byte, error) {
	g.syncFixed()
	dynamic := g.arena.Bytes()
	out := make([]byte, FixedSize+len(dynamic))
	g.fixed.encode(out)
	copy(out[FixedSize:], dynamic)
	return out, nil
}

// UnmarshalBinary replaces the state of the global account with data.
func (g *Global) UnmarshalBinary(data []byte) error {
	fixed, err := decodeFixed(data)
	if err != nil {
		return err
	}
	dynamic := data[FixedSize:]
	if uint32(len(dynamic)) != fixed.NumBytesAllocated {
		return errors.Wrapf(ErrInvalidGlobalData, "dynamic region is %d bytes, header says %d", len(dynamic), fixed.NumBytesAllocated)
	}
	prev := g.fixed
	g.fixed = fixed
	if err := g.open(append([]byte(nil), dynamic...)); err != nil {
		g.fixed = prev
		return err
	}
	return nil
}

// Verify checks the tree invariants and that the header totals agree with
// the seats.
func (g *Global) Verify() error {
	if err := g.traders.Verify(); err != nil {
		return errors.Wrap(err, "traders")
	}
	if err := g.positions.Verify(); err != nil {
		return errors.Wrap(err, "positions")
	}
	var total types.GlobalAtoms
	exposure := map[types.Pubkey]types.GlobalAtoms{}
	for it := g.positions.Ascend(); it.Next(); {
		p := it.Value()
		exposure[p.Trader] += p.Exposure
	}
	for it := g.traders.Ascend(); it.Next(); {
		t := it.Value()
		total += t.Balance
		if exposure[t.Trader] != t.Exposure {
			return errors.Wrapf(ErrInvalidGlobalData, "trader %s exposure %s, positions sum to %s", t.Trader, t.Exposure, exposure[t.Trader])
		}
	}
	if total != g.fixed.TotalBalance {
		return errors.Wrapf(ErrInvalidGlobalData, "balances sum to %s, header says %s", total, g.fixed.TotalBalance)
	}
	if g.traders.Len() != int(g.fixed.NumTraders) {
		return errors.Wrapf(ErrInvalidGlobalData, "%d traders, header says %d", g.traders.Len(), g.fixed.NumTraders)
	}
	return nil
}
