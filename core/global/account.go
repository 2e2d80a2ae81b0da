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

// AddOrder records exposure for a new global order of trader on market. The
// balance must cover the order on its own; orders on different markets may
// together commit more than the balance, which is why every fill checks the
// balance again.
func (g *Global) AddOrder(trader, market types.Pubkey, exposure types.GlobalAtoms) (uint32, error) {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return 0, errors.Wrapf(ErrTraderNotFound, "%s", trader)
	}
	t := g.traders.Get(idx)
	if t.Balance < exposure {
		return 0, errors.Wrapf(ErrGlobalInsufficient, "balance %s, order needs %s", t.Balance, exposure)
	}
	total, err := t.Exposure.CheckedAdd(exposure)
	if err != nil {
		return 0, err
	}
	if err := g.addPosition(trader, market, exposure); err != nil {
		return 0, err
	}
	t.Exposure = total
	g.traders.Update(idx, t)
	return t.Generation, nil
}

// RemoveOrder releases the exposure of an order that left the book. Orders
// placed under an older generation belong to an evicted seat and are
// ignored.
func (g *Global) RemoveOrder(trader, market types.Pubkey, exposure types.GlobalAtoms, generation uint32) error {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return nil
	}
	t := g.traders.Get(idx)
	if t.Generation != generation {
		return nil
	}
	return g.release(idx, t, market, exposure)
}

// Available is the balance trader can hand over to a fill of an order
// carrying generation.
func (g *Global) Available(trader types.Pubkey, generation uint32) types.GlobalAtoms {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return 0
	}
	t := g.traders.Get(idx)
	if t.Generation != generation {
		return 0
	}
	return t.Balance
}

// TryConsume moves atoms out of the balance of trader for a fill on market
// and releases exposure. It reports false without changing anything when
// the order is stale or the balance falls short.
func (g *Global) TryConsume(trader, market types.Pubkey, atoms, exposure types.GlobalAtoms, generation uint32) (bool, error) {
	idx := g.find(trader)
	if idx == hypertree.NIL {
		return false, nil
	}
	t := g.traders.Get(idx)
	if t.Generation != generation || t.Balance < atoms {
		g.log.Debug("global order not backed",
			logging.TraderID(trader),
			logging.MarketID(market),
			logging.String("need", atoms.String()),
			logging.String("balance", t.Balance.String()),
		)
		return false, nil
	}
	t.Balance -= atoms
	g.fixed.TotalBalance -= atoms
	if err := g.release(idx, t, market, exposure); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Global) release(idx hypertree.DataIndex, t Trader, market types.Pubkey, exposure types.GlobalAtoms) error {
	left, err := t.Exposure.CheckedSub(exposure)
	if err != nil {
		return errors.Wrapf(err, "releasing %s of %s exposure", exposure, t.Exposure)
	}
	if err := g.removePosition(t.Trader, market, exposure); err != nil {
		return err
	}
	t.Exposure = left
	g.traders.Update(idx, t)
	return nil
}

func (g *Global) addPosition(trader, market types.Pubkey, exposure types.GlobalAtoms) error {
	key := Position{Trader: trader, Market: market}
	idx := g.positions.Find(key)
	if idx == hypertree.NIL {
		key.Exposure = exposure
		_, err := g.positions.Insert(key)
		return err
	}
	p := g.positions.Get(idx)
	total, err := p.Exposure.CheckedAdd(exposure)
	if err != nil {
		return err
	}
	p.Exposure = total
	g.positions.Update(idx, p)
	return nil
}

// removePosition drops the position once nothing rests on the market.
func (g *Global) removePosition(trader, market types.Pubkey, exposure types.GlobalAtoms) error {
	idx := g.positions.Find(Position{Trader: trader, Market: market})
	if idx == hypertree.NIL {
		if exposure == 0 {
			return nil
		}
		return errors.Wrapf(types.ErrUnderflow, "no exposure recorded on market %s", market)
	}
	p := g.positions.Get(idx)
	left, err := p.Exposure.CheckedSub(exposure)
	if err != nil {
		return errors.Wrapf(err, "releasing %s of %s market exposure", exposure, p.Exposure)
	}
	if left == 0 {
		g.positions.Remove(idx)
		return nil
	}
	p.Exposure = left
	g.positions.Update(idx, p)
	return nil
}

// Evict frees the seat of evictee for evictor when every seat is taken.
// The evictor must deposit more than the evictee holds and the evictee must
// hold the lowest balance. The evictee's balance is returned so it can be
// paid out, and its resting orders become unbacked: their generation no
// longer matches any seat. The evictor's deposit is credited.
func (g *Global) Evict(evictor, evictee types.Pubkey, deposit types.GlobalAtoms) (types.GlobalAtoms, error) {
	if g.fixed.NumTraders < g.cfg.MaxGlobalSeats {
		return 0, ErrGlobalNotFull
	}
	if g.HasTrader(evictor) {
		return 0, errors.Wrapf(ErrTraderExists, "%s", evictor)
	}
	idx := g.find(evictee)
	if idx == hypertree.NIL {
		return 0, errors.Wrapf(ErrTraderNotFound, "%s", evictee)
	}
	victim := g.traders.Get(idx)
	if victim.Balance >= deposit {
		return 0, errors.Wrapf(ErrEvictionDepositTooSmall, "evictee holds %s, deposit %s", victim.Balance, deposit)
	}
	for it := g.traders.Ascend(); it.Next(); {
		if it.Value().Balance < victim.Balance {
			return 0, errors.Wrapf(ErrNotLowestBalance, "%s holds less", it.Value().Trader)
		}
	}

	positions := []hypertree.DataIndex{}
	for it := g.positions.Ascend(); it.Next(); {
		if it.Value().Trader == evictee {
			positions = append(positions, it.Index())
		}
	}
	for _, p := range positions {
		g.positions.Remove(p)
	}
	g.traders.Remove(idx)
	g.fixed.NumTraders--
	g.fixed.TotalBalance -= victim.Balance

	if err := g.insertTrader(evictor); err != nil {
		return 0, err
	}
	if err := g.Deposit(evictor, deposit); err != nil {
		return 0, err
	}
	g.log.Info("global trader evicted",
		logging.TraderID(evictee),
		logging.String("by", evictor.String()),
		logging.String("returned", victim.Balance.String()),
	)
	return victim.Balance, nil
}
