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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	marketKey = types.PubkeyFromSeed("market")
	baseMint  = types.PubkeyFromSeed("base")
	quoteMint = types.PubkeyFromSeed("quote")
)

var errGlobalShort = errors.New("global deposit short")

type testMarket struct {
	*market.Market
	t *testing.T
}

func getTestMarket(t *testing.T) *testMarket {
	t.Helper()
	m, err := market.New(logging.NewTestLogger(), market.NewDefaultConfig(), marketKey, baseMint, quoteMint, 9, 6)
	require.NoError(t, err)
	return &testMarket{Market: m, t: t}
}

// seat claims a seat for name and funds it.
func (tm *testMarket) seat(name string, base, quote uint64) hypertree.DataIndex {
	tm.t.Helper()
	idx, err := tm.ClaimSeat(types.PubkeyFromSeed(name))
	require.NoError(tm.t, err)
	if base > 0 {
		require.NoError(tm.t, tm.Deposit(idx, base, true))
	}
	if quote > 0 {
		require.NoError(tm.t, tm.Deposit(idx, quote, false))
	}
	return idx
}

func (tm *testMarket) balances(idx hypertree.DataIndex) (types.BaseAtoms, types.QuoteAtoms) {
	tm.t.Helper()
	s, err := tm.Seat(idx)
	require.NoError(tm.t, err)
	return s.BaseBalance, s.QuoteBalance
}

func (tm *testMarket) place(args market.PlaceOrderArgs) *market.PlaceOrderResult {
	tm.t.Helper()
	res, err := tm.PlaceOrder(args)
	require.NoError(tm.t, err)
	return res
}

func (tm *testMarket) snapshot() []byte {
	tm.t.Helper()
	b, err := tm.MarshalBinary()
	require.NoError(tm.t, err)
	return b
}

func price(t *testing.T, mantissa uint32, exponent int8) types.Price {
	t.Helper()
	p, err := types.PriceFromMantissaExponent(mantissa, exponent)
	require.NoError(t, err)
	return p
}

func limit(trader hypertree.DataIndex, isBid bool, base uint64, p types.Price) market.PlaceOrderArgs {
	return market.PlaceOrderArgs{
		TraderIndex:  trader,
		NumBaseAtoms: types.BaseAtoms(base),
		Price:        p,
		IsBid:        isBid,
		OrderType:    types.OrderTypeLimit,
	}
}

// fakeGlobal is an in memory global account. Evicting a trader bumps its
// generation, which voids its orders.
type fakeGlobal struct {
	mint       types.Pubkey
	deposits   map[types.Pubkey]types.GlobalAtoms
	exposure   map[types.Pubkey]types.GlobalAtoms
	generation map[types.Pubkey]uint32
}

func newFakeGlobal(mint types.Pubkey) *fakeGlobal {
	return &fakeGlobal{
		mint:       mint,
		deposits:   map[types.Pubkey]types.GlobalAtoms{},
		exposure:   map[types.Pubkey]types.GlobalAtoms{},
		generation: map[types.Pubkey]uint32{},
	}
}

func (g *fakeGlobal) deposit(trader types.Pubkey, atoms types.GlobalAtoms) {
	if g.generation[trader] == 0 {
		g.generation[trader] = 1
	}
	g.deposits[trader] += atoms
}

func (g *fakeGlobal) evict(trader types.Pubkey) {
	g.generation[trader]++
	g.deposits[trader] = 0
	g.exposure[trader] = 0
}

func (g *fakeGlobal) Mint() types.Pubkey { return g.mint }

func (g *fakeGlobal) AddOrder(trader, _ types.Pubkey, exposure types.GlobalAtoms) (uint32, error) {
	if g.deposits[trader] < exposure {
		return 0, errGlobalShort
	}
	g.exposure[trader] += exposure
	return g.generation[trader], nil
}

func (g *fakeGlobal) RemoveOrder(trader, _ types.Pubkey, exposure types.GlobalAtoms, generation uint32) error {
	if generation != g.generation[trader] {
		return nil
	}
	g.exposure[trader] -= exposure
	return nil
}

func (g *fakeGlobal) Available(trader types.Pubkey, generation uint32) types.GlobalAtoms {
	if generation != g.generation[trader] {
		return 0
	}
	return g.deposits[trader]
}

func (g *fakeGlobal) TryConsume(trader, _ types.Pubkey, atoms, exposure types.GlobalAtoms, generation uint32) (bool, error) {
	if generation != g.generation[trader] || g.deposits[trader] < atoms {
		return false, nil
	}
	g.deposits[trader] -= atoms
	g.exposure[trader] -= exposure
	return true, nil
}
