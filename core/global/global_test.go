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

package global_test

import (
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mint    = types.PubkeyFromSeed("base")
	marketA = types.PubkeyFromSeed("market-a")
	marketB = types.PubkeyFromSeed("market-b")
	alice   = types.PubkeyFromSeed("alice")
	bob     = types.PubkeyFromSeed("bob")
	carol   = types.PubkeyFromSeed("carol")
)

var _ market.GlobalAccount = (*global.Global)(nil)

func getTestGlobal(t *testing.T, seats uint16) *global.Global {
	t.Helper()
	cfg := global.NewDefaultConfig()
	cfg.MaxGlobalSeats = seats
	g, err := global.New(logging.NewTestLogger(), cfg, mint)
	require.NoError(t, err)
	return g
}

func addFunded(t *testing.T, g *global.Global, trader types.Pubkey, atoms types.GlobalAtoms) {
	t.Helper()
	require.NoError(t, g.AddTrader(trader))
	require.NoError(t, g.Deposit(trader, atoms))
}

func TestAddTrader(t *testing.T) {
	g := getTestGlobal(t, 2)
	require.NoError(t, g.AddTrader(alice))
	require.NoError(t, g.AddTrader(alice))
	assert.Equal(t, 1, g.NumTraders())
	require.NoError(t, g.AddTrader(bob))
	assert.ErrorIs(t, g.AddTrader(carol), global.ErrGlobalFull)

	a, err := g.Trader(alice)
	require.NoError(t, err)
	b, err := g.Trader(bob)
	require.NoError(t, err)
	assert.NotEqual(t, a.Generation, b.Generation)

	_, err = g.Trader(carol)
	assert.ErrorIs(t, err, global.ErrTraderNotFound)
	assert.ErrorIs(t, g.Deposit(carol, 1), global.ErrTraderNotFound)
}

func TestDepositWithdraw(t *testing.T) {
	g := getTestGlobal(t, 10)
	addFunded(t, g, alice, 100)
	assert.Equal(t, types.GlobalAtoms(100), g.TotalBalance())

	_, err := g.AddOrder(alice, marketA, 60)
	require.NoError(t, err)

	assert.ErrorIs(t, g.Withdraw(alice, 41), global.ErrGlobalInsufficient)
	require.NoError(t, g.Withdraw(alice, 40))
	assert.ErrorIs(t, g.Withdraw(alice, 1), global.ErrGlobalInsufficient)
	assert.Equal(t, types.GlobalAtoms(60), g.TotalBalance())
	require.NoError(t, g.Verify())
}

func TestOrders(t *testing.T) {
	g := getTestGlobal(t, 10)
	addFunded(t, g, alice, 10)

	_, err := g.AddOrder(bob, marketA, 1)
	assert.ErrorIs(t, err, global.ErrTraderNotFound)
	_, err = g.AddOrder(alice, marketA, 11)
	assert.ErrorIs(t, err, global.ErrGlobalInsufficient)

	// each order fits on its own, together they commit more than the balance
	gen, err := g.AddOrder(alice, marketA, 8)
	require.NoError(t, err)
	_, err = g.AddOrder(alice, marketB, 8)
	require.NoError(t, err)
	_, err = g.AddOrder(alice, marketA, 2)
	require.NoError(t, err)

	tr, err := g.Trader(alice)
	require.NoError(t, err)
	assert.Equal(t, types.GlobalAtoms(18), tr.Exposure)
	assert.Equal(t, []global.Position{
		{Trader: alice, Market: marketA, Exposure: 10},
		{Trader: alice, Market: marketB, Exposure: 8},
	}, sortedPositions(g.Positions(alice)))

	assert.Equal(t, types.GlobalAtoms(10), g.Available(alice, gen))
	assert.Equal(t, types.GlobalAtoms(0), g.Available(alice, gen+1))

	ok, err := g.TryConsume(alice, marketA, 8, 8, gen)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.GlobalAtoms(2), g.Available(alice, gen))

	// the order on market B can no longer be backed
	ok, err = g.TryConsume(alice, marketB, 8, 8, gen)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, g.RemoveOrder(alice, marketB, 8, gen))
	require.NoError(t, g.RemoveOrder(alice, marketA, 2, gen))

	tr, err = g.Trader(alice)
	require.NoError(t, err)
	assert.Equal(t, types.GlobalAtoms(0), tr.Exposure)
	assert.Empty(t, g.Positions(alice))
	require.NoError(t, g.Verify())

	// a stale generation is ignored
	require.NoError(t, g.RemoveOrder(alice, marketA, 5, gen+1))
}

func sortedPositions(ps []global.Position) []global.Position {
	if len(ps) == 2 && ps[0].Market.Compare(ps[1].Market) > 0 {
		ps[0], ps[1] = ps[1], ps[0]
	}
	return ps
}

func TestEvict(t *testing.T) {
	g := getTestGlobal(t, 2)
	addFunded(t, g, alice, 10)

	_, err := g.Evict(carol, alice, 20)
	assert.ErrorIs(t, err, global.ErrGlobalNotFull)

	addFunded(t, g, bob, 30)
	aliceGen := mustTrader(t, g, alice).Generation
	_, err = g.AddOrder(alice, marketA, 5)
	require.NoError(t, err)

	_, err = g.Evict(carol, alice, 10)
	assert.ErrorIs(t, err, global.ErrEvictionDepositTooSmall)
	_, err = g.Evict(carol, bob, 40)
	assert.ErrorIs(t, err, global.ErrNotLowestBalance)
	_, err = g.Evict(bob, alice, 40)
	assert.ErrorIs(t, err, global.ErrTraderExists)

	returned, err := g.Evict(carol, alice, 11)
	require.NoError(t, err)
	assert.Equal(t, types.GlobalAtoms(10), returned)
	assert.False(t, g.HasTrader(alice))
	assert.Empty(t, g.Positions(alice))
	assert.Equal(t, types.GlobalAtoms(41), g.TotalBalance())
	assert.Equal(t, types.GlobalAtoms(11), mustTrader(t, g, carol).Balance)
	require.NoError(t, g.Verify())

	// alice's old orders fail closed, even if she comes back
	assert.Equal(t, types.GlobalAtoms(0), g.Available(alice, aliceGen))
	_, err = g.Evict(alice, carol, 12)
	require.NoError(t, err)
	addBack := mustTrader(t, g, alice)
	assert.NotEqual(t, aliceGen, addBack.Generation)
	assert.Equal(t, types.GlobalAtoms(0), g.Available(alice, aliceGen))
	ok, err := g.TryConsume(alice, marketA, 1, 1, aliceGen)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, g.RemoveOrder(alice, marketA, 5, aliceGen))
}

func mustTrader(t *testing.T, g *global.Global, trader types.Pubkey) global.Trader {
	t.Helper()
	tr, err := g.Trader(trader)
	require.NoError(t, err)
	return tr
}

func TestGas(t *testing.T) {
	g := getTestGlobal(t, 2)
	charged, err := g.ChargeGas(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(15000), charged)
	assert.Equal(t, uint64(5000), g.ReleaseGas(1))
	assert.Equal(t, uint64(10000), g.ReleaseGas(5))
	assert.Equal(t, uint64(0), g.GasPool())
}

func TestPersistence(t *testing.T) {
	g := getTestGlobal(t, 10)
	addFunded(t, g, alice, 10)
	addFunded(t, g, bob, 20)
	_, err := g.AddOrder(bob, marketB, 7)
	require.NoError(t, err)

	data, err := g.MarshalBinary()
	require.NoError(t, err)
	loaded, err := global.Load(logging.NewTestLogger(), global.NewDefaultConfig(), data)
	require.NoError(t, err)
	require.NoError(t, loaded.Verify())
	assert.Equal(t, g.Traders(), loaded.Traders())
	assert.Equal(t, g.Positions(bob), loaded.Positions(bob))
	assert.Equal(t, g.Fixed(), loaded.Fixed())

	_, err = global.Load(logging.NewTestLogger(), global.NewDefaultConfig(), data[:10])
	assert.ErrorIs(t, err, global.ErrInvalidGlobalData)
}
