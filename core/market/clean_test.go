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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanGlobalOrder(t *testing.T) {
	t.Run("backed live orders stay", testCleanStillValid)
	t.Run("underbacked orders are removed", testCleanUnderBacked)
	t.Run("expired orders are removed", testCleanExpired)
	t.Run("local and unknown orders", testCleanRejects)
}

func testCleanStillValid(t *testing.T) {
	tm := getTestMarket(t)
	gb := newFakeGlobal(baseMint)
	placeGlobalAsk(t, tm, gb, 10)
	o := tm.Orders(false)[0]

	_, _, err := tm.CleanGlobalOrder(o.SequenceNumber, hypertree.NIL, 0, market.GlobalAccounts{Base: gb})
	assert.ErrorIs(t, err, market.ErrOrderStillValid)
	_, _, err = tm.CleanGlobalOrder(o.SequenceNumber, hypertree.NIL, 0, market.GlobalAccounts{})
	assert.ErrorIs(t, err, market.ErrMissingGlobal)
	assert.Len(t, tm.Orders(false), 1)
}

func testCleanUnderBacked(t *testing.T) {
	tm := getTestMarket(t)
	gb := newFakeGlobal(baseMint)
	_, trader := placeGlobalAsk(t, tm, gb, 10)
	resting := tm.Orders(false)[0]
	// another market consumed part of the deposit
	gb.deposits[trader] = 6

	o, owner, err := tm.CleanGlobalOrder(resting.SequenceNumber, hypertree.NIL, 0, market.GlobalAccounts{Base: gb})
	require.NoError(t, err)
	assert.Equal(t, trader, owner)
	assert.Equal(t, resting.SequenceNumber, o.SequenceNumber)
	assert.Empty(t, tm.Orders(false))
	assert.Equal(t, types.GlobalAtoms(0), gb.exposure[trader])
	require.NoError(t, tm.Verify())
}

func testCleanExpired(t *testing.T) {
	tm := getTestMarket(t)
	gq := newFakeGlobal(quoteMint)
	trader := types.PubkeyFromSeed("global-bidder")
	idx := tm.seat("global-bidder", 0, 0)
	gq.deposit(trader, 100)

	args := limit(idx, true, 5, price(t, 2, 0))
	args.OrderType = types.OrderTypeGlobal
	args.LastValidSlot = 5
	args.CurrentSlot = 1
	args.Globals = market.GlobalAccounts{Quote: gq}
	res := tm.place(args)
	assert.Equal(t, types.GlobalAtoms(10), gq.exposure[trader])

	globals := market.GlobalAccounts{Quote: gq}
	_, _, err := tm.CleanGlobalOrder(res.SequenceNumber, res.OrderIndex, 5, globals)
	assert.ErrorIs(t, err, market.ErrOrderStillValid)

	_, owner, err := tm.CleanGlobalOrder(res.SequenceNumber, res.OrderIndex, 6, globals)
	require.NoError(t, err)
	assert.Equal(t, trader, owner)
	assert.Empty(t, tm.Orders(true))
	assert.Equal(t, types.GlobalAtoms(0), gq.exposure[trader])
	assert.Equal(t, types.GlobalAtoms(100), gq.deposits[trader])
}

func testCleanRejects(t *testing.T) {
	tm := getTestMarket(t)
	maker := tm.seat("maker", 5, 0)
	res := tm.place(limit(maker, false, 5, price(t, 2, 0)))

	_, _, err := tm.CleanGlobalOrder(res.SequenceNumber, res.OrderIndex, 0, market.GlobalAccounts{})
	assert.ErrorIs(t, err, market.ErrNotGlobalOrder)
	_, _, err = tm.CleanGlobalOrder(res.SequenceNumber+10, hypertree.NIL, 0, market.GlobalAccounts{})
	assert.ErrorIs(t, err, market.ErrOrderNotFound)
	_, _, err = tm.CleanGlobalOrder(res.SequenceNumber, res.OrderIndex, 0, market.GlobalAccounts{Base: newFakeGlobal(quoteMint)})
	assert.ErrorIs(t, err, market.ErrWrongGlobalMint)
}
