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
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/processor/mocks"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicIsRolledBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	broker.EXPECT().SendBatch(gomock.Any()).Times(1)
	p, err := New(logging.NewTestLogger(), NewDefaultConfig(), market.NewDefaultConfig(), global.NewDefaultConfig(), broker, mocks.NewMockVault(ctrl))
	require.NoError(t, err)

	ctx := context.Background()
	trader := types.PubkeyFromSeed("trader")
	key, err := p.CreateMarket(ctx, trader, CreateMarket{BaseMint: types.PubkeyFromSeed("b"), QuoteMint: types.PubkeyFromSeed("q")})
	require.NoError(t, err)

	err = p.apply(ctx, "Broken", trader, func(tx *txn) error {
		m, err := p.market(tx, key)
		if err != nil {
			return err
		}
		if _, err := m.ClaimSeat(trader); err != nil {
			return err
		}
		panic("tree corrupted")
	})
	assert.ErrorIs(t, err, ErrInternalFault)

	m, ok := p.Market(key)
	require.True(t, ok)
	assert.Equal(t, hypertree.NIL, m.TraderIndex(trader))
	require.NoError(t, m.Verify())
}

func TestFailedCreateIsForgotten(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, err := New(logging.NewTestLogger(), NewDefaultConfig(), market.NewDefaultConfig(), global.NewDefaultConfig(), mocks.NewMockBroker(ctrl), mocks.NewMockVault(ctrl))
	require.NoError(t, err)

	key := types.PubkeyFromSeed("market")
	err = p.apply(context.Background(), "CreateThenFail", key, func(tx *txn) error {
		m, err := market.New(p.log, p.marketCfg, key, types.PubkeyFromSeed("b"), types.PubkeyFromSeed("q"), 0, 0)
		if err != nil {
			return err
		}
		p.markets.ReplaceOrInsert(marketItem{key: key, m: m})
		tx.markets[key] = nil
		return ErrZeroAmount
	})
	assert.ErrorIs(t, err, ErrZeroAmount)
	_, ok := p.Market(key)
	assert.False(t, ok)
}
