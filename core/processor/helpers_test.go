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

package processor_test

import (
	"context"
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/events"
	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/processor"
	"github.com/CKS-Systems/manifest-sub000/core/processor/mocks"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/core/vault"
	vgcontext "github.com/CKS-Systems/manifest-sub000/libs/context"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var (
	baseMint  = types.PubkeyFromSeed("base")
	quoteMint = types.PubkeyFromSeed("quote")
	alice     = types.PubkeyFromSeed("alice")
	bob       = types.PubkeyFromSeed("bob")
	carol     = types.PubkeyFromSeed("carol")
)

type testProcessor struct {
	*processor.Processor
	t      *testing.T
	ledger *vault.Ledger
	events []events.Event
	market types.Pubkey
}

func getTestProcessor(t *testing.T) *testProcessor {
	t.Helper()
	return getTestProcessorWithGlobalConfig(t, global.NewDefaultConfig())
}

func getTestProcessorWithGlobalConfig(t *testing.T, globalCfg global.Config) *testProcessor {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	log := logging.NewTestLogger()

	tp := &testProcessor{
		t:      t,
		ledger: vault.NewLedger(log),
	}
	broker.EXPECT().SendBatch(gomock.Any()).AnyTimes().Do(func(evts []events.Event) {
		tp.events = append(tp.events, evts...)
	})

	p, err := processor.New(log, processor.NewDefaultConfig(), market.NewDefaultConfig(), globalCfg, broker, tp.ledger)
	require.NoError(t, err)
	tp.Processor = p

	tp.market, err = p.CreateMarket(atSlot(1), alice, processor.CreateMarket{
		BaseMint:      baseMint,
		QuoteMint:     quoteMint,
		BaseDecimals:  9,
		QuoteDecimals: 6,
	})
	require.NoError(t, err)
	return tp
}

func atSlot(slot uint32) context.Context {
	return vgcontext.WithSlot(context.Background(), slot)
}

// funded gives trader a seat holding base and quote, taken from a wallet
// funded for the purpose.
func (tp *testProcessor) funded(trader types.Pubkey, base, quote uint64) {
	tp.t.Helper()
	require.NoError(tp.t, tp.ClaimSeat(atSlot(1), trader, tp.market))
	if base > 0 {
		require.NoError(tp.t, tp.ledger.Fund(trader, baseMint, base))
		require.NoError(tp.t, tp.Deposit(atSlot(1), processor.Transfer{Market: tp.market, Trader: trader, Mint: baseMint, Atoms: base}))
	}
	if quote > 0 {
		require.NoError(tp.t, tp.ledger.Fund(trader, quoteMint, quote))
		require.NoError(tp.t, tp.Deposit(atSlot(1), processor.Transfer{Market: tp.market, Trader: trader, Mint: quoteMint, Atoms: quote}))
	}
}

func (tp *testProcessor) seat(trader types.Pubkey) types.ClaimedSeat {
	tp.t.Helper()
	m, ok := tp.Market(tp.market)
	require.True(tp.t, ok)
	seat, err := m.Seat(m.TraderIndex(trader))
	require.NoError(tp.t, err)
	return seat
}

func (tp *testProcessor) orders(isBid bool) []types.RestingOrder {
	m, ok := tp.Market(tp.market)
	require.True(tp.t, ok)
	return m.Orders(isBid)
}

func (tp *testProcessor) place(slot uint32, trader types.Pubkey, orders ...processor.OrderParams) (*processor.BatchUpdateResult, error) {
	return tp.BatchUpdate(atSlot(slot), processor.BatchUpdate{
		Market: tp.market,
		Trader: trader,
		Orders: orders,
	})
}

func limit(isBid bool, base uint64, price uint32, t types.OrderType) processor.OrderParams {
	return processor.OrderParams{
		BaseAtoms:     base,
		PriceMantissa: price,
		IsBid:         isBid,
		OrderType:     t,
	}
}

func (tp *testProcessor) eventTypes() []events.Type {
	out := make([]events.Type, 0, len(tp.events))
	for _, e := range tp.events {
		out = append(out, e.Type())
	}
	return out
}

func (tp *testProcessor) reset() {
	tp.events = nil
}
