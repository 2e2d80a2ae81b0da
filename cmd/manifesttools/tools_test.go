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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/CKS-Systems/manifest-sub000/broker"
	"github.com/CKS-Systems/manifest-sub000/core/events"
	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/processor"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/core/vault"
	vgcontext "github.com/CKS-Systems/manifest-sub000/libs/context"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseMint  = types.PubkeyFromSeed("base")
	quoteMint = types.PubkeyFromSeed("quote")
	alice     = types.PubkeyFromSeed("alice")
)

// saveBook writes a snapshot at slot 3 of a market with one resting ask.
func saveBook(t *testing.T, dbPath string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logging.NewTestLogger()

	b, err := broker.New(ctx, log, broker.NewDefaultConfig())
	require.NoError(t, err)
	ledger := vault.NewLedger(log)
	proc, err := processor.New(log, processor.NewDefaultConfig(), market.NewDefaultConfig(), global.NewDefaultConfig(), b, ledger)
	require.NoError(t, err)

	at := vgcontext.WithSlot(ctx, 2)
	key, err := proc.CreateMarket(at, alice, processor.CreateMarket{
		BaseMint:      baseMint,
		QuoteMint:     quoteMint,
		BaseDecimals:  9,
		QuoteDecimals: 6,
	})
	require.NoError(t, err)
	require.NoError(t, proc.ClaimSeat(at, alice, key))
	require.NoError(t, ledger.Fund(alice, baseMint, 100))
	require.NoError(t, proc.Deposit(at, processor.Transfer{Market: key, Trader: alice, Mint: baseMint, Atoms: 100}))
	_, err = proc.BatchUpdate(at, processor.BatchUpdate{
		Market: key,
		Trader: alice,
		Orders: []processor.OrderParams{{BaseAtoms: 100, PriceMantissa: 2, OrderType: types.OrderTypeLimit}},
	})
	require.NoError(t, err)

	cfg := snapshot.NewDefaultConfig()
	cfg.DBPath = dbPath
	engine, err := snapshot.New(log, cfg)
	require.NoError(t, err)
	defer engine.Close()
	accounts, err := proc.Accounts()
	require.NoError(t, err)
	_, err = engine.Save(3, accounts)
	require.NoError(t, err)
}

func TestSnapshotTools(t *testing.T) {
	dbPath := t.TempDir()
	saveBook(t, dbPath)

	t.Run("list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, listSnapshots(&buf, dbPath, outputFlagValHuman))
		assert.Contains(t, buf.String(), "Snapshots available: 1")
		assert.Contains(t, buf.String(), "Slot: 3, Markets: 1, Globals: 0")

		buf.Reset()
		require.NoError(t, listSnapshots(&buf, dbPath, outputFlagValJSON))
		var out struct {
			Snapshots []snapshot.Info `json:"snapshots"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Snapshots, 1)
		assert.Equal(t, uint32(3), out.Snapshots[0].Slot)
	})

	t.Run("book", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printBooks(&buf, dbPath, 0, 10, outputFlagValJSON))
		var out struct {
			Slot  uint32 `json:"slot"`
			Books []book `json:"books"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, uint32(3), out.Slot)
		require.Len(t, out.Books, 1)
		assert.Equal(t, 1, out.Books[0].Seats)
		assert.Empty(t, out.Books[0].Bids)
		require.Len(t, out.Books[0].Asks, 1)
		assert.Equal(t, uint64(100), out.Books[0].Asks[0].BaseAtoms)

		buf.Reset()
		require.NoError(t, printBooks(&buf, dbPath, 3, 0, outputFlagValHuman))
		assert.Contains(t, buf.String(), "ASK")

		assert.ErrorIs(t, printBooks(&buf, dbPath, 9, 0, outputFlagValHuman), snapshot.ErrNoSnapshot)
	})

	t.Run("bad output", func(t *testing.T) {
		assert.Error(t, listSnapshots(&bytes.Buffer{}, dbPath, "xml"))
	})
}

func TestEventsTail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	address := "inproc://" + t.Name()
	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- tailEvents(ctx, &buf, tailOpts{
			address: address,
			count:   2,
			types:   []string{"Deposit"},
			output:  outputFlagValHuman,
		})
	}()

	cfg := broker.NewDefaultConfig()
	cfg.Socket.Address = address
	cfg.Socket.SendTimeout.Duration = 50 * time.Millisecond
	sender, err := broker.NewSocketSender(logging.NewTestLogger(), cfg.Socket)
	require.NoError(t, err)
	defer sender.Close()

	evtCtx := vgcontext.WithSlot(ctx, 4)
	key := processor.MarketKey(baseMint, quoteMint)
	var tailErr error
	require.Eventually(t, func() bool {
		_ = sender.Send(events.NewWithdrawEvent(evtCtx, key, alice, baseMint, 1))
		_ = sender.Send(events.NewDepositEvent(evtCtx, key, alice, baseMint, 1))
		select {
		case tailErr = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, tailErr)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Contains(t, l, "Deposit")
	}
}
