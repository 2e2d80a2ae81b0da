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

package snapshot

import (
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestEngine(t *testing.T, keep int) *Engine {
	t.Helper()
	cfg := NewTestConfig()
	cfg.KeepRecent = keep
	e, err := New(logging.NewTestLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func testAccounts(tag string) []Account {
	return []Account{
		{Kind: KindGlobal, Key: types.PubkeyFromSeed("global-" + tag), Data: []byte("global data " + tag)},
		{Kind: KindMarket, Key: types.PubkeyFromSeed("market-b-" + tag), Data: []byte("market b " + tag)},
		{Kind: KindMarket, Key: types.PubkeyFromSeed("market-a-" + tag), Data: []byte("market a " + tag)},
	}
}

func TestEngineConfig(t *testing.T) {
	t.Run("Default configuration is valid", func(t *testing.T) {
		cfg := NewDefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("Invalid configuration fails", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.KeepRecent = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidKeepSize)

		cfg = NewDefaultConfig()
		cfg.Storage = "rocks"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidStorage)

		cfg = NewDefaultConfig()
		cfg.DBPath = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingDBPath)

		cfg = NewTestConfig()
		cfg.DBPath = "somewhere"
		assert.ErrorIs(t, cfg.Validate(), ErrMemoryWithPath)
	})
}

func TestSaveAndLoad(t *testing.T) {
	e := getTestEngine(t, 10)

	_, _, err := e.LoadLatest()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	info, err := e.Save(7, testAccounts("x"))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), info.Slot)
	assert.Equal(t, 2, info.Markets)
	assert.Equal(t, 1, info.Globals)
	assert.Len(t, info.Hash, 64)

	loaded, accounts, err := e.Load(7)
	require.NoError(t, err)
	assert.Equal(t, info, loaded)
	require.Len(t, accounts, 3)

	// globals sort before markets, keys ascending within a kind
	assert.Equal(t, KindGlobal, accounts[0].Kind)
	assert.Equal(t, KindMarket, accounts[1].Kind)
	assert.Negative(t, accounts[1].Key.Compare(accounts[2].Key))
	for _, want := range testAccounts("x") {
		found := false
		for _, got := range accounts {
			if got.Key == want.Key {
				found = true
				assert.Equal(t, want.Data, got.Data)
			}
		}
		assert.True(t, found, "account %s missing", want.Key)
	}

	_, _, err = e.Load(8)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSlotsMustIncrease(t *testing.T) {
	e := getTestEngine(t, 10)
	_, err := e.Save(5, testAccounts("a"))
	require.NoError(t, err)

	_, err = e.Save(5, testAccounts("b"))
	assert.ErrorIs(t, err, ErrSlotNotIncreasing)
	_, err = e.Save(4, testAccounts("b"))
	assert.ErrorIs(t, err, ErrSlotNotIncreasing)

	_, err = e.Save(6, nil)
	require.NoError(t, err)
}

func TestPruning(t *testing.T) {
	e := getTestEngine(t, 3)
	for slot := uint32(1); slot <= 5; slot++ {
		_, err := e.Save(slot, testAccounts(string(rune('a'+slot))))
		require.NoError(t, err)
	}

	infos, err := e.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, uint32(3), infos[0].Slot)
	assert.Equal(t, uint32(5), infos[2].Slot)

	_, _, err = e.Load(2)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	// account images of pruned slots are gone too
	it := e.db.NewIterator(nil, nil)
	defer it.Release()
	count := 0
	for it.Next() {
		count++
	}
	assert.Equal(t, 3*4, count)

	latest, accounts, err := e.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), latest.Slot)
	assert.Len(t, accounts, 3)
}

func TestCorruptionIsDetected(t *testing.T) {
	e := getTestEngine(t, 10)
	accs := testAccounts("c")
	_, err := e.Save(9, accs)
	require.NoError(t, err)

	require.NoError(t, e.db.Put(accountKey(9, KindGlobal, accs[0].Key), []byte("tampered"), nil))
	_, _, err = e.Load(9)
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)

	require.NoError(t, e.db.Delete(accountKey(9, KindGlobal, accs[0].Key), nil))
	_, _, err = e.Load(9)
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}

func TestClosedEngine(t *testing.T) {
	e := getTestEngine(t, 10)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.Save(1, nil)
	assert.ErrorIs(t, err, ErrEngineClosed)
	_, err = e.List()
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestReloadConf(t *testing.T) {
	e := getTestEngine(t, 10)
	cfg := NewTestConfig()
	cfg.KeepRecent = 1
	cfg.Level.Level = logging.DebugLevel
	e.ReloadConf(cfg)

	_, err := e.Save(1, testAccounts("r"))
	require.NoError(t, err)
	_, err = e.Save(2, testAccounts("s"))
	require.NoError(t, err)
	infos, err := e.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, uint32(2), infos[0].Slot)
	assert.Equal(t, logging.DebugLevel, e.log.GetLevel())
}
