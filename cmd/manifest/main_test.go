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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CKS-Systems/manifest-sub000/config"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `
[[fund]]
trader = "alice"
mint = "base"
atoms = 100

[[step]]
slot = 1
op = "create_market"
trader = "alice"
base = "base"
quote = "quote"

[[step]]
slot = 2
op = "claim_seat"
trader = "alice"
base = "base"
quote = "quote"

[[step]]
slot = 3
op = "deposit"
trader = "alice"
base = "base"
quote = "quote"
mint = "base"
atoms = 100
`

func TestInitCmd(t *testing.T) {
	home := t.TempDir()
	cmd := &InitCmd{HomeFlag: config.HomeFlag{Home: home}}
	require.NoError(t, cmd.Execute(nil))

	cfg, err := config.Read(home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "snapshots"), cfg.Snapshot.DBPath)
	assert.DirExists(t, cfg.Snapshot.DBPath)

	assert.Error(t, cmd.Execute(nil))
	cmd.Force = true
	assert.NoError(t, cmd.Execute(nil))
}

func TestReplayCmd(t *testing.T) {
	home := t.TempDir()
	cfg := config.NewDefaultConfig(home)
	cfg.SnapshotInterval = 2
	_, err := config.Write(home, cfg, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "script.toml")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := &ReplayCmd{
		HomeFlag:   config.HomeFlag{Home: home},
		OutputFlag: config.OutputFlag{Output: config.OutputJSON},
		Script:     path,
		ctx:        ctx,
	}
	require.NoError(t, cmd.Execute(nil))

	snapshots, err := snapshot.New(logging.NewTestLogger(), cfg.Snapshot)
	require.NoError(t, err)
	info, err := snapshots.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), info.Slot)
	assert.Equal(t, 1, info.Markets)
	require.NoError(t, snapshots.Close())

	// the saved market lets a later replay start where this one stopped
	restart := `
[[step]]
slot = 4
op = "claim_seat"
trader = "bob"
base = "base"
quote = "quote"
`
	require.NoError(t, os.WriteFile(path, []byte(restart), 0o600))
	cmd.Restore = true
	assert.NoError(t, cmd.Execute(nil))

	surprise := strings.Replace(restart, "slot = 4", "slot = 5", 1) + "expect_error = \"nope\"\n"
	require.NoError(t, os.WriteFile(path, []byte(surprise), 0o600))
	assert.ErrorIs(t, cmd.Execute(nil), ErrReplayFailed)
}
