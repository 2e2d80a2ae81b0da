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

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CKS-Systems/manifest-sub000/config"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestWriteAndRead(t *testing.T) {
	home := t.TempDir()
	cfg := config.NewDefaultConfig(home)
	cfg.Processor.MaxBatchOrders = 12
	cfg.Global.MaxGlobalSeats = 7

	path, err := config.Write(home, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), path)

	_, err = config.Write(home, cfg, false)
	assert.Error(t, err)
	_, err = config.Write(home, cfg, true)
	require.NoError(t, err)

	read, err := config.Read(home)
	require.NoError(t, err)
	assert.Equal(t, 12, read.Processor.MaxBatchOrders)
	assert.Equal(t, uint16(7), read.Global.MaxGlobalSeats)
	assert.Equal(t, cfg.Snapshot.DBPath, read.Snapshot.DBPath)
	assert.Equal(t, cfg.Broker.Socket.SendTimeout, read.Broker.Socket.SendTimeout)
	assert.Equal(t, cfg.Market.Level, read.Market.Level)
}

func TestReadMissing(t *testing.T) {
	_, err := config.Read(t.TempDir())
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	home := t.TempDir()
	cfg := config.NewDefaultConfig(home)
	_, err := config.Write(home, cfg, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := config.NewWatcher(ctx, logging.NewTestLogger(), home)
	require.NoError(t, err)

	calls := atomic.NewInt32(0)
	w.OnConfigUpdate(func(c config.Config) {
		calls.Inc()
		assert.Equal(t, 3, c.Processor.MaxBatchOrders)
	})

	// nothing changed yet
	w.OnSlotUpdate(ctx, 1)
	assert.Equal(t, int32(0), calls.Load())

	cfg.Processor.MaxBatchOrders = 3
	f, err := os.Create(filepath.Join(home, "config.toml"))
	require.NoError(t, err)
	require.NoError(t, toml.NewEncoder(f).Encode(cfg))
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		return w.Get().Processor.MaxBatchOrders == 3
	}, 5*time.Second, 10*time.Millisecond)
	// the write may surface as more than one event, let them all land
	time.Sleep(100 * time.Millisecond)

	w.OnSlotUpdate(ctx, 2)
	assert.Equal(t, int32(1), calls.Load())
	w.OnSlotUpdate(ctx, 3)
	assert.Equal(t, int32(1), calls.Load())
}
