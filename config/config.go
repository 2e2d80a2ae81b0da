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

package config

import (
	"os"
	"path/filepath"

	"github.com/CKS-Systems/manifest-sub000/broker"
	"github.com/CKS-Systems/manifest-sub000/core/global"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/processor"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	"github.com/CKS-Systems/manifest-sub000/logging"
	"github.com/CKS-Systems/manifest-sub000/metrics"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config ties together all other application configuration types.
type Config struct {
	Logging   logging.Config   `group:"Logging" namespace:"logging"`
	Market    market.Config    `group:"Market" namespace:"market"`
	Global    global.Config    `group:"Global" namespace:"global"`
	Processor processor.Config `group:"Processor" namespace:"processor"`
	Broker    broker.Config    `group:"Broker" namespace:"broker"`
	Snapshot  snapshot.Config  `group:"Snapshot" namespace:"snapshot"`
	Metrics   metrics.Config   `group:"Metrics" namespace:"metrics"`

	// SnapshotInterval is the number of slots between two snapshots, 0
	// disables them.
	SnapshotInterval uint32 `long:"snapshot-interval" description:"slots between snapshots, 0 disables them"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig(home string) Config {
	snap := snapshot.NewDefaultConfig()
	snap.DBPath = filepath.Join(home, "snapshots")
	return Config{
		Logging:          logging.NewDefaultConfig(),
		Market:           market.NewDefaultConfig(),
		Global:           global.NewDefaultConfig(),
		Processor:        processor.NewDefaultConfig(),
		Broker:           broker.NewDefaultConfig(),
		Snapshot:         snap,
		Metrics:          metrics.NewDefaultConfig(),
		SnapshotInterval: 1000,
	}
}

// Read loads the configuration file of home over the defaults.
func Read(home string) (*Config, error) {
	buf, err := os.ReadFile(filepath.Join(home, configFileName))
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig(home)
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, errors.Wrap(err, "could not decode configuration")
	}
	return &cfg, nil
}

// Write saves cfg as the configuration file of home. An existing file is
// only replaced when overwrite is set.
func Write(home string, cfg Config, overwrite bool) (string, error) {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return "", errors.Wrap(err, "could not create home directory")
	}
	path := filepath.Join(home, configFileName)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return "", errors.Wrap(err, "could not encode configuration")
	}
	return path, nil
}
