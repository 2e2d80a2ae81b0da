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
	"github.com/CKS-Systems/manifest-sub000/config/encoding"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

const (
	namedLogger = "snapshot"
	goLevelDB   = "GOLevelDB"
	memDB       = "memory"
)

var (
	ErrInvalidStorage  = errors.New("invalid snapshot storage method")
	ErrMemoryWithPath  = errors.New("dbpath cannot be set when storage method is in-memory")
	ErrMissingDBPath   = errors.New("dbpath is required for leveldb storage")
	ErrInvalidKeepSize = errors.New("snapshot-keep-recent must be positive")
)

type Config struct {
	Level      encoding.LogLevel `long:"log-level"`
	KeepRecent int               `long:"snapshot-keep-recent" description:"Number of historic snapshots to keep"`
	Storage    string            `long:"storage" choice:"GOLevelDB" choice:"memory" description:"Storage type to use"`
	DBPath     string            `long:"db-path" description:"Path to database"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:      encoding.LogLevel{Level: logging.InfoLevel},
		KeepRecent: 10,
		Storage:    goLevelDB,
		DBPath:     "data/snapshots",
	}
}

func NewTestConfig() Config {
	cfg := NewDefaultConfig()
	cfg.Storage = memDB
	cfg.DBPath = ""
	return cfg
}

// Validate checks the values in the config file are sensible.
func (c *Config) Validate() error {
	if c.KeepRecent <= 0 {
		return ErrInvalidKeepSize
	}
	switch c.Storage {
	case memDB:
		if len(c.DBPath) != 0 {
			return ErrMemoryWithPath
		}
		return nil
	case goLevelDB:
		if len(c.DBPath) == 0 {
			return ErrMissingDBPath
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidStorage, "%q", c.Storage)
	}
}
