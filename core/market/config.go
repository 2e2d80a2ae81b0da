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

package market

import (
	"github.com/CKS-Systems/manifest-sub000/config/encoding"
	"github.com/CKS-Systems/manifest-sub000/logging"
)

const namedLogger = "market"

// Config represents the configuration of the market engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// InitialBlocks is the number of free blocks a new market starts with.
	InitialBlocks uint32 `long:"initial-blocks" description:"free blocks allocated when a market is created"`
	// MaxDynamicBytes caps the dynamic region of a market, 0 means unbounded.
	MaxDynamicBytes encoding.ByteSize `long:"max-dynamic-bytes" description:"upper bound of the dynamic region of a market"`

	LogFillsDebug  encoding.Bool `long:"log-fills-debug"`
	LogPrunedDebug encoding.Bool `long:"log-pruned-debug"`
}

// NewDefaultConfig returns the market configuration used when none is given.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		InitialBlocks: 0,
	}
}
