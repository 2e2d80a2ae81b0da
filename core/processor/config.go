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
	"github.com/CKS-Systems/manifest-sub000/config/encoding"
	"github.com/CKS-Systems/manifest-sub000/logging"
)

const namedLogger = "processor"

// Config represents the configuration of the instruction processor.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// SeatCacheSize bounds the cache of seat indices kept between instructions.
	SeatCacheSize int `long:"seat-cache-size" description:"number of (market, trader) seat indices cached"`
	// MaxBatchOrders caps the cancels plus places of a single batch update.
	MaxBatchOrders int `long:"max-batch-orders"`
	// NativeMint is the token gas deposits of global orders are paid in,
	// either a hex key or a label.
	NativeMint      string        `long:"native-mint" description:"mint used for global order gas deposits"`
	LogInstructions encoding.Bool `long:"log-instructions" description:"log every instruction at info level"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:          encoding.LogLevel{Level: logging.InfoLevel},
		SeatCacheSize:  4096,
		MaxBatchOrders: 64,
		NativeMint:     "native",
	}
}
