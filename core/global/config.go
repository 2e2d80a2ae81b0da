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

package global

import (
	"github.com/CKS-Systems/manifest-sub000/config/encoding"
	"github.com/CKS-Systems/manifest-sub000/logging"
)

const namedLogger = "global"

// Config represents the configuration of the global accounts.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	MaxGlobalSeats uint16 `long:"max-global-seats" description:"number of traders a global account can hold before eviction is needed"`
	// GasDepositAtoms is prepaid by the maker of every resting global order
	// and paid out to whoever removes it.
	GasDepositAtoms uint64            `long:"gas-deposit-atoms"`
	MaxDynamicBytes encoding.ByteSize `long:"max-dynamic-bytes"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		MaxGlobalSeats:  999,
		GasDepositAtoms: 5000,
	}
}
