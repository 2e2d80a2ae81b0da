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

package broker

import (
	"time"

	"github.com/CKS-Systems/manifest-sub000/config/encoding"
	"github.com/CKS-Systems/manifest-sub000/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level  encoding.LogLevel `long:"log-level"`
	Socket SocketConfig      `group:"Socket" namespace:"socket"`
}

// SocketConfig configures the stream of events to the external indexer.
type SocketConfig struct {
	Enabled     encoding.Bool     `long:"enabled" description:"stream committed events over a push socket"`
	Address     string            `long:"address" description:"address of the indexer, e.g. tcp://127.0.0.1:3005"`
	SendTimeout encoding.Duration `long:"send-timeout" description:"how long a send may block waiting for the indexer"`
	RecvTimeout encoding.Duration `long:"recv-timeout" description:"how often a receiver checks for shutdown while idle"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Socket: SocketConfig{
			Enabled:     false,
			Address:     "tcp://127.0.0.1:3005",
			SendTimeout: encoding.Duration{Duration: time.Second},
			RecvTimeout: encoding.Duration{Duration: 100 * time.Millisecond},
		},
	}
}
