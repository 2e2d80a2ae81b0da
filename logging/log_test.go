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

package logging_test

import (
	"testing"

	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in     string
		expect logging.Level
	}{
		{"debug", logging.DebugLevel},
		{"INFO", logging.InfoLevel},
		{"warning", logging.WarnLevel},
		{"warn", logging.WarnLevel},
		{"error", logging.ErrorLevel},
		{"panic", logging.PanicLevel},
		{"fatal", logging.FatalLevel},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			lvl, err := logging.ParseLevel(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.expect, lvl)
		})
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNamedLoggers(t *testing.T) {
	log := logging.NewTestLogger()
	defer log.AtExit()

	market := log.Named("market")
	assert.Equal(t, "market", market.GetName())

	matching := market.Named("matching")
	assert.Equal(t, "market.matching", matching.GetName())
	assert.Equal(t, "test", matching.GetEnvironment())
}

func TestSetLevel(t *testing.T) {
	log := logging.NewTestLogger()
	assert.Equal(t, logging.ErrorLevel, log.GetLevel())
	assert.False(t, log.IsDebug())

	log.SetLevel(logging.DebugLevel)
	assert.Equal(t, logging.DebugLevel, log.GetLevel())
	assert.True(t, log.IsDebug())

	// clones keep their own level
	c := log.Named("child")
	c.SetLevel(logging.InfoLevel)
	assert.Equal(t, logging.DebugLevel, log.GetLevel())
	assert.Equal(t, logging.InfoLevel, c.GetLevel())
}

func TestWithKeepsName(t *testing.T) {
	log := logging.NewTestLogger().Named("global")
	w := log.With(logging.String("mint", "abc"))
	assert.Equal(t, "global", w.GetName())
}
