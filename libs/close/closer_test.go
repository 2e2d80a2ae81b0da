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

package close_test

import (
	"errors"
	"testing"

	vgclose "github.com/CKS-Systems/manifest-sub000/libs/close"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/stretchr/testify/assert"
)

func TestCloseAll(t *testing.T) {
	c := vgclose.NewCloser(logging.NewTestLogger())
	order := []string{}
	record := func(name string, err error) func() error {
		return func() error {
			order = append(order, name)
			return err
		}
	}
	c.Add("store", record("store", nil))
	c.Add("socket", record("socket", errors.New("already closed")))
	c.Add("server", record("server", nil))

	assert.Equal(t, 1, c.CloseAll())
	assert.Equal(t, []string{"server", "socket", "store"}, order)

	// everything was released, a second call does nothing
	assert.Equal(t, 0, c.CloseAll())
	assert.Len(t, order, 3)
}
