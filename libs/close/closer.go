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

package close

import (
	"github.com/CKS-Systems/manifest-sub000/logging"
)

type closeFn struct {
	name string
	fn   func() error
}

// Closer releases the resources of a command when it exits.
type Closer struct {
	log *logging.Logger
	fns []closeFn
}

func NewCloser(log *logging.Logger) *Closer {
	return &Closer{log: log}
}

// Add registers the close function of the resource called name.
func (c *Closer) Add(name string, fn func() error) {
	c.fns = append(c.fns, closeFn{name: name, fn: fn})
}

// CloseAll calls the close functions in reverse order of registration, so a
// resource is closed before those it was built on. Failures are logged and
// do not stop the others; the number of failures is returned.
func (c *Closer) CloseAll() int {
	failed := 0
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i].fn(); err != nil {
			failed++
			c.log.Error("could not close resource",
				logging.String("resource", c.fns[i].name),
				logging.Error(err),
			)
		}
	}
	c.fns = nil
	return failed
}
