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

package hypertree

import (
	"github.com/pkg/errors"
)

var (
	ErrRootNotBlack     = errors.New("root is not black")
	ErrRedRed           = errors.New("red node has a red child")
	ErrBlackHeight      = errors.New("black height differs between paths")
	ErrBrokenParentLink = errors.New("child does not point back at its parent")
	ErrOutOfOrder       = errors.New("nodes are out of order")
	ErrStaleMax         = errors.New("cached max is not the greatest node")
)

// Verify checks the binary search tree ordering, the red-black properties,
// the parent links and the cached max. It walks with an explicit stack.
func (t *RedBlackTree[T]) Verify() error {
	a := t.arena
	if t.root == NIL {
		if t.max != NIL {
			return ErrStaleMax
		}
		return nil
	}
	if a.parent(t.root) != NIL {
		return ErrBrokenParentLink
	}
	if a.isRed(t.root) {
		return ErrRootNotBlack
	}

	type frame struct {
		index  DataIndex
		blacks int
	}
	leafBlacks := -1
	stack := []frame{{t.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.mustOwn(f.index)

		blacks := f.blacks
		if a.isBlack(f.index) {
			blacks++
		}
		for _, child := range []DataIndex{a.left(f.index), a.right(f.index)} {
			if child == NIL {
				if leafBlacks == -1 {
					leafBlacks = blacks
				} else if leafBlacks != blacks {
					return errors.Wrapf(ErrBlackHeight, "at node %d", f.index)
				}
				continue
			}
			if a.parent(child) != f.index {
				return errors.Wrapf(ErrBrokenParentLink, "node %d", child)
			}
			if a.isRed(f.index) && a.isRed(child) {
				return errors.Wrapf(ErrRedRed, "node %d", f.index)
			}
			stack = append(stack, frame{child, blacks})
		}
	}

	var prev DataIndex = NIL
	for it := t.Ascend(); it.Next(); {
		if prev != NIL {
			pv, cv := t.Get(prev), it.Value()
			if t.codec.Compare(&pv, &cv) > 0 {
				return errors.Wrapf(ErrOutOfOrder, "nodes %d and %d", prev, it.Index())
			}
		}
		prev = it.Index()
	}
	if prev != t.max {
		return ErrStaleMax
	}
	return nil
}
