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
	"fmt"
)

// Codec moves values of type T in and out of the payload part of a block
// and orders them.
type Codec[T any] interface {
	// PayloadType tags the blocks of this tree, must not be PayloadFree.
	PayloadType() uint8
	Encode(dst []byte, v *T)
	Decode(src []byte) T
	Compare(a, b *T) int
}

// RedBlackTree is a red-black tree whose nodes live in an Arena. The tree
// itself only holds its root and the cached index of its greatest node,
// both of which the owner persists in its fixed header.
type RedBlackTree[T any] struct {
	arena *Arena
	codec Codec[T]
	root  DataIndex
	max   DataIndex
}

// NewRedBlackTree opens a tree rooted at root. If max is NIL on a non empty
// tree it is recomputed.
func NewRedBlackTree[T any](arena *Arena, codec Codec[T], root, max DataIndex) *RedBlackTree[T] {
	t := &RedBlackTree[T]{
		arena: arena,
		codec: codec,
		root:  root,
		max:   max,
	}
	if t.max == NIL && t.root != NIL {
		t.max = t.maxFrom(t.root)
	}
	return t
}

func (t *RedBlackTree[T]) Root() DataIndex {
	return t.root
}

// Max returns the index of the greatest node, NIL if empty.
func (t *RedBlackTree[T]) Max() DataIndex {
	return t.max
}

// Min returns the index of the smallest node, NIL if empty.
func (t *RedBlackTree[T]) Min() DataIndex {
	if t.root == NIL {
		return NIL
	}
	return t.minFrom(t.root)
}

func (t *RedBlackTree[T]) IsEmpty() bool {
	return t.root == NIL
}

// Get decodes the value stored at index.
func (t *RedBlackTree[T]) Get(index DataIndex) T {
	t.mustOwn(index)
	return t.codec.Decode(t.arena.payload(index))
}

// Update overwrites the value at index. The new value must sort at the same
// position as the old one.
func (t *RedBlackTree[T]) Update(index DataIndex, v T) {
	t.mustOwn(index)
	if prev := t.Predecessor(index); prev != NIL {
		pv := t.Get(prev)
		if t.codec.Compare(&pv, &v) > 0 {
			panic("hypertree: update would break ordering")
		}
	}
	if next := t.Successor(index); next != NIL {
		nv := t.Get(next)
		if t.codec.Compare(&v, &nv) > 0 {
			panic("hypertree: update would break ordering")
		}
	}
	t.codec.Encode(t.arena.payload(index), &v)
}

// Find returns the index of a node comparing equal to v, NIL otherwise.
func (t *RedBlackTree[T]) Find(v T) DataIndex {
	current := t.root
	for current != NIL {
		cv := t.Get(current)
		switch c := t.codec.Compare(&v, &cv); {
		case c == 0:
			return current
		case c < 0:
			current = t.arena.left(current)
		default:
			current = t.arena.right(current)
		}
	}
	return NIL
}

// Insert allocates a block for v, links it and rebalances. Values comparing
// equal to an existing node are placed after it.
func (t *RedBlackTree[T]) Insert(v T) (DataIndex, error) {
	index, err := t.arena.Alloc()
	if err != nil {
		return NIL, err
	}
	t.arena.initNode(index, t.codec.PayloadType())
	t.codec.Encode(t.arena.payload(index), &v)

	parent, current := NIL, t.root
	isLeft := false
	for current != NIL {
		parent = current
		cv := t.Get(current)
		if t.codec.Compare(&v, &cv) < 0 {
			current = t.arena.left(current)
			isLeft = true
		} else {
			current = t.arena.right(current)
			isLeft = false
		}
	}

	t.arena.setParent(index, parent)
	switch {
	case parent == NIL:
		t.root = index
	case isLeft:
		t.arena.setLeft(parent, index)
	default:
		t.arena.setRight(parent, index)
	}

	if t.max == NIL {
		t.max = index
	} else {
		mv := t.Get(t.max)
		if t.codec.Compare(&v, &mv) >= 0 {
			t.max = index
		}
	}

	t.insertFixup(index)
	return index, nil
}

// Remove unlinks the node at index, rebalances and frees its block. Other
// nodes keep their indices.
func (t *RedBlackTree[T]) Remove(index DataIndex) {
	t.mustOwn(index)
	a := t.arena

	if index == t.max {
		t.max = t.Predecessor(index)
	}

	if a.left(index) != NIL && a.right(index) != NIL {
		t.swapWithSuccessor(index)
	}

	// index now has at most one child
	child := a.left(index)
	if child == NIL {
		child = a.right(index)
	}
	parent := a.parent(index)
	t.replaceChild(parent, index, child)
	if child != NIL {
		a.setParent(child, parent)
	}

	if a.isBlack(index) {
		if a.isRed(child) {
			a.setColor(child, black)
		} else {
			t.removeFixup(child, parent)
		}
	}

	a.Free(index)
}

// Successor returns the next greater node, NIL at the end.
func (t *RedBlackTree[T]) Successor(index DataIndex) DataIndex {
	a := t.arena
	if r := a.right(index); r != NIL {
		return t.minFrom(r)
	}
	child, parent := index, a.parent(index)
	for parent != NIL && a.right(parent) == child {
		child, parent = parent, a.parent(parent)
	}
	return parent
}

// Predecessor returns the next smaller node, NIL at the start.
func (t *RedBlackTree[T]) Predecessor(index DataIndex) DataIndex {
	a := t.arena
	if l := a.left(index); l != NIL {
		return t.maxFrom(l)
	}
	child, parent := index, a.parent(index)
	for parent != NIL && a.left(parent) == child {
		child, parent = parent, a.parent(parent)
	}
	return parent
}

// Len counts the nodes of the tree.
func (t *RedBlackTree[T]) Len() int {
	n := 0
	for i := t.Min(); i != NIL; i = t.Successor(i) {
		n++
	}
	return n
}

func (t *RedBlackTree[T]) mustOwn(index DataIndex) {
	pt, err := t.arena.PayloadType(index)
	if err != nil {
		panic(fmt.Sprintf("hypertree: %v", err))
	}
	if pt != t.codec.PayloadType() {
		panic(fmt.Sprintf("hypertree: index %d holds payload type %d, expected %d", index, pt, t.codec.PayloadType()))
	}
}

func (t *RedBlackTree[T]) minFrom(i DataIndex) DataIndex {
	for l := t.arena.left(i); l != NIL; l = t.arena.left(i) {
		i = l
	}
	return i
}

func (t *RedBlackTree[T]) maxFrom(i DataIndex) DataIndex {
	for r := t.arena.right(i); r != NIL; r = t.arena.right(i) {
		i = r
	}
	return i
}

// replaceChild points parent (or the root) at newChild instead of oldChild.
func (t *RedBlackTree[T]) replaceChild(parent, oldChild, newChild DataIndex) {
	switch {
	case parent == NIL:
		t.root = newChild
	case t.arena.left(parent) == oldChild:
		t.arena.setLeft(parent, newChild)
	default:
		t.arena.setRight(parent, newChild)
	}
}

func (t *RedBlackTree[T]) rotateLeft(x DataIndex) {
	a := t.arena
	y := a.right(x)
	yl := a.left(y)
	a.setRight(x, yl)
	if yl != NIL {
		a.setParent(yl, x)
	}
	xp := a.parent(x)
	a.setParent(y, xp)
	t.replaceChild(xp, x, y)
	a.setLeft(y, x)
	a.setParent(x, y)
}

func (t *RedBlackTree[T]) rotateRight(x DataIndex) {
	a := t.arena
	y := a.left(x)
	yr := a.right(y)
	a.setLeft(x, yr)
	if yr != NIL {
		a.setParent(yr, x)
	}
	xp := a.parent(x)
	a.setParent(y, xp)
	t.replaceChild(xp, x, y)
	a.setRight(y, x)
	a.setParent(x, y)
}

func (t *RedBlackTree[T]) insertFixup(z DataIndex) {
	a := t.arena
	for a.isRed(a.parent(z)) {
		p := a.parent(z)
		g := a.parent(p)
		if p == a.left(g) {
			u := a.right(g)
			if a.isRed(u) {
				a.setColor(p, black)
				a.setColor(u, black)
				a.setColor(g, red)
				z = g
				continue
			}
			if z == a.right(p) {
				z = p
				t.rotateLeft(z)
				p = a.parent(z)
			}
			a.setColor(p, black)
			a.setColor(g, red)
			t.rotateRight(g)
		} else {
			u := a.left(g)
			if a.isRed(u) {
				a.setColor(p, black)
				a.setColor(u, black)
				a.setColor(g, red)
				z = g
				continue
			}
			if z == a.left(p) {
				z = p
				t.rotateRight(z)
				p = a.parent(z)
			}
			a.setColor(p, black)
			a.setColor(g, red)
			t.rotateLeft(g)
		}
	}
	a.setColor(t.root, black)
}

// swapWithSuccessor exchanges the tree positions (links and colors) of z and
// its in-order successor y. Payloads stay where they are so every index held
// by a caller keeps pointing at the same value.
func (t *RedBlackTree[T]) swapWithSuccessor(z DataIndex) {
	a := t.arena
	y := t.minFrom(a.right(z))

	zp, zl, zr, zc := a.parent(z), a.left(z), a.right(z), a.colorOf(z)
	yp, yr, yc := a.parent(y), a.right(y), a.colorOf(y)

	t.replaceChild(zp, z, y)
	a.setParent(y, zp)
	a.setLeft(y, zl)
	a.setParent(zl, y)

	if yp == z {
		a.setRight(y, z)
		a.setParent(z, y)
	} else {
		a.setRight(y, zr)
		a.setParent(zr, y)
		a.setLeft(yp, z)
		a.setParent(z, yp)
	}

	a.setLeft(z, NIL)
	a.setRight(z, yr)
	if yr != NIL {
		a.setParent(yr, z)
	}

	a.setColor(y, zc)
	a.setColor(z, yc)
}

// removeFixup restores the black height after a black node was unlinked. x
// may be NIL, so its parent is tracked explicitly.
func (t *RedBlackTree[T]) removeFixup(x, parent DataIndex) {
	a := t.arena
	for x != t.root && a.isBlack(x) {
		if x == a.left(parent) {
			w := a.right(parent)
			if a.isRed(w) {
				a.setColor(w, black)
				a.setColor(parent, red)
				t.rotateLeft(parent)
				w = a.right(parent)
			}
			if a.isBlack(a.left(w)) && a.isBlack(a.right(w)) {
				a.setColor(w, red)
				x = parent
				parent = a.parent(x)
				continue
			}
			if a.isBlack(a.right(w)) {
				a.setColor(a.left(w), black)
				a.setColor(w, red)
				t.rotateRight(w)
				w = a.right(parent)
			}
			a.setColor(w, a.colorOf(parent))
			a.setColor(parent, black)
			a.setColor(a.right(w), black)
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := a.left(parent)
			if a.isRed(w) {
				a.setColor(w, black)
				a.setColor(parent, red)
				t.rotateRight(parent)
				w = a.left(parent)
			}
			if a.isBlack(a.left(w)) && a.isBlack(a.right(w)) {
				a.setColor(w, red)
				x = parent
				parent = a.parent(x)
				continue
			}
			if a.isBlack(a.left(w)) {
				a.setColor(a.right(w), black)
				a.setColor(w, red)
				t.rotateLeft(w)
				w = a.left(parent)
			}
			a.setColor(w, a.colorOf(parent))
			a.setColor(parent, black)
			a.setColor(a.left(w), black)
			t.rotateRight(parent)
			x = t.root
		}
	}
	a.setColor(x, black)
}
