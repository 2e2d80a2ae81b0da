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

// Iterator walks a tree in key order using the parent links, without
// recursion. The next index is computed before the current one is handed
// out, so the current node may be removed between two calls to Next.
type Iterator[T any] struct {
	tree       *RedBlackTree[T]
	current    DataIndex
	next       DataIndex
	descending bool
}

// Ascend iterates from the smallest node.
func (t *RedBlackTree[T]) Ascend() *Iterator[T] {
	return t.IterFrom(t.Min(), false)
}

// Descend iterates from the greatest node.
func (t *RedBlackTree[T]) Descend() *Iterator[T] {
	return t.IterFrom(t.Max(), true)
}

// IterFrom restarts an iteration at index.
func (t *RedBlackTree[T]) IterFrom(index DataIndex, descending bool) *Iterator[T] {
	return &Iterator[T]{
		tree:       t,
		current:    NIL,
		next:       index,
		descending: descending,
	}
}

// Next advances the iterator, returning false once exhausted.
func (it *Iterator[T]) Next() bool {
	it.current = it.next
	if it.current == NIL {
		return false
	}
	if it.descending {
		it.next = it.tree.Predecessor(it.current)
	} else {
		it.next = it.tree.Successor(it.current)
	}
	return true
}

// Index returns the index of the current node.
func (it *Iterator[T]) Index() DataIndex {
	return it.current
}

// Value decodes the current node.
func (it *Iterator[T]) Value() T {
	return it.tree.Get(it.current)
}

// Peek returns the index the next call to Next will move to.
func (it *Iterator[T]) Peek() DataIndex {
	return it.next
}
