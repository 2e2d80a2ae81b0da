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
	"encoding/binary"
	"math"
)

// DataIndex is the byte offset of a block inside an arena.
type DataIndex = uint32

// NIL is the sentinel index meaning "no node".
const NIL DataIndex = math.MaxUint32

// PayloadFree marks a block that is sitting on the free list.
const PayloadFree uint8 = 0

// FreeList is a LIFO stack of unused blocks threaded through the blocks
// themselves: the first four bytes of a free block hold the next free index.
type FreeList struct {
	data []byte
	head DataIndex
}

func NewFreeList(data []byte, head DataIndex) *FreeList {
	return &FreeList{data: data, head: head}
}

func (f *FreeList) Head() DataIndex {
	return f.head
}

// Add pushes the block at index onto the list.
func (f *FreeList) Add(index DataIndex) {
	binary.LittleEndian.PutUint32(f.data[index:], f.head)
	f.data[index+payloadTypeOffset] = PayloadFree
	f.head = index
}

// Remove pops the most recently freed block, NIL when the list is empty.
func (f *FreeList) Remove() DataIndex {
	if f.head == NIL {
		return NIL
	}
	index := f.head
	f.head = binary.LittleEndian.Uint32(f.data[index:])
	return index
}

// Len walks the list and counts the free blocks.
func (f *FreeList) Len() int {
	n := 0
	for i := f.head; i != NIL; i = binary.LittleEndian.Uint32(f.data[i:]) {
		n++
	}
	return n
}
