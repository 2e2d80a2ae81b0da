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
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrArenaFull signals the arena reached its configured capacity.
	ErrArenaFull = errors.New("arena is full")
	// ErrInvalidBlockSize signals a block size that cannot hold a node header.
	ErrInvalidBlockSize = errors.New("block size must exceed the node header")
)

// Arena is a flat byte region carved into fixed size blocks. Several trees
// can share one arena, each keeping its own root index.
type Arena struct {
	data      []byte
	blockSize uint32
	maxBytes  uint32
	free      *FreeList
}

// NewArena wraps an existing region. data must be a whole number of blocks
// and freeHead the head of the free list threaded through it. A maxBytes of
// zero means the arena may grow up to the addressable limit.
func NewArena(blockSize uint32, data []byte, freeHead DataIndex, maxBytes uint32) (*Arena, error) {
	if blockSize <= NodeHeaderSize {
		return nil, ErrInvalidBlockSize
	}
	if uint32(len(data))%blockSize != 0 {
		return nil, fmt.Errorf("arena of %d bytes is not a multiple of block size %d", len(data), blockSize)
	}
	if maxBytes == 0 {
		maxBytes = math.MaxUint32 - math.MaxUint32%blockSize
	}
	return &Arena{
		data:      data,
		blockSize: blockSize,
		maxBytes:  maxBytes,
		free:      NewFreeList(data, freeHead),
	}, nil
}

// Bytes returns the raw region. The slice is invalidated by the next Expand.
func (a *Arena) Bytes() []byte {
	return a.data
}

func (a *Arena) BytesAllocated() uint32 {
	return uint32(len(a.data))
}

func (a *Arena) BlockSize() uint32 {
	return a.blockSize
}

func (a *Arena) FreeHead() DataIndex {
	return a.free.Head()
}

func (a *Arena) HasFreeBlock() bool {
	return a.free.Head() != NIL
}

// FreeBlocks counts the blocks currently on the free list.
func (a *Arena) FreeBlocks() int {
	return a.free.Len()
}

// Expand grows the region by the given number of whole blocks and pushes
// them on the free list so the lowest new index is handed out first.
func (a *Arena) Expand(blocks uint32) error {
	if blocks == 0 {
		return nil
	}
	grow := uint64(blocks) * uint64(a.blockSize)
	if uint64(len(a.data))+grow > uint64(a.maxBytes) {
		return ErrArenaFull
	}
	start := uint32(len(a.data))
	a.data = append(a.data, make([]byte, grow)...)
	a.free.data = a.data
	for i := int64(blocks) - 1; i >= 0; i-- {
		a.free.Add(start + uint32(i)*a.blockSize)
	}
	return nil
}

// Reserve makes sure at least n blocks can be allocated without touching
// the region again, expanding by the minimum whole block count.
func (a *Arena) Reserve(n int) error {
	missing := n - a.free.Len()
	if missing <= 0 {
		return nil
	}
	return a.Expand(uint32(missing))
}

// Alloc hands out a zeroed block, expanding by one block if the free list
// is empty.
func (a *Arena) Alloc() (DataIndex, error) {
	if a.free.Head() == NIL {
		if err := a.Expand(1); err != nil {
			return NIL, err
		}
	}
	index := a.free.Remove()
	block := a.data[index : index+a.blockSize]
	for i := range block {
		block[i] = 0
	}
	return index, nil
}

// Free returns the block to the free list. Freeing a block twice is a
// programming error.
func (a *Arena) Free(index DataIndex) {
	a.mustBeLive(index)
	block := a.data[index : index+a.blockSize]
	for i := range block {
		block[i] = 0
	}
	a.free.Add(index)
}

// PayloadType reports the payload tag of the block at index, or an error if
// index does not address a block.
func (a *Arena) PayloadType(index DataIndex) (uint8, error) {
	if !a.validIndex(index) {
		return PayloadFree, fmt.Errorf("index %d does not address a block", index)
	}
	return a.data[index+payloadTypeOffset], nil
}

func (a *Arena) validIndex(index DataIndex) bool {
	return index != NIL &&
		index%a.blockSize == 0 &&
		uint64(index)+uint64(a.blockSize) <= uint64(len(a.data))
}

// block returns the bytes of a live block, panicking on NIL, misaligned,
// out of range or freed indices.
func (a *Arena) block(index DataIndex) []byte {
	a.mustBeLive(index)
	return a.data[index : index+a.blockSize]
}

func (a *Arena) mustBeLive(index DataIndex) {
	if !a.validIndex(index) {
		panic(fmt.Sprintf("hypertree: invalid index %d (arena size %d, block size %d)", index, len(a.data), a.blockSize))
	}
	if a.data[index+payloadTypeOffset] == PayloadFree {
		panic(fmt.Sprintf("hypertree: index %d refers to a freed block", index))
	}
}
