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

import "encoding/binary"

// Node header layout, little endian:
//
//	0..4   left
//	4..8   right
//	8..12  parent
//	12     color
//	13     payload type
//	14..16 padding
const (
	leftOffset        = 0
	rightOffset       = 4
	parentOffset      = 8
	colorOffset       = 12
	payloadTypeOffset = 13

	// NodeHeaderSize is the number of bytes preceding the payload in a block.
	NodeHeaderSize = 16
)

type color uint8

const (
	black color = 0
	red   color = 1
)

func (a *Arena) initNode(index DataIndex, payloadType uint8) {
	b := a.data[index : index+a.blockSize]
	binary.LittleEndian.PutUint32(b[leftOffset:], NIL)
	binary.LittleEndian.PutUint32(b[rightOffset:], NIL)
	binary.LittleEndian.PutUint32(b[parentOffset:], NIL)
	b[colorOffset] = byte(red)
	b[payloadTypeOffset] = payloadType
}

func (a *Arena) left(i DataIndex) DataIndex {
	return binary.LittleEndian.Uint32(a.block(i)[leftOffset:])
}

func (a *Arena) right(i DataIndex) DataIndex {
	return binary.LittleEndian.Uint32(a.block(i)[rightOffset:])
}

func (a *Arena) parent(i DataIndex) DataIndex {
	return binary.LittleEndian.Uint32(a.block(i)[parentOffset:])
}

func (a *Arena) setLeft(i, v DataIndex) {
	binary.LittleEndian.PutUint32(a.block(i)[leftOffset:], v)
}

func (a *Arena) setRight(i, v DataIndex) {
	binary.LittleEndian.PutUint32(a.block(i)[rightOffset:], v)
}

func (a *Arena) setParent(i, v DataIndex) {
	binary.LittleEndian.PutUint32(a.block(i)[parentOffset:], v)
}

// colorOf treats NIL as black.
func (a *Arena) colorOf(i DataIndex) color {
	if i == NIL {
		return black
	}
	return color(a.block(i)[colorOffset])
}

func (a *Arena) setColor(i DataIndex, c color) {
	if i == NIL {
		return
	}
	a.block(i)[colorOffset] = byte(c)
}

func (a *Arena) isRed(i DataIndex) bool {
	return a.colorOf(i) == red
}

func (a *Arena) isBlack(i DataIndex) bool {
	return a.colorOf(i) == black
}

func (a *Arena) payload(i DataIndex) []byte {
	return a.block(i)[NodeHeaderSize:]
}
