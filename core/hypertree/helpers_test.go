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

package hypertree_test

import (
	"encoding/binary"
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"

	"github.com/stretchr/testify/require"
)

const testBlockSize = 32

type entry struct {
	key uint64
	id  uint64
}

type entryCodec struct{}

func (entryCodec) PayloadType() uint8 { return 7 }

func (entryCodec) Encode(dst []byte, v *entry) {
	binary.LittleEndian.PutUint64(dst[0:], v.key)
	binary.LittleEndian.PutUint64(dst[8:], v.id)
}

func (entryCodec) Decode(src []byte) entry {
	return entry{
		key: binary.LittleEndian.Uint64(src[0:]),
		id:  binary.LittleEndian.Uint64(src[8:]),
	}
}

func (entryCodec) Compare(a, b *entry) int {
	switch {
	case a.key < b.key:
		return -1
	case a.key > b.key:
		return 1
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	}
	return 0
}

type otherCodec struct{ entryCodec }

func (otherCodec) PayloadType() uint8 { return 9 }

func newTestTree(t *testing.T) (*hypertree.Arena, *hypertree.RedBlackTree[entry]) {
	t.Helper()
	arena, err := hypertree.NewArena(testBlockSize, nil, hypertree.NIL, 0)
	require.NoError(t, err)
	return arena, hypertree.NewRedBlackTree[entry](arena, entryCodec{}, hypertree.NIL, hypertree.NIL)
}

func keys(tree *hypertree.RedBlackTree[entry], descending bool) []uint64 {
	it := tree.Ascend()
	if descending {
		it = tree.Descend()
	}
	out := []uint64{}
	for it.Next() {
		out = append(out, it.Value().key)
	}
	return out
}
