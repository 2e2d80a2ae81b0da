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

package global

import (
	"encoding/binary"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/types"
)

const (
	Discriminant uint64 = 0x476c_6f62_616c_4163
	Version      uint8  = 1

	FixedSize = 128
	BlockSize = hypertree.NodeHeaderSize + 80

	PayloadTrader   uint8 = 4
	PayloadPosition uint8 = 5

	traderSize   = 52
	positionSize = 72
)

const (
	offDiscriminant   = 0
	offVersion        = 8
	offMint           = 16
	offBytesAllocated = 48
	offTradersRoot    = 52
	offPositionsRoot  = 56
	offFreeListHead   = 60
	offNumTraders     = 64
	offNextGeneration = 68
	offGasPool        = 72
	offTotalBalance   = 80
)

// Fixed is the header of a global account.
type Fixed struct {
	Mint              types.Pubkey
	NumBytesAllocated uint32
	TradersRoot       hypertree.DataIndex
	PositionsRoot     hypertree.DataIndex
	FreeListHead      hypertree.DataIndex
	NumTraders        uint16
	// NextGeneration is handed to the next trader added, so an evicted
	// trader coming back never revives its old orders.
	NextGeneration uint32
	// GasPool holds the gas deposits of the resting global orders.
	GasPool uint64
	// TotalBalance is the sum of the trader balances, what the vault holds.
	TotalBalance types.GlobalAtoms
}

func (f *Fixed) encode(dst []byte) {
	binary.LittleEndian.PutUint64(dst[offDiscriminant:], Discriminant)
	dst[offVersion] = Version
	copy(dst[offMint:], f.Mint[:])
	binary.LittleEndian.PutUint32(dst[offBytesAllocated:], f.NumBytesAllocated)
	binary.LittleEndian.PutUint32(dst[offTradersRoot:], f.TradersRoot)
	binary.LittleEndian.PutUint32(dst[offPositionsRoot:], f.PositionsRoot)
	binary.LittleEndian.PutUint32(dst[offFreeListHead:], f.FreeListHead)
	binary.LittleEndian.PutUint16(dst[offNumTraders:], f.NumTraders)
	binary.LittleEndian.PutUint32(dst[offNextGeneration:], f.NextGeneration)
	binary.LittleEndian.PutUint64(dst[offGasPool:], f.GasPool)
	binary.LittleEndian.PutUint64(dst[offTotalBalance:], uint64(f.TotalBalance))
}

func decodeFixed(src []byte) (Fixed, error) {
	var f Fixed
	if len(src) < FixedSize ||
		binary.LittleEndian.Uint64(src[offDiscriminant:]) != Discriminant ||
		src[offVersion] != Version {
		return f, ErrInvalidGlobalData
	}
	copy(f.Mint[:], src[offMint:])
	f.NumBytesAllocated = binary.LittleEndian.Uint32(src[offBytesAllocated:])
	f.TradersRoot = binary.LittleEndian.Uint32(src[offTradersRoot:])
	f.PositionsRoot = binary.LittleEndian.Uint32(src[offPositionsRoot:])
	f.FreeListHead = binary.LittleEndian.Uint32(src[offFreeListHead:])
	f.NumTraders = binary.LittleEndian.Uint16(src[offNumTraders:])
	f.NextGeneration = binary.LittleEndian.Uint32(src[offNextGeneration:])
	f.GasPool = binary.LittleEndian.Uint64(src[offGasPool:])
	f.TotalBalance = types.GlobalAtoms(binary.LittleEndian.Uint64(src[offTotalBalance:]))
	return f, nil
}

// Trader is a seat on a global account.
type Trader struct {
	Trader  types.Pubkey
	Balance types.GlobalAtoms
	// Exposure is what the resting global orders of the trader commit,
	// summed over every market.
	Exposure   types.GlobalAtoms
	Generation uint32
}

// Position is the exposure of one trader on one market.
type Position struct {
	Trader   types.Pubkey
	Market   types.Pubkey
	Exposure types.GlobalAtoms
}

type traderCodec struct{}

func (traderCodec) PayloadType() uint8 { return PayloadTrader }

func (traderCodec) Encode(dst []byte, t *Trader) {
	_ = dst[traderSize-1]
	copy(dst[0:], t.Trader[:])
	binary.LittleEndian.PutUint64(dst[32:], uint64(t.Balance))
	binary.LittleEndian.PutUint64(dst[40:], uint64(t.Exposure))
	binary.LittleEndian.PutUint32(dst[48:], t.Generation)
}

func (traderCodec) Decode(src []byte) Trader {
	_ = src[traderSize-1]
	var t Trader
	copy(t.Trader[:], src[0:])
	t.Balance = types.GlobalAtoms(binary.LittleEndian.Uint64(src[32:]))
	t.Exposure = types.GlobalAtoms(binary.LittleEndian.Uint64(src[40:]))
	t.Generation = binary.LittleEndian.Uint32(src[48:])
	return t
}

func (traderCodec) Compare(a, b *Trader) int { return a.Trader.Compare(b.Trader) }

type positionCodec struct{}

func (positionCodec) PayloadType() uint8 { return PayloadPosition }

func (positionCodec) Encode(dst []byte, p *Position) {
	_ = dst[positionSize-1]
	copy(dst[0:], p.Trader[:])
	copy(dst[32:], p.Market[:])
	binary.LittleEndian.PutUint64(dst[64:], uint64(p.Exposure))
}

func (positionCodec) Decode(src []byte) Position {
	_ = src[positionSize-1]
	var p Position
	copy(p.Trader[:], src[0:])
	copy(p.Market[:], src[32:])
	p.Exposure = types.GlobalAtoms(binary.LittleEndian.Uint64(src[64:]))
	return p
}

func (positionCodec) Compare(a, b *Position) int {
	if c := a.Trader.Compare(b.Trader); c != 0 {
		return c
	}
	return a.Market.Compare(b.Market)
}
