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

package market

import (
	"encoding/binary"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/types"
)

// Binary layout of a market: a FixedSize header followed by the dynamic
// region of BlockSize blocks shared by the bids, asks and seats trees.
const (
	Discriminant uint64 = 0x4372_6f73_734d_6b74
	Version      uint8  = 1

	FixedSize = 256
	BlockSize = hypertree.NodeHeaderSize + 64

	PayloadSeat uint8 = 1
	PayloadBid  uint8 = 2
	PayloadAsk  uint8 = 3
)

const (
	offDiscriminant   = 0
	offVersion        = 8
	offBaseDecimals   = 9
	offQuoteDecimals  = 10
	offKey            = 16
	offBaseMint       = 48
	offQuoteMint      = 80
	offSequenceNumber = 112
	offBytesAllocated = 120
	offBidsRoot       = 124
	offBidsBest       = 128
	offAsksRoot       = 132
	offAsksBest       = 136
	offSeatsRoot      = 140
	offFreeListHead   = 144
	offQuoteVolume    = 152
)

// Fixed is the header of a market.
type Fixed struct {
	Key                 types.Pubkey
	BaseMint            types.Pubkey
	QuoteMint           types.Pubkey
	BaseDecimals        uint8
	QuoteDecimals       uint8
	OrderSequenceNumber uint64
	NumBytesAllocated   uint32
	BidsRoot            hypertree.DataIndex
	BidsBest            hypertree.DataIndex
	AsksRoot            hypertree.DataIndex
	AsksBest            hypertree.DataIndex
	SeatsRoot           hypertree.DataIndex
	FreeListHead        hypertree.DataIndex
	QuoteVolume         types.QuoteAtoms
}

func (f *Fixed) encode(dst []byte) {
	binary.LittleEndian.PutUint64(dst[offDiscriminant:], Discriminant)
	dst[offVersion] = Version
	dst[offBaseDecimals] = f.BaseDecimals
	dst[offQuoteDecimals] = f.QuoteDecimals
	copy(dst[offKey:], f.Key[:])
	copy(dst[offBaseMint:], f.BaseMint[:])
	copy(dst[offQuoteMint:], f.QuoteMint[:])
	binary.LittleEndian.PutUint64(dst[offSequenceNumber:], f.OrderSequenceNumber)
	binary.LittleEndian.PutUint32(dst[offBytesAllocated:], f.NumBytesAllocated)
	binary.LittleEndian.PutUint32(dst[offBidsRoot:], f.BidsRoot)
	binary.LittleEndian.PutUint32(dst[offBidsBest:], f.BidsBest)
	binary.LittleEndian.PutUint32(dst[offAsksRoot:], f.AsksRoot)
	binary.LittleEndian.PutUint32(dst[offAsksBest:], f.AsksBest)
	binary.LittleEndian.PutUint32(dst[offSeatsRoot:], f.SeatsRoot)
	binary.LittleEndian.PutUint32(dst[offFreeListHead:], f.FreeListHead)
	binary.LittleEndian.PutUint64(dst[offQuoteVolume:], uint64(f.QuoteVolume))
}

func decodeFixed(src []byte) (Fixed, error) {
	var f Fixed
	if len(src) < FixedSize {
		return f, ErrInvalidMarketData
	}
	if binary.LittleEndian.Uint64(src[offDiscriminant:]) != Discriminant || src[offVersion] != Version {
		return f, ErrInvalidMarketData
	}
	f.BaseDecimals = src[offBaseDecimals]
	f.QuoteDecimals = src[offQuoteDecimals]
	copy(f.Key[:], src[offKey:])
	copy(f.BaseMint[:], src[offBaseMint:])
	copy(f.QuoteMint[:], src[offQuoteMint:])
	f.OrderSequenceNumber = binary.LittleEndian.Uint64(src[offSequenceNumber:])
	f.NumBytesAllocated = binary.LittleEndian.Uint32(src[offBytesAllocated:])
	f.BidsRoot = binary.LittleEndian.Uint32(src[offBidsRoot:])
	f.BidsBest = binary.LittleEndian.Uint32(src[offBidsBest:])
	f.AsksRoot = binary.LittleEndian.Uint32(src[offAsksRoot:])
	f.AsksBest = binary.LittleEndian.Uint32(src[offAsksBest:])
	f.SeatsRoot = binary.LittleEndian.Uint32(src[offSeatsRoot:])
	f.FreeListHead = binary.LittleEndian.Uint32(src[offFreeListHead:])
	f.QuoteVolume = types.QuoteAtoms(binary.LittleEndian.Uint64(src[offQuoteVolume:]))
	return f, nil
}

type seatCodec struct{}

func (seatCodec) PayloadType() uint8 { return PayloadSeat }

func (seatCodec) Encode(dst []byte, s *types.ClaimedSeat) { s.Encode(dst) }

func (seatCodec) Decode(src []byte) types.ClaimedSeat { return types.DecodeClaimedSeat(src) }

func (seatCodec) Compare(a, b *types.ClaimedSeat) int { return a.Trader.Compare(b.Trader) }

// orderCodec orders a book side so that its greatest node is the best order:
// the most aggressive effective price, then the lowest sequence number.
type orderCodec struct {
	isBid bool
}

func (c orderCodec) PayloadType() uint8 {
	if c.isBid {
		return PayloadBid
	}
	return PayloadAsk
}

func (orderCodec) Encode(dst []byte, o *types.RestingOrder) { o.Encode(dst) }

func (orderCodec) Decode(src []byte) types.RestingOrder { return types.DecodeRestingOrder(src) }

func (c orderCodec) Compare(a, b *types.RestingOrder) int {
	var cmp int
	if c.isBid {
		cmp = a.EffectivePrice.Cmp(b.EffectivePrice)
	} else {
		cmp = b.EffectivePrice.Cmp(a.EffectivePrice)
	}
	if cmp != 0 {
		return cmp
	}
	switch {
	case a.SequenceNumber < b.SequenceNumber:
		return 1
	case a.SequenceNumber > b.SequenceNumber:
		return -1
	}
	return 0
}
