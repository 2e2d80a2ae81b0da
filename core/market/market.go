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
	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

// Market is an order book for one base/quote pair together with the seats of
// the traders using it. All of its state lives in a fixed header and a single
// arena so that it can be persisted and restored byte for byte.
//
// A Market is not safe for concurrent use. Callers hold it exclusively for
// the duration of an instruction.
type Market struct {
	log *logging.Logger
	cfg Config

	fixed Fixed
	arena *hypertree.Arena
	bids  *hypertree.RedBlackTree[types.RestingOrder]
	asks  *hypertree.RedBlackTree[types.RestingOrder]
	seats *hypertree.RedBlackTree[types.ClaimedSeat]
}

// New creates an empty market.
func New(
	log *logging.Logger,
	cfg Config,
	key, baseMint, quoteMint types.Pubkey,
	baseDecimals, quoteDecimals uint8,
) (*Market, error) {
	if baseMint == quoteMint {
		return nil, ErrSameMint
	}
	m := newMarket(log, cfg)
	m.fixed = Fixed{
		Key:           key,
		BaseMint:      baseMint,
		QuoteMint:     quoteMint,
		BaseDecimals:  baseDecimals,
		QuoteDecimals: quoteDecimals,
		BidsRoot:      hypertree.NIL,
		BidsBest:      hypertree.NIL,
		AsksRoot:      hypertree.NIL,
		AsksBest:      hypertree.NIL,
		SeatsRoot:     hypertree.NIL,
		FreeListHead:  hypertree.NIL,
	}
	if err := m.open(nil); err != nil {
		return nil, err
	}
	if err := m.arena.Expand(cfg.InitialBlocks); err != nil {
		return nil, errors.Wrap(err, "allocating initial blocks")
	}
	return m, nil
}

// Load restores a market from the bytes produced by MarshalBinary.
func Load(log *logging.Logger, cfg Config, data []byte) (*Market, error) {
	m := newMarket(log, cfg)
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

func newMarket(log *logging.Logger, cfg Config) *Market {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Market{
		log: log,
		cfg: cfg,
	}
}

// open builds the arena and the trees from the header and dynamic bytes.
func (m *Market) open(dynamic []byte) error {
	arena, err := hypertree.NewArena(BlockSize, dynamic, m.fixed.FreeListHead, m.cfg.MaxDynamicBytes.Get())
	if err != nil {
		return errors.Wrap(ErrInvalidMarketData, err.Error())
	}
	m.arena = arena
	m.bids = hypertree.NewRedBlackTree[types.RestingOrder](arena, orderCodec{isBid: true}, m.fixed.BidsRoot, m.fixed.BidsBest)
	m.asks = hypertree.NewRedBlackTree[types.RestingOrder](arena, orderCodec{isBid: false}, m.fixed.AsksRoot, m.fixed.AsksBest)
	m.seats = hypertree.NewRedBlackTree[types.ClaimedSeat](arena, seatCodec{}, m.fixed.SeatsRoot, hypertree.NIL)
	return nil
}

// ReloadConf updates the internal configuration of the market.
func (m *Market) ReloadConf(cfg Config) {
	m.log.Info("reloading configuration")
	if m.log.GetLevel() != cfg.Level.Get() {
		m.log.Info("updating log level",
			logging.String("old", m.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		m.log.SetLevel(cfg.Level.Get())
	}
	m.cfg = cfg
}

// Fixed returns a copy of the header, current as of the last mutation.
func (m *Market) Fixed() Fixed {
	m.syncFixed()
	return m.fixed
}

func (m *Market) Key() types.Pubkey       { return m.fixed.Key }
func (m *Market) BaseMint() types.Pubkey  { return m.fixed.BaseMint }
func (m *Market) QuoteMint() types.Pubkey { return m.fixed.QuoteMint }
func (m *Market) BaseDecimals() uint8     { return m.fixed.BaseDecimals }
func (m *Market) QuoteDecimals() uint8    { return m.fixed.QuoteDecimals }

// SequenceNumber is the sequence number the next order will get.
func (m *Market) SequenceNumber() uint64 {
	return m.fixed.OrderSequenceNumber
}

// QuoteVolume is the quote traded on the market, modulo 2^64.
func (m *Market) QuoteVolume() types.QuoteAtoms {
	return m.fixed.QuoteVolume
}

func (m *Market) BytesAllocated() uint32 {
	return m.arena.BytesAllocated()
}

func (m *Market) HasFreeBlock() bool {
	return m.arena.HasFreeBlock()
}

func (m *Market) FreeBlocks() int {
	return m.arena.FreeBlocks()
}

// Expand adds blocks to the free list of the market.
func (m *Market) Expand(blocks uint32) error {
	if err := m.arena.Expand(blocks); err != nil {
		return err
	}
	m.syncFixed()
	return nil
}

// Reserve makes sure n blocks can be allocated, growing by the minimum
// number of whole blocks.
func (m *Market) Reserve(n int) error {
	return m.arena.Reserve(n)
}

func (m *Market) syncFixed() {
	m.fixed.BidsRoot = m.bids.Root()
	m.fixed.BidsBest = m.bids.Max()
	m.fixed.AsksRoot = m.asks.Root()
	m.fixed.AsksBest = m.asks.Max()
	m.fixed.SeatsRoot = m.seats.Root()
	m.fixed.FreeListHead = m.arena.FreeHead()
	m.fixed.NumBytesAllocated = m.arena.BytesAllocated()
}

// MarshalBinary encodes the header followed by a copy of the dynamic region.
func (m *Market) MarshalBinary() ([]byte, error) {
	m.syncFixed()
	dynamic := m.arena.Bytes()
	out := make([]byte, FixedSize+len(dynamic))
	m.fixed.encode(out)
	copy(out[FixedSize:], dynamic)
	return out, nil
}

// UnmarshalBinary replaces the state of the market with data.
func (m *Market) UnmarshalBinary(data []byte) error {
	fixed, err := decodeFixed(data)
	if err != nil {
		return err
	}
	dynamic := data[FixedSize:]
	if uint32(len(dynamic)) != fixed.NumBytesAllocated {
		return errors.Wrapf(ErrInvalidMarketData, "dynamic region is %d bytes, header says %d", len(dynamic), fixed.NumBytesAllocated)
	}
	prev := m.fixed
	m.fixed = fixed
	if err := m.open(append([]byte(nil), dynamic...)); err != nil {
		m.fixed = prev
		return err
	}
	return nil
}

// Verify checks the invariants of the three trees.
func (m *Market) Verify() error {
	if err := m.bids.Verify(); err != nil {
		return errors.Wrap(err, "bids")
	}
	if err := m.asks.Verify(); err != nil {
		return errors.Wrap(err, "asks")
	}
	if err := m.seats.Verify(); err != nil {
		return errors.Wrap(err, "seats")
	}
	return nil
}

func (m *Market) side(isBid bool) *hypertree.RedBlackTree[types.RestingOrder] {
	if isBid {
		return m.bids
	}
	return m.asks
}
