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

package types

import (
	"encoding/binary"
	"fmt"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"

	"github.com/pkg/errors"
)

// NoExpiration is the last valid slot of an order that never expires.
const NoExpiration uint32 = 0

// RestingOrderSize is the encoded size of a RestingOrder.
const RestingOrderSize = 64

type OrderType uint8

const (
	// OrderTypeLimit takes what crosses and rests the remainder.
	OrderTypeLimit OrderType = iota
	// OrderTypeImmediateOrCancel takes what crosses and drops the remainder.
	OrderTypeImmediateOrCancel
	// OrderTypePostOnly rests in full or fails.
	OrderTypePostOnly
	// OrderTypeGlobal is post only and backed by a global account.
	OrderTypeGlobal
	// OrderTypeReversible rests with an effective price widened by its spread
	// that tightens toward the limit price as it fills.
	OrderTypeReversible
	// OrderTypeReversibleTight is reversible with a spread in 1e-8 units.
	OrderTypeReversibleTight
	// OrderTypeFillOrKill fills in full immediately or fails.
	OrderTypeFillOrKill

	orderTypeCount
)

var orderTypeNames = [...]string{
	OrderTypeLimit:             "Limit",
	OrderTypeImmediateOrCancel: "ImmediateOrCancel",
	OrderTypePostOnly:          "PostOnly",
	OrderTypeGlobal:            "Global",
	OrderTypeReversible:        "Reversible",
	OrderTypeReversibleTight:   "ReversibleTight",
	OrderTypeFillOrKill:        "FillOrKill",
}

func (t OrderType) String() string {
	if t >= orderTypeCount {
		return fmt.Sprintf("OrderType(%d)", uint8(t))
	}
	return orderTypeNames[t]
}

// OrderTypeFromString parses the names produced by String.
func OrderTypeFromString(s string) (OrderType, error) {
	for i, name := range orderTypeNames {
		if name == s {
			return OrderType(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidOrderType, "%q", s)
}

func (t OrderType) IsValid() bool {
	return t < orderTypeCount
}

// CanRest reports whether an unfilled remainder goes on the book.
func (t OrderType) CanRest() bool {
	return t != OrderTypeImmediateOrCancel && t != OrderTypeFillOrKill
}

// CanTake reports whether the order may match against the book on entry.
func (t OrderType) CanTake() bool {
	return t != OrderTypePostOnly && t != OrderTypeGlobal
}

func (t OrderType) IsReversible() bool {
	return t == OrderTypeReversible || t == OrderTypeReversibleTight
}

// MaxExponent is the largest price exponent accepted for the order type.
// Reversible orders need headroom to widen their price by the spread.
func (t OrderType) MaxExponent() int8 {
	switch t {
	case OrderTypeReversible:
		return MaxExponent - 5
	case OrderTypeReversibleTight:
		return MaxExponent - 8
	default:
		return MaxExponent
	}
}

// SpreadDenominator is the unit of the spread of a reversible order.
func (t OrderType) SpreadDenominator() uint64 {
	if t == OrderTypeReversibleTight {
		return 100_000_000
	}
	return 100_000
}

// PriceForOrder converts a (mantissa, exponent) pair for an order of type t.
func PriceForOrder(mantissa uint32, exponent int8, t OrderType) (Price, error) {
	if exponent > t.MaxExponent() {
		return PriceZero, errors.Wrapf(ErrExponentTooLarge, "exponent %d > %d for %s", exponent, t.MaxExponent(), t)
	}
	return PriceFromMantissaExponent(mantissa, exponent)
}

// RestingOrder is an order sitting in one side of a book.
type RestingOrder struct {
	// Price is the limit price. Reserves are computed from it.
	Price Price
	// EffectivePrice is the price the order sorts and matches at.
	EffectivePrice Price
	NumBaseAtoms   BaseAtoms
	SequenceNumber uint64
	TraderIndex    hypertree.DataIndex
	LastValidSlot  uint32
	IsBid          bool
	OrderType      OrderType
	// Spread of a reversible order in units of OrderType.SpreadDenominator.
	Spread uint16
	// GlobalGeneration ties a global order to the global trader entry that
	// backs it. Zero for local orders.
	GlobalGeneration uint32
}

// IsExpired reports whether the order lapsed before slot.
func (o *RestingOrder) IsExpired(slot uint32) bool {
	return o.LastValidSlot != NoExpiration && o.LastValidSlot < slot
}

func (o *RestingOrder) IsGlobal() bool {
	return o.OrderType == OrderTypeGlobal
}

// Reserved returns the atoms withheld from the owner's seat while the order
// rests: quote for bids, rounded up, and base for asks. Global orders
// reserve nothing on the market.
func (o *RestingOrder) Reserved() (BaseAtoms, QuoteAtoms, error) {
	if o.IsGlobal() {
		return 0, 0, nil
	}
	if o.IsBid {
		q, err := o.Price.QuoteForBase(o.NumBaseAtoms, true)
		return 0, q, err
	}
	return o.NumBaseAtoms, 0, nil
}

// InitialEffectivePrice widens price by spread for reversible orders: bids
// sort at price*(1-s), asks at price/(1-s). Other order types match at their
// limit price.
func InitialEffectivePrice(price Price, isBid bool, t OrderType, spread uint16) (Price, error) {
	if !t.IsReversible() || spread == 0 {
		return price, nil
	}
	den := t.SpreadDenominator()
	if uint64(spread) >= den {
		return PriceZero, errors.Wrapf(ErrPriceOutOfRange, "spread %d", spread)
	}
	if isBid {
		return price.MulRational(den-uint64(spread), den, false)
	}
	return price.MulRational(den, den-uint64(spread), true)
}

// Tighten moves the effective price of a reversible order half way toward
// its limit price. It never goes past the limit and, when bounded, never past
// bound: the best price the order can take without crossing the other side
// of the book.
func (o *RestingOrder) Tighten(bound Price, bounded bool) {
	if !o.OrderType.IsReversible() {
		return
	}
	target := o.Price
	if bounded && (o.IsBid && bound.LT(target) || !o.IsBid && bound.GT(target)) {
		target = bound
	}
	// the effective price only ever moves toward the limit
	if o.IsBid && target.LT(o.EffectivePrice) || !o.IsBid && target.GT(o.EffectivePrice) {
		return
	}
	o.EffectivePrice = o.EffectivePrice.StepToward(target)
}

// Encode writes the order into a payload of at least RestingOrderSize bytes.
func (o *RestingOrder) Encode(dst []byte) {
	_ = dst[RestingOrderSize-1]
	o.Price.Encode(dst[0:])
	o.EffectivePrice.Encode(dst[16:])
	binary.LittleEndian.PutUint64(dst[32:], uint64(o.NumBaseAtoms))
	binary.LittleEndian.PutUint64(dst[40:], o.SequenceNumber)
	binary.LittleEndian.PutUint32(dst[48:], o.TraderIndex)
	binary.LittleEndian.PutUint32(dst[52:], o.LastValidSlot)
	dst[56] = boolByte(o.IsBid)
	dst[57] = byte(o.OrderType)
	binary.LittleEndian.PutUint16(dst[58:], o.Spread)
	binary.LittleEndian.PutUint32(dst[60:], o.GlobalGeneration)
}

func DecodeRestingOrder(src []byte) RestingOrder {
	_ = src[RestingOrderSize-1]
	return RestingOrder{
		Price:            DecodePrice(src[0:]),
		EffectivePrice:   DecodePrice(src[16:]),
		NumBaseAtoms:     BaseAtoms(binary.LittleEndian.Uint64(src[32:])),
		SequenceNumber:   binary.LittleEndian.Uint64(src[40:]),
		TraderIndex:      binary.LittleEndian.Uint32(src[48:]),
		LastValidSlot:    binary.LittleEndian.Uint32(src[52:]),
		IsBid:            src[56] == 1,
		OrderType:        OrderType(src[57]),
		Spread:           binary.LittleEndian.Uint16(src[58:]),
		GlobalGeneration: binary.LittleEndian.Uint32(src[60:]),
	}
}

func (o RestingOrder) String() string {
	side := "ask"
	if o.IsBid {
		side = "bid"
	}
	return fmt.Sprintf("%s %s@%s seq=%d trader=%d type=%s", side, o.NumBaseAtoms, o.EffectivePrice, o.SequenceNumber, o.TraderIndex, o.OrderType)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
