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
	"math"
	"math/bits"

	"github.com/CKS-Systems/manifest-sub000/libs/num"

	"github.com/pkg/errors"
)

const (
	// MinExponent and MaxExponent bound the exponent of a (mantissa, exponent)
	// price. MaxExponent maps onto 10^26 and MinExponent onto 10^0.
	MinExponent int8 = -18
	MaxExponent int8 = 8

	// PriceDecimals is the number of decimal places of the fixed point price.
	PriceDecimals = 18

	// PriceSize is the encoded size of a price.
	PriceSize = 16
)

var d18 = num.Pow10(PriceDecimals)

// Price is a count of quote atoms per base atom, scaled by 10^18 and held in
// 128 bits. All settlement arithmetic on prices is integer arithmetic.
type Price struct {
	hi, lo uint64
}

var (
	PriceZero = Price{}
	// PriceMin is the smallest representable positive price, 10^-18.
	PriceMin = Price{lo: 1}
	// PriceMax is the largest price a (mantissa, exponent) pair can express.
	PriceMax = mustPrice(math.MaxUint32, MaxExponent)
)

func mustPrice(mantissa uint32, exponent int8) Price {
	p, err := PriceFromMantissaExponent(mantissa, exponent)
	if err != nil {
		panic(err)
	}
	return p
}

// PriceFromMantissaExponent builds mantissa * 10^exponent. Zero prices and
// exponents outside [MinExponent, MaxExponent] are rejected.
func PriceFromMantissaExponent(mantissa uint32, exponent int8) (Price, error) {
	if exponent > MaxExponent {
		return PriceZero, errors.Wrapf(ErrExponentTooLarge, "exponent %d > %d", exponent, MaxExponent)
	}
	if exponent < MinExponent {
		return PriceZero, errors.Wrapf(ErrExponentTooSmall, "exponent %d < %d", exponent, MinExponent)
	}
	if mantissa == 0 {
		return PriceZero, ErrZeroPrice
	}
	v := num.Pow10(uint64(int64(exponent) + PriceDecimals))
	v.Mul(v, num.NewUint(uint64(mantissa)))
	return PriceFromUint(v)
}

// PriceFromUint converts a raw 10^18 scaled value.
func PriceFromUint(u *num.Uint) (Price, error) {
	hi, lo, ok := u.Words()
	if !ok {
		return PriceZero, ErrPriceOutOfRange
	}
	return Price{hi: hi, lo: lo}, nil
}

// PriceFromDecimal converts a human readable quote-atoms-per-base-atom price.
// Digits beyond the 18th decimal place are rejected rather than rounded.
func PriceFromDecimal(d num.Decimal) (Price, error) {
	if !d.IsPositive() {
		return PriceZero, ErrZeroPrice
	}
	scaled := d.Shift(PriceDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return PriceZero, errors.Wrapf(ErrPriceOutOfRange, "%s has more than %d decimals", d, PriceDecimals)
	}
	u, overflow := num.UintFromBig(scaled.BigInt())
	if overflow {
		return PriceZero, ErrPriceOutOfRange
	}
	return PriceFromUint(u)
}

// Uint returns the raw 10^18 scaled value.
func (p Price) Uint() *num.Uint {
	return num.UintFromWords(p.hi, p.lo)
}

func (p Price) IsZero() bool {
	return p.hi == 0 && p.lo == 0
}

func (p Price) Cmp(o Price) int {
	switch {
	case p.hi < o.hi:
		return -1
	case p.hi > o.hi:
		return 1
	case p.lo < o.lo:
		return -1
	case p.lo > o.lo:
		return 1
	}
	return 0
}

func (p Price) LT(o Price) bool { return p.Cmp(o) < 0 }
func (p Price) GT(o Price) bool { return p.Cmp(o) > 0 }

// Next is the price one unit of 10^-18 above p.
func (p Price) Next() Price {
	lo, carry := bits.Add64(p.lo, 1, 0)
	return Price{hi: p.hi + carry, lo: lo}
}

// Prev is the price one unit of 10^-18 below p, PriceZero below PriceMin.
func (p Price) Prev() Price {
	if p.IsZero() {
		return PriceZero
	}
	lo, borrow := bits.Sub64(p.lo, 1, 0)
	return Price{hi: p.hi - borrow, lo: lo}
}

// QuoteForBase converts base atoms into quote atoms at this price.
func (p Price) QuoteForBase(base BaseAtoms, roundUp bool) (QuoteAtoms, error) {
	product := num.UintZero().Mul(p.Uint(), num.NewUint(uint64(base)))
	quote := num.UintZero()
	if roundUp {
		quote.DivRoundUp(product, d18)
	} else {
		quote.Div(product, d18)
	}
	if !quote.IsUint64() {
		return 0, errors.Wrapf(ErrPriceOutOfRange, "%s base atoms at %s", base, p)
	}
	return QuoteAtoms(quote.Uint64()), nil
}

// BaseForQuote converts quote atoms into base atoms at this price.
func (p Price) BaseForQuote(quote QuoteAtoms, roundUp bool) (BaseAtoms, error) {
	if p.IsZero() {
		return 0, ErrZeroPrice
	}
	dividend := num.UintZero().Mul(d18, num.NewUint(uint64(quote)))
	base := num.UintZero()
	if roundUp {
		base.DivRoundUp(dividend, p.Uint())
	} else {
		base.Div(dividend, p.Uint())
	}
	if !base.IsUint64() {
		return 0, errors.Wrapf(ErrPriceOutOfRange, "%s quote atoms at %s", quote, p)
	}
	return BaseAtoms(base.Uint64()), nil
}

// MulRational returns p * numerator / denominator. The result must stay
// positive and fit in 128 bits.
func (p Price) MulRational(numerator, denominator uint64, roundUp bool) (Price, error) {
	if denominator == 0 {
		return PriceZero, ErrPriceOutOfRange
	}
	product := num.UintZero().Mul(p.Uint(), num.NewUint(numerator))
	res := num.UintZero()
	if roundUp {
		res.DivRoundUp(product, num.NewUint(denominator))
	} else {
		res.Div(product, num.NewUint(denominator))
	}
	out, err := PriceFromUint(res)
	if err != nil {
		return PriceZero, err
	}
	if out.IsZero() {
		return PriceZero, ErrZeroPrice
	}
	return out, nil
}

// StepToward moves p half the way to target, rounding the step up so that
// repeated steps reach target exactly. The result never passes target.
func (p Price) StepToward(target Price) Price {
	c := p.Cmp(target)
	if c == 0 {
		return p
	}
	two := num.NewUint(2)
	step := num.UintZero()
	out := num.UintZero()
	if c < 0 {
		step.DivRoundUp(num.UintZero().Sub(target.Uint(), p.Uint()), two)
		out.Add(p.Uint(), step)
	} else {
		step.DivRoundUp(num.UintZero().Sub(p.Uint(), target.Uint()), two)
		out.Sub(p.Uint(), step)
	}
	res, _ := PriceFromUint(out)
	return res
}

// Decimal renders the price in quote atoms per base atom. Display only.
func (p Price) Decimal() num.Decimal {
	return p.Uint().ToDecimal(PriceDecimals)
}

// DecimalUnits renders the price in whole quote tokens per whole base token.
func (p Price) DecimalUnits(baseDecimals, quoteDecimals uint8) num.Decimal {
	return p.Decimal().Shift(int32(baseDecimals) - int32(quoteDecimals))
}

func (p Price) String() string {
	return p.Decimal().String()
}

// Encode writes the price as a little endian 128 bit integer.
func (p Price) Encode(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:], p.lo)
	binary.LittleEndian.PutUint64(dst[8:], p.hi)
}

func DecodePrice(src []byte) Price {
	return Price{
		lo: binary.LittleEndian.Uint64(src[0:]),
		hi: binary.LittleEndian.Uint64(src[8:]),
	}
}
