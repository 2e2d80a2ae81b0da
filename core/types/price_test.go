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

package types_test

import (
	"math"
	"testing"

	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrice(t *testing.T, mantissa uint32, exponent int8) types.Price {
	t.Helper()
	p, err := types.PriceFromMantissaExponent(mantissa, exponent)
	require.NoError(t, err)
	return p
}

func rawPrice(t *testing.T, s string) types.Price {
	t.Helper()
	u, overflow := num.UintFromString(s, 10)
	require.False(t, overflow)
	p, err := types.PriceFromUint(u)
	require.NoError(t, err)
	return p
}

func TestPriceFromMantissaExponent(t *testing.T) {
	cases := []struct {
		name     string
		mantissa uint32
		exponent int8
		raw      string
		err      error
	}{
		{name: "unit", mantissa: 1, exponent: 0, raw: "1000000000000000000"},
		{name: "largest exponent", mantissa: 1, exponent: types.MaxExponent, raw: "100000000000000000000000000"},
		{name: "largest price", mantissa: math.MaxUint32, exponent: types.MaxExponent, raw: "429496729500000000000000000000000000"},
		{name: "smallest exponent", mantissa: 1, exponent: types.MinExponent, raw: "1"},
		{name: "fraction", mantissa: 25, exponent: -1, raw: "2500000000000000000"},
		{name: "exponent above range", mantissa: 1, exponent: types.MaxExponent + 1, err: types.ErrExponentTooLarge},
		{name: "exponent below range", mantissa: 1, exponent: types.MinExponent - 1, err: types.ErrExponentTooSmall},
		{name: "zero", mantissa: 0, exponent: 0, err: types.ErrZeroPrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := types.PriceFromMantissaExponent(tc.mantissa, tc.exponent)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.raw, p.Uint().String())
		})
	}
}

func TestPriceForOrderType(t *testing.T) {
	_, err := types.PriceForOrder(1, types.MaxExponent, types.OrderTypeLimit)
	assert.NoError(t, err)

	_, err = types.PriceForOrder(1, types.MaxExponent-4, types.OrderTypeReversible)
	assert.ErrorIs(t, err, types.ErrExponentTooLarge)
	_, err = types.PriceForOrder(1, types.MaxExponent-5, types.OrderTypeReversible)
	assert.NoError(t, err)

	_, err = types.PriceForOrder(1, types.MaxExponent-7, types.OrderTypeReversibleTight)
	assert.ErrorIs(t, err, types.ErrExponentTooLarge)
}

func TestQuoteForBase(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		q, err := mustPrice(t, 2, 0).QuoteForBase(5, false)
		require.NoError(t, err)
		assert.Equal(t, types.QuoteAtoms(10), q)
	})

	t.Run("rounding direction", func(t *testing.T) {
		p := rawPrice(t, "99999999999999999999") // 100 - 1e-18
		up, err := p.QuoteForBase(5, true)
		require.NoError(t, err)
		down, err := p.QuoteForBase(5, false)
		require.NoError(t, err)
		assert.Equal(t, types.QuoteAtoms(500), up)
		assert.Equal(t, types.QuoteAtoms(499), down)
	})

	t.Run("result above 64 bits", func(t *testing.T) {
		_, err := types.PriceMax.QuoteForBase(math.MaxUint64-1, false)
		assert.ErrorIs(t, err, types.ErrPriceOutOfRange)
	})
}

func TestBaseForQuote(t *testing.T) {
	t.Run("rounding direction", func(t *testing.T) {
		p := mustPrice(t, 3, 0)
		up, err := p.BaseForQuote(10, true)
		require.NoError(t, err)
		down, err := p.BaseForQuote(10, false)
		require.NoError(t, err)
		assert.Equal(t, types.BaseAtoms(4), up)
		assert.Equal(t, types.BaseAtoms(3), down)
	})

	t.Run("result above 64 bits", func(t *testing.T) {
		_, err := types.PriceMin.BaseForQuote(math.MaxUint64, false)
		assert.ErrorIs(t, err, types.ErrPriceOutOfRange)
	})

	t.Run("zero price", func(t *testing.T) {
		_, err := types.PriceZero.BaseForQuote(1, false)
		assert.ErrorIs(t, err, types.ErrZeroPrice)
	})
}

func TestPriceOrdering(t *testing.T) {
	low := mustPrice(t, 1, -2)
	high := rawPrice(t, "340282366920938463463374607431768211455") // 2^128 - 1
	assert.True(t, low.LT(high))
	assert.True(t, high.GT(low))
	assert.Equal(t, 0, low.Cmp(mustPrice(t, 10, -3)))
}

func TestStepToward(t *testing.T) {
	target := rawPrice(t, "107")
	p := rawPrice(t, "100")
	var seen []string
	for i := 0; i < 5; i++ {
		p = p.StepToward(target)
		seen = append(seen, p.Uint().String())
	}
	assert.Equal(t, []string{"104", "106", "107", "107", "107"}, seen)

	p = rawPrice(t, "100")
	assert.Equal(t, "97", p.StepToward(rawPrice(t, "95")).Uint().String())
}

func TestMulRational(t *testing.T) {
	p := mustPrice(t, 1, 0)
	down, err := p.MulRational(2, 3, false)
	require.NoError(t, err)
	up, err := p.MulRational(2, 3, true)
	require.NoError(t, err)
	assert.Equal(t, "666666666666666666", down.Uint().String())
	assert.Equal(t, "666666666666666667", up.Uint().String())

	_, err = types.PriceMin.MulRational(1, 2, false)
	assert.ErrorIs(t, err, types.ErrZeroPrice)
}

func TestPriceDisplay(t *testing.T) {
	p := mustPrice(t, 25, -1)
	assert.Equal(t, "2.5", p.String())
	// 2.5 quote atoms per base atom with 9 base and 6 quote decimals
	assert.Equal(t, "2500", p.DecimalUnits(9, 6).String())

	fromDecimal, err := types.PriceFromDecimal(num.MustDecimalFromString("2.5"))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Cmp(fromDecimal))

	_, err = types.PriceFromDecimal(num.MustDecimalFromString("0.0000000000000000001"))
	assert.ErrorIs(t, err, types.ErrPriceOutOfRange)
	_, err = types.PriceFromDecimal(num.DecimalZero())
	assert.ErrorIs(t, err, types.ErrZeroPrice)
}

func TestPriceEncoding(t *testing.T) {
	p := rawPrice(t, "340282366920938463463374607431768211000")
	buf := make([]byte, types.PriceSize)
	p.Encode(buf)
	assert.Equal(t, p, types.DecodePrice(buf))
}

func TestPriceNeighbours(t *testing.T) {
	assert.Equal(t, types.PriceMin, types.PriceZero.Next())
	assert.Equal(t, types.PriceZero, types.PriceMin.Prev())
	assert.Equal(t, types.PriceZero, types.PriceZero.Prev())

	// crossing the 64 bit word boundary carries and borrows
	edge := rawPrice(t, "18446744073709551615")
	assert.Equal(t, "18446744073709551616", edge.Next().Uint().String())
	assert.Equal(t, edge, edge.Next().Prev())

	p := mustPrice(t, 3, -1)
	assert.True(t, p.Next().GT(p))
	assert.True(t, p.Prev().LT(p))
}
