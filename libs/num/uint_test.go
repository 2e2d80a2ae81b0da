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

package num_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/CKS-Systems/manifest-sub000/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256Constructors(t *testing.T) {
	var expected uint64 = 42

	t.Run("test from uint64", func(t *testing.T) {
		n := num.NewUint(expected)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from string", func(t *testing.T) {
		n, overflow := num.UintFromString("42", 10)
		assert.False(t, overflow)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from big", func(t *testing.T) {
		n, overflow := num.UintFromBig(big.NewInt(int64(expected)))
		assert.False(t, overflow)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from words", func(t *testing.T) {
		n := num.UintFromWords(1, 5)
		hi, lo, ok := n.Words()
		require.True(t, ok)
		assert.Equal(t, uint64(1), hi)
		assert.Equal(t, uint64(5), lo)
		assert.Equal(t, "18446744073709551621", n.String())
	})
}

func TestUint256Clone(t *testing.T) {
	var (
		expect1 uint64 = 42
		expect2 uint64 = 84
		first          = num.NewUint(expect1)
		second         = first.Clone()
	)

	second.Add(second, num.NewUint(42))

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect2, second.Uint64())
}

func TestDivRoundUp(t *testing.T) {
	cases := []struct {
		x, y, floor, ceil uint64
	}{
		{10, 5, 2, 2},
		{11, 5, 2, 3},
		{0, 7, 0, 0},
		{1, 7, 0, 1},
		{math.MaxUint64, 2, math.MaxUint64 / 2, math.MaxUint64/2 + 1},
	}
	for _, c := range cases {
		x, y := num.NewUint(c.x), num.NewUint(c.y)
		assert.Equal(t, c.floor, num.UintZero().Div(x, y).Uint64())
		assert.Equal(t, c.ceil, num.UintZero().DivRoundUp(x, y).Uint64())
	}
}

func TestOverflowChecks(t *testing.T) {
	max := num.UintFromWords(math.MaxUint64, math.MaxUint64)
	_, overflow := num.UintZero().AddOverflow(max, num.NewUint(1))
	assert.False(t, overflow, "128 bit values are far from the 256 bit limit")

	sum, _ := num.UintZero().AddOverflow(max, num.NewUint(1))
	_, _, ok := sum.Words()
	assert.False(t, ok)

	_, underflow := num.UintZero().SubOverflow(num.NewUint(1), num.NewUint(2))
	assert.True(t, underflow)
}

func TestPow10AndDecimal(t *testing.T) {
	d18 := num.Pow10(18)
	assert.Equal(t, "1000000000000000000", d18.String())
	assert.Equal(t, "1", d18.ToDecimal(18).String())
	assert.Equal(t, "1.5", num.AtomsToDecimal(1500, 3).String())
}

func TestComparisons(t *testing.T) {
	a, b := num.NewUint(1), num.NewUint(2)
	assert.True(t, a.LT(b))
	assert.True(t, a.LTE(b))
	assert.True(t, b.GT(a))
	assert.True(t, b.GTE(b))
	assert.True(t, a.EQ(a.Clone()))
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, a, num.Min(a, b))
	assert.Equal(t, b, num.Max(a, b))
}
