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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAtoms(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := types.BaseAtoms(1).CheckedAdd(2)
		require.NoError(t, err)
		assert.Equal(t, types.BaseAtoms(3), sum)

		_, err = types.BaseAtoms(math.MaxUint64 - 1).CheckedAdd(2)
		assert.ErrorIs(t, err, types.ErrOverflow)
	})

	t.Run("sub", func(t *testing.T) {
		diff, err := types.QuoteAtoms(2).CheckedSub(1)
		require.NoError(t, err)
		assert.Equal(t, types.QuoteAtoms(1), diff)

		_, err = types.QuoteAtoms(1).CheckedSub(2)
		assert.ErrorIs(t, err, types.ErrUnderflow)
	})

	t.Run("global", func(t *testing.T) {
		_, err := types.GlobalAtoms(math.MaxUint64).CheckedAdd(1)
		assert.ErrorIs(t, err, types.ErrOverflow)
		assert.Equal(t, types.GlobalAtoms(0), types.GlobalAtoms(3).SaturatingSub(5))
	})

	t.Run("wrapping add is only used for volume", func(t *testing.T) {
		v := types.QuoteAtoms(math.MaxUint64)
		assert.Equal(t, types.QuoteAtoms(math.MaxUint64-1), v.WrappingAdd(v))
	})

	t.Run("display", func(t *testing.T) {
		assert.Equal(t, "1.5", types.BaseAtoms(1_500_000).Decimal(6).String())
		assert.Equal(t, "42", types.QuoteAtoms(42).String())
	})
}
