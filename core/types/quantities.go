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
	"math/bits"
	"strconv"

	"github.com/CKS-Systems/manifest-sub000/libs/num"
)

// BaseAtoms counts the smallest units of the base token of a market.
type BaseAtoms uint64

// QuoteAtoms counts the smallest units of the quote token of a market.
type QuoteAtoms uint64

// GlobalAtoms counts the smallest units of the token held by a global account.
type GlobalAtoms uint64

type atoms interface {
	~uint64
}

func checkedAdd[T atoms](a, b T) (T, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return T(sum), nil
}

func checkedSub[T atoms](a, b T) (T, error) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return T(diff), nil
}

func (a BaseAtoms) CheckedAdd(b BaseAtoms) (BaseAtoms, error) { return checkedAdd(a, b) }
func (a BaseAtoms) CheckedSub(b BaseAtoms) (BaseAtoms, error) { return checkedSub(a, b) }

// WrappingAdd adds modulo 2^64.
func (a BaseAtoms) WrappingAdd(b BaseAtoms) BaseAtoms { return a + b }

func (a BaseAtoms) SaturatingSub(b BaseAtoms) BaseAtoms {
	if b > a {
		return 0
	}
	return a - b
}

func (a BaseAtoms) Min(b BaseAtoms) BaseAtoms {
	if a <= b {
		return a
	}
	return b
}

func (a BaseAtoms) Uint64() uint64 { return uint64(a) }
func (a BaseAtoms) String() string { return strconv.FormatUint(uint64(a), 10) }
func (a BaseAtoms) Decimal(decimals uint8) num.Decimal {
	return num.AtomsToDecimal(uint64(a), decimals)
}

func (a QuoteAtoms) CheckedAdd(b QuoteAtoms) (QuoteAtoms, error) { return checkedAdd(a, b) }
func (a QuoteAtoms) CheckedSub(b QuoteAtoms) (QuoteAtoms, error) { return checkedSub(a, b) }

// WrappingAdd adds modulo 2^64. Used for volume counters only.
func (a QuoteAtoms) WrappingAdd(b QuoteAtoms) QuoteAtoms { return a + b }

func (a QuoteAtoms) SaturatingSub(b QuoteAtoms) QuoteAtoms {
	if b > a {
		return 0
	}
	return a - b
}

func (a QuoteAtoms) Min(b QuoteAtoms) QuoteAtoms {
	if a <= b {
		return a
	}
	return b
}

func (a QuoteAtoms) Uint64() uint64 { return uint64(a) }
func (a QuoteAtoms) String() string { return strconv.FormatUint(uint64(a), 10) }
func (a QuoteAtoms) Decimal(decimals uint8) num.Decimal {
	return num.AtomsToDecimal(uint64(a), decimals)
}

func (a GlobalAtoms) CheckedAdd(b GlobalAtoms) (GlobalAtoms, error) { return checkedAdd(a, b) }
func (a GlobalAtoms) CheckedSub(b GlobalAtoms) (GlobalAtoms, error) { return checkedSub(a, b) }

func (a GlobalAtoms) SaturatingSub(b GlobalAtoms) GlobalAtoms {
	if b > a {
		return 0
	}
	return a - b
}

func (a GlobalAtoms) Uint64() uint64 { return uint64(a) }
func (a GlobalAtoms) String() string { return strconv.FormatUint(uint64(a), 10) }
