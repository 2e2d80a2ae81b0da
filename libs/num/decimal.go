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

package num

import (
	"github.com/shopspring/decimal"
)

// Decimal is only used for presentation (logs, CLI output, book views),
// never on the settlement path.
type Decimal = decimal.Decimal

func DecimalZero() Decimal {
	return decimal.Zero
}

func DecimalFromUint(u *Uint) Decimal {
	return decimal.NewFromBigInt(u.BigInt(), 0)
}

func DecimalFromUint64(v uint64) Decimal {
	return decimal.NewFromBigInt(NewUint(v).BigInt(), 0)
}

func DecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

func MustDecimalFromString(s string) Decimal {
	d, err := DecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ToDecimal returns the value scaled down by 10^exp.
func (u *Uint) ToDecimal(exp int32) Decimal {
	return decimal.NewFromBigInt(u.BigInt(), -exp)
}

// AtomsToDecimal renders an atom amount in whole token units.
func AtomsToDecimal(atoms uint64, decimals uint8) Decimal {
	return decimal.NewFromBigInt(NewUint(atoms).BigInt(), -int32(decimals))
}
