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
	"github.com/pkg/errors"
)

var (
	// ErrOverflow signals a checked addition or multiplication that does not fit.
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrUnderflow signals a checked subtraction below zero.
	ErrUnderflow = errors.New("arithmetic underflow")
	// ErrZeroPrice signals a price of zero, which can never rest or match.
	ErrZeroPrice = errors.New("price must be positive")
	// ErrExponentTooLarge signals an exponent above the range allowed for the order type.
	ErrExponentTooLarge = errors.New("price exponent too large")
	// ErrExponentTooSmall signals an exponent below the supported range.
	ErrExponentTooSmall = errors.New("price exponent too small")
	// ErrPriceOutOfRange signals a price or atom conversion that does not fit its target.
	ErrPriceOutOfRange  = errors.New("price conversion out of range")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrInvalidPubkey    = errors.New("invalid public key")
)
