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

package processor

import (
	"github.com/pkg/errors"
)

var (
	// ErrInternalFault signals an instruction that hit a broken invariant. Its
	// changes are rolled back.
	ErrInternalFault = errors.New("internal fault")
	// ErrMarketExists signals a market key already in use.
	ErrMarketExists = errors.New("market already exists")
	// ErrMarketNotFound signals an unknown market key.
	ErrMarketNotFound = errors.New("market not found")
	// ErrGlobalExists signals a second global account for a mint.
	ErrGlobalExists = errors.New("global account already exists")
	// ErrGlobalNotFound signals a mint without a global account.
	ErrGlobalNotFound = errors.New("global account not found")
	// ErrInvalidMint signals a transfer of a mint the market does not trade.
	ErrInvalidMint = errors.New("mint is not traded on this market")
	// ErrTooManyOrders signals a batch update above the configured size.
	ErrTooManyOrders = errors.New("too many orders in batch")
	// ErrSwapInExceeded signals an exact out swap that needs more than the
	// input it was given.
	ErrSwapInExceeded = errors.New("swap needs more input than allowed")
	// ErrSwapOutNotMet signals a swap that returns less than requested.
	ErrSwapOutNotMet = errors.New("swap output below minimum")
	// ErrZeroAmount signals a transfer or swap of zero atoms.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrInvalidAccount signals snapshot data of an unknown account kind.
	ErrInvalidAccount = errors.New("invalid account")
)
