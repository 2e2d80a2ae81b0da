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

package global

import (
	"github.com/pkg/errors"
)

var (
	// ErrTraderNotFound signals a trader without a seat on the global account.
	ErrTraderNotFound = errors.New("global trader not found")
	// ErrTraderExists signals an eviction in favour of a trader already seated.
	ErrTraderExists = errors.New("global trader already exists")
	// ErrGlobalFull signals that every global seat is taken.
	ErrGlobalFull = errors.New("global account is full")
	// ErrGlobalNotFull signals an eviction while seats are still free.
	ErrGlobalNotFull = errors.New("global account has free seats")
	// ErrGlobalInsufficient signals a deposit too small for an order or a
	// withdrawal that would leave live orders under backed.
	ErrGlobalInsufficient = errors.New("insufficient global deposit")
	// ErrEvictionDepositTooSmall signals an evictor not depositing more than the evictee holds.
	ErrEvictionDepositTooSmall = errors.New("eviction deposit must exceed the evictee balance")
	// ErrNotLowestBalance signals an evictee that does not hold the lowest balance.
	ErrNotLowestBalance = errors.New("evictee does not hold the lowest balance")
	// ErrInvalidGlobalData signals persisted bytes that are not a global account.
	ErrInvalidGlobalData = errors.New("invalid global account data")
)
