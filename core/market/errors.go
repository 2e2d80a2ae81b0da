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

package market

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidTraderIndex signals an index that does not address a claimed seat.
	ErrInvalidTraderIndex = errors.New("invalid trader index")
	// ErrSeatNotFound signals a trader without a seat on the market.
	ErrSeatNotFound = errors.New("seat not found")
	// ErrSeatNotEmpty signals a release of a seat still holding balances.
	ErrSeatNotEmpty = errors.New("seat still holds balances")
	// ErrSeatHasOrders signals a release of a seat with resting orders.
	ErrSeatHasOrders = errors.New("seat still has resting orders")
	// ErrInsufficientFunds signals a debit larger than the seat balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrZeroSize signals an order for zero base atoms.
	ErrZeroSize = errors.New("order size must be positive")
	// ErrAlreadyExpired signals an order whose last valid slot has passed.
	ErrAlreadyExpired = errors.New("order already expired")
	// ErrPostOnlyCrosses signals a post only or global order that would take.
	ErrPostOnlyCrosses = errors.New("post only order would cross")
	// ErrFillOrKillUnfilled signals a fill or kill order that cannot fill in full.
	ErrFillOrKillUnfilled = errors.New("fill or kill order cannot be filled in full")
	// ErrMinOutNotMet signals a fill below the requested minimum output.
	ErrMinOutNotMet = errors.New("minimum output not met")
	// ErrMissingGlobal signals that a global account is needed but was not supplied.
	ErrMissingGlobal = errors.New("global account missing")
	// ErrNotOrderOwner signals an attempt to cancel another trader's order.
	ErrNotOrderOwner = errors.New("order belongs to another trader")
	// ErrInvalidOrderType signals an unknown order type.
	ErrInvalidOrderType = errors.New("invalid order type")
	// ErrSameMint signals a market whose base and quote mints are equal.
	ErrSameMint = errors.New("base and quote mints must differ")
	// ErrInvalidMarketData signals persisted bytes that are not a market.
	ErrInvalidMarketData = errors.New("invalid market data")
	// ErrWrongGlobalMint signals a global account for a mint the market does not trade.
	ErrWrongGlobalMint = errors.New("global account mint does not match market")
	// ErrOrderNotFound signals a sequence number that is not on the book.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotGlobalOrder signals a clean of an order backed by the market.
	ErrNotGlobalOrder = errors.New("order is not a global order")
	// ErrOrderStillValid signals a clean of a live, fully backed order.
	ErrOrderStillValid = errors.New("order is neither expired nor underbacked")
)
