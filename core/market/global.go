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
	"github.com/CKS-Systems/manifest-sub000/core/types"
)

// GlobalAccount is the part of a global account a market relies on. Global
// funds stay in the global account until a match pulls them in.
type GlobalAccount interface {
	Mint() types.Pubkey
	// AddOrder records exposure for a new resting order of trader on market
	// and returns the generation the order must carry.
	AddOrder(trader, market types.Pubkey, exposure types.GlobalAtoms) (uint32, error)
	// RemoveOrder releases the exposure of an order leaving the book. Orders
	// of an evicted trader carry a stale generation and are ignored.
	RemoveOrder(trader, market types.Pubkey, exposure types.GlobalAtoms, generation uint32) error
	// Available reports the atoms trader can hand over, zero for a stale
	// generation.
	Available(trader types.Pubkey, generation uint32) types.GlobalAtoms
	// TryConsume hands over atoms from the deposit of trader for a match and
	// releases exposure. It consumes nothing and returns false when the
	// deposit cannot cover atoms or the generation is stale.
	TryConsume(trader, market types.Pubkey, atoms, exposure types.GlobalAtoms, generation uint32) (bool, error)
}

// GlobalAccounts are the global accounts supplied with an instruction, one
// per token of the market. Either may be nil.
type GlobalAccounts struct {
	Base  GlobalAccount
	Quote GlobalAccount
}

// forSide returns the account backing orders resting on the given side:
// bids are backed by quote, asks by base.
func (g GlobalAccounts) forSide(isBid bool) GlobalAccount {
	if isBid {
		return g.Quote
	}
	return g.Base
}

// globalExposure is what a global order commits from its backing account.
func globalExposure(price types.Price, numBase types.BaseAtoms, isBid bool) (types.GlobalAtoms, error) {
	if !isBid {
		return types.GlobalAtoms(numBase), nil
	}
	q, err := price.QuoteForBase(numBase, true)
	return types.GlobalAtoms(q), err
}

func (m *Market) checkGlobals(g GlobalAccounts) error {
	if g.Base != nil && g.Base.Mint() != m.fixed.BaseMint {
		return ErrWrongGlobalMint
	}
	if g.Quote != nil && g.Quote.Mint() != m.fixed.QuoteMint {
		return ErrWrongGlobalMint
	}
	return nil
}
