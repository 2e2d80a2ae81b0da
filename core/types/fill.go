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

// Fill records one match between an incoming order and a resting order.
type Fill struct {
	Market              Pubkey
	Maker               Pubkey
	Taker               Pubkey
	BaseMint            Pubkey
	QuoteMint           Pubkey
	MakerSequenceNumber uint64
	TakerSequenceNumber uint64
	BaseAtoms           BaseAtoms
	QuoteAtoms          QuoteAtoms
	Price               Price
	TakerIsBuy          bool
	IsMakerGlobal       bool
	Slot                uint32
}
