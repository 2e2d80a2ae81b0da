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
	"encoding/binary"
)

// ClaimedSeatSize is the encoded size of a ClaimedSeat.
const ClaimedSeatSize = 56

// ClaimedSeat holds the withdrawable balances of a trader on one market.
type ClaimedSeat struct {
	Trader       Pubkey
	BaseBalance  BaseAtoms
	QuoteBalance QuoteAtoms
	// QuoteVolume is the quote traded by the seat as maker or taker. It wraps.
	QuoteVolume QuoteAtoms
}

func (s *ClaimedSeat) IsEmpty() bool {
	return s.BaseBalance == 0 && s.QuoteBalance == 0
}

func (s *ClaimedSeat) Encode(dst []byte) {
	_ = dst[ClaimedSeatSize-1]
	copy(dst[0:PubkeySize], s.Trader[:])
	binary.LittleEndian.PutUint64(dst[32:], uint64(s.BaseBalance))
	binary.LittleEndian.PutUint64(dst[40:], uint64(s.QuoteBalance))
	binary.LittleEndian.PutUint64(dst[48:], uint64(s.QuoteVolume))
}

func DecodeClaimedSeat(src []byte) ClaimedSeat {
	_ = src[ClaimedSeatSize-1]
	var s ClaimedSeat
	copy(s.Trader[:], src[0:PubkeySize])
	s.BaseBalance = BaseAtoms(binary.LittleEndian.Uint64(src[32:]))
	s.QuoteBalance = QuoteAtoms(binary.LittleEndian.Uint64(src[40:]))
	s.QuoteVolume = QuoteAtoms(binary.LittleEndian.Uint64(src[48:]))
	return s
}
