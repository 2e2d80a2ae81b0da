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
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

const PubkeySize = 32

// Pubkey identifies a trader, a mint or a market.
type Pubkey [PubkeySize]byte

// PubkeyFromString parses the hex form produced by String.
func PubkeyFromString(s string) (Pubkey, error) {
	var pk Pubkey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pk, errors.Wrap(ErrInvalidPubkey, err.Error())
	}
	if len(b) != PubkeySize {
		return pk, errors.Wrapf(ErrInvalidPubkey, "expected %d bytes, got %d", PubkeySize, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// PubkeyFromSeed derives a deterministic key from a name, used by scripts
// and tooling that refer to traders and mints by label.
func PubkeyFromSeed(seed string) Pubkey {
	return sha256.Sum256([]byte(seed))
}

func (p Pubkey) String() string {
	return hex.EncodeToString(p[:])
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) Compare(o Pubkey) int {
	return bytes.Compare(p[:], o[:])
}

// ParsePubkey accepts the hex form of a key, and falls back to deriving one
// from s as a seed label.
func ParsePubkey(s string) Pubkey {
	if pk, err := PubkeyFromString(s); err == nil {
		return pk
	}
	return PubkeyFromSeed(s)
}
