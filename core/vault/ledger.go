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

package vault

import (
	"context"
	"sync"

	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientWallet signals a transfer in larger than the wallet holds.
	ErrInsufficientWallet = errors.New("insufficient wallet balance")
	// ErrInsufficientCustody signals a transfer out larger than the vault holds.
	ErrInsufficientCustody = errors.New("insufficient custody balance")
)

type Direction uint8

const (
	// In moves atoms from a trader's wallet into custody.
	In Direction = iota
	// Out moves atoms from custody to a trader's wallet.
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Transfer is one token movement between a wallet and custody.
type Transfer struct {
	Trader    types.Pubkey
	Mint      types.Pubkey
	Atoms     uint64
	Direction Direction
}

type walletKey struct {
	trader types.Pubkey
	mint   types.Pubkey
}

// Ledger keeps wallet and custody balances in memory. It stands in for the
// token program of the host when replaying instructions and in tests.
type Ledger struct {
	log     *logging.Logger
	mu      sync.Mutex
	wallets map[walletKey]uint64
	custody map[types.Pubkey]uint64
}

func NewLedger(log *logging.Logger) *Ledger {
	return &Ledger{
		log:     log.Named("vault"),
		wallets: map[walletKey]uint64{},
		custody: map[types.Pubkey]uint64{},
	}
}

// Fund credits a wallet with freshly minted atoms.
func (l *Ledger) Fund(trader, mint types.Pubkey, atoms uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := walletKey{trader, mint}
	bal := l.wallets[k] + atoms
	if bal < atoms {
		return errors.Wrapf(types.ErrOverflow, "funding %s", trader)
	}
	l.wallets[k] = bal
	return nil
}

func (l *Ledger) Wallet(trader, mint types.Pubkey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallets[walletKey{trader, mint}]
}

func (l *Ledger) Custody(mint types.Pubkey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.custody[mint]
}

// Apply executes transfers in order as a single unit: either all of them
// happen or, on the first failing one, none.
func (l *Ledger) Apply(ctx context.Context, transfers []Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	wallets := map[walletKey]uint64{}
	custody := map[types.Pubkey]uint64{}
	wallet := func(k walletKey) uint64 {
		if v, ok := wallets[k]; ok {
			return v
		}
		return l.wallets[k]
	}
	vault := func(m types.Pubkey) uint64 {
		if v, ok := custody[m]; ok {
			return v
		}
		return l.custody[m]
	}

	for i, t := range transfers {
		k := walletKey{t.Trader, t.Mint}
		w, c := wallet(k), vault(t.Mint)
		switch t.Direction {
		case In:
			if w < t.Atoms {
				return errors.Wrapf(ErrInsufficientWallet, "transfer %d: %s holds %d, needs %d", i, t.Trader, w, t.Atoms)
			}
			if c+t.Atoms < c {
				return errors.Wrapf(types.ErrOverflow, "transfer %d", i)
			}
			wallets[k], custody[t.Mint] = w-t.Atoms, c+t.Atoms
		case Out:
			if c < t.Atoms {
				return errors.Wrapf(ErrInsufficientCustody, "transfer %d: vault holds %d, needs %d", i, c, t.Atoms)
			}
			if w+t.Atoms < w {
				return errors.Wrapf(types.ErrOverflow, "transfer %d", i)
			}
			wallets[k], custody[t.Mint] = w+t.Atoms, c-t.Atoms
		}
	}

	for k, v := range wallets {
		l.wallets[k] = v
	}
	for m, v := range custody {
		l.custody[m] = v
	}
	if l.log.IsDebug() {
		l.log.Debug("transfers applied", logging.Int("count", len(transfers)))
	}
	return nil
}
