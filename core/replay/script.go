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

package replay

import (
	"os"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/processor"
	"github.com/CKS-Systems/manifest-sub000/core/types"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

var (
	ErrUnknownOp       = errors.New("unknown operation")
	ErrInvalidSide     = errors.New("side must be bid or ask")
	ErrSlotGoesBack    = errors.New("steps must not go back in slots")
	ErrUnexpectedError = errors.New("step failed")
	ErrExpectedError   = errors.New("step was expected to fail")
)

// Ops understood in a script.
const (
	OpCreateMarket    = "create_market"
	OpClaimSeat       = "claim_seat"
	OpReleaseSeat     = "release_seat"
	OpDeposit         = "deposit"
	OpWithdraw        = "withdraw"
	OpExpand          = "expand"
	OpBatchUpdate     = "batch_update"
	OpSwap            = "swap"
	OpGlobalCreate    = "global_create"
	OpGlobalAddTrader = "global_add_trader"
	OpGlobalDeposit   = "global_deposit"
	OpGlobalWithdraw  = "global_withdraw"
	OpGlobalEvict     = "global_evict"
	OpGlobalClean     = "global_clean"
)

// Script is a list of instructions replayed against a fresh processor.
// Traders and mints are either hex encoded keys or labels.
type Script struct {
	Funds []Fund `toml:"fund"`
	Steps []Step `toml:"step"`
}

// Fund credits a wallet before the first step.
type Fund struct {
	Trader string `toml:"trader"`
	Mint   string `toml:"mint"`
	Atoms  uint64 `toml:"atoms"`
}

// Step is one instruction. Which fields matter depends on Op; the market of
// a step is the one derived from Base and Quote.
type Step struct {
	Slot uint32 `toml:"slot"`
	Op   string `toml:"op"`

	Trader string `toml:"trader"`
	Base   string `toml:"base"`
	Quote  string `toml:"quote"`
	Mint   string `toml:"mint"`
	Atoms  uint64 `toml:"atoms"`

	BaseDecimals  uint8  `toml:"base_decimals"`
	QuoteDecimals uint8  `toml:"quote_decimals"`
	Blocks        uint32 `toml:"blocks"`

	CancelAll bool          `toml:"cancel_all"`
	Cancels   []uint64      `toml:"cancels"`
	Orders    []ScriptOrder `toml:"orders"`

	InAtoms  uint64 `toml:"in_atoms"`
	OutAtoms uint64 `toml:"out_atoms"`
	BaseIn   bool   `toml:"base_in"`
	ExactIn  bool   `toml:"exact_in"`

	Evictee  string `toml:"evictee"`
	Sequence uint64 `toml:"sequence"`

	// ExpectError makes the step pass only if it fails with an error
	// containing this text.
	ExpectError string `toml:"expect_error"`
}

// ScriptOrder is an order of a batch_update step.
type ScriptOrder struct {
	Side          string `toml:"side"`
	BaseAtoms     uint64 `toml:"base_atoms"`
	Mantissa      uint32 `toml:"mantissa"`
	Exponent      int8   `toml:"exponent"`
	Type          string `toml:"type"`
	LastValidSlot uint32 `toml:"last_valid_slot"`
	Spread        uint16 `toml:"spread"`
}

// Load reads a script from a TOML file.
func Load(path string) (*Script, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(buf))
}

// Parse decodes and checks a TOML script.
func Parse(data string) (*Script, error) {
	s := &Script{}
	if _, err := toml.Decode(data, s); err != nil {
		return nil, errors.Wrap(err, "could not decode script")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the steps without running them.
func (s *Script) Validate() error {
	var last uint32
	for i, st := range s.Steps {
		if st.Slot < last {
			return errors.Wrapf(ErrSlotGoesBack, "step %d", i)
		}
		last = st.Slot
		if _, ok := knownOps[st.Op]; !ok {
			return errors.Wrapf(ErrUnknownOp, "step %d: %q", i, st.Op)
		}
		for _, o := range st.Orders {
			if _, err := o.params(); err != nil {
				return errors.Wrapf(err, "step %d", i)
			}
		}
	}
	return nil
}

var knownOps = map[string]struct{}{
	OpCreateMarket: {}, OpClaimSeat: {}, OpReleaseSeat: {}, OpDeposit: {},
	OpWithdraw: {}, OpExpand: {}, OpBatchUpdate: {}, OpSwap: {},
	OpGlobalCreate: {}, OpGlobalAddTrader: {}, OpGlobalDeposit: {},
	OpGlobalWithdraw: {}, OpGlobalEvict: {}, OpGlobalClean: {},
}

func (st Step) market() types.Pubkey {
	return processor.MarketKey(types.ParsePubkey(st.Base), types.ParsePubkey(st.Quote))
}

func (o ScriptOrder) params() (processor.OrderParams, error) {
	var isBid bool
	switch o.Side {
	case "bid", "buy":
		isBid = true
	case "ask", "sell":
	default:
		return processor.OrderParams{}, errors.Wrapf(ErrInvalidSide, "%q", o.Side)
	}
	orderType := types.OrderTypeLimit
	if o.Type != "" {
		var err error
		if orderType, err = types.OrderTypeFromString(o.Type); err != nil {
			return processor.OrderParams{}, err
		}
	}
	return processor.OrderParams{
		BaseAtoms:     o.BaseAtoms,
		PriceMantissa: o.Mantissa,
		PriceExponent: o.Exponent,
		IsBid:         isBid,
		LastValidSlot: o.LastValidSlot,
		OrderType:     orderType,
		Spread:        o.Spread,
	}, nil
}

func cancels(seqs []uint64) []processor.CancelParams {
	out := make([]processor.CancelParams, 0, len(seqs))
	for _, s := range seqs {
		out = append(out, processor.CancelParams{SequenceNumber: s, IndexHint: hypertree.NIL})
	}
	return out
}
