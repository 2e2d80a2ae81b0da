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
	"context"
	"strings"

	"github.com/CKS-Systems/manifest-sub000/core/hypertree"
	"github.com/CKS-Systems/manifest-sub000/core/processor"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	"github.com/CKS-Systems/manifest-sub000/core/types"
	vgcontext "github.com/CKS-Systems/manifest-sub000/libs/context"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const namedLogger = "replay"

// Funder credits wallets before a script starts.
type Funder interface {
	Fund(trader, mint types.Pubkey, atoms uint64) error
}

// Snapshotter stores the accounts of the processor.
type Snapshotter interface {
	Save(slot uint32, accounts []snapshot.Account) (snapshot.Info, error)
}

// SlotListener is told whenever the replay moves to a new slot.
type SlotListener interface {
	OnSlotUpdate(ctx context.Context, slot uint32)
}

// Result is the outcome of one step.
type Result struct {
	Step     int      `json:"step"`
	Slot     uint32   `json:"slot"`
	Op       string   `json:"op"`
	Error    string   `json:"error,omitempty"`
	Placed   []uint64 `json:"placed,omitempty"`
	SwapIn   uint64   `json:"swap_in,omitempty"`
	SwapOut  uint64   `json:"swap_out,omitempty"`
	Expected bool     `json:"expected"`
}

// Report sums up a replay.
type Report struct {
	Results   []Result        `json:"results"`
	Snapshots []snapshot.Info `json:"snapshots,omitempty"`
	Failed    int             `json:"failed"`
}

// Runner replays scripts against a processor.
type Runner struct {
	log       *logging.Logger
	proc      *processor.Processor
	funder    Funder
	snapshots Snapshotter
	interval  uint32
	listeners []SlotListener
}

func NewRunner(log *logging.Logger, proc *processor.Processor, funder Funder) *Runner {
	return &Runner{
		log:    log.Named(namedLogger),
		proc:   proc,
		funder: funder,
	}
}

// WithSnapshots saves the accounts every interval slots.
func (r *Runner) WithSnapshots(s Snapshotter, interval uint32) *Runner {
	r.snapshots = s
	r.interval = interval
	return r
}

func (r *Runner) OnSlotUpdate(listeners ...SlotListener) {
	r.listeners = append(r.listeners, listeners...)
}

// Run replays s. A step that fails when it should not, or that succeeds
// when it should fail, is recorded and the replay carries on. Only funding
// and snapshot errors stop it.
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	for _, f := range s.Funds {
		if err := r.funder.Fund(types.ParsePubkey(f.Trader), types.ParsePubkey(f.Mint), f.Atoms); err != nil {
			return nil, errors.Wrapf(err, "could not fund %s", f.Trader)
		}
	}

	report := &Report{Results: make([]Result, 0, len(s.Steps))}
	var (
		slot         uint32
		lastSnapshot uint32
	)
	for i, st := range s.Steps {
		if st.Slot != slot {
			slot = st.Slot
			for _, l := range r.listeners {
				l.OnSlotUpdate(ctx, slot)
			}
		}
		if r.snapshots != nil && r.interval > 0 && slot >= lastSnapshot+r.interval {
			info, err := r.snapshot(lastSnapshot, slot)
			if err != nil {
				return report, err
			}
			if info != nil {
				report.Snapshots = append(report.Snapshots, *info)
			}
			lastSnapshot = slot
		}

		stepCtx := vgcontext.WithTraceID(vgcontext.WithSlot(ctx, slot), uuid.NewString())
		res := Result{Step: i, Slot: slot, Op: st.Op}
		err := r.step(stepCtx, st, &res)
		expectErr := checkExpectation(st.ExpectError, err)
		res.Expected = expectErr == nil
		if err != nil {
			res.Error = err.Error()
		}
		if !res.Expected {
			report.Failed++
			r.log.Warn("step did not go as expected",
				logging.Int("step", i),
				logging.String("op", st.Op),
				logging.Uint32("slot", slot),
				logging.Error(expectErr),
			)
		} else if r.log.IsDebug() {
			r.log.Debug("step replayed",
				logging.Int("step", i),
				logging.String("op", st.Op),
				logging.Uint32("slot", slot),
			)
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// snapshot saves the accounts unless nothing exists yet.
func (r *Runner) snapshot(last, slot uint32) (*snapshot.Info, error) {
	accounts, err := r.proc.Accounts()
	if err != nil {
		return nil, errors.Wrap(err, "could not collect accounts")
	}
	if len(accounts) == 0 || slot == last {
		return nil, nil
	}
	info, err := r.snapshots.Save(slot, accounts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not save snapshot at slot %d", slot)
	}
	r.log.Info("snapshot saved",
		logging.Uint32("slot", info.Slot),
		logging.String("hash", info.Hash),
	)
	return &info, nil
}

func checkExpectation(expected string, err error) error {
	switch {
	case expected == "" && err != nil:
		return errors.Wrap(ErrUnexpectedError, err.Error())
	case expected != "" && err == nil:
		return errors.Wrapf(ErrExpectedError, "with %q", expected)
	case expected != "" && !strings.Contains(err.Error(), expected):
		return errors.Wrapf(ErrUnexpectedError, "%v, expected %q", err, expected)
	}
	return nil
}

func (r *Runner) step(ctx context.Context, st Step, res *Result) error {
	p := r.proc
	trader := types.ParsePubkey(st.Trader)
	switch st.Op {
	case OpCreateMarket:
		_, err := p.CreateMarket(ctx, trader, processor.CreateMarket{
			BaseMint:      types.ParsePubkey(st.Base),
			QuoteMint:     types.ParsePubkey(st.Quote),
			BaseDecimals:  st.BaseDecimals,
			QuoteDecimals: st.QuoteDecimals,
		})
		return err
	case OpClaimSeat:
		return p.ClaimSeat(ctx, trader, st.market())
	case OpReleaseSeat:
		return p.ReleaseSeat(ctx, trader, st.market())
	case OpDeposit, OpWithdraw:
		args := processor.Transfer{
			Market: st.market(),
			Trader: trader,
			Mint:   types.ParsePubkey(st.Mint),
			Atoms:  st.Atoms,
		}
		if st.Op == OpDeposit {
			return p.Deposit(ctx, args)
		}
		return p.Withdraw(ctx, args)
	case OpExpand:
		return p.Expand(ctx, trader, st.market(), st.Blocks)
	case OpBatchUpdate:
		args := processor.BatchUpdate{
			Market:    st.market(),
			Trader:    trader,
			CancelAll: st.CancelAll,
			Cancels:   cancels(st.Cancels),
		}
		for _, o := range st.Orders {
			params, err := o.params()
			if err != nil {
				return err
			}
			args.Orders = append(args.Orders, params)
		}
		out, err := p.BatchUpdate(ctx, args)
		if err != nil {
			return err
		}
		for _, placed := range out.Placed {
			res.Placed = append(res.Placed, placed.SequenceNumber)
		}
		return nil
	case OpSwap:
		out, err := p.Swap(ctx, processor.Swap{
			Market:    st.market(),
			Payer:     trader,
			InAtoms:   st.InAtoms,
			OutAtoms:  st.OutAtoms,
			IsBaseIn:  st.BaseIn,
			IsExactIn: st.ExactIn,
		})
		if err != nil {
			return err
		}
		res.SwapIn, res.SwapOut = out.InAtoms, out.OutAtoms
		return nil
	case OpGlobalCreate:
		return p.GlobalCreate(ctx, trader, types.ParsePubkey(st.Mint))
	case OpGlobalAddTrader:
		return p.GlobalAddTrader(ctx, trader, types.ParsePubkey(st.Mint))
	case OpGlobalDeposit, OpGlobalWithdraw:
		args := processor.GlobalTransfer{
			Trader: trader,
			Mint:   types.ParsePubkey(st.Mint),
			Atoms:  st.Atoms,
		}
		if st.Op == OpGlobalDeposit {
			return p.GlobalDeposit(ctx, args)
		}
		return p.GlobalWithdraw(ctx, args)
	case OpGlobalEvict:
		return p.GlobalEvict(ctx, processor.GlobalEvict{
			Evictor: trader,
			Evictee: types.ParsePubkey(st.Evictee),
			Mint:    types.ParsePubkey(st.Mint),
			Deposit: st.Atoms,
		})
	case OpGlobalClean:
		return p.GlobalClean(ctx, trader, processor.GlobalClean{
			Market:         st.market(),
			SequenceNumber: st.Sequence,
			IndexHint:      hypertree.NIL,
		})
	}
	return errors.Wrapf(ErrUnknownOp, "%q", st.Op)
}
