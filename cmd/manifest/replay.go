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

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/CKS-Systems/manifest-sub000/broker"
	"github.com/CKS-Systems/manifest-sub000/config"
	"github.com/CKS-Systems/manifest-sub000/core/processor"
	"github.com/CKS-Systems/manifest-sub000/core/replay"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	"github.com/CKS-Systems/manifest-sub000/core/vault"
	vgclose "github.com/CKS-Systems/manifest-sub000/libs/close"
	vgfs "github.com/CKS-Systems/manifest-sub000/libs/fs"
	vgjson "github.com/CKS-Systems/manifest-sub000/libs/json"
	"github.com/CKS-Systems/manifest-sub000/logging"
	"github.com/CKS-Systems/manifest-sub000/metrics"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
)

var ErrReplayFailed = errors.New("replay did not go as scripted")

type ReplayCmd struct {
	config.HomeFlag
	config.OutputFlag

	Script  string `description:"TOML script of instructions to replay" long:"script" required:"true" short:"s"`
	Restore bool   `description:"Start from the latest snapshot of the home instead of an empty state" long:"restore"`

	ctx context.Context
}

var replayCmd ReplayCmd

func (opts *ReplayCmd) Execute(_ []string) error {
	home := opts.HomePath()
	cfg := config.NewDefaultConfig(home)

	// a home without configuration replays with the defaults and no reload
	var watcher *config.Watcher
	hasConfig, err := vgfs.FileExists(config.ConfigPath(home))
	if err != nil {
		return err
	}
	log := logging.NewLoggerFromConfig(cfg.Logging)
	if hasConfig {
		if watcher, err = config.NewWatcher(opts.ctx, log, home); err != nil {
			return fmt.Errorf("couldn't load configuration: %w", err)
		}
		cfg = watcher.Get()
		log = logging.NewLoggerFromConfig(cfg.Logging)
	}
	defer log.AtExit()

	closer := vgclose.NewCloser(log)
	defer closer.CloseAll()

	if err := metrics.Start(opts.ctx, log, cfg.Metrics); err != nil {
		return err
	}

	b, err := broker.New(opts.ctx, log, cfg.Broker)
	if err != nil {
		return fmt.Errorf("couldn't start broker: %w", err)
	}
	closer.Add("broker", b.Close)

	ledger := vault.NewLedger(log)
	proc, err := processor.New(log, cfg.Processor, cfg.Market, cfg.Global, b, ledger)
	if err != nil {
		return err
	}
	runner := replay.NewRunner(log, proc, ledger)

	var snapshots *snapshot.Engine
	if cfg.SnapshotInterval > 0 || opts.Restore {
		if snapshots, err = snapshot.New(log, cfg.Snapshot); err != nil {
			return fmt.Errorf("couldn't open snapshots: %w", err)
		}
		closer.Add("snapshots", snapshots.Close)
		runner.WithSnapshots(snapshots, cfg.SnapshotInterval)
	}

	if opts.Restore {
		info, accounts, err := snapshots.LoadLatest()
		if err != nil {
			return fmt.Errorf("couldn't load snapshot: %w", err)
		}
		if err := proc.Restore(info.Slot, accounts); err != nil {
			return fmt.Errorf("couldn't restore snapshot at slot %d: %w", info.Slot, err)
		}
		log.Info("state restored from snapshot",
			logging.Uint32("slot", info.Slot),
			logging.Int("markets", info.Markets),
			logging.Int("globals", info.Globals),
		)
	}

	if watcher != nil {
		watcher.OnConfigUpdate(func(c config.Config) {
			proc.ReloadConf(c.Processor, c.Market, c.Global)
			if snapshots != nil {
				snapshots.ReloadConf(c.Snapshot)
			}
		})
		runner.OnSlotUpdate(watcher)
	}

	script, err := replay.Load(opts.Script)
	if err != nil {
		return err
	}
	report, err := runner.Run(opts.ctx, script)
	if err != nil {
		return err
	}

	if opts.Output.IsJSON() {
		if err := vgjson.PrettyPrint(report); err != nil {
			return err
		}
	} else {
		printReport(report, b.Sent())
	}
	if report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d steps", ErrReplayFailed, report.Failed, len(report.Results))
	}
	return nil
}

func printReport(report *replay.Report, events uint64) {
	for _, r := range report.Results {
		status := "ok"
		if !r.Expected {
			status = "FAILED"
		}
		fmt.Printf("%4d  slot %-8d %-18s %s", r.Step, r.Slot, r.Op, status)
		if r.Error != "" {
			fmt.Printf("  (%s)", r.Error)
		}
		fmt.Println()
	}
	for _, s := range report.Snapshots {
		fmt.Printf("snapshot at slot %d: %d markets, %d globals, %s, %s\n",
			s.Slot, s.Markets, s.Globals, humanize.Bytes(uint64(s.Bytes)), s.Hash)
	}
	fmt.Printf("\n%s steps, %s failed, %s events\n",
		humanize.Comma(int64(len(report.Results))),
		humanize.Comma(int64(report.Failed)),
		humanize.Comma(int64(events)),
	)
}

func Replay(ctx context.Context, parser *flags.Parser) error {
	replayCmd = ReplayCmd{
		ctx: ctx,
	}

	short := "Replay a script of instructions"
	long := "Replay a TOML script of instructions against an in-memory vault, optionally saving and restoring snapshots"

	_, err := parser.AddCommand("replay", short, long, &replayCmd)
	return err
}
