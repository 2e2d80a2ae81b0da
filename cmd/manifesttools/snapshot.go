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
	"fmt"
	"io"
	"os"

	"github.com/CKS-Systems/manifest-sub000/config"
	"github.com/CKS-Systems/manifest-sub000/core/market"
	"github.com/CKS-Systems/manifest-sub000/core/snapshot"
	vgjson "github.com/CKS-Systems/manifest-sub000/libs/json"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	snapshotDBPath string
	snapshotSlot   uint32
	bookLevels     int

	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the snapshots saved by a replay",
	}
	snapshotListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the saved snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := cmd.Flags().GetString(outputFlagName)
			if err != nil {
				return err
			}
			return listSnapshots(os.Stdout, snapshotDBPath, output)
		},
	}
	snapshotBookCmd = &cobra.Command{
		Use:   "book",
		Short: "Print the order books of the markets of a snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := cmd.Flags().GetString(outputFlagName)
			if err != nil {
				return err
			}
			return printBooks(os.Stdout, snapshotDBPath, snapshotSlot, bookLevels, output)
		},
	}
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotListCmd, snapshotBookCmd)

	snapshotCmd.PersistentFlags().StringVarP(&snapshotDBPath, "db-path", "d", "", "path to the snapshot database, defaults to the one of the default home")
	snapshotCmd.PersistentFlags().String(outputFlagName, outputFlagValHuman, "Specify the output format: json,human")
	snapshotBookCmd.Flags().Uint32VarP(&snapshotSlot, "slot", "s", 0, "slot of the snapshot, the latest when 0")
	snapshotBookCmd.Flags().IntVarP(&bookLevels, "levels", "l", 10, "price levels per side, all when 0")
}

func openSnapshots(dbPath string) (*snapshot.Engine, error) {
	cfg := snapshot.NewDefaultConfig()
	cfg.DBPath = dbPath
	if dbPath == "" {
		cfg.DBPath = config.NewDefaultConfig(config.DefaultHome()).Snapshot.DBPath
	}
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	log.SetLevel(logging.WarnLevel)
	return snapshot.New(log, cfg)
}

func listSnapshots(w io.Writer, dbPath, output string) error {
	if err := checkOutput(output); err != nil {
		return err
	}
	engine, err := openSnapshots(dbPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	infos, err := engine.List()
	if err != nil {
		return err
	}
	if output == outputFlagValJSON {
		return writeJSON(w, struct {
			Snapshots []snapshot.Info `json:"snapshots"`
		}{infos})
	}

	fmt.Fprintln(w, "Snapshots available:", len(infos))
	for _, info := range infos {
		fmt.Fprintf(w, "\tSlot: %d, Markets: %d, Globals: %d, Size: %s, Hash: %s\n",
			info.Slot, info.Markets, info.Globals, humanize.Bytes(uint64(info.Bytes)), info.Hash)
	}
	return nil
}

type bookLevel struct {
	Price     string `json:"price"`
	BaseAtoms uint64 `json:"base_atoms"`
	Orders    int    `json:"orders"`
}

type book struct {
	Market      string      `json:"market"`
	BaseMint    string      `json:"base_mint"`
	QuoteMint   string      `json:"quote_mint"`
	Seats       int         `json:"seats"`
	QuoteVolume uint64      `json:"quote_volume"`
	Bids        []bookLevel `json:"bids"`
	Asks        []bookLevel `json:"asks"`
}

func printBooks(w io.Writer, dbPath string, slot uint32, levels int, output string) error {
	if err := checkOutput(output); err != nil {
		return err
	}
	engine, err := openSnapshots(dbPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	var (
		info     snapshot.Info
		accounts []snapshot.Account
	)
	if slot == 0 {
		info, accounts, err = engine.LoadLatest()
	} else {
		info, accounts, err = engine.Load(slot)
	}
	if err != nil {
		return err
	}

	log := logging.NewTestLogger()
	books := []book{}
	for _, acc := range accounts {
		if acc.Kind != snapshot.KindMarket {
			continue
		}
		m, err := market.Load(log, market.NewDefaultConfig(), acc.Data)
		if err != nil {
			return fmt.Errorf("market %s: %w", acc.Key, err)
		}
		books = append(books, bookOf(m, info.Slot, levels))
	}

	if output == outputFlagValJSON {
		return writeJSON(w, struct {
			Slot  uint32 `json:"slot"`
			Books []book `json:"books"`
		}{info.Slot, books})
	}

	fmt.Fprintf(w, "Slot %d\n", info.Slot)
	for _, b := range books {
		fmt.Fprintf(w, "\nMarket %s (%s/%s), %d seats, volume %s\n",
			b.Market, b.BaseMint, b.QuoteMint, b.Seats, humanize.Comma(int64(b.QuoteVolume)))
		for i := len(b.Asks) - 1; i >= 0; i-- {
			l := b.Asks[i]
			fmt.Fprintf(w, "\tASK %24s %16s (%d)\n", l.Price, humanize.Comma(int64(l.BaseAtoms)), l.Orders)
		}
		for _, l := range b.Bids {
			fmt.Fprintf(w, "\tBID %24s %16s (%d)\n", l.Price, humanize.Comma(int64(l.BaseAtoms)), l.Orders)
		}
	}
	return nil
}

func bookOf(m *market.Market, slot uint32, levels int) book {
	b := book{
		Market:      m.Key().String(),
		BaseMint:    m.BaseMint().String(),
		QuoteMint:   m.QuoteMint().String(),
		Seats:       len(m.Seats()),
		QuoteVolume: m.QuoteVolume().Uint64(),
	}
	convert := func(in []market.Level) []bookLevel {
		out := make([]bookLevel, 0, len(in))
		for _, l := range in {
			out = append(out, bookLevel{
				Price:     l.Price.DecimalUnits(m.BaseDecimals(), m.QuoteDecimals()).String(),
				BaseAtoms: l.BaseAtoms.Uint64(),
				Orders:    l.Orders,
			})
		}
		return out
	}
	b.Bids = convert(m.Depth(true, slot, levels))
	b.Asks = convert(m.Depth(false, slot, levels))
	return b
}

func writeJSON(w io.Writer, data interface{}) error {
	return vgjson.Fprint(w, data)
}
