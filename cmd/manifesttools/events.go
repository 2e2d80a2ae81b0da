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
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CKS-Systems/manifest-sub000/broker"
	"github.com/CKS-Systems/manifest-sub000/config/encoding"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/spf13/cobra"
)

type tailOpts struct {
	address string
	count   int
	types   []string
	output  string
}

var (
	eventsTail tailOpts

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Work with the events streamed by a replay",
	}
	eventsTailCmd = &cobra.Command{
		Use:   "tail",
		Short: "Listen on the broker socket and print the events received",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := cmd.Flags().GetString(outputFlagName)
			if err != nil {
				return err
			}
			eventsTail.output = output
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return tailEvents(ctx, os.Stdout, eventsTail)
		},
	}
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)

	def := broker.NewDefaultConfig()
	eventsTailCmd.Flags().StringVarP(&eventsTail.address, "address", "a", def.Socket.Address, "address to listen on for the broker socket")
	eventsTailCmd.Flags().IntVarP(&eventsTail.count, "count", "n", 0, "stop after this many events, 0 to run until interrupted")
	eventsTailCmd.Flags().StringSliceVarP(&eventsTail.types, "type", "t", nil, "only print events of these types")
	eventsTailCmd.Flags().String(outputFlagName, outputFlagValHuman, "Specify the output format: json,human")
}

func tailEvents(ctx context.Context, w io.Writer, opts tailOpts) error {
	if err := checkOutput(opts.output); err != nil {
		return err
	}
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer log.AtExit()

	receiver, err := broker.NewSocketReceiver(log, broker.SocketConfig{
		Address:     opts.address,
		RecvTimeout: encoding.Duration{Duration: 100 * time.Millisecond},
	})
	if err != nil {
		return err
	}
	defer receiver.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wanted := map[string]struct{}{}
	for _, t := range opts.types {
		wanted[t] = struct{}{}
	}

	evts, errs := receiver.Receive(ctx)
	seen := 0
	for e := range evts {
		if _, ok := wanted[e.Type]; len(wanted) > 0 && !ok {
			continue
		}
		if err := printEvent(w, e, opts.output); err != nil {
			return err
		}
		seen++
		if opts.count > 0 && seen >= opts.count {
			cancel()
			break
		}
	}
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func printEvent(w io.Writer, e broker.StreamedEvent, output string) error {
	if output == outputFlagValJSON {
		return writeJSON(w, e)
	}
	_, err := fmt.Fprintf(w, "%-8d %-22s %s %s %s\n", e.Slot, e.Type, e.ID, e.TraceID, string(e.Payload))
	return err
}
