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

package broker

import (
	"context"
	"encoding/json"

	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol"
	"go.nanomsg.org/mangos/v3/protocol/pull"
)

// StreamedEvent is an event as received from a SocketSender. The payload is
// left raw and decoded by the consumer according to Type.
type StreamedEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id"`
	Slot    uint32          `json:"slot"`
	Payload json.RawMessage `json:"payload"`
}

// SocketReceiver is the indexer side of the event stream. It is used by the
// tooling to tail a running node.
type SocketReceiver struct {
	log  *logging.Logger
	sock protocol.Socket
}

func NewSocketReceiver(log *logging.Logger, config SocketConfig) (*SocketReceiver, error) {
	sock, err := pull.NewSocket()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new socket")
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, config.RecvTimeout.Duration); err != nil {
		sock.Close()
		return nil, errors.Wrap(err, "failed to set receive deadline")
	}
	if err := sock.Listen(config.Address); err != nil {
		sock.Close()
		return nil, errors.Wrapf(err, "failed to listen on %s", config.Address)
	}
	return &SocketReceiver{
		log:  log,
		sock: sock,
	}, nil
}

// Receive decodes events until ctx is cancelled or the socket is closed.
// Both channels are closed when receiving stops.
func (s *SocketReceiver) Receive(ctx context.Context) (<-chan StreamedEvent, <-chan error) {
	out := make(chan StreamedEvent, 100)
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			close(out)
			close(errCh)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			msg, err := s.sock.Recv()
			if err != nil {
				switch err {
				case protocol.ErrRecvTimeout:
					continue
				case protocol.ErrClosed:
					return
				default:
					errCh <- errors.Wrap(err, "failed to receive message")
					return
				}
			}
			var e StreamedEvent
			if err := json.Unmarshal(msg, &e); err != nil {
				s.log.Error("failed to unmarshal event received", logging.Error(err))
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errCh
}

func (s *SocketReceiver) Close() error {
	return s.sock.Close()
}
