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
	"encoding/json"

	"github.com/CKS-Systems/manifest-sub000/core/events"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol"
	"go.nanomsg.org/mangos/v3/protocol/push"
	"go.uber.org/atomic"

	// register tcp, ipc and inproc transports.
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

var ErrSocketClosed = errors.New("event socket is closed")

// SocketSender streams committed events as JSON to the external indexer over
// a push socket. Dialling is asynchronous so a missing indexer never blocks
// the node; sends wait at most SendTimeout for a peer.
type SocketSender struct {
	log    *logging.Logger
	sock   protocol.Socket
	closed *atomic.Bool
}

func NewSocketSender(log *logging.Logger, config SocketConfig) (*SocketSender, error) {
	sock, err := push.NewSocket()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new socket")
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, config.SendTimeout.Duration); err != nil {
		sock.Close()
		return nil, errors.Wrap(err, "failed to set send deadline")
	}
	opts := map[string]interface{}{mangos.OptionDialAsynch: true}
	if err := sock.DialOptions(config.Address, opts); err != nil {
		sock.Close()
		return nil, errors.Wrapf(err, "failed to dial %s", config.Address)
	}
	log.Info("streaming events", logging.String("address", config.Address))

	return &SocketSender{
		log:    log,
		sock:   sock,
		closed: atomic.NewBool(false),
	}, nil
}

func (s *SocketSender) Send(e events.Event) error {
	if s.closed.Load() {
		return ErrSocketClosed
	}
	buf, err := json.Marshal(e.StreamMessage())
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}
	if err := s.sock.Send(buf); err != nil {
		return errors.Wrap(err, "failed to send on socket")
	}
	return nil
}

func (s *SocketSender) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.sock.Close()
}
