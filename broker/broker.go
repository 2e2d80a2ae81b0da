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
	"sync"
	"time"

	"github.com/CKS-Systems/manifest-sub000/core/events"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"go.uber.org/atomic"
)

// Subscriber interface allows pushing values to subscribers, can be set to
// a Skip state (temporarily not receiving any events), or closed. Otherwise events are pushed.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/subscriber_mock.go -package mocks github.com/CKS-Systems/manifest-sub000/broker Subscriber
type Subscriber interface {
	Push(val ...events.Event)
	Skip() <-chan struct{}
	Closed() <-chan struct{}
	C() chan<- []events.Event
	Types() []events.Type
	SetID(id int)
	ID() int
	Ack() bool
}

type eventSender interface {
	Send(events.Event) error
	Close() error
}

type subscription struct {
	Subscriber
	required bool
}

// Broker fans committed events out to subscribers by type and, when
// configured, streams them to the indexer.
type Broker struct {
	ctx   context.Context
	log   *logging.Logger
	mu    sync.Mutex
	tSubs map[events.Type]map[int]*subscription
	// these fields ensure a unique ID for all subscribers, regardless of what event types they subscribe to
	subs   map[int]subscription
	keys   []int
	eChans map[events.Type]chan []events.Event

	socket     eventSender
	sent       *atomic.Uint64
	socketErrs *atomic.Uint64
}

// New creates a new broker. The socket sender is only dialled when enabled.
func New(ctx context.Context, log *logging.Logger, config Config) (*Broker, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	b := &Broker{
		ctx:        ctx,
		log:        log,
		tSubs:      map[events.Type]map[int]*subscription{},
		subs:       map[int]subscription{},
		keys:       []int{},
		eChans:     map[events.Type]chan []events.Event{},
		sent:       atomic.NewUint64(0),
		socketErrs: atomic.NewUint64(0),
	}
	if bool(config.Socket.Enabled) {
		sender, err := NewSocketSender(log, config.Socket)
		if err != nil {
			return nil, err
		}
		b.socket = sender
	}
	return b, nil
}

func (b *Broker) sendChannel(sub Subscriber, evts []events.Event) {
	// wait for a max of 1 second
	timeout := time.NewTimer(time.Second)
	defer func() {
		// drain the channel if we managed to leave the function before the timer expired
		if !timeout.Stop() {
			<-timeout.C
		}
	}()
	select {
	case <-b.ctx.Done():
		return
	case <-sub.Closed():
		return
	case sub.C() <- evts:
		return
	case <-timeout.C:
		return
	}
}

func (b *Broker) sendChannelSync(sub Subscriber, evts []events.Event) bool {
	select {
	case <-b.ctx.Done():
		return false
	case <-sub.Skip():
		return false
	case <-sub.Closed():
		return true
	case sub.C() <- evts:
		return false
	default:
		go b.sendChannel(sub, evts)
		return false
	}
}

func (b *Broker) startSending(t events.Type, evts []events.Event) {
	b.mu.Lock()
	ch, running := b.eChans[t]
	if !running {
		// buffer at least 40 batches, 20 more per subscriber
		ch = make(chan []events.Event, 20*(len(b.subsFor(t))+2))
		b.eChans[t] = ch
	}
	b.mu.Unlock()
	ch <- evts
	if !running {
		go b.consume(t, ch)
	}
}

// consume delivers the batches queued for t until the broker context ends.
func (b *Broker) consume(t events.Type, ch chan []events.Event) {
	defer func() {
		b.mu.Lock()
		delete(b.eChans, t)
		close(ch)
		b.mu.Unlock()
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case evts := <-ch:
			b.mu.Lock()
			subs := b.subsFor(t)
			b.mu.Unlock()
			gone, ok := b.deliver(subs, evts)
			if !ok {
				return
			}
			if len(gone) > 0 {
				b.mu.Lock()
				b.rmSubs(gone...)
				b.mu.Unlock()
			}
		}
	}
}

// deliver hands evts to every subscriber and returns the keys of those that
// closed. It returns false once the broker context is done.
func (b *Broker) deliver(subs map[int]*subscription, evts []events.Event) ([]int, bool) {
	var gone []int
	for k, sub := range subs {
		select {
		case <-b.ctx.Done():
			return nil, false
		case <-sub.Skip():
		case <-sub.Closed():
			gone = append(gone, k)
		default:
			if sub.required {
				sub.Push(evts...)
			} else if b.sendChannelSync(sub, evts) {
				gone = append(gone, k)
			}
		}
	}
	return gone, true
}

// Send sends an event to all subscribers.
func (b *Broker) Send(event events.Event) {
	b.stream(event)
	b.startSending(event.Type(), []events.Event{event})
}

// SendBatch sends the events of one instruction. Events of the same type
// reach subscribers in a single push, in the order they were emitted.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	order := []events.Type{}
	byType := map[events.Type][]events.Event{}
	for _, e := range evts {
		b.stream(e)
		if _, ok := byType[e.Type()]; !ok {
			order = append(order, e.Type())
		}
		byType[e.Type()] = append(byType[e.Type()], e)
	}
	for _, t := range order {
		b.startSending(t, byType[t])
	}
}

func (b *Broker) stream(e events.Event) {
	b.sent.Inc()
	if b.socket == nil {
		return
	}
	if err := b.socket.Send(e); err != nil {
		b.socketErrs.Inc()
		b.log.Error("failed to stream event",
			logging.String("event-type", e.Type().String()),
			logging.String("trace-id", e.TraceID()),
			logging.Error(err))
	}
}

// Sent returns the number of events handed to the broker.
func (b *Broker) Sent() uint64 {
	return b.sent.Load()
}

// SocketErrors returns the number of events the socket failed to stream.
func (b *Broker) SocketErrors() uint64 {
	return b.socketErrs.Load()
}

// Close stops streaming to the indexer.
func (b *Broker) Close() error {
	if b.socket == nil {
		return nil
	}
	return b.socket.Close()
}

// subsFor copies the subscribers of t. A type nobody subscribed to
// explicitly falls back to the subscribers of every event.
func (b *Broker) subsFor(t events.Type) map[int]*subscription {
	src, ok := b.tSubs[t]
	if !ok {
		src = b.tSubs[events.All]
	}
	out := make(map[int]*subscription, len(src))
	for k, sub := range src {
		out[k] = sub
	}
	return out
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	k := b.subscribe(s)
	b.mu.Unlock()
	return k
}

func (b *Broker) SubscribeBatch(subs ...Subscriber) {
	b.mu.Lock()
	for _, s := range subs {
		k := b.subscribe(s)
		s.SetID(k)
	}
	b.mu.Unlock()
}

func (b *Broker) subscribe(s Subscriber) int {
	k := b.nextKey()
	sub := &subscription{
		Subscriber: s,
		required:   s.Ack(),
	}
	b.subs[k] = *sub

	types := s.Types()
	if wantsAll(types) {
		if _, ok := b.tSubs[events.All]; !ok {
			b.tSubs[events.All] = map[int]*subscription{}
		}
		for _, subs := range b.tSubs {
			subs[k] = sub
		}
		return k
	}
	for _, t := range types {
		subs, ok := b.tSubs[t]
		if !ok {
			// a new type starts with everyone listening to every event
			subs = make(map[int]*subscription, len(b.tSubs[events.All])+1)
			for ak, as := range b.tSubs[events.All] {
				subs[ak] = as
			}
			b.tSubs[t] = subs
		}
		subs[k] = sub
	}
	return k
}

// Unsubscribe removes subscriber from broker
// this does not change the state of the subscriber.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	b.rmSubs(k)
	b.mu.Unlock()
}

// nextKey reuses a released key before minting a new one. Without released
// keys every key up to len(subs) is taken.
func (b *Broker) nextKey() int {
	if n := len(b.keys); n > 0 {
		k := b.keys[n-1]
		b.keys = b.keys[:n-1]
		return k
	}
	return len(b.subs) + 1
}

func (b *Broker) rmSubs(keys ...int) {
	for _, k := range keys {
		if _, ok := b.subs[k]; !ok {
			continue
		}
		for _, subs := range b.tSubs {
			delete(subs, k)
		}
		delete(b.subs, k)
		b.keys = append(b.keys, k)
	}
}

func wantsAll(types []events.Type) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == events.All {
			return true
		}
	}
	return false
}
