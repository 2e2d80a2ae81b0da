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

package context

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	slotKey
)

// WithTraceID returns a context carrying the trace id of an instruction.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceIDFromContext returns the trace id of ctx. A context without one gets
// a fresh id, returned together with the derived context.
func TraceIDFromContext(ctx context.Context) (context.Context, string) {
	if id, ok := ctx.Value(traceIDKey).(string); ok && id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithTraceID(ctx, id), id
}

// WithSlot returns a context carrying the slot an instruction executes in.
func WithSlot(ctx context.Context, slot uint32) context.Context {
	return context.WithValue(ctx, slotKey, slot)
}

// SlotFromContext returns the slot of ctx, if any.
func SlotFromContext(ctx context.Context) (uint32, bool) {
	slot, ok := ctx.Value(slotKey).(uint32)
	return slot, ok
}
