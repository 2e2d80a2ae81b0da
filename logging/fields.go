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

package logging

import (
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Binary constructs a field that carries an opaque binary blob.
func Binary(key string, val []byte) zap.Field {
	return zap.Binary(key, val)
}

// Bool constructs a field that carries a bool.
func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

// Duration constructs a field with the given key and value.
func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(err error) zap.Field {
	return zap.Error(err)
}

// Int constructs a field with the given key and value.
func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

// Uint32 constructs a field with the given key and value.
func Uint32(key string, val uint32) zap.Field {
	return zap.Uint32(key, val)
}

// String constructs a field with the given key and value.
func String(key string, val string) zap.Field {
	return zap.String(key, val)
}

// Strings constructs a field with the given key and value.
func Strings(key string, val []string) zap.Field {
	return zap.Strings(key, val)
}

// Hex constructs a field holding the hex encoding of a byte slice.
func Hex(key string, val []byte) zap.Field {
	return zap.String(key, hex.EncodeToString(val))
}

// Stringer constructs a field using the value's String method.
func Stringer(key string, val fmt.Stringer) zap.Field {
	return zap.Stringer(key, val)
}

// Reflect constructs a field with the given key and an arbitrary object.
func Reflect(key string, val interface{}) zap.Field {
	return zap.Reflect(key, val)
}

// TraceID constructs a field carrying the instruction trace id.
func TraceID(id string) zap.Field {
	return zap.String("trace-id", id)
}

// MarketID constructs a field carrying a market identifier.
func MarketID(id fmt.Stringer) zap.Field {
	return zap.Stringer("market-id", id)
}

// TraderID constructs a field carrying a trader identifier.
func TraderID(id fmt.Stringer) zap.Field {
	return zap.Stringer("trader", id)
}

// DataIndex constructs a field carrying an arena index.
func DataIndex(idx uint32) zap.Field {
	return zap.Uint32("data-index", idx)
}

// SequenceNumber constructs a field carrying an order sequence number.
func SequenceNumber(seq uint64) zap.Field {
	return zap.Uint64("sequence-number", seq)
}
