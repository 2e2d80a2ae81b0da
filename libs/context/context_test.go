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

package context_test

import (
	"context"
	"testing"

	vgcontext "github.com/CKS-Systems/manifest-sub000/libs/context"

	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	ctx, id := vgcontext.TraceIDFromContext(context.Background())
	assert.NotEmpty(t, id)

	_, again := vgcontext.TraceIDFromContext(ctx)
	assert.Equal(t, id, again)

	_, fixed := vgcontext.TraceIDFromContext(vgcontext.WithTraceID(context.Background(), "abc"))
	assert.Equal(t, "abc", fixed)
}

func TestSlot(t *testing.T) {
	_, ok := vgcontext.SlotFromContext(context.Background())
	assert.False(t, ok)

	slot, ok := vgcontext.SlotFromContext(vgcontext.WithSlot(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, uint32(42), slot)
}
