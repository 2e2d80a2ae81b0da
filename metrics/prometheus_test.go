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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruments(t *testing.T) {
	require.NoError(t, Setup())
	require.NoError(t, Setup())

	done := StartInstruction("Deposit")
	done(nil)
	done = StartInstruction("Deposit")
	done(errors.New("boom"))
	assert.Equal(t, 1, testutil.CollectAndCount(instructionTime))
	assert.Equal(t, 1.0, testutil.ToFloat64(instructionCounter.WithLabelValues("Deposit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instructionCounter.WithLabelValues("Deposit", "error")))

	OrderCounterInc("m1", "Limit")
	FillsAdd("m1", 2, 30)
	PrunedAdd("m1", 0)
	PrunedAdd("m1", 3)
	RestingOrdersSet("m1", "bid", 4)
	EventsSentAdd(5)

	assert.Equal(t, 1.0, testutil.ToFloat64(orderCounter.WithLabelValues("m1", "Limit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(fillCounter.WithLabelValues("m1")))
	assert.Equal(t, 30.0, testutil.ToFloat64(quoteVolume.WithLabelValues("m1")))
	assert.Equal(t, 3.0, testutil.ToFloat64(prunedCounter.WithLabelValues("m1")))
	assert.Equal(t, 4.0, testutil.ToFloat64(restingOrders.WithLabelValues("m1", "bid")))
	assert.Equal(t, 5.0, testutil.ToFloat64(eventsSent))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "manifest_fills_total")
}

func TestAddInstrumentRejectsUnknownType(t *testing.T) {
	_, err := AddInstrument(instrument(42), "unknown")
	assert.ErrorIs(t, err, ErrInstrumentNotSupported)

	h, err := AddInstrument(Gauge, "test_gauge", Namespace("manifest"))
	require.NoError(t, err)
	_, err = h.Counter()
	assert.ErrorIs(t, err, ErrInstrumentTypeMismatch)
	_, err = h.Gauge()
	assert.NoError(t, err)

	_, err = AddInstrument(Histogram, "unlabelled_histogram")
	assert.ErrorIs(t, err, ErrInstrumentNotSupported)
}
