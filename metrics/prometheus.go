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
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Gauge instrument = iota
	Counter
	Histogram
)

const namespace = "manifest"

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	registry = prometheus.NewRegistry()

	setupOnce sync.Once
	setupErr  error

	instructionCounter *prometheus.CounterVec
	instructionTime    *prometheus.HistogramVec
	orderCounter       *prometheus.CounterVec
	fillCounter        *prometheus.CounterVec
	quoteVolume        *prometheus.CounterVec
	prunedCounter      *prometheus.CounterVec
	restingOrders      *prometheus.GaugeVec
	eventsSent         prometheus.Counter
)

// abstract prometheus types
type instrument int

type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

// mi holds the collector AddInstrument built, only one field is set.
type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
}

// InstrumentOption - vararg for instrument options setting
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configures a new metrics instrument and registers it with
// the package registry.
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	// apply options
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := opt.gauge()
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		o := opt.counter()
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		if len(opt.vectors) == 0 {
			return nil, errors.Wrap(ErrInstrumentNotSupported, "histograms need labels")
		}
		ret.histogramV = prometheus.NewHistogramVec(opt.histogram(), opt.vectors)
		col = ret.histogramV
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := registry.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Setup registers the exchange instruments. It is safe to call more than
// once; helpers are no-ops until it has run.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics()
	})
	return setupErr
}

// Handler serves the package registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Start enables metrics and serves them until ctx is cancelled.
func Start(ctx context.Context, log *logging.Logger, conf Config) error {
	if !bool(conf.Enabled) {
		return nil
	}
	if err := Setup(); err != nil {
		return errors.Wrap(err, "could not set up metrics")
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Path, Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	return nil
}

func (i instrumentOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts(i.opts)
}

func (i instrumentOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts(i.opts)
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Buckets:     i.buckets,
	}
}

func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

func counterVec(name, help string, labels ...string) (*prometheus.CounterVec, error) {
	h, err := AddInstrument(
		Counter,
		name,
		Namespace(namespace),
		Vectors(labels...),
		Help(help),
	)
	if err != nil {
		return nil, err
	}
	return h.CounterVec()
}

func setupMetrics() error {
	var err error
	if instructionCounter, err = counterVec("instructions_total", "Number of instructions processed", "instruction", "result"); err != nil {
		return err
	}
	h, err := AddInstrument(
		Histogram,
		"instruction_seconds",
		Namespace(namespace),
		Vectors("instruction"),
		Buckets([]float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1}),
		Help("Time spent executing instructions"),
	)
	if err != nil {
		return err
	}
	if instructionTime, err = h.HistogramVec(); err != nil {
		return err
	}
	if orderCounter, err = counterVec("orders_total", "Number of orders placed", "market", "type"); err != nil {
		return err
	}
	if fillCounter, err = counterVec("fills_total", "Number of fills", "market"); err != nil {
		return err
	}
	if quoteVolume, err = counterVec("quote_volume_atoms_total", "Quote atoms traded", "market"); err != nil {
		return err
	}
	if prunedCounter, err = counterVec("orders_pruned_total", "Expired or unbacked orders removed while matching", "market"); err != nil {
		return err
	}

	h, err = AddInstrument(
		Gauge,
		"resting_orders",
		Namespace(namespace),
		Vectors("market", "side"),
		Help("Number of orders resting on a book"),
	)
	if err != nil {
		return err
	}
	if restingOrders, err = h.GaugeVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"events_sent_total",
		Namespace(namespace),
		Help("Number of events handed to the broker"),
	)
	if err != nil {
		return err
	}
	eventsSent, err = h.Counter()
	return err
}

// StartInstruction times an instruction. The returned func records the
// outcome.
func StartInstruction(instruction string) func(err error) {
	startTime := time.Now()
	return func(err error) {
		if instructionCounter == nil || instructionTime == nil {
			return
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		instructionCounter.WithLabelValues(instruction, result).Inc()
		instructionTime.WithLabelValues(instruction).Observe(time.Since(startTime).Seconds())
	}
}

// OrderCounterInc increments the order counter
func OrderCounterInc(labelValues ...string) {
	if orderCounter == nil {
		return
	}
	orderCounter.WithLabelValues(labelValues...).Inc()
}

// FillsAdd records the fills of one order.
func FillsAdd(market string, fills int, quoteAtoms uint64) {
	if fillCounter == nil || quoteVolume == nil {
		return
	}
	fillCounter.WithLabelValues(market).Add(float64(fills))
	quoteVolume.WithLabelValues(market).Add(float64(quoteAtoms))
}

// PrunedAdd records orders removed by a walk.
func PrunedAdd(market string, n int) {
	if prunedCounter == nil || n == 0 {
		return
	}
	prunedCounter.WithLabelValues(market).Add(float64(n))
}

// RestingOrdersSet updates the size of one side of a book.
func RestingOrdersSet(market, side string, n int) {
	if restingOrders == nil {
		return
	}
	restingOrders.WithLabelValues(market, side).Set(float64(n))
}

// EventsSentAdd counts events handed to the broker.
func EventsSentAdd(n int) {
	if eventsSent == nil {
		return
	}
	eventsSent.Add(float64(n))
}
