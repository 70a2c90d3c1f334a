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

	"code.vegaprotocol.io/perps/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
	// Summary ...
	Summary
)

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	engineTime             *prometheus.CounterVec
	orderCounter           *prometheus.CounterVec
	orderGauge             *prometheus.GaugeVec
	tradeCounter           *prometheus.CounterVec
	liquidationCounter     *prometheus.CounterVec
	shortfallCounter       *prometheus.CounterVec
	breakerTripCounter     *prometheus.CounterVec
	oracleRejectionCounter *prometheus.CounterVec
	priceUnavailable       *prometheus.CounterVec

	setupOnce sync.Once
	setupErr  error
)

// abstract prometheus types
type instrument int

// combine all possible prometheus options + way to differentiate between regular or vector type
type instrumentOpts struct {
	opts               prometheus.Opts
	buckets            []float64
	objectives         map[float64]float64
	maxAge             time.Duration
	ageBuckets, bufCap uint32
	vectors            []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
	histogram  prometheus.Histogram
	summaryV   *prometheus.SummaryVec
	summary    prometheus.Summary
}

// MetricInstrument - template interface for mi type return value - only mock if needed, and only mock the funcs you use
type MetricInstrument interface {
	Gauge() (prometheus.Gauge, error)
	GaugeVec() (*prometheus.GaugeVec, error)
	Counter() (prometheus.Counter, error)
	CounterVec() (*prometheus.CounterVec, error)
	Histogram() (prometheus.Histogram, error)
	HistogramVec() (*prometheus.HistogramVec, error)
	Summary() (prometheus.Summary, error)
	SummaryVec() (*prometheus.SummaryVec, error)
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

// Subsystem - set subsystem... obviously
func Subsystem(s string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Subsystem = s
	}
}

// Labels set labels for instrument (similar to vector, but with given values)
func Labels(labels map[string]string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.ConstLabels = prometheus.Labels(labels)
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// Objectives - specific to summary type
func Objectives(obj map[float64]float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.objectives = obj
	}
}

// MaxAge - specific to summary type
func MaxAge(m time.Duration) InstrumentOption {
	return func(o *instrumentOpts) {
		o.maxAge = m
	}
}

// AgeBuckets - specific to summary type
func AgeBuckets(ab uint32) InstrumentOption {
	return func(o *instrumentOpts) {
		o.ageBuckets = ab
	}
}

// BufCap - specific to summary type
func BufCap(bc uint32) InstrumentOption {
	return func(o *instrumentOpts) {
		o.bufCap = bc
	}
}

// AddInstrument  configure and register new metrics instrument
// this will, over time, be moved to use custom Registries, etc...
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
		o := opt.histogram()
		if len(opt.vectors) == 0 {
			ret.histogram = prometheus.NewHistogram(o)
			col = ret.histogram
		} else {
			ret.histogramV = prometheus.NewHistogramVec(o, opt.vectors)
			col = ret.histogramV
		}
	case Summary:
		o := opt.summary()
		if len(opt.vectors) == 0 {
			ret.summary = prometheus.NewSummary(o)
			col = ret.summary
		} else {
			ret.summaryV = prometheus.NewSummaryVec(o, opt.vectors)
			col = ret.summaryV
		}
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Start enables metrics and serves them over http until ctx is cancelled.
func Start(ctx context.Context, log *logging.Logger, conf Config) error {
	if !conf.Enabled {
		return nil
	}
	if err := Setup(); err != nil {
		return errors.Wrap(err, "could not set up metrics")
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
	log.Info("serving metrics", logging.Int("port", conf.Port), logging.String("path", conf.Path))
	return nil
}

func (i instrumentOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts(i.opts)
}

func (i instrumentOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts(i.opts)
}

func (i instrumentOpts) summary() prometheus.SummaryOpts {
	return prometheus.SummaryOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		Subsystem:   i.opts.Subsystem,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Objectives:  i.objectives,
		MaxAge:      i.maxAge,
		AgeBuckets:  i.ageBuckets,
		BufCap:      i.bufCap,
	}
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		Subsystem:   i.opts.Subsystem,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Buckets:     i.buckets,
	}
}

// Gauge returns a prometheus Gauge instrument
func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

// GaugeVec returns a prometheus GaugeVec instrument
func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

// Counter returns a prometheus Counter instrument
func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

// CounterVec returns a prometheus CounterVec instrument
func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) Histogram() (prometheus.Histogram, error) {
	if m.histogram == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogram, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

func (m mi) Summary() (prometheus.Summary, error) {
	if m.summary == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.summary, nil
}

func (m mi) SummaryVec() (*prometheus.SummaryVec, error) {
	if m.summaryV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.summaryV, nil
}

// Setup registers the instruments once, subsequent calls return the
// first outcome. Until it runs every counter below is a no-op.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics()
	})
	return setupErr
}

func counterVec(name, help string, labels ...string) (*prometheus.CounterVec, error) {
	h, err := AddInstrument(
		Counter,
		name,
		Namespace("perps"),
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
	if engineTime, err = counterVec("engine_seconds_total", "Time spent in each engine function", "market", "engine", "fn"); err != nil {
		return err
	}
	if orderCounter, err = counterVec("orders_total", "Number of orders processed", "market", "status"); err != nil {
		return err
	}

	h, err := AddInstrument(
		Gauge,
		"orders",
		Namespace("perps"),
		Vectors("market"),
		Help("Number of orders resting on the book"),
	)
	if err != nil {
		return err
	}
	if orderGauge, err = h.GaugeVec(); err != nil {
		return err
	}

	if tradeCounter, err = counterVec("trades_total", "Number of fills", "market"); err != nil {
		return err
	}
	if liquidationCounter, err = counterVec("liquidations_total", "Number of forced position reductions", "market", "kind"); err != nil {
		return err
	}
	if shortfallCounter, err = counterVec("shortfalls_total", "Number of shortfalls the insurance fund could not cover", "market"); err != nil {
		return err
	}
	if breakerTripCounter, err = counterVec("circuit_breaker_trips_total", "Number of circuit breaker trips", "market"); err != nil {
		return err
	}
	if oracleRejectionCounter, err = counterVec("oracle_rejections_total", "Number of source reports rejected as outliers", "market", "source"); err != nil {
		return err
	}
	if priceUnavailable, err = counterVec("price_unavailable_total", "Number of times no valid price was available", "market", "reason"); err != nil {
		return err
	}
	return nil
}

// EngineTimeCounterAdd adds the time elapsed since start to the engine time counter.
func EngineTimeCounterAdd(start time.Time, labelValues ...string) {
	if engineTime == nil {
		return
	}
	engineTime.WithLabelValues(labelValues...).Add(time.Since(start).Seconds())
}

// OrderCounterInc increments the order counter.
func OrderCounterInc(labelValues ...string) {
	if orderCounter == nil {
		return
	}
	orderCounter.WithLabelValues(labelValues...).Inc()
}

// OrderGaugeAdd increments the resting orders gauge, n can be negative.
func OrderGaugeAdd(n int, labelValues ...string) {
	if orderGauge == nil {
		return
	}
	orderGauge.WithLabelValues(labelValues...).Add(float64(n))
}

func TradeCounterAdd(n int, labelValues ...string) {
	if tradeCounter == nil {
		return
	}
	tradeCounter.WithLabelValues(labelValues...).Add(float64(n))
}

// LiquidationCounterInc counts one forced reduction of the given kind
// (partial, full or adl).
func LiquidationCounterInc(market, kind string) {
	if liquidationCounter == nil {
		return
	}
	liquidationCounter.WithLabelValues(market, kind).Inc()
}

func ShortfallCounterInc(labelValues ...string) {
	if shortfallCounter == nil {
		return
	}
	shortfallCounter.WithLabelValues(labelValues...).Inc()
}

func BreakerTripCounterInc(labelValues ...string) {
	if breakerTripCounter == nil {
		return
	}
	breakerTripCounter.WithLabelValues(labelValues...).Inc()
}

func OracleRejectionCounterInc(labelValues ...string) {
	if oracleRejectionCounter == nil {
		return
	}
	oracleRejectionCounter.WithLabelValues(labelValues...).Inc()
}

func PriceUnavailableCounterInc(labelValues ...string) {
	if priceUnavailable == nil {
		return
	}
	priceUnavailable.WithLabelValues(labelValues...).Inc()
}
