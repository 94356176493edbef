package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal  *prometheus.CounterVec
	tradesOpened  *prometheus.CounterVec
	tradesClosed  *prometheus.CounterVec
	pnlTotal      *prometheus.GaugeVec
	balance       *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpsignals_signals_total",
				Help: "Consensus signals accepted",
			},
			[]string{"tier", "symbol"},
		),
		tradesOpened: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpsignals_trades_opened_total",
				Help: "Trades opened",
			},
			[]string{"tier", "symbol"},
		),
		tradesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpsignals_trades_closed_total",
				Help: "Trades closed",
			},
			[]string{"tier", "result"},
		),
		pnlTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perpsignals_pnl_usd",
				Help: "Cumulative realized PnL in USD, signed",
			},
			[]string{"tier"},
		),
		balance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perpsignals_balance_usd",
				Help: "Current simulated balance",
			},
			[]string{"tier"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpsignals_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		cycleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perpsignals_cycle_duration_seconds",
				Help:    "Duration of engine cycles",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"cycle"},
		),
	}
}

// RecordSignal records an accepted consensus signal.
func (r *Recorder) RecordSignal(tier, symbol string) {
	r.signalsTotal.WithLabelValues(tier, symbol).Inc()
}

// RecordTradeOpened records a trade open.
func (r *Recorder) RecordTradeOpened(tier, symbol string) {
	r.tradesOpened.WithLabelValues(tier, symbol).Inc()
}

// RecordTradeClosed records a closed trade with its realized PnL.
func (r *Recorder) RecordTradeClosed(tier, result string, pnl float64) {
	r.tradesClosed.WithLabelValues(tier, result).Inc()
	r.pnlTotal.WithLabelValues(tier).Add(pnl)
}

// RecordBalance records the tier's current balance.
func (r *Recorder) RecordBalance(tier string, balance float64) {
	r.balance.WithLabelValues(tier).Set(balance)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCycleDuration records one engine cycle duration in seconds.
func (r *Recorder) RecordCycleDuration(cycle string, seconds float64) {
	r.cycleDuration.WithLabelValues(cycle).Observe(seconds)
}
