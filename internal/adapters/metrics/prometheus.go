package metrics

import (
	"net/http"

	"paperTrader/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paper_trader"

// Recorder implements ports.MetricsRecorder using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	midPrice      *prometheus.GaugeVec
	ema           *prometheus.GaugeVec
	volRSI        *prometheus.GaugeVec
	tradesTotal   *prometheus.CounterVec
	slippage      *prometheus.HistogramVec
	cumulativePnL *prometheus.GaugeVec
	tradeCount    *prometheus.GaugeVec
	positionLong  *prometheus.GaugeVec
	cycleDuration prometheus.Histogram
	halted        *prometheus.GaugeVec
}

// New creates a recorder on its own registry, so several instances can coexist in tests.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		midPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "mid_price", Help: "Last observed mid price"},
			[]string{"asset"},
		),
		ema: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "ema", Help: "EMA of recent mid prices, absent until defined"},
			[]string{"asset"},
		),
		volRSI: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "vol_rsi", Help: "RSI of the volatility series, absent until defined"},
			[]string{"asset"},
		),
		tradesTotal: f.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "trades_total", Help: "Simulated trades by direction and exit reason"},
			[]string{"asset", "direction", "reason"},
		),
		slippage: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "slippage_bps",
				Help:      "Absolute distance between estimated fill and mid in basis points",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"asset", "direction"},
		),
		cumulativePnL: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "cumulative_pnl_usd", Help: "Realized PnL per asset"},
			[]string{"asset"},
		),
		tradeCount: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "trade_count", Help: "Trades executed per asset this session"},
			[]string{"asset"},
		),
		positionLong: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "position_long", Help: "1 when the asset is LONG, 0 when FLAT"},
			[]string{"asset"},
		),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one pass over all assets",
			Buckets:   prometheus.DefBuckets,
		}),
		halted: f.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "halted", Help: "Set to 1 with the reason the loop stopped"},
			[]string{"reason"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) RecordMidPrice(asset string, price float64) {
	r.midPrice.WithLabelValues(asset).Set(price)
}

// RecordIndicators drops the series while an indicator is undefined.
func (r *Recorder) RecordIndicators(asset string, ema, volRSI float64, emaOK, volRSIOK bool) {
	if emaOK {
		r.ema.WithLabelValues(asset).Set(ema)
	} else {
		r.ema.DeleteLabelValues(asset)
	}
	if volRSIOK {
		r.volRSI.WithLabelValues(asset).Set(volRSI)
	} else {
		r.volRSI.DeleteLabelValues(asset)
	}
}

func (r *Recorder) RecordTrade(asset string, trade *domain.TradeRecord) {
	if trade == nil {
		return
	}
	reason := string(trade.ExitReason)
	if reason == "" {
		reason = "ENTRY"
	}
	r.tradesTotal.WithLabelValues(asset, string(trade.Direction), reason).Inc()
	if trade.MidPrice > 0 {
		bps := trade.Slippage() / trade.MidPrice * 10_000
		if bps < 0 {
			bps = -bps
		}
		r.slippage.WithLabelValues(asset, string(trade.Direction)).Observe(bps)
	}
}

func (r *Recorder) RecordState(state *domain.AssetState) {
	if state == nil {
		return
	}
	r.cumulativePnL.WithLabelValues(state.Asset).Set(state.CumulativePnL)
	r.tradeCount.WithLabelValues(state.Asset).Set(float64(state.TradeCount))
	long := 0.0
	if state.IsLong() {
		long = 1
	}
	r.positionLong.WithLabelValues(state.Asset).Set(long)
}

func (r *Recorder) RecordCycle(seconds float64) {
	r.cycleDuration.Observe(seconds)
}

func (r *Recorder) RecordHalt(reason string) {
	r.halted.WithLabelValues(reason).Set(1)
}
