package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Trades = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macro_trader_trades_total",
		Help: "Trade executions by direction and result",
	}, []string{"direction", "result"})

	TradeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "macro_trader_trade_duration_seconds",
		Help:    "Duration of a full macro replay",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"direction"})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macro_trader_element_resolutions_total",
		Help: "Replay element resolutions by strategy (locator, keyword, none)",
	}, []string{"strategy"})

	ExitTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macro_trader_exit_triggers_total",
		Help: "Exit decisions by kind (stop_loss, simple_tp, trailing_tp, split_tp)",
	}, []string{"kind"})

	Signals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macro_trader_signals_total",
		Help: "Chat signals by outcome",
	}, []string{"outcome"})

	LockForceReleases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macro_trader_lock_force_releases_total",
		Help: "Trade lock releases forced by timeout or command",
	})

	PositionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "macro_trader_position_active",
		Help: "1 when a position is open",
	})
)
