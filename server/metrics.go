package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the runtime counters of the relay and the simulation loop.
// A nil *Metrics records nothing.
type Metrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	packetsRelayed    *prometheus.CounterVec
	decodeErrors      prometheus.Counter
	relayErrors       *prometheus.CounterVec
	relayBacklog      prometheus.Gauge
	playersMapped     prometheus.Gauge
	slotRejections    prometheus.Counter
	tickDuration      prometheus.Histogram
	lapsCompleted     prometheus.Counter
}

// NewMetrics registers the metrics with reg under the "partyrace" namespace.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const ns = "partyrace"
	return &Metrics{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "connections_active",
			Help:      "Controller connections currently open",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "connections_total",
			Help:      "Controller connections accepted",
		}),
		packetsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "packets_relayed_total",
			Help:      "Packets handed to the relay, by kind",
		}, []string{"kind"}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "decode_errors_total",
			Help:      "Inbound frames dropped because they did not decode",
		}),
		relayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "relay_send_errors_total",
			Help:      "Relay sends that failed because the consumer was gone",
		}, []string{"kind"}),
		relayBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "relay_backlog",
			Help:      "Packets drained from the relay on the last tick",
		}),
		playersMapped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "players_mapped",
			Help:      "Player numbers currently assigned",
		}),
		slotRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "player_slot_rejections_total",
			Help:      "Connections refused a player number because all were taken",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
		}),
		lapsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "laps_completed_total",
			Help:      "Laps completed by all cars",
		}),
	}
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) PacketRelayed(kind string) {
	if m == nil {
		return
	}
	m.packetsRelayed.WithLabelValues(kind).Inc()
}

func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) RelayError(kind string) {
	if m == nil {
		return
	}
	m.relayErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RelayDrained(n int) {
	if m == nil {
		return
	}
	m.relayBacklog.Set(float64(n))
}

func (m *Metrics) PlayersMapped(n int) {
	if m == nil {
		return
	}
	m.playersMapped.Set(float64(n))
}

func (m *Metrics) SlotRejected() {
	if m == nil {
		return
	}
	m.slotRejections.Inc()
}

func (m *Metrics) Tick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) LapCompleted() {
	if m == nil {
		return
	}
	m.lapsCompleted.Inc()
}
