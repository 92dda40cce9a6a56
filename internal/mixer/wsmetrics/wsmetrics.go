package wsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Conns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mixer_ws_conns",
		Help: "Active websocket connections",
	})
	ConnOpenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_conn_open_total",
		Help: "Total websocket connections opened",
	})
	ConnCloseTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_conn_close_total",
		Help: "Total websocket connections closed",
	})

	SubOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mixer_ws_sub_ops_total",
		Help: "Total subscription operations",
	}, []string{"op"}) // subscribe/unsubscribe

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mixer_ws_events_total",
		Help: "Total lifecycle events broadcast, partitioned by event type",
	}, []string{"type"})

	MsgsOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_msgs_out_total",
		Help: "Total websocket messages sent out",
	})
	BytesOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_bytes_out_total",
		Help: "Total websocket bytes sent out",
	})
	WriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_write_errors_total",
		Help: "Total websocket write errors",
	})
	DroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mixer_ws_dropped_total",
		Help: "Total dropped messages",
	}, []string{"why"})

	PingSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_ping_sent_total",
		Help: "Total ping sent",
	})
	PingErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_ws_ping_errors_total",
		Help: "Total ping send errors",
	})
)

func OnOpen() {
	Conns.Inc()
	ConnOpenTotal.Inc()
}

func OnClose() {
	Conns.Dec()
	ConnCloseTotal.Inc()
}
