package prom

import (
	"sync"

	xhttp "github.com/i-snrdra/SWAG/pkg/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metric names, all under the configured namespace.
const (
	MetricMessagesSent = "messages_sent_total"
	MetricInboundTotal = "inbound_messages_total"
	MetricAutoReplies  = "auto_replies_sent_total"
	MetricSessionState = "session_connected"
)

const (
	KindManual    = "manual"
	KindAutoReply = "auto_reply"
)

var createLock = &sync.Mutex{}

var MetricSystemEnabled = false

var (
	messagesSent    *prometheus.CounterVec
	inboundMessages prometheus.Counter
	autoReplies     prometheus.Counter
	sessionState    prometheus.Gauge
)

// Create registers the gateway collectors. Safe to skip entirely: all
// recording helpers are no-ops until Create succeeds.
func Create(host string, env string, namespace string) error {
	createLock.Lock()
	defer createLock.Unlock()

	labels := prometheus.Labels{"env": env, "instance": host}

	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        MetricMessagesSent,
		Help:        "Outbound WhatsApp messages by delivery status and origin.",
		ConstLabels: labels,
	}, []string{"status", "kind"})

	inboundMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        MetricInboundTotal,
		Help:        "Inbound WhatsApp messages handled.",
		ConstLabels: labels,
	})

	autoReplies = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        MetricAutoReplies,
		Help:        "Auto-replies dispatched from keyword rules.",
		ConstLabels: labels,
	})

	sessionState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        MetricSessionState,
		Help:        "1 when the WhatsApp session is connected.",
		ConstLabels: labels,
	})

	for _, c := range []prometheus.Collector{messagesSent, inboundMessages, autoReplies, sessionState} {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}

	MetricSystemEnabled = true
	return nil
}

func IncMessageSent(status, kind string) {
	if !MetricSystemEnabled {
		return
	}
	messagesSent.WithLabelValues(status, kind).Inc()
}

func IncInbound() {
	if !MetricSystemEnabled {
		return
	}
	inboundMessages.Inc()
}

func IncAutoReply() {
	if !MetricSystemEnabled {
		return
	}
	autoReplies.Inc()
}

func SetSessionConnected(connected bool) {
	if !MetricSystemEnabled {
		return
	}
	if connected {
		sessionState.Set(1)
	} else {
		sessionState.Set(0)
	}
}

// Handler exposes the default prometheus registry as a fasthttp handler.
func Handler() xhttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
}
