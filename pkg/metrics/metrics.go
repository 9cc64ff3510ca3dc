package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_events_ingested_total",
			Help: "Raw safety events ingested, by event type",
		},
		[]string{"event_type"},
	)

	alertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_alerts_created_total",
			Help: "Alerts created, by alert type",
		},
		[]string{"alert_type"},
	)

	fanoutPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_fanout_published_total",
			Help: "Fan-out deliveries handed to the publisher, by channel kind",
		},
		[]string{"channel_kind"},
	)

	fanoutFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_fanout_failed_total",
			Help: "Fan-out deliveries the publisher rejected, by channel kind",
		},
		[]string{"channel_kind"},
	)

	riskAlertsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guard_risk_alerts_expired_total",
			Help: "Risk alerts removed by the expiry sweeper",
		},
	)

	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guard_websocket_connections",
			Help: "Currently registered websocket connections",
		},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by route",
		},
		[]string{"route"},
	)
)

// EventIngested counts one ingested event.
func EventIngested(eventType string) {
	eventsIngested.WithLabelValues(eventType).Inc()
}

// AlertCreated counts one created alert.
func AlertCreated(alertType string) {
	alertsCreated.WithLabelValues(alertType).Inc()
}

// FanoutPublished counts one successful publish.
func FanoutPublished(channel string) {
	fanoutPublished.WithLabelValues(channelKind(channel)).Inc()
}

// FanoutFailed counts one rejected publish.
func FanoutFailed(channel string) {
	fanoutFailed.WithLabelValues(channelKind(channel)).Inc()
}

// RiskAlertsExpired adds the sweep's deletion count.
func RiskAlertsExpired(count int) {
	riskAlertsExpired.Add(float64(count))
}

// RateLimited counts one rejected request.
func RateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

// SetWSConnections updates the connection gauge.
func SetWSConnections(n int64) {
	wsConnections.Set(float64(n))
}

// channelKind 去掉频道名里的实体ID段，控制label基数。
// 频道命名约定为 name:id[:name[:id]]，奇数位是ID
func channelKind(channel string) string {
	segments := strings.Split(channel, ":")
	kept := make([]string, 0, (len(segments)+1)/2)
	for i, seg := range segments {
		if i%2 == 0 {
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, ".")
}
