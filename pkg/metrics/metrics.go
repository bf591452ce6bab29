package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guardianlink"

// Metrics 指标管理器
type Metrics struct {
	registry *prometheus.Registry

	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 求救信号指标
	sessionActive  prometheus.Gauge
	sessionsTotal  prometheus.Counter
	emissionsTotal *prometheus.CounterVec
	alertsTotal    *prometheus.CounterVec
	noticesTotal   *prometheus.CounterVec
	packetsTotal   prometheus.Counter

	// 聊天指标
	messagesTotal *prometheus.CounterVec
	repliesTotal  *prometheus.CounterVec
	replyDuration prometheus.Histogram

	// 推送连接
	streamClients *prometheus.GaugeVec
}

// NewMetrics 创建指标管理器，使用独立的 registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		sessionActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sos_session_active",
			Help:      "1 while a distress session is broadcasting",
		}),
		sessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sos_sessions_total",
			Help:      "Distress sessions started",
		}),
		emissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sos_emissions_total",
				Help:      "Distress emissions by visibility",
			},
			[]string{"visible"},
		),
		alertsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sos_alerts_total",
				Help:      "One-shot SOS alerts by mode",
			},
			[]string{"mode"},
		),
		noticesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notices_total",
				Help:      "User notices by severity",
			},
			[]string{"severity"},
		),
		packetsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sos_packets_total",
			Help:      "Drone SOS packets built",
		}),

		messagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_messages_total",
				Help:      "Chat messages appended by chat type",
			},
			[]string{"type"},
		),
		repliesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_replies_total",
				Help:      "Text replies by result",
			},
			[]string{"result"},
		),
		replyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_reply_duration_seconds",
			Help:      "Time spent waiting for a text reply",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		streamClients: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_clients",
				Help:      "Connected push clients by transport",
			},
			[]string{"transport"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest 记录HTTP请求
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SessionStarted 记录求救会话开始
func (m *Metrics) SessionStarted() {
	m.sessionsTotal.Inc()
	m.sessionActive.Set(1)
}

// SessionStopped 记录求救会话结束
func (m *Metrics) SessionStopped() {
	m.sessionActive.Set(0)
}

// RecordEmission 记录一次信号发送
func (m *Metrics) RecordEmission(visible bool) {
	m.emissionsTotal.WithLabelValues(strconv.FormatBool(visible)).Inc()
}

func (m *Metrics) RecordAlert(silent bool) {
	mode := "loud"
	if silent {
		mode = "silent"
	}
	m.alertsTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) RecordNotice(severity string) {
	m.noticesTotal.WithLabelValues(severity).Inc()
}

func (m *Metrics) RecordPacket() {
	m.packetsTotal.Inc()
}

func (m *Metrics) RecordMessage(chatType string) {
	m.messagesTotal.WithLabelValues(chatType).Inc()
}

// RecordReply 记录文本回复结果
func (m *Metrics) RecordReply(err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.repliesTotal.WithLabelValues(result).Inc()
	m.replyDuration.Observe(duration.Seconds())
}

// StreamClients returns the connected-clients gauge for a transport.
func (m *Metrics) StreamClients(transport string) prometheus.Gauge {
	return m.streamClients.WithLabelValues(transport)
}
