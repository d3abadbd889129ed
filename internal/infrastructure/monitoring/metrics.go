package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all broker Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Protocol metrics
	Frames        *prometheus.CounterVec
	FramesIgnored *prometheus.CounterVec
	Requeued      prometheus.Counter

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	AcceptErrors   prometheus.Counter

	// Queue metrics
	QueueDepth    prometheus.Gauge
	QueueCapacity prometheus.Gauge
	WaitDuration  *prometheus.HistogramVec

	// Admin HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for the JSON stats endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current counter values for the JSON stats endpoint
type Snapshot struct {
	Sent           int64 `json:"sent"`
	Received       int64 `json:"received"`
	Ignored        int64 `json:"ignored"`
	Requeued       int64 `json:"requeued"`
	SessionsActive int64 `json:"sessions_active"`
	SessionsTotal  int64 `json:"sessions_total"`
	QueueDepth     int64 `json:"queue_depth"`
	QueueCapacity  int64 `json:"queue_capacity"`
}

// NewMetrics creates a metrics collector with a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipc_broker_frames_total",
				Help: "Total number of frames dispatched, by command",
			},
			[]string{"command"},
		),
		FramesIgnored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipc_broker_frames_ignored_total",
				Help: "Total number of frames dropped without a reply",
			},
			[]string{"reason"},
		),
		Requeued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ipc_broker_requeued_total",
				Help: "Messages put back at the head after a failed delivery",
			},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipc_broker_sessions_active",
				Help: "Number of client connections being served",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ipc_broker_sessions_total",
				Help: "Total number of accepted client connections",
			},
		),
		AcceptErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ipc_broker_accept_errors_total",
				Help: "Total number of failed accepts",
			},
		),

		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipc_broker_queue_depth",
				Help: "Messages currently queued",
			},
		),
		QueueCapacity: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipc_broker_queue_capacity",
				Help: "Fixed queue capacity",
			},
		),
		WaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipc_broker_wait_seconds",
				Help:    "Time spent blocked waiting for a queue slot or message",
				Buckets: []float64{.0001, .001, .01, .1, 1, 10, 60},
			},
			[]string{"op"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipc_admin_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ipc_broker_uptime_seconds",
			Help: "Broker uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFrame records a dispatched SEND or RECV frame
func (m *Metrics) RecordFrame(command string) {
	m.Frames.WithLabelValues(command).Inc()

	m.mu.Lock()
	switch command {
	case "SEND":
		m.snapshot.Sent++
	case "RECV":
		m.snapshot.Received++
	}
	m.mu.Unlock()
}

// RecordIgnored records a frame dropped without reply
func (m *Metrics) RecordIgnored(reason string) {
	m.FramesIgnored.WithLabelValues(reason).Inc()

	m.mu.Lock()
	m.snapshot.Ignored++
	m.mu.Unlock()
}

// RecordRequeue records a message returned to the queue after a failed delivery
func (m *Metrics) RecordRequeue() {
	m.Requeued.Inc()

	m.mu.Lock()
	m.snapshot.Requeued++
	m.mu.Unlock()
}

// RecordWait records how long an enqueue or dequeue blocked
func (m *Metrics) RecordWait(op string, d time.Duration) {
	m.WaitDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SessionOpened tracks a newly accepted connection
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()

	m.mu.Lock()
	m.snapshot.SessionsActive++
	m.snapshot.SessionsTotal++
	m.mu.Unlock()
}

// SessionClosed tracks a finished connection
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()

	m.mu.Lock()
	m.snapshot.SessionsActive--
	m.mu.Unlock()
}

// IncAcceptErrors increments the failed accept counter
func (m *Metrics) IncAcceptErrors() {
	m.AcceptErrors.Inc()
}

// SetQueueDepth sets the current queue depth
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))

	m.mu.Lock()
	m.snapshot.QueueDepth = int64(n)
	m.mu.Unlock()
}

// SetQueueCapacity sets the queue capacity
func (m *Metrics) SetQueueCapacity(n int) {
	m.QueueCapacity.Set(float64(n))

	m.mu.Lock()
	m.snapshot.QueueCapacity = int64(n)
	m.mu.Unlock()
}

// RecordHTTPRequest records an admin HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
}

// Snapshot returns a copy of the current counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
