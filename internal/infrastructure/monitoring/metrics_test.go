package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestRecordFrameAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordFrame("SEND")
	m.RecordFrame("SEND")
	m.RecordFrame("RECV")
	m.RecordIgnored("unknown_command")
	m.RecordRequeue()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.SetQueueDepth(2)
	m.SetQueueCapacity(10)

	s := m.Snapshot()
	assert.Equal(t, Snapshot{
		Sent:           2,
		Received:       1,
		Ignored:        1,
		Requeued:       1,
		SessionsActive: 1,
		SessionsTotal:  2,
		QueueDepth:     2,
		QueueCapacity:  10,
	}, s)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `ipc_broker_frames_total{command="SEND"} 2`)
	assert.Contains(t, body, `ipc_broker_frames_ignored_total{reason="unknown_command"} 1`)
	assert.Contains(t, body, "ipc_broker_sessions_active 1")
	assert.Contains(t, body, "ipc_broker_requeued_total 1")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordFrame("SEND")
	NewTimer(m, "enqueue").Stop()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `ipc_broker_frames_total{command="SEND"} 1`)
	assert.Contains(t, body, "ipc_broker_wait_seconds")
	assert.Contains(t, body, "ipc_broker_uptime_seconds")
}
