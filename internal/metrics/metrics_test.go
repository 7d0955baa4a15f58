package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.MessageReceived("group")
	m.MessageReceived("group")
	m.CommandHandled("!ask")
	m.WorkflowCompleted("upload_pdf")
	m.SessionExpired()
	m.AIRequest("gemini", "ok", 1500*time.Millisecond)
	m.AIRequest("gemini", "throttled", 0)
	m.SectionProvisioned("committed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("group")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("!ask")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflows.WithLabelValues("upload_pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiTotal.WithLabelValues("gemini", "throttled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sections.WithLabelValues("committed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.aiLatency))
}

func TestHandler(t *testing.T) {
	m := New()
	m.CommandHandled("!help")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lecturebot_commands_total{command="!help"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageReceived("private")
		m.SessionExpired()
		m.AIRequest("openai", "error", time.Second)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
