package telemetry_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/telemetry"
)

func TestPrometheusMetricsExposesCounters(t *testing.T) {
	metrics, handler := telemetry.NewPrometheusMetrics()
	metrics.IncCounter("arachnid_agents_spawned_total", 1, "web", "web-1")
	metrics.IncCounter("arachnid_agents_spawned_total", 2, "web", "web-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	handler.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "arachnid_agents_spawned_total")
	assert.Contains(t, body, `web="web-1"`)
	assert.Contains(t, body, " 3")
}

func TestPrometheusMetricsRecordsTimerAndGauge(t *testing.T) {
	metrics, handler := telemetry.NewPrometheusMetrics()
	metrics.RecordTimer("arachnid_signal_latency_seconds", 250*time.Millisecond, "web", "web-2")
	metrics.RecordGauge("arachnid_live_agents", 4, "web", "web-2")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "arachnid_signal_latency_seconds"))
	assert.True(t, strings.Contains(body, "arachnid_live_agents"))
}

func TestPrometheusMetricsImplementsInterface(t *testing.T) {
	metrics, _ := telemetry.NewPrometheusMetrics()
	var _ telemetry.Metrics = metrics
}
