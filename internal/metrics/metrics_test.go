package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.ObserveTool("get_technical_indicator", "ok", 20*time.Millisecond)
	r.ObserveTool("get_technical_indicator", "ok", 30*time.Millisecond)
	r.ObserveTool("get_technical_indicator", "rejected", time.Millisecond)
	r.ObserveProvider("yahoo", "fetch", time.Second, nil)
	r.ObserveProvider("yahoo", "fetch", time.Second, errors.New("boom"))
	r.SetActiveSessions(3)
	r.ObserveHTTP("/mcp", http.MethodPost, http.StatusAccepted)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("get_technical_indicator", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("get_technical_indicator", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerRequests.WithLabelValues("yahoo", "fetch", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/mcp", "POST", "2xx")))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	// Two recorders must not collide on registration.
	a, b := New(), New()
	a.SetActiveSessions(1)
	b.SetActiveSessions(2)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.activeSessions))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveTool("get_stock_quote", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `finmcp_tool_calls_total{outcome="ok",tool="get_stock_quote"} 1`)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "5xx", statusClass(0))
}
