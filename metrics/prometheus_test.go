package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/types"
)

func newTestMetrics(t *testing.T) *PrometheusMetrics {
	t.Helper()

	m, err := NewPrometheusMetrics(&types.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Path:      "/metrics",
	}, logger.NewNop())
	require.NoError(t, err)
	return m
}

func TestPrometheusMetrics_Counter(t *testing.T) {
	m := newTestMetrics(t)

	labels := map[string]string{"filter": "admin", "decision": "reject"}
	m.Counter("auth_decisions_total", labels).Inc()
	m.Counter("auth_decisions_total", labels).Add(2)
	m.Counter("auth_decisions_total", map[string]string{"filter": "admin", "decision": "pass"}).Inc()

	assert.Equal(t, float64(3), m.Counter("auth_decisions_total", labels).Get())
	assert.Equal(t, 2, testutil.CollectAndCount(m.counters["auth_decisions_total"]))

	expected := `
# HELP test_auth_decisions_total Counter metric auth_decisions_total
# TYPE test_auth_decisions_total counter
test_auth_decisions_total{decision="pass",filter="admin"} 1
test_auth_decisions_total{decision="reject",filter="admin"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "test_auth_decisions_total"))
}

func TestPrometheusMetrics_LabelMismatch(t *testing.T) {
	m := newTestMetrics(t)

	m.Counter("cache_operations_total", map[string]string{"operation": "get"}).Inc()
	counter := m.Counter("cache_operations_total", map[string]string{"other": "x"})

	assert.NotPanics(t, counter.Inc)
	assert.Equal(t, float64(0), counter.Get())
}

func TestPrometheusMetrics_Histogram(t *testing.T) {
	m := newTestMetrics(t)

	h := m.Histogram("cache_operation_duration_seconds", []float64{0.001, 0.1}, map[string]string{"operation": "get"})
	h.Observe(0.01)
	h.Observe(0.5)

	assert.Equal(t, uint64(2), h.GetCount())
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := newTestMetrics(t)
	m.Counter("auth_decisions_total", map[string]string{"filter": "api", "decision": "pass"}).Inc()

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI("/metrics")

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(req, nil, nil)

	m.Handler()(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `test_auth_decisions_total{decision="pass",filter="api"} 1`)
}

func TestNewManager_Disabled(t *testing.T) {
	m, err := NewManager(&types.MetricsConfig{Enabled: false}, logger.NewNop())
	require.NoError(t, err)

	assert.IsType(t, NoopMetrics{}, m)
	assert.Equal(t, float64(0), m.Counter("x", nil).Get())
}
