package filter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/metrics"
	"github.com/saiset-co/sai-authchain/types"
)

func TestRecoveryFilter(t *testing.T) {
	prom, err := metrics.NewPrometheusMetrics(&types.MetricsConfig{Enabled: true, Namespace: "test"}, logger.NewNop())
	require.NoError(t, err)

	f := NewRecoveryFilter(logger.NewNop(), prom, true)

	ctx := newCtx("GET", "/admin/dashboard")
	assert.NotPanics(t, func() {
		f.DoFilter(ctx, func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyString("partial")
			panic("boom")
		})
	})

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "InternalError")
	count, err := testutil.GatherAndCount(prom.Registry(), "test_panics_recovered_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ctx = newCtx("GET", "/admin/dashboard")
	called := false
	f.DoFilter(ctx, nextRecorder(&called))
	assert.True(t, called)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}
