package metrics

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/types"
)

// NoopMetrics is used when metrics.enabled is false.
type NoopMetrics struct{}

func (NoopMetrics) Start() error { return nil }
func (NoopMetrics) Stop() error { return nil }
func (NoopMetrics) IsRunning() bool { return false }

func (NoopMetrics) Counter(string, map[string]string) types.Counter {
	return noopCounter{}
}

func (NoopMetrics) Histogram(string, []float64, map[string]string) types.Histogram {
	return noopHistogram{}
}

func (NoopMetrics) Handler() types.FastHTTPHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

type noopCounter struct{}

func (noopCounter) Inc() {}
func (noopCounter) Add(float64) {}
func (noopCounter) Get() float64 { return 0 }

type noopHistogram struct{}

func (noopHistogram) Observe(float64) {}
func (noopHistogram) GetCount() uint64 { return 0 }
