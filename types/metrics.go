package types

type MetricsManager interface {
	LifecycleManager
	Counter(name string, labels map[string]string) Counter
	Histogram(name string, buckets []float64, labels map[string]string) Histogram
	Handler() FastHTTPHandler
}

type Counter interface {
	Inc()
	Add(value float64)
	Get() float64
}

type Histogram interface {
	Observe(value float64)
	GetCount() uint64
}
