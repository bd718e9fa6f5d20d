package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// request & refresh outcomes
const (
	outcomeOK           = "ok"
	outcomeUnauthorized = "unauthorized"
	outcomeTimeout      = "timeout"
	outcomeAPIError     = "api_error"
	outcomeError        = "error"
	outcomeFailed       = "failed"
)

type IncrementalCounter interface {
	Increment(val ...string)
}

type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

func NewCounterWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) *Counter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)

	reg.MustRegister(counter)

	return &Counter{
		Name: name,
		Help: help,
		vec:  counter,
	}
}

// Metrics groups the counters a Client reports to.
type Metrics struct {
	Requests  IncrementalCounter // endpoint, outcome
	Refreshes IncrementalCounter // outcome
}

// NewMetrics registers the gateway counters on `reg`.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Requests: NewCounterWithRegistry(reg, "gateway_requests_total",
			"Backend API requests by endpoint and outcome.", "endpoint", "outcome"),
		Refreshes: NewCounterWithRegistry(reg, "gateway_token_refreshes_total",
			"Access token refresh attempts by outcome.", "outcome"),
	}
}

// GetHandlerForRegistry returns an HTTP handler for serving Prometheus metrics from a custom registry.
func GetHandlerForRegistry(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
