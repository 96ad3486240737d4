package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	httpmetrics "github.com/slok/go-http-metrics/metrics"
	metricsprom "github.com/slok/go-http-metrics/metrics/prometheus"

	"github.com/onflow/proof-relay/module"
)

// RestCollector records the request durations, response sizes and in-flight
// requests of the proof API, plus a request count per route.
type RestCollector struct {
	httpmetrics.Recorder
	totalRequests *prometheus.CounterVec
}

var _ module.RestMetrics = (*RestCollector)(nil)

// NewRestCollector creates the API collector and registers its metrics with
// registerer.
func NewRestCollector(registerer prometheus.Registerer) *RestCollector {
	return &RestCollector{
		Recorder: metricsprom.NewRecorder(metricsprom.Config{
			Prefix:   namespaceRestAPI,
			Registry: registerer,
		}),
		totalRequests: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRestAPI,
			Name:      "total_requests",
			Help:      "the number of requests served per method and route",
		}, []string{LabelMethod, LabelRoute}),
	}
}

func (r *RestCollector) AddTotalRequests(_ context.Context, method string, routeName string) {
	r.totalRequests.WithLabelValues(method, routeName).Inc()
}
