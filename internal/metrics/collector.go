// Package metrics instruments the generation pipeline. The collector keeps
// its metrics on a private Prometheus registry so concurrent generator
// instances never share state; an optional HTTP endpoint exposes the
// registry for batch runs over many models.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loadtools/plangen/internal/plan"
)

// Prometheus metric names.
const (
	MetricGenerationsTotal          = "plangen_generations_total"
	MetricGenerationDurationSeconds = "plangen_generation_duration_seconds"
	MetricElementsTotal             = "plangen_elements_total"
	MetricFilterApplicationsTotal   = "plangen_filter_applications_total"
)

// Collector records generation pipeline metrics.
type Collector struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	elementsTotal      *prometheus.CounterVec
	filterApplications *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		generationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricGenerationsTotal,
			Help: "Total generation calls by outcome.",
		}, []string{"status"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricGenerationDurationSeconds,
			Help:    "Duration of generation calls in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		elementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricElementsTotal,
			Help: "Total generated test plan elements by kind.",
		}, []string{"kind"}),
		filterApplications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFilterApplicationsTotal,
			Help: "Total filter applications by filter name.",
		}, []string{"filter"}),
	}

	c.registry.MustRegister(
		c.generationsTotal,
		c.generationDuration,
		c.elementsTotal,
		c.filterApplications,
	)
	return c
}

// Registry exposes the private registry, e.g. for an HTTP endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// GenerationSucceeded records a successful generation call.
func (c *Collector) GenerationSucceeded(duration time.Duration) {
	c.generationsTotal.WithLabelValues("ok").Inc()
	c.generationDuration.Observe(duration.Seconds())
}

// GenerationFailed records a failed generation call.
func (c *Collector) GenerationFailed(duration time.Duration) {
	c.generationsTotal.WithLabelValues("failed").Inc()
	c.generationDuration.Observe(duration.Seconds())
}

// ObserveTree records the element population of a generated tree.
func (c *Collector) ObserveTree(tree *plan.Tree) {
	tree.Walk(func(el *plan.Element) error {
		c.elementsTotal.WithLabelValues(string(el.Kind)).Inc()
		return nil
	})
}

// FilterApplied records one filter application.
func (c *Collector) FilterApplied(name string) {
	c.filterApplications.WithLabelValues(name).Inc()
}
