package introspect

import (
	"context"
	"net/http"
	"strings"

	"github.com/GoCodeAlone/dihelper"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const eventTypePrefix = "com.dihelper."

// MetricsObserver counts lifecycle events in its own Prometheus registry.
// It exposes:
//
//	<namespace>_lifecycle_events_total{event="bean.run_failed"}
//	<namespace>_bean_events_total{bean="sum",event="bean.run_succeeded"}
type MetricsObserver struct {
	registry    *prometheus.Registry
	events      *prometheus.CounterVec
	beanEvents  *prometheus.CounterVec
	runFailures prometheus.Counter
}

// NewMetricsObserver creates an observer. namespace defaults to "dihelper".
func NewMetricsObserver(namespace string) *MetricsObserver {
	if namespace == "" {
		namespace = "dihelper"
	}

	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_events_total",
			Help:      "Total number of container lifecycle events",
		},
		[]string{"event"},
	)

	beanEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bean_events_total",
			Help:      "Total number of lifecycle events per bean",
		},
		[]string{"bean", "event"},
	)

	runFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Total number of failed run actions",
		},
	)

	registry.MustRegister(events, beanEvents, runFailures)

	return &MetricsObserver{
		registry:    registry,
		events:      events,
		beanEvents:  beanEvents,
		runFailures: runFailures,
	}
}

// OnEvent counts one event.
func (m *MetricsObserver) OnEvent(_ context.Context, event cloudevents.Event) error {
	name := strings.TrimPrefix(event.Type(), eventTypePrefix)
	m.events.WithLabelValues(name).Inc()

	if event.Type() == dihelper.EventTypeBeanRunFailed {
		m.runFailures.Inc()
	}

	if !strings.HasPrefix(name, "bean.") {
		return nil
	}
	data, err := dihelper.DecodeBeanEvent(event)
	if err != nil {
		return err
	}
	m.beanEvents.WithLabelValues(data.Bean, name).Inc()
	return nil
}

// ObserverID implements dihelper.Observer.
func (m *MetricsObserver) ObserverID() string {
	return "introspect.metrics"
}

// Registry returns the registry the counters live in.
func (m *MetricsObserver) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsObserver) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
