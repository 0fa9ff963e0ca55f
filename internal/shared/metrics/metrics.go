package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for list pages.
type Metrics struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	pages        prometheus.Gauge
	events       *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// New registers the console metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = build(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return build(registerer)
}

// ObserveLoad records one list fetch.
func (m *Metrics) ObserveLoad(entity string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(entity, outcome(err)).Inc()
	m.loadDuration.WithLabelValues(entity).Observe(elapsed.Seconds())
}

// ObserveMutation records a settled optimistic mutation. Failed mutations are the rollbacks.
func (m *Metrics) ObserveMutation(entity, action string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, action, outcome(err)).Inc()
}

// PageMounted tracks the number of live list pages.
func (m *Metrics) PageMounted(delta int) {
	if m == nil {
		return
	}
	m.pages.Add(float64(delta))
}

// ObserveEvent counts consumed backend events per topic.
func (m *Metrics) ObserveEvent(topic string, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(topic, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func build(registerer prometheus.Registerer) *Metrics {
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bistropulse_list_loads_total",
		Help: "List page fetches partitioned by entity and outcome.",
	}, []string{"entity", "outcome"})
	loadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bistropulse_list_load_duration_seconds",
		Help:    "Duration in seconds of list page fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bistropulse_mutations_total",
		Help: "Settled optimistic mutations partitioned by entity, action and outcome.",
	}, []string{"entity", "action", "outcome"})
	pages := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bistropulse_pages_mounted",
		Help: "List pages currently mounted.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bistropulse_events_consumed_total",
		Help: "Backend events consumed from kafka partitioned by topic and outcome.",
	}, []string{"topic", "outcome"})
	registerer.MustRegister(loads, loadDuration, mutations, pages, events)
	return &Metrics{loads: loads, loadDuration: loadDuration, mutations: mutations, pages: pages, events: events}
}
