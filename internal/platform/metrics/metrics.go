package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "animal_shelter"

// Collector agrupa las métricas del servicio. Implementa prometheus.Collector.
type Collector struct {
	transitions     *prometheus.CounterVec
	encounters      prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "animal_transitions_total",
				Help:      "Committed animal status transitions.",
			}, []string{"from", "to", "trigger"},
		),
		encounters: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "medical_encounters_total",
				Help:      "Recorded medical encounters.",
			},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern and status.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route", "status"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.transitions.Describe(ch)
	c.encounters.Describe(ch)
	c.requestDuration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.transitions.Collect(ch)
	c.encounters.Collect(ch)
	c.requestDuration.Collect(ch)
}

func (c *Collector) TransitionCommitted(from, to, trigger string) {
	if c == nil {
		return
	}
	if from == "" {
		from = "none"
	}
	c.transitions.WithLabelValues(from, to, trigger).Inc()
}

func (c *Collector) EncounterRecorded() {
	if c == nil {
		return
	}
	c.encounters.Inc()
}

func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler expone un registry propio (sin las métricas globales del proceso por defecto
// duplicadas entre tests).
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(collectors.NewGoCollector())
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
