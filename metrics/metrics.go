// Package metrics exposes Prometheus counters for the trust and
// certificate lifecycle subsystem on a dedicated listener.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the subsystem counters backed by a private registry,
// so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	ChallengesServed prometheus.Counter
	Renewals         *prometheus.CounterVec

	srv *http.Server
}

// New creates the metric set. namespace prefixes every metric name.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ChallengesServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acme_challenges_served_total",
			Help:      "HTTP-01 key authorizations served to ACME validators.",
		}),
		Renewals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificate_renewals_total",
			Help:      "Certificate renewal attempts by result (renewed, failed).",
		}, []string{"result"}),
	}
}

// Handler returns the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a scrape listener on addr in the background. Empty addr
// disables it.
func (m *Metrics) Serve(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	m.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		_ = m.srv.ListenAndServe()
	}()
}

// Shutdown stops the scrape listener, if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}
