// Package metrics expone las métricas Prometheus del motor de autorización.
// Todos los métodos aceptan receptor nil, de modo que las métricas son opcionales.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa los colectores del servicio.
type Metrics struct {
	ModuleOperationsTotal *prometheus.CounterVec
	ContextBuildsTotal    *prometheus.CounterVec
	ContextBuildDuration  prometheus.Histogram
	DecisionsTotal        *prometheus.CounterVec
	StoreBreakerState     *prometheus.GaugeVec
}

// New crea y registra las métricas en registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ModuleOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlements_module_operations_total",
				Help: "Activaciones y desactivaciones de módulos por resultado",
			},
			[]string{"operation", "outcome"},
		),
		ContextBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlements_context_builds_total",
				Help: "Contextos de permisos construidos por resultado",
			},
			[]string{"outcome"},
		),
		ContextBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "entitlements_context_build_duration_seconds",
				Help:    "Duración de la construcción del contexto de permisos",
				Buckets: prometheus.DefBuckets,
			},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlements_guard_decisions_total",
				Help: "Decisiones de los guards HTTP",
			},
			[]string{"guard", "decision"},
		),
		StoreBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "entitlements_store_breaker_state",
				Help: "Estado del circuit breaker del almacén (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}
	registry.MustRegister(
		m.ModuleOperationsTotal,
		m.ContextBuildsTotal,
		m.ContextBuildDuration,
		m.DecisionsTotal,
		m.StoreBreakerState,
	)
	return m
}

// ObserveModuleOperation cuenta una activación/desactivación.
func (m *Metrics) ObserveModuleOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.ModuleOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveContextBuild cuenta y mide una construcción de contexto.
func (m *Metrics) ObserveContextBuild(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ContextBuildsTotal.WithLabelValues(outcome).Inc()
	m.ContextBuildDuration.Observe(time.Since(started).Seconds())
}

// ObserveDecision cuenta una decisión allow/deny de un guard.
func (m *Metrics) ObserveDecision(guard string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.DecisionsTotal.WithLabelValues(guard, decision).Inc()
}

// SetBreakerState publica el estado del circuit breaker.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.StoreBreakerState.WithLabelValues(name).Set(float64(state))
}
