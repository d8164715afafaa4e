// Package resilience protege las llamadas al almacén con un circuit breaker.
// Todo fallo de infraestructura sale marcado con domain.ErrTransient; los
// *domain.RuleError pasan intactos y no cuentan como fallo.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

// Config parámetros del circuit breaker.
type Config struct {
	Name             string
	MaxRequests      uint32        // peticiones permitidas en half-open
	Interval         time.Duration // periodo cíclico del estado closed
	Timeout          time.Duration // duración del estado open
	FailureThreshold uint32        // fallos consecutivos para abrir
}

// DefaultConfig valores por defecto razonables.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker envuelve gobreaker para funciones que solo devuelven error.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// New construye el breaker; m puede ser nil.
func New(cfg Config, m *metrics.Metrics) *Breaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.SetBreakerState(name, int(to))
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			_, isRule := domain.AsRuleError(err)
			return isRule
		},
	}
	m.SetBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &Breaker{cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

// Do ejecuta fn bajo el breaker. Con breaker abierto no llama a fn y devuelve un error transitorio.
// Un receptor nil ejecuta fn directamente (repositorios atados a una transacción ya protegida).
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if b == nil {
		return mark(fn(ctx))
	}
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return mark(err)
}

// State estado actual del breaker.
func (b *Breaker) State() gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	return b.cb.State()
}

func mark(err error) error {
	if err == nil {
		return nil
	}
	if _, isRule := domain.AsRuleError(err); isRule {
		return err
	}
	return domain.Transient(err)
}
