package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

func testConfig() resilience.Config {
	return resilience.Config{Name: "test", MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2}
}

func TestDo_MarksInfrastructureErrorsTransient(t *testing.T) {
	br := resilience.New(testConfig(), nil)

	err := br.Do(context.Background(), func(context.Context) error { return assert.AnError })
	assert.True(t, domain.IsTransient(err))
	assert.ErrorIs(t, err, assert.AnError)

	assert.NoError(t, br.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestDo_RuleErrorsPassAndDoNotTrip(t *testing.T) {
	br := resilience.New(testConfig(), nil)
	rule := domain.NewRuleError(domain.KindDependency, "x")

	for i := 0; i < 5; i++ {
		err := br.Do(context.Background(), func(context.Context) error { return rule })
		assert.Same(t, rule, err)
	}
	assert.Equal(t, gobreaker.StateClosed, br.State())
}

func TestDo_OpensAfterConsecutiveFailures(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	br := resilience.New(testConfig(), m)
	fail := func(context.Context) error { return errors.New("db down") }

	_ = br.Do(context.Background(), fail)
	_ = br.Do(context.Background(), fail)
	require.Equal(t, gobreaker.StateOpen, br.State())
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(m.StoreBreakerState.WithLabelValues("test")))

	called := false
	err := br.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called, "con el circuito abierto no se llama a fn")
	assert.True(t, domain.IsTransient(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestDo_NilBreakerRunsDirectly(t *testing.T) {
	var br *resilience.Breaker
	err := br.Do(context.Background(), func(context.Context) error { return assert.AnError })
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, gobreaker.StateClosed, br.State())
}
