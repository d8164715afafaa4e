package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/entitlements-api/internal/domain"
)

func TestRuleErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("envuelto: %w", domain.NewRuleError(domain.KindPlanLimitExceeded, "%d/%d módulos", 2, 2))

	assert.ErrorIs(t, err, domain.ErrPlanLimitExceeded)
	assert.NotErrorIs(t, err, domain.ErrDependency)

	re, ok := domain.AsRuleError(err)
	require.True(t, ok)
	assert.Equal(t, "2/2 módulos", re.Message)
}

func TestTransient(t *testing.T) {
	assert.Nil(t, domain.Transient(nil))

	cause := errors.New("connection refused")
	err := domain.Transient(cause)
	assert.True(t, domain.IsTransient(err))
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, domain.Transient(err), "no se envuelve dos veces")

	assert.False(t, domain.IsTransient(domain.NewRuleError(domain.KindNotFound, "x")))
}
