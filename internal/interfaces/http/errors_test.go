package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/pkg/logger"
)

func errorApp(log *logger.Logger, err error) *fiber.App {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error { return writeError(c, log, err) })
	return app
}

func callError(t *testing.T, app *fiber.App) (int, dto.ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestWriteError_InternalHidesDetailAndLogs(t *testing.T) {
	var buf bytes.Buffer
	cause := errors.New("pq: password authentication failed for user \"entitlements\"")

	status, body := callError(t, errorApp(logger.NewWithWriter(&buf, "info"), cause))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL", body.Code)
	assert.NotContains(t, body.Message, "password")
	assert.Contains(t, buf.String(), "password authentication failed")
	assert.Contains(t, buf.String(), `"path":"/boom"`)
}

func TestWriteError_Mapping(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
		code   string
	}{
		"not found":   {domain.NewRuleError(domain.KindNotFound, "x"), http.StatusNotFound, "NOT_FOUND"},
		"no miembro":  {domain.NewRuleError(domain.KindAuthentication, "x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		"sin permiso": {domain.NewRuleError(domain.KindAuthorization, "x"), http.StatusForbidden, "FORBIDDEN"},
		"cupo":        {domain.NewRuleError(domain.KindPlanLimitExceeded, "x"), http.StatusConflict, "PLAN_LIMIT_EXCEEDED"},
		"dependencia": {domain.NewRuleError(domain.KindDependency, "x"), http.StatusConflict, "MODULE_DEPENDENCY"},
		"transitorio": {domain.Transient(fmt.Errorf("dial tcp: refused")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, body := callError(t, errorApp(logger.Nop(), tt.err))
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
