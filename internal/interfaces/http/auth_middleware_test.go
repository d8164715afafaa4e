package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/entitlements-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/entitlements-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "entitlements-api-test"
	testExpMin    = 60
)

// bearer genera un Authorization header para userID.
func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza la petición contra app y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, method, path, authHeader, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func meApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c)})
	})
	return app
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ExtractsUserID(t *testing.T) {
	resp := doRequest(t, meApp(), http.MethodGet, "/me", bearer(t, "user-1"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "user-1", body["user_id"])
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, "user-1", testIssuer, -1)
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otro-secret", "user-1", testIssuer, testExpMin)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		code   string
	}{
		"sin header":  {"", "MISSING_TOKEN"},
		"sin Bearer":  {"Token abc", "INVALID_TOKEN"},
		"malformado":  {"Bearer token.invalido.aqui", "INVALID_TOKEN"},
		"expirado":    {"Bearer " + expired, "INVALID_TOKEN"},
		"otro secret": {"Bearer " + otherSecret, "INVALID_TOKEN"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := doRequest(t, meApp(), http.MethodGet, "/me", tc.header, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}
