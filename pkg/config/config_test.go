package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "CATALOG_FILE", "ENTITLEMENT_DEFAULT_PLAN",
		"ENTITLEMENT_REQUEST_TIMEOUT_MS", "BREAKER_FAILURE_THRESHOLD", "BREAKER_TIMEOUT_SECONDS"} {
		unsetenv(t, k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "config/catalog.yaml", cfg.Store.CatalogFile)
	assert.Equal(t, "free", cfg.Entitlement.DefaultPlan)
	assert.Equal(t, 2*time.Second, cfg.Entitlement.RequestTimeout)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("CATALOG_FILE", "/etc/entitlements/catalog.yaml")
	t.Setenv("ENTITLEMENT_DEFAULT_PLAN", "starter")
	t.Setenv("ENTITLEMENT_REQUEST_TIMEOUT_MS", "150")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "/etc/entitlements/catalog.yaml", cfg.Store.CatalogFile)
	assert.Equal(t, "starter", cfg.Entitlement.DefaultPlan)
	assert.Equal(t, 150*time.Millisecond, cfg.Entitlement.RequestTimeout)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 2, cfg.Breaker.FailureThreshold)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:       StoreConfig{Driver: "memory", CatalogFile: "catalog.yaml"},
			Entitlement: EntitlementConfig{DefaultPlan: "free"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"driver desconocido":  func(c *Config) { c.Store.Driver = "sqlite" },
		"memory sin catálogo": func(c *Config) { c.Store.CatalogFile = "" },
		"plan por defecto":    func(c *Config) { c.Entitlement.DefaultPlan = "" },
		"timeout negativo":    func(c *Config) { c.Entitlement.RequestTimeout = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "entitlements", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/entitlements?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://x@y/z"
	assert.Equal(t, "postgresql://x@y/z", c.ConnectionString())
}

// unsetenv elimina key durante el test; viper trata una variable vacía como definida.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
