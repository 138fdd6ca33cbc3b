package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.True(t, decimal.RequireFromString("0.5").Equal(cfg.SettlementEpsilon))
	assert.True(t, decimal.RequireFromString("0.05").Equal(cfg.ShareTolerance))
	assert.Equal(t, int32(1), cfg.ShareDecimalPlaces)
	assert.False(t, cfg.RequirePayerInSplit)
	assert.Equal(t, "100-M", cfg.RateLimit)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, insecureDefaultJWTSecret, cfg.JWTSecret)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("SETTLEMENT_EPSILON", "0.01")
	t.Setenv("SHARE_DECIMAL_PLACES", "2")
	t.Setenv("REQUIRE_PAYER_IN_SPLIT", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "/tmp/ledger.db", cfg.SQLitePath)
	assert.True(t, decimal.RequireFromString("0.01").Equal(cfg.SettlementEpsilon))
	assert.Equal(t, int32(2), cfg.ShareDecimalPlaces)
	assert.True(t, cfg.RequirePayerInSplit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres", "PGSQL_URL": ""}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"bad epsilon", map[string]string{"STORAGE_DRIVER": "memory", "SETTLEMENT_EPSILON": "half"}},
		{"negative tolerance", map[string]string{"STORAGE_DRIVER": "memory", "SHARE_TOLERANCE": "-1"}},
		{"production without secret", map[string]string{"STORAGE_DRIVER": "memory", "IS_PRODUCTION": "true", "JWT_SECRET": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
