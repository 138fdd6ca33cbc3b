package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers understood by the server.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const insecureDefaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	StorageDriver string
	DatabaseURL   string
	EnableDBCheck bool
	SQLitePath    string

	MigrationsPath string
	RunMigrations  bool

	JWTSecret string

	// Ledger policy
	SettlementEpsilon   decimal.Decimal
	ShareDecimalPlaces  int32
	ShareTolerance      decimal.Decimal
	RequirePayerInSplit bool

	RateLimit          string
	PosthogAPIKey      string
	PosthogEndpoint    string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("SQLITE_PATH", "./data/splitledger.db")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SETTLEMENT_EPSILON", "0.5")
	v.SetDefault("SHARE_DECIMAL_PLACES", 1)
	v.SetDefault("SHARE_TOLERANCE", "0.05")
	v.SetDefault("REQUIRE_PAYER_IN_SPLIT", false)
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	// Environment variables override the defaults above.
	v.AutomaticEnv()

	cfg := &Config{
		Port:                v.GetString("PORT"),
		IsProduction:        v.GetBool("IS_PRODUCTION"),
		StorageDriver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:         v.GetString("PGSQL_URL"),
		EnableDBCheck:       v.GetBool("ENABLE_DB_CHECK"),
		SQLitePath:          v.GetString("SQLITE_PATH"),
		MigrationsPath:      v.GetString("MIGRATIONS_PATH"),
		RunMigrations:       v.GetBool("RUN_MIGRATIONS"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		ShareDecimalPlaces:  int32(v.GetInt("SHARE_DECIMAL_PLACES")),
		RequirePayerInSplit: v.GetBool("REQUIRE_PAYER_IN_SPLIT"),
		RateLimit:           v.GetString("RATE_LIMIT"),
		PosthogAPIKey:       v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:     v.GetString("POSTHOG_ENDPOINT"),
		CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.SettlementEpsilon, err = decimal.NewFromString(v.GetString("SETTLEMENT_EPSILON")); err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_EPSILON: %w", err)
	}
	if cfg.ShareTolerance, err = decimal.NewFromString(v.GetString("SHARE_TOLERANCE")); err != nil {
		return nil, fmt.Errorf("invalid SHARE_TOLERANCE: %w", err)
	}
	if cfg.SettlementEpsilon.IsNegative() || cfg.ShareTolerance.IsNegative() {
		return nil, fmt.Errorf("SETTLEMENT_EPSILON and SHARE_TOLERANCE must not be negative")
	}
	if cfg.ShareDecimalPlaces < 0 || cfg.ShareDecimalPlaces > 8 {
		return nil, fmt.Errorf("SHARE_DECIMAL_PLACES must be between 0 and 8, got %d", cfg.ShareDecimalPlaces)
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required for the %s storage driver", DriverPostgres)
		}
	case DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
		cfg.JWTSecret = insecureDefaultJWTSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
