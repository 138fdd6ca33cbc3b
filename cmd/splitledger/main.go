package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/SscSPs/splitledger/internal/adapters/notify"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/core/services"
	"github.com/SscSPs/splitledger/internal/handlers"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/SscSPs/splitledger/internal/platform/config"
	"github.com/SscSPs/splitledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/splitledger/internal/repositories/database/sqlite"
	"github.com/SscSPs/splitledger/internal/repositories/memory"
	"github.com/SscSPs/splitledger/internal/utils"
	"github.com/SscSPs/splitledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title splitledger API
// @version 1.0
// @description Shared-expense ledger and settlement engine.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// "splitledger token <memberID>" prints a bearer token for local development.
	if len(os.Args) == 3 && os.Args[1] == "token" {
		if cfg.IsProduction {
			logger.Error("Refusing to issue development tokens in production")
			os.Exit(1)
		}
		token, err := utils.GenerateMemberToken(os.Args[2], cfg.JWTSecret, 24*time.Hour, "splitledger")
		if err != nil {
			logger.Error("Failed to issue token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	repos, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("driver", cfg.StorageDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStorage()

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	notifiers := notify.Fanout{notify.NewLogNotifier(nil)}
	if posthogClient.IsInitialized() {
		notifiers = append(notifiers, notify.NewPosthogNotifier(posthogClient))
	}
	serviceContainer := services.NewServiceContainer(cfg, repos, notifiers)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	}))

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(rateLimiter))
	r.Use(middleware.PosthogMiddleware(posthogClient))

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage_driver", cfg.StorageDriver))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openStorage builds the repositories of the configured driver, running migrations first when enabled.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		if cfg.RunMigrations {
			// Migrations get their own database/sql connection through the pgx stdlib driver.
			migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
			if err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
			if err := migrate(migrationDB, database.DialectPostgres, cfg.MigrationsPath+"/postgres", logger); err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Database connection pool established.")
		return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		if cfg.RunMigrations {
			migrationDB, err := database.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
			if err := migrate(migrationDB, database.DialectSQLite, cfg.MigrationsPath+"/sqlite", logger); err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("SQLite database opened.", slog.String("path", cfg.SQLitePath))
		return sqlite.NewRepositoryProvider(db), func() { db.Close() }, nil

	default:
		// Groups and rosters come from the identity side; an in-memory store starts empty.
		logger.Warn("Using in-memory storage, all data is lost on exit")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}
}

func migrate(db *sql.DB, dialect string, sourceURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...", slog.String("source", sourceURL))
	applied, err := database.RunMigrations(db, dialect, sourceURL)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}
	return nil
}
