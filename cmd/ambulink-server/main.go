package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ambulink/ambulink/internal/config"
	"github.com/ambulink/ambulink/internal/domain/alert"
	"github.com/ambulink/ambulink/internal/domain/hospital"
	"github.com/ambulink/ambulink/internal/domain/identity"
	"github.com/ambulink/ambulink/internal/domain/intake"
	"github.com/ambulink/ambulink/internal/domain/patient"
	"github.com/ambulink/ambulink/internal/platform/audit"
	"github.com/ambulink/ambulink/internal/platform/auth"
	"github.com/ambulink/ambulink/internal/platform/db"
	"github.com/ambulink/ambulink/internal/platform/middleware"
	"github.com/ambulink/ambulink/internal/platform/notes"
	"github.com/ambulink/ambulink/internal/platform/phi"
	"github.com/ambulink/ambulink/internal/platform/triage"
	"github.com/ambulink/ambulink/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ambulink-server",
		Short: "Ambulance-to-hospital handoff API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// PHI encryption is mandatory: demographics, history, and record content
	// never reach the database in the clear.
	phiKey := cfg.PHIKey()
	if phiKey == nil {
		logger.Fatal().Msg("PHI_ENCRYPTION_KEY must be set to a hex-encoded 32-byte key")
	}
	codec, err := phi.NewCodec(phiKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create PHI codec")
	}

	// Triage model. A missing or unreadable model is not fatal: the
	// classifier falls back to the neutral tier until one is provided.
	var model *triage.Model
	if cfg.TriageModelPath != "" {
		model, err = triage.LoadModel(cfg.TriageModelPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.TriageModelPath).
				Msg("triage model unavailable, classifying at neutral tier")
			model = nil
		}
	} else {
		logger.Warn().Msg("TRIAGE_MODEL_PATH not set, classifying at neutral tier")
	}
	classifier := triage.NewClassifier(model, logger)

	// Audit ledger
	ledger := audit.NewLedgerPG(pool)
	auditor := audit.NewAuditor(ledger, logger)

	jwtCfg := auth.JWTConfig{
		SigningKey: []byte(cfg.JWTSecret),
		TokenTTL:   time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Login is the only unauthenticated API surface.
	authGroup := e.Group("/api/auth")

	// Everything else requires a resolved actor.
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(jwtCfg))
	}

	// Real-time hub
	hub := websocket.NewHub(logger)
	wsHandler := websocket.NewHandler(hub)
	wsHandler.RegisterRoutes(apiV1)

	// Domain services
	structurer := notes.NewStructurer(notes.DefaultLexicon())

	identityRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(identityRepo)
	identityHandler := identity.NewHandler(identitySvc, jwtCfg, auditor)
	identityHandler.RegisterRoutes(authGroup)

	hospitalRepo := hospital.NewRepoPG(pool)
	hospitalSvc := hospital.NewService(hospitalRepo)
	hospitalHandler := hospital.NewHandler(hospitalSvc, auditor)
	hospitalHandler.RegisterRoutes(apiV1)

	patientRepo := patient.NewRepoPG(pool, codec, logger)
	patientSvc := patient.NewService(patientRepo)
	patientHandler := patient.NewHandler(patientSvc, auditor)
	patientHandler.RegisterRoutes(apiV1)

	alertRepo := alert.NewRepoPG(pool)
	alertSvc := alert.NewService(alertRepo)
	alertHandler := alert.NewHandler(alertSvc, auditor)
	alertHandler.RegisterRoutes(apiV1)

	intakeSvc := intake.NewService(patientSvc, alertSvc, hospitalSvc, classifier, structurer, hub, logger)
	intakeHandler := intake.NewHandler(intakeSvc, auditor)
	intakeHandler.RegisterRoutes(apiV1)

	auditHandler := audit.NewHandler(ledger)
	adminGroup := apiV1.Group("", auth.RequireRole(auth.RoleAdmin))
	auditHandler.RegisterRoutes(adminGroup)

	// Start server
	addr := ":" + cfg.Port
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()
	logger.Info().Str("addr", addr).Msg("server started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
