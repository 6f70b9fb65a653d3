package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scan-reconciler/core/config"
	"scan-reconciler/core/loader"
	"scan-reconciler/core/logger"
	"scan-reconciler/core/middleware/auth"
	"scan-reconciler/core/middleware/rayid"
	"scan-reconciler/feature/integrity"
	"scan-reconciler/feature/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "scan-reconciler/docs/swagger"
)

// @title Scan Reconciler API
// @version 1.0
// @description API for reconciling scanned ticket barcodes against a bulk report.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the reconciliation server",
	Long:  `Starts the HTTP server exposing the reconciliation session and the integrity checks, and initializes the optional audit database and snapshot archive.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Optional backends and services
		b := openBackends(cfg, logg)
		svc := newSessionService(cmd.Context(), cfg, b, logg)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 5. Register Features
		mgr := loader.NewManager()
		mgr.Register(session.NewFeature(svc))
		mgr.Register(integrity.NewFeature(newIntegrityService(cfg, b, logg)))

		// Middleware Registration
		// RayID first so every log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		if cfg.Server.Swagger {
			app.Get("/swagger/*", swagger.HandlerDefault)
		}

		if cfg.Server.AuthEnabled() {
			app.Use(auth.New(auth.Config{
				ApiKey: cfg.Server.ApiKey,
				Next: func(c *fiber.Ctx) bool {
					return strings.HasPrefix(c.Path(), "/swagger")
				},
			}))
		} else {
			logg.Warn("API key not set, requests are not authenticated")
		}

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)

		// An open session is saved and ended so no scan is lost.
		if svc.Active() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if saved, err := svc.SaveSnapshot(ctx, "", "", false); err != nil {
				logg.Error("Failed to save progress on shutdown", zap.Error(err))
			} else {
				logg.Info("Progress saved", zap.String("path", saved.Path))
			}
			if _, err := svc.End(ctx); err != nil {
				logg.Error("Failed to end session on shutdown", zap.Error(err))
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
