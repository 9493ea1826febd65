// Package server provides the main server initialization and run logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/havenhq/haven/internal/api"
	"github.com/havenhq/haven/internal/api/handlers"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/billing"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/crypto"
	"github.com/havenhq/haven/internal/db"
	"github.com/havenhq/haven/internal/logger"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/queue"
	"github.com/havenhq/haven/internal/rbac"
	"github.com/havenhq/haven/internal/reports"
	"github.com/havenhq/haven/internal/service"
	"github.com/havenhq/haven/internal/worker"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Mode    string // Run mode: server, worker, or both
	Version string // Version string to report
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}

	logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	slog.Info("Starting Haven", "version", cfg.Version, "environment", appCfg.Server.Mode)

	mode := cfg.Mode
	if mode == "" {
		mode = "both"
	}
	runServer := mode == "server" || mode == "both"
	runWorker := mode == "worker" || mode == "both"
	if !runServer && !runWorker {
		return fmt.Errorf("invalid mode %q: valid modes are server, worker, both", mode)
	}

	database, err := Open(appCfg)
	if err != nil {
		return err
	}

	instanceID, err := db.GetOrCreateInstanceID(database)
	if err != nil {
		return fmt.Errorf("failed to initialize instance ID: %w", err)
	}
	slog.Info("Instance ID initialized", "instance_id", instanceID)

	jobQueue, err := createQueue(appCfg, database)
	if err != nil {
		return fmt.Errorf("failed to initialize job queue: %w", err)
	}
	defer jobQueue.Close()
	slog.Info("Job queue initialized", "type", appCfg.Queue.Type)

	var workerDone chan struct{}
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	if runWorker {
		sender, err := notify.NewSender(appCfg.Email, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to initialize email sender: %w", err)
		}
		w := worker.New(database, jobQueue, sender, slog.Default(), appCfg.Queue.MaxWorkers, appCfg.Queue.MaxAttempts)
		workerDone = make(chan struct{})
		go func() {
			defer close(workerDone)
			if err := w.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Worker failed", "error", err)
			}
		}()
	}

	var srv *http.Server
	if runServer {
		router, err := buildRouter(ctx, appCfg, database, jobQueue)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf(":%d", appCfg.Server.Port)
		srv = &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			slog.Info("Server listening", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server forced to shutdown: %w", err)
		} else {
			slog.Info("Server stopped")
		}
	}

	// Jobs enqueued by the last requests still get a chance to run.
	if workerDone != nil {
		stopWorker()
		select {
		case <-workerDone:
			slog.Info("Worker stopped")
		case <-shutdownCtx.Done():
			slog.Warn("Worker did not stop before the shutdown deadline")
		}
	}

	slog.Info("Haven exited")
	return shutdownErr
}

// Open connects to the configured database and applies migrations.
func Open(appCfg *config.Config) (*gorm.DB, error) {
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")
	return database, nil
}

func buildRouter(ctx context.Context, appCfg *config.Config, database *gorm.DB, jobQueue queue.Queue) (http.Handler, error) {
	admins := db.ParseEmailList(appCfg.Auth.PlatformAdmins)
	if err := db.PromotePlatformAdmins(database, admins); err != nil {
		return nil, fmt.Errorf("failed to promote platform admins: %w", err)
	}

	enforcer, err := rbac.NewEnforcer(database, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	cipher, err := crypto.NewFieldCipher(appCfg.Security.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize field encryption: %w", err)
	}

	verifier, err := createVerifier(ctx, appCfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authentication: %w", err)
	}
	provisioner := auth.NewProvisioner(database, enforcer, admins, slog.Default())
	authn := auth.NewAuthenticator(verifier, provisioner, slog.Default())

	notifier := notify.NewNotifier(database, jobQueue)
	baseURL := appCfg.Server.BaseURL

	members := service.NewMemberService(database, enforcer, notifier, baseURL)
	incidents := service.NewIncidentService(database, notifier, baseURL, slog.Default())

	tiers, err := billing.NewTierMapper(appCfg.Billing.PriceTiers, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to load billing tiers: %w", err)
	}
	var gateway billing.Gateway
	if appCfg.Billing.StripeSecretKey != "" {
		gateway = billing.NewStripeGateway(appCfg.Billing.StripeSecretKey)
	} else {
		slog.Warn("Stripe secret key not set, checkout and portal are disabled")
	}

	svc := api.Services{
		Organizations: service.NewOrganizationService(database, members),
		Members:       members,
		Residents:     service.NewResidentService(database, cipher),
		Properties:    service.NewPropertyService(database),
		Incidents:     incidents,
		Activity:      service.NewActivityService(database),
		Search:        service.NewSearchService(database),
		Dashboard:     service.NewDashboardService(database),
		Reports:       reports.NewService(database),
		Billing:       billing.NewService(database, gateway, appCfg.Billing, baseURL),
		Webhooks:      billing.NewProcessor(database, appCfg.Billing.WebhookSecret, tiers, notifier, members, baseURL, slog.Default()),
	}

	return api.NewRouter(appCfg, database, authn, enforcer, svc, slog.Default()), nil
}

func createVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	switch cfg.Type {
	case "jwt":
		return auth.NewJWTAuthenticator(cfg.JWTSecret, cfg.JWTAudience), nil
	case "oidc":
		v, err := auth.NewOIDCAuthenticator(ctx, auth.OIDCConfig{
			IssuerURL: cfg.OIDCIssuer,
			ClientID:  cfg.OIDCClientID,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", cfg.Type)
	}
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig)
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// createQueue creates a queue based on configuration.
func createQueue(cfg *config.Config, database *gorm.DB) (queue.Queue, error) {
	switch cfg.Queue.Type {
	case "memory":
		return queue.NewMemoryQueue(100), nil
	case "valkey":
		if cfg.Queue.ValkeyAddr == "" {
			return nil, fmt.Errorf("valkey address is required when queue type is valkey")
		}
		return queue.NewValkeyQueue(cfg.Queue.ValkeyAddr, database)
	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: memory, valkey)", cfg.Queue.Type)
	}
}
