package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/privacykit/governance/internal/audit"
	"github.com/privacykit/governance/internal/config"
	"github.com/privacykit/governance/internal/consent"
	"github.com/privacykit/governance/internal/logger"
	"github.com/privacykit/governance/internal/retention"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("governanced %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: true,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting governanced",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
	)

	// Building the stores up front bootstraps their schemas and verifies
	// connectivity before the daemon reports healthy.
	consentStore, err := buildConsentStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize consent store", zap.Error(err))
	}
	consentManager := consent.NewManager(consentStore, log, consent.WithVersion(cfg.Consent.Version))

	auditStore, err := buildAuditStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize audit store", zap.Error(err))
	}
	auditLogger := audit.NewLogger(auditStore, audit.Defaults{UserID: "system"}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := auditLogger.LogAccess(ctx, "system", "governanced", map[string]interface{}{
		"event":           "startup",
		"version":         version,
		"consent_store":   cfg.Consent.Store,
		"consent_version": consentManager.Version(),
	}); err != nil {
		log.Warn("Failed to record startup audit entry", zap.Error(err))
	}

	var scheduler *retention.Scheduler
	if cfg.Retention.Enabled {
		scheduler = retention.NewScheduler(noopAccessor{}, retention.Options{
			CheckInterval: cfg.Retention.CheckInterval,
			BatchSize:     cfg.Retention.BatchSize,
			DeleteRate:    rate.Limit(cfg.Retention.DeleteRate),
		}, log)
		scheduler.Start(ctx)
		log.Info("Retention scheduler started",
			zap.Duration("check_interval", cfg.Retention.CheckInterval),
			zap.Int("batch_size", cfg.Retention.BatchSize),
		)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	log.Info("Shutting down", zap.String("signal", sig.String()))

	if scheduler != nil {
		scheduler.Stop()
	}
	if _, err := auditLogger.LogAccess(ctx, "system", "governanced", map[string]interface{}{
		"event": "shutdown",
	}); err != nil {
		log.Warn("Failed to record shutdown audit entry", zap.Error(err))
	}
	log.Info("Shutdown complete")
}

func buildConsentStore(cfg *config.Config, log *logger.Logger) (consent.Store, error) {
	switch cfg.Consent.Store {
	case "redis":
		return consent.NewRedisStore(&cfg.Consent.Redis, log)
	case "postgres":
		return consent.NewPostgresStore(&cfg.Consent.Postgres, log)
	default:
		return consent.NewMemoryStore(), nil
	}
}

func buildAuditStore(cfg *config.Config, log *logger.Logger) (audit.Store, error) {
	if cfg.Audit.Store == "postgres" {
		return audit.NewPostgresStore(&cfg.Audit.Postgres, log)
	}
	return audit.NewMemoryStore(), nil
}

// noopAccessor stands in until an item store is wired in deployment; the
// scheduler still exercises its policy evaluation against an empty set.
type noopAccessor struct{}

func (noopAccessor) GetAllMetadata(context.Context) ([]retention.ItemMetadata, error) {
	return nil, nil
}
func (noopAccessor) DeleteItem(context.Context, string) error    { return nil }
func (noopAccessor) DeleteItems(context.Context, []string) error { return nil }
