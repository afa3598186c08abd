package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cxlRay/druid/pkg/config"
	"github.com/cxlRay/druid/pkg/emitter"
	"github.com/cxlRay/druid/pkg/server"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the emitter",
	Long: `Start the emitter with the specified configuration.

The emitter listens for JSON metric events on the ingest address, routes each
to its registered collector, and either pushes the collector registry to the
configured Pushgateway on a fixed cadence or serves it for scraping.

Examples:
  # Start with default config
  druid-emitter run

  # Start with custom config
  druid-emitter run --config /etc/druid-emitter/config.yaml

  # Validate config without starting
  druid-emitter run --dry-run`,
	RunE: runEmitter,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runEmitter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	setupLogging(cfg.Logging)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	em, err := emitter.New(cfg, slog.Default().With("component", "emitter"))
	if err != nil {
		return fmt.Errorf("failed to initialize emitter: %w", err)
	}
	em.Start()
	defer em.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTimeout := time.Duration(cfg.Ingest.ShutdownTimeoutSeconds) * time.Second

	errChan := make(chan error, 2)

	ingest := server.NewIngestServer(cfg.Ingest.ListenAddress, shutdownTimeout, em,
		slog.Default().With("component", "server.ingest"))
	go func() {
		errChan <- ingest.Start(ctx)
	}()

	if cfg.Strategy == config.StrategyExporter {
		exporter := server.NewExporterServer(cfg.Exporter.ListenAddress, shutdownTimeout, em.Gatherer(),
			slog.Default().With("component", "server.exporter"))
		go func() {
			errChan <- exporter.Start(ctx)
		}()
	}

	slog.Info("emitter started",
		"strategy", string(cfg.Strategy),
		"namespace", cfg.Namespace,
		"ingest_address", cfg.Ingest.ListenAddress,
	)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		return nil
	case err := <-errChan:
		return err
	}
}

// loadConfig loads the configured file, falling back to built-in defaults
// when the default config path does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
			return config.NewDefault(), nil
		}
		return nil, fmt.Errorf("failed to read config file %q: %w", cfgFile, err)
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
