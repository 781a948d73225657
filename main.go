package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopalloy/ratewise/internal/server"
	"github.com/shopalloy/ratewise/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ratewise",
	Short:   "Ratewise - multi-location shipping rate orchestration service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rating HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	engine := initEngine(cfg, catalog, logger, tracer, metrics)

	logger.Info("Starting Ratewise",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Int("locations", len(catalog.Locations)),
		zap.Int("boxes", len(catalog.Boxes)),
		zap.Int("rules", len(catalog.Rules)),
	)

	srv := server.New(server.Config{Port: cfg.Port}, engine, logger, metrics)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
