package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/querybuilder/internal/catalog"
	"github.com/solatis/querybuilder/internal/core/api"
	"github.com/solatis/querybuilder/internal/core/db"
	"github.com/solatis/querybuilder/internal/core/observability"
	"github.com/solatis/querybuilder/internal/core/server"
	"github.com/solatis/querybuilder/internal/core/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC query editor service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().Int("metrics-port", 0, "Prometheus metrics port (0 disables)")
	serveCmd.Flags().String("catalog", "", "field catalog file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metrics-port") {
		cfg.MetricsPort, _ = cmd.Flags().GetInt("metrics-port")
	}
	if cmd.Flags().Changed("catalog") {
		cfg.CatalogPath, _ = cmd.Flags().GetString("catalog")
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	if err := requireMigrated(statuses); err != nil {
		return err
	}

	filters, err := store.New(database)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	service, err := api.NewQueryEditorService(cat, filters, metrics, cfg)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, metrics)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var metricsServer *observability.Server
	if cfg.MetricsPort > 0 {
		metricsServer = observability.NewServer(cfg.Host, cfg.MetricsPort, registry)
		metricsServer.Start()
	}

	log.Info().
		Str("version", Version).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int("fields", len(cat.Fields)).
		Msg("Starting querybuilder query editor")

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info().Msg("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
	return grpcServer.Shutdown(shutdownCtx)
}
