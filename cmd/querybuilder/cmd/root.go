package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/querybuilder/internal/core/config"
	"github.com/solatis/querybuilder/internal/core/db"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "querybuilder",
	Short: "Query builder rule tree service",
	Long:  `querybuilder hosts editable filter query trees over gRPC and stores saved filters.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(logLevel, logFormat)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

func initLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var output io.Writer = os.Stderr
	if format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = log.Output(output)
	}
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = dbURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	initLogger(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// openDatabase opens the configured database with the environment password applied.
func openDatabase(cfg *config.ServerConfig) (*sqlx.DB, error) {
	url, err := config.ResolveDatabaseURL(cfg.DatabaseURL, config.DatabasePassword())
	if err != nil {
		return nil, err
	}
	database, err := db.Open(url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}
