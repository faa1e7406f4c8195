package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultServerConfig
	d := DefaultServerConfig()
	v.SetDefault("server.host", d.Host)
	v.SetDefault("server.port", d.Port)
	v.SetDefault("server.metrics_port", d.MetricsPort)
	v.SetDefault("server.max_sessions", d.MaxSessions)
	v.SetDefault("server.request_timeout", d.RequestTimeout.String())
	v.SetDefault("database.url", d.DatabaseURL)
	v.SetDefault("catalog.path", d.CatalogPath)
	v.SetDefault("log.level", d.LogLevel)
	v.SetDefault("log.format", d.LogFormat)
	v.SetDefault("builder.reset_on_field_change", d.Builder.ResetOnFieldChange)
	v.SetDefault("builder.reset_on_operator_change", d.Builder.ResetOnOperatorChange)
	v.SetDefault("builder.show_add_group", d.Builder.ShowAddGroup)
	v.SetDefault("builder.show_add_rule", d.Builder.ShowAddRule)
	v.SetDefault("builder.show_combinators_between_rules", d.Builder.ShowCombinatorsBetweenRules)
	v.SetDefault("builder.show_not_toggle", d.Builder.ShowNotToggle)
	v.SetDefault("builder.enable_normal_view", d.Builder.EnableNormalView)
	v.SetDefault("builder.enable_drilldown", d.Builder.EnableDrilldown)
	v.SetDefault("builder.remove_icon_at_start", d.Builder.RemoveIconAtStart)

	// Bind environment variables with QB_ prefix
	v.SetEnvPrefix("QB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		MetricsPort:    v.GetInt("server.metrics_port"),
		MaxSessions:    v.GetInt("server.max_sessions"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
		DatabaseURL:    v.GetString("database.url"),
		CatalogPath:    v.GetString("catalog.path"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		Builder: BuilderConfig{
			ResetOnFieldChange:          v.GetBool("builder.reset_on_field_change"),
			ResetOnOperatorChange:       v.GetBool("builder.reset_on_operator_change"),
			ShowAddGroup:                v.GetBool("builder.show_add_group"),
			ShowAddRule:                 v.GetBool("builder.show_add_rule"),
			ShowCombinatorsBetweenRules: v.GetBool("builder.show_combinators_between_rules"),
			ShowNotToggle:               v.GetBool("builder.show_not_toggle"),
			EnableNormalView:            v.GetBool("builder.enable_normal_view"),
			EnableDrilldown:             v.GetBool("builder.enable_drilldown"),
			RemoveIconAtStart:           v.GetBool("builder.remove_icon_at_start"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges, positive limits and known log settings.
func validateConfig(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535, got %d", cfg.MetricsPort)
	}
	if cfg.MetricsPort != 0 && cfg.MetricsPort == cfg.Port {
		return fmt.Errorf("metrics_port must differ from port %d", cfg.Port)
	}
	if cfg.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", cfg.MaxSessions)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.LogFormat)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("database.password") || v.InConfig("database_password") {
		return fmt.Errorf("database password not allowed in config files (use QB_DATABASE_PASSWORD environment variable)")
	}
	return nil
}
