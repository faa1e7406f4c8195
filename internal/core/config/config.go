// Package config provides configuration management for querybuilder services.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/solatis/querybuilder/internal/rules"
)

// BuilderConfig holds the behaviour and display flags applied to every builder.
type BuilderConfig struct {
	ResetOnFieldChange          bool
	ResetOnOperatorChange       bool
	ShowAddGroup                bool
	ShowAddRule                 bool
	ShowCombinatorsBetweenRules bool
	ShowNotToggle               bool
	EnableNormalView            bool
	EnableDrilldown             bool
	RemoveIconAtStart           bool
}

// Apply copies the flags onto builder options.
func (b BuilderConfig) Apply(opts *rules.Options) {
	opts.ResetOnFieldChange = b.ResetOnFieldChange
	opts.ResetOnOperatorChange = b.ResetOnOperatorChange
	opts.ShowAddGroup = b.ShowAddGroup
	opts.ShowAddRule = b.ShowAddRule
	opts.ShowCombinatorsBetweenRules = b.ShowCombinatorsBetweenRules
	opts.ShowNotToggle = b.ShowNotToggle
	opts.EnableNormalView = b.EnableNormalView
	opts.EnableDrilldown = b.EnableDrilldown
	opts.RemoveIconAtStart = b.RemoveIconAtStart
}

// ServerConfig holds configuration for the gRPC query editor service.
type ServerConfig struct {
	Host           string
	Port           int
	MetricsPort    int // 0 disables the metrics endpoint
	MaxSessions    int
	RequestTimeout time.Duration
	DatabaseURL    string
	CatalogPath    string
	LogLevel       string
	LogFormat      string
	Builder        BuilderConfig
}

// DefaultServerConfig returns configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "0.0.0.0",
		Port:           50051,
		MetricsPort:    0,
		MaxSessions:    1000,
		RequestTimeout: 30 * time.Second,
		DatabaseURL:    "sqlite://./data/querybuilder.db",
		CatalogPath:    "./catalog.yaml",
		LogLevel:       "info",
		LogFormat:      "json",
		Builder: BuilderConfig{
			ResetOnFieldChange: true,
			ShowAddGroup:       true,
			ShowAddRule:        true,
		},
	}
}

// DatabasePassword reads the database password from QB_DATABASE_PASSWORD.
// Returns "" when unset.
func DatabasePassword() string {
	return strings.TrimSpace(os.Getenv("QB_DATABASE_PASSWORD"))
}

// ResolveDatabaseURL injects password into a postgres URL.
// SQLite URLs cannot carry a password.
func ResolveDatabaseURL(rawURL, password string) (string, error) {
	if password == "" {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
	default:
		return "", fmt.Errorf("database password not supported for scheme %q", u.Scheme)
	}
	if u.User == nil || u.User.Username() == "" {
		return "", fmt.Errorf("database URL must name a user when a password is set")
	}
	if _, set := u.User.Password(); set {
		return "", fmt.Errorf("database URL already carries a password (use QB_DATABASE_PASSWORD only)")
	}

	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}
