// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend modes.
const (
	BackendUpstream = "upstream"
	BackendCatalog  = "catalog"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Backend BackendConfig
	Catalog CatalogConfig
	Session SessionConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: *)
	RateLimitRPS   float64       // Per-client request rate (default: 20)
	RateLimitBurst int           // Per-client burst (default: 40)
}

// BackendConfig selects and configures where taxonomy and book searches come from.
type BackendConfig struct {
	// Mode is upstream (remote GraphQL endpoint) or catalog (embedded bleve index).
	Mode        string
	SearchURL   string
	TaxonomyURL string
	Timeout     time.Duration
	// Outbound rate limit towards the upstream endpoint.
	RPS   float64
	Burst int
}

// CatalogConfig configures the embedded catalog backend.
type CatalogConfig struct {
	// Path to a JSON seed file; empty uses the built-in seed.
	Path    string
	PerPage int
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookfinder", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma separated CORS origins (default: *)")
	rateLimitRPS := fs.String("rate-limit-rps", "", "Per-client API requests per second (default: 20)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Per-client API burst (default: 40)")

	backendMode := fs.String("backend", "", "Search backend: upstream or catalog (default: catalog)")
	searchURL := fs.String("search-url", "", "GraphQL search endpoint URL")
	taxonomyURL := fs.String("taxonomy-url", "", "Genre taxonomy endpoint URL")
	backendTimeout := fs.String("backend-timeout", "", "Upstream request timeout (default: 10s)")
	backendRPS := fs.String("backend-rps", "", "Upstream requests per second (default: 5)")
	backendBurst := fs.String("backend-burst", "", "Upstream burst (default: 10)")

	catalogPath := fs.String("catalog-path", "", "Path to catalog seed JSON (default: built-in)")
	catalogPerPage := fs.String("catalog-per-page", "", "Catalog results per page (default: 30)")

	sessionTTL := fs.String("session-ttl", "", "Idle session lifetime (default: 30m)")
	sweepInterval := fs.String("session-sweep-interval", "", "Idle session sweep interval (default: 1m)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win over the file.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   getFloatConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", 20),
			RateLimitBurst: getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 40),
		},
		Backend: BackendConfig{
			Mode:        strings.ToLower(getConfigValue(*backendMode, "BACKEND_MODE", BackendCatalog)),
			SearchURL:   getConfigValue(*searchURL, "SEARCH_URL", ""),
			TaxonomyURL: getConfigValue(*taxonomyURL, "TAXONOMY_URL", ""),
			RPS:         getFloatConfigValue(*backendRPS, "BACKEND_RPS", 5),
			Burst:       getIntConfigValue(*backendBurst, "BACKEND_BURST", 10),
		},
		Catalog: CatalogConfig{
			Path:    getConfigValue(*catalogPath, "CATALOG_PATH", ""),
			PerPage: getIntConfigValue(*catalogPerPage, "CATALOG_PER_PAGE", 30),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Backend.Timeout, *backendTimeout, "BACKEND_TIMEOUT", "10s"},
		{&cfg.Session.TTL, *sessionTTL, "SESSION_TTL", "30m"},
		{&cfg.Session.SweepInterval, *sweepInterval, "SESSION_SWEEP_INTERVAL", "1m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandCatalogPath(); err != nil {
		return nil, fmt.Errorf("invalid catalog path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Backend.Mode {
	case BackendCatalog:
		if c.Catalog.PerPage <= 0 {
			return fmt.Errorf("catalog per page must be positive, got %d", c.Catalog.PerPage)
		}
	case BackendUpstream:
		if err := requireURL("SEARCH_URL", c.Backend.SearchURL); err != nil {
			return err
		}
		if err := requireURL("TAXONOMY_URL", c.Backend.TaxonomyURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid backend mode: %s (must be upstream or catalog)", c.Backend.Mode)
	}

	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("session sweep interval must be positive")
	}

	return nil
}

func requireURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required for the upstream backend", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandCatalogPath leaves an empty path empty so the built-in seed is used.
func (c *Config) expandCatalogPath() error {
	expanded, err := expandPath(c.Catalog.Path, "")
	if err != nil {
		return err
	}
	c.Catalog.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
