// SPDX-License-Identifier: MIT

// Package config loads service configuration from the environment with typed
// parsers and startup validation. Precedence is ENV > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Directory names under the static data root. The shared directory is the
// volume mount target and must exist before the server accepts traffic.
const (
	TemplateDir = "img"
	SharedDir   = "shared"
	FontDir     = "fonts"
)

// DefaultFontFile is the caption font, expected under FontDir.
const DefaultFontFile = "impact.ttf"

// AppConfig holds the full application configuration.
type AppConfig struct {
	// DataDir is the static asset root (img/, shared/, fonts/).
	DataDir string

	// APIListenAddr is the HTTP listen address.
	APIListenAddr string

	// BaseImageWidth is the width memes are rendered at; height preserves
	// the template aspect ratio.
	BaseImageWidth int

	// KeepaliveInterval is the SSE comment-frame interval.
	KeepaliveInterval time.Duration

	// HistoryPath is the sqlite share-history database path. Empty disables
	// the history store.
	HistoryPath string

	// CacheTTL bounds how long rendered memes stay cached.
	CacheTTL time.Duration

	// RedisAddr enables the redis render cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MetricsEnabled / MetricsAddr control the Prometheus listener.
	MetricsEnabled bool
	MetricsAddr    string

	// Rate limiting for the render endpoint.
	RateLimitEnabled bool
	RateLimitRPM     int

	AllowedOrigins []string
	TrustedProxies []string

	// Tracing
	TracingEnabled  bool
	TracingExporter string
	TracingEndpoint string
	TracingSampling float64

	LogLevel   string
	LogService string
	Version    string
}

// Load reads the configuration from the environment.
func Load(version string) AppConfig {
	return AppConfig{
		DataDir:           ParseString("MEMED_DATA", "/data"),
		APIListenAddr:     ParseString("MEMED_LISTEN", ":3228"),
		BaseImageWidth:    ParseInt("MEMED_BASE_WIDTH", 300),
		KeepaliveInterval: ParseDuration("MEMED_SSE_KEEPALIVE", 15*time.Second),
		HistoryPath:       ParseString("MEMED_HISTORY_DB", ""),
		CacheTTL:          ParseDuration("MEMED_CACHE_TTL", 10*time.Minute),
		RedisAddr:         ParseString("MEMED_REDIS_ADDR", ""),
		RedisPassword:     ParseString("MEMED_REDIS_PASSWORD", ""),
		RedisDB:           ParseInt("MEMED_REDIS_DB", 0),
		MetricsEnabled:    ParseBool("MEMED_METRICS_ENABLED", true),
		MetricsAddr:       ParseString("MEMED_METRICS_LISTEN", ":9090"),
		RateLimitEnabled:  ParseBool("MEMED_RATE_LIMIT_ENABLED", true),
		RateLimitRPM:      ParseInt("MEMED_RATE_LIMIT_RPM", 120),
		AllowedOrigins:    ParseStringList("MEMED_ALLOWED_ORIGINS", nil),
		TrustedProxies:    ParseStringList("MEMED_TRUSTED_PROXIES", nil),
		TracingEnabled:    ParseBool("MEMED_TRACING_ENABLED", false),
		TracingExporter:   ParseString("MEMED_TRACING_EXPORTER", "grpc"),
		TracingEndpoint:   ParseString("MEMED_TRACING_ENDPOINT", "localhost:4317"),
		TracingSampling:   float64(ParseInt("MEMED_TRACING_SAMPLING_PCT", 100)) / 100,
		LogLevel:          ParseString("MEMED_LOG_LEVEL", "info"),
		LogService:        ParseString("LOG_SERVICE", "memed"),
		Version:           version,
	}
}

// TemplatePath returns the template image directory.
func (c AppConfig) TemplatePath() string { return filepath.Join(c.DataDir, TemplateDir) }

// SharedPath returns the shared gallery directory.
func (c AppConfig) SharedPath() string { return filepath.Join(c.DataDir, SharedDir) }

// FontPath returns the caption font file path.
func (c AppConfig) FontPath() string {
	return filepath.Join(c.DataDir, FontDir, DefaultFontFile)
}

// PerformStartupChecks validates the configuration and prepares the data tree.
// It fails fast on an unusable data dir and creates the shared directory so
// the volume mount target exists before the server starts.
func PerformStartupChecks(cfg AppConfig) error {
	if cfg.BaseImageWidth < 16 {
		return fmt.Errorf("base image width %d is too small", cfg.BaseImageWidth)
	}
	if cfg.KeepaliveInterval <= 0 {
		return fmt.Errorf("keepalive interval must be positive")
	}

	info, err := os.Stat(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("data dir %s: %w", cfg.DataDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", cfg.DataDir)
	}

	// shared/ is the externally mounted gallery; img/ may legitimately be
	// empty but must exist so listings and renders have a base.
	if err := os.MkdirAll(cfg.SharedPath(), 0o755); err != nil {
		return fmt.Errorf("create shared dir: %w", err)
	}
	if err := os.MkdirAll(cfg.TemplatePath(), 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}

	if _, err := os.Stat(cfg.FontPath()); err != nil {
		return fmt.Errorf("caption font %s: %w", cfg.FontPath(), err)
	}

	return nil
}
