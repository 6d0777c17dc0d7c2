// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/memed/internal/api"
	"github.com/ManuGH/memed/internal/cache"
	"github.com/ManuGH/memed/internal/config"
	"github.com/ManuGH/memed/internal/daemon"
	"github.com/ManuGH/memed/internal/events"
	"github.com/ManuGH/memed/internal/gallery"
	"github.com/ManuGH/memed/internal/health"
	mlog "github.com/ManuGH/memed/internal/log"
	"github.com/ManuGH/memed/internal/meme"
	"github.com/ManuGH/memed/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheck())
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	mlog.Configure(mlog.Config{
		Level:   "info",
		Service: "memed",
		Version: version,
	})

	logger := mlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(version)

	// Re-configure logger with loaded configuration
	mlog.Configure(mlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if err := config.PerformStartupChecks(cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.startup_checks_failed").
			Str(mlog.FieldDataDir, cfg.DataDir).
			Msg("startup checks failed")
	}

	logger.Info().
		Str("event", "config.loaded").
		Str(mlog.FieldDataDir, cfg.DataDir).
		Str("listen", cfg.APIListenAddr).
		Int("base_width", cfg.BaseImageWidth).
		Dur("keepalive", cfg.KeepaliveInterval).
		Msg("configuration loaded")

	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.TracingExporter,
		Endpoint:       cfg.TracingEndpoint,
		SamplingRate:   cfg.TracingSampling,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	fnt, err := meme.LoadFont(cfg.FontPath())
	if err != nil {
		logger.Fatal().Err(err).Str(mlog.FieldPath, cfg.FontPath()).Msg("failed to load caption font")
	}

	broker := events.NewBroker()

	var history *gallery.HistoryStore
	if cfg.HistoryPath != "" {
		history, err = gallery.OpenHistory(cfg.HistoryPath)
		if err != nil {
			logger.Fatal().Err(err).Str(mlog.FieldPath, cfg.HistoryPath).Msg("failed to open share history")
		}
		logger.Info().Str(mlog.FieldPath, cfg.HistoryPath).Msg("share history enabled")
	}

	renderCache := buildCache(cfg)
	share := gallery.NewShare(cfg.SharedPath(), history)

	// The watcher announces memes dropped into the shared directory by
	// other means (volume mounts, scp) to connected browsers.
	watcher, err := gallery.NewWatcher(cfg.SharedPath(), func(name string) {
		broker.Broadcast(events.FormatSSE(
			fmt.Sprintf(`<img src="static/%s/%s" alt="">`, config.SharedDir, name), "message"))
	})
	if err != nil {
		logger.Fatal().Err(err).Str(mlog.FieldPath, cfg.SharedPath()).Msg("failed to watch shared directory")
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewWritableDirChecker("shared_dir", cfg.SharedPath()))
	hm.RegisterChecker(health.NewFileChecker("caption_font", cfg.FontPath()))
	if history != nil {
		hm.RegisterChecker(health.NewFuncChecker("share_history", history.Ping))
	}

	server, err := api.New(cfg, api.Deps{
		Font:     fnt,
		Broker:   broker,
		Share:    share,
		History:  history,
		Cache:    renderCache,
		Health:   hm,
		Suppress: watcher.Suppress,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build API server")
	}

	deps := daemon.Deps{
		Logger:     mlog.Base(),
		APIHandler: server.Handler(),
	}
	if cfg.MetricsEnabled {
		deps.MetricsHandler = promhttp.Handler()
		deps.MetricsAddr = cfg.MetricsAddr
	}

	mgr, err := daemon.NewManager(config.ParseServerConfig(cfg), deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build daemon manager")
	}

	// LIFO: tracer flushes last, watcher stops first.
	mgr.RegisterShutdownHook("tracing", tracer.Shutdown)
	if history != nil {
		mgr.RegisterShutdownHook("share_history", func(context.Context) error {
			return history.Close()
		})
	}
	mgr.RegisterShutdownHook("render_cache", func(context.Context) error {
		return renderCache.Close()
	})
	mgr.RegisterShutdownHook("event_broker", func(context.Context) error {
		return broker.Close()
	})
	mgr.RegisterShutdownHook("shared_watcher", watcher.Close)

	if err := mgr.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
}

// buildCache prefers redis when configured, falling back to the in-process
// cache on connection failure rather than refusing to start.
func buildCache(cfg config.AppConfig) cache.Cache {
	logger := mlog.WithComponent("cache")

	if cfg.RedisAddr != "" {
		c, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err == nil {
			logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis render cache")
			return c
		}
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-process cache")
	}

	return cache.NewMemoryCache(time.Minute)
}

// runHealthcheck probes the local health endpoint. Used by the container
// HEALTHCHECK so the image needs no curl or wget.
func runHealthcheck() int {
	addr := config.ParseString("MEMED_LISTEN", ":3228")
	if addr[0] == ':' {
		addr = "127.0.0.1" + addr
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + addr + "/healthz")
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: %v\n", err)
		return 1
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "healthcheck: status %d\n", resp.StatusCode)
		return 1
	}
	return 0
}
