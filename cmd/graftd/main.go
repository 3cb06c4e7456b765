// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command graftd starts the graft rewrite API server.
//
// graftd serves rule-driven JavaScript rewrites over HTTP:
//   - Single-source rewrites and batch rewrites with optional write-back
//   - AST inspection of submitted sources
//   - Live rewrite events over a websocket
//   - Optional watch mode that rewrites files as they change on disk
//   - Prometheus metrics and OTLP tracing
//
// Usage:
//
//	go run ./cmd/graftd
//	go run ./cmd/graftd -port 9090
//	go run ./cmd/graftd -config graftd.yaml -rules rules.yaml
//	go run ./cmd/graftd -watch ./src -cache-dir /var/cache/graft
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/rewrite/health
//
//	# Rewrite one source
//	curl -X POST http://localhost:8080/v1/rewrite/source \
//	  -H "Content-Type: application/json" \
//	  -d '{"path": "app.js", "content": "const x = 1;"}'
//
//	# Inspect the loaded rules
//	curl http://localhost:8080/v1/rules | jq
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/graft/pkg/logging"
	"github.com/AleutianAI/graft/services/rewrite"
	"github.com/AleutianAI/graft/services/rewrite/config"
	"github.com/AleutianAI/graft/services/rewrite/engine"
	"github.com/AleutianAI/graft/services/rewrite/storage/badger"
	"github.com/AleutianAI/graft/services/rewrite/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or JSON config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	rulesFile := flag.String("rules", "", "Path to the rules file (overrides config)")
	cacheDir := flag.String("cache-dir", "", "Enable the rewrite cache at this directory (overrides config)")
	watchRoot := flag.String("watch", "", "Watch this directory and broadcast rewrites (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "graftd: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *rulesFile != "" {
		cfg.Engine.RulesFile = *rulesFile
	}
	if *cacheDir != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.InMemory = false
		cfg.Cache.Dir = *cacheDir
	}
	if *watchRoot != "" {
		cfg.Watch.Enabled = true
		cfg.Watch.Root = *watchRoot
	}

	logger := logging.New(cfg.Logging.ToLoggingConfig("graftd"))
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Init tracing and metrics
	shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.Telemetry.ToTelemetryConfig())
	if err != nil {
		slog.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	svc, eng, cleanup, err := buildService(cfg, logger.Slog())
	if err != nil {
		slog.Error("Failed to build rewrite service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	if cfg.Watch.Enabled {
		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		watcher, err := startWatch(watchCtx, eng, svc, cfg.Watch)
		if err != nil {
			slog.Error("Failed to start watch mode", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer watcher.Stop()
	}

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	if *debug {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))

	// Register routes under /v1
	v1 := router.Group("/v1")
	v1.Use(rewrite.RateLimit(cfg.Server.RateRPS, cfg.Server.RateBurst))
	v1.Use(rewrite.BodyLimit(cfg.Server.MaxBodyBytes))
	rewrite.RegisterRoutes(v1, rewrite.NewHandlers(svc))

	if cfg.Telemetry.MetricExporter == "prometheus" {
		router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))
	}

	// Print startup banner
	printBanner(cfg.Server.Port, svc.Rules().Count, cfg.Cache.Enabled, cfg.Watch.Enabled)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		<-quit
		slog.Info("Shutting down graftd")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := svc.Close(); err != nil {
			slog.Error("Service close failed", slog.String("error", err.Error()))
		}
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Forced shutdown", slog.String("error", err.Error()))
		}
		close(done)
	}()

	// Start server
	slog.Info("Starting graftd", slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	<-done
}

// buildService wires the engine and service from config.
//
// The returned cleanup closes the cache store when one was opened. It
// is safe to call even when the build fails partway.
func buildService(cfg config.Config, logger *slog.Logger) (*rewrite.Service, *engine.Engine, func(), error) {
	rules, err := engine.LoadRules(cfg.Engine.RulesFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load rules: %w", err)
	}

	var cache *badger.Cache
	cleanup := func() {}
	if cfg.Cache.Enabled {
		db, err := badger.OpenDB(cfg.Cache.ToBadgerConfig())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open cache: %w", err)
		}
		cache = badger.NewCache(db, cfg.Cache.ToCacheConfig())
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close cache store", "error", err)
			}
		}
	}

	eng, err := engine.New(engine.Config{
		Rules:       rules,
		Cache:       cache,
		MaxParallel: cfg.Engine.MaxParallel,
		Logger:      logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("build engine: %w", err)
	}

	svcCfg := cfg.Service.ToServiceConfig()
	svcCfg.Logger = logger
	svc, err := rewrite.NewService(eng, svcCfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("build service: %w", err)
	}
	return svc, eng, cleanup, nil
}

// startWatch begins watch mode over the configured root and bridges
// every rewrite outcome onto the service's event hub, so websocket
// subscribers see file changes as they land.
func startWatch(ctx context.Context, eng *engine.Engine, svc *rewrite.Service, wcfg config.WatchConfig) (*engine.Watcher, error) {
	info, err := os.Stat(wcfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", wcfg.Root)
	}

	opts := wcfg.ToWatchOptions()
	watcher, err := eng.Watch(wcfg.Root, &opts)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return nil, fmt.Errorf("start watcher: %w", err)
	}

	go func() {
		for ev := range watcher.Events() {
			publishWatchEvent(svc.Hub(), ev, wcfg.WriteBack)
		}
	}()

	slog.Info("Watch mode enabled",
		slog.String("root", wcfg.Root),
		slog.Bool("write_back", wcfg.WriteBack))
	return watcher, nil
}

// publishWatchEvent maps one watcher outcome to a hub event, writing
// the output back first when write-back is on.
func publishWatchEvent(hub *rewrite.EventHub, ev engine.WatchEvent, writeBack bool) {
	if ev.Err != nil {
		hub.Broadcast(rewrite.Event{
			Type:  rewrite.EventFileFailed,
			Path:  ev.Path,
			Error: ev.Err.Error(),
		})
		return
	}

	res := ev.Result
	if writeBack && res.Changed {
		if err := os.WriteFile(res.Path, res.Output, 0o644); err != nil {
			hub.Broadcast(rewrite.Event{
				Type:  rewrite.EventFileFailed,
				Path:  res.Path,
				Error: fmt.Sprintf("write back failed: %v", err),
			})
			return
		}
	}

	hub.Broadcast(rewrite.Event{
		Type:     rewrite.EventFileRewritten,
		Path:     res.Path,
		Changed:  res.Changed,
		Applied:  res.Applied,
		CacheHit: res.CacheHit,
	})
}

func printBanner(port, ruleCount int, cacheEnabled, watchEnabled bool) {
	cacheStatus := "DISABLED"
	if cacheEnabled {
		cacheStatus = "ENABLED"
	}
	watchStatus := "DISABLED"
	if watchEnabled {
		watchStatus = "ENABLED"
	}

	banner := `
╔═══════════════════════════════════════════════════════════════╗
║                     GRAFT REWRITE SERVER                      ║
╠═══════════════════════════════════════════════════════════════╣
║                                                               ║
║  Rule-driven JavaScript rewrites over HTTP.                   ║
║  Rules: %-4d Cache: %-8s Watch: %-8s                  ║
║                                                               ║
║  Quick Start:                                                 ║
║  ┌─────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                          │  ║
║  │ curl http://localhost:%d/v1/rewrite/health            │  ║
║  │                                                         │  ║
║  │ # Rewrite one source                                    │  ║
║  │ curl -X POST http://localhost:%d/v1/rewrite/source \  │  ║
║  │   -H "Content-Type: application/json" \                 │  ║
║  │   -d '{"path": "app.js", "content": "const x = 1;"}'    │  ║
║  │                                                         │  ║
║  │ # Watch rewrites over the websocket                     │  ║
║  │ websocat ws://localhost:%d/v1/events                  │  ║
║  └─────────────────────────────────────────────────────────┘  ║
║                                                               ║
║  Endpoints:                                                   ║
║  ├── Rewrite: POST /v1/rewrite, POST /v1/rewrite/source       ║
║  ├── Inspect: POST /v1/parse, GET /v1/rules                   ║
║  ├── Health:  GET /v1/rewrite/health, GET /v1/rewrite/ready   ║
║  └── Events:  GET /v1/events (websocket)                      ║
║                                                               ║
║  Press Ctrl+C to stop                                         ║
╚═══════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, ruleCount, cacheStatus, watchStatus, port, port, port)
}
