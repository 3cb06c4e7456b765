// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the rewrite daemon configuration.
//
// Configuration merges three layers, later layers winning:
//
//  1. Defaults (DefaultConfig)
//  2. A YAML or JSON config file
//  3. GRAFT_* environment variables
//
// The merged result is validated before use, so a daemon never starts
// on a half-broken config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/graft/pkg/logging"
	rewrite "github.com/AleutianAI/graft/services/rewrite"
	"github.com/AleutianAI/graft/services/rewrite/engine"
	"github.com/AleutianAI/graft/services/rewrite/storage/badger"
	"github.com/AleutianAI/graft/services/rewrite/telemetry"
)

// Config is the full daemon configuration.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `json:"server" yaml:"server"`

	// Service configures request limits and path policy.
	Service ServiceConfig `json:"service" yaml:"service"`

	// Engine configures the rewrite engine.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Cache configures the content-addressed rewrite cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Watch configures daemon watch mode.
	Watch WatchConfig `json:"watch" yaml:"watch"`

	// Telemetry configures tracing and metrics.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Logging configures log destinations.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateRPS         float64       `json:"rate_rps" yaml:"rate_rps"`
	RateBurst       int           `json:"rate_burst" yaml:"rate_burst"`
	MaxBodyBytes    int64         `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServiceConfig configures request limits and path policy.
type ServiceConfig struct {
	MaxSourceBytes int64         `json:"max_source_bytes" yaml:"max_source_bytes"`
	MaxBatchFiles  int           `json:"max_batch_files" yaml:"max_batch_files"`
	MaxRunDuration time.Duration `json:"max_run_duration" yaml:"max_run_duration"`
	AllowedRoots   []string      `json:"allowed_roots" yaml:"allowed_roots"`
}

// ToServiceConfig converts to the service layer's config.
func (c ServiceConfig) ToServiceConfig() rewrite.ServiceConfig {
	return rewrite.ServiceConfig{
		MaxSourceBytes: c.MaxSourceBytes,
		MaxBatchFiles:  c.MaxBatchFiles,
		MaxRunDuration: c.MaxRunDuration,
		AllowedRoots:   c.AllowedRoots,
	}
}

// EngineConfig configures the rewrite engine.
type EngineConfig struct {
	// RulesFile is the YAML rule set the engine loads at startup.
	RulesFile string `json:"rules_file" yaml:"rules_file"`

	// MaxParallel bounds batch concurrency. 0 uses the engine default.
	MaxParallel int `json:"max_parallel" yaml:"max_parallel"`
}

// CacheConfig configures the rewrite cache.
type CacheConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Dir      string        `json:"dir" yaml:"dir"`
	InMemory bool          `json:"in_memory" yaml:"in_memory"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// ToBadgerConfig converts to the storage layer's config.
func (c CacheConfig) ToBadgerConfig() badger.Config {
	if c.InMemory {
		return badger.InMemoryConfig()
	}
	cfg := badger.DefaultConfig()
	cfg.Path = c.Dir
	return cfg
}

// ToCacheConfig converts to the cache entry config.
func (c CacheConfig) ToCacheConfig() badger.CacheConfig {
	return badger.CacheConfig{TTL: c.TTL}
}

// WatchConfig configures daemon watch mode. When enabled the daemon
// watches Root and broadcasts every rewrite outcome to websocket
// subscribers.
type WatchConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Root      string        `json:"root" yaml:"root"`
	Debounce  time.Duration `json:"debounce" yaml:"debounce"`
	WriteBack bool          `json:"write_back" yaml:"write_back"`
}

// ToWatchOptions converts to the engine's watch options.
func (c WatchConfig) ToWatchOptions() engine.WatchOptions {
	opts := engine.DefaultWatchOptions()
	if c.Debounce > 0 {
		opts.DebounceWindow = c.Debounce
	}
	return opts
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	ServiceName    string  `json:"service_name" yaml:"service_name"`
	Environment    string  `json:"environment" yaml:"environment"`
	TraceExporter  string  `json:"trace_exporter" yaml:"trace_exporter"`
	MetricExporter string  `json:"metric_exporter" yaml:"metric_exporter"`
	OTLPEndpoint   string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `json:"otlp_insecure" yaml:"otlp_insecure"`
	SampleRate     float64 `json:"sample_rate" yaml:"sample_rate"`
}

// ToTelemetryConfig converts to the telemetry package's config.
func (c TelemetryConfig) ToTelemetryConfig() telemetry.Config {
	return telemetry.Config{
		ServiceName:    c.ServiceName,
		ServiceVersion: rewrite.ServiceVersion,
		Environment:    c.Environment,
		TraceExporter:  c.TraceExporter,
		MetricExporter: c.MetricExporter,
		OTLPEndpoint:   c.OTLPEndpoint,
		OTLPInsecure:   c.OTLPInsecure,
		SampleRate:     c.SampleRate,
	}
}

// LoggingConfig configures log destinations.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
	Dir   string `json:"dir" yaml:"dir"`
	JSON  bool   `json:"json" yaml:"json"`
	Quiet bool   `json:"quiet" yaml:"quiet"`
}

// ToLoggingConfig converts to the logging package's config. The level
// string must already have passed Validate.
func (c LoggingConfig) ToLoggingConfig(service string) logging.Config {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.Config{
		Level:   level,
		LogDir:  c.Dir,
		Service: service,
		JSON:    c.JSON,
		Quiet:   c.Quiet,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateRPS:         50,
			RateBurst:       100,
			MaxBodyBytes:    4 << 20, // 4MB
		},
		Service: ServiceConfig{
			MaxSourceBytes: 2 << 20, // 2MB
			MaxBatchFiles:  500,
			MaxRunDuration: 60 * time.Second,
		},
		Engine: EngineConfig{
			RulesFile:   "rules.yaml",
			MaxParallel: 0, // engine picks GOMAXPROCS
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     24 * time.Hour,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 250 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "graft",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			OTLPInsecure:   true,
			SampleRate:     1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to a YAML or JSON config file. Optional; a
//     missing file falls back to defaults.
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is invalid, or the merged
//     config fails validation.
func Load(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

func loadConfigFromEnv(config *Config) {
	// Server
	if v := os.Getenv("GRAFT_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("GRAFT_SERVER_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Server.Port = i
		}
	}
	if v := os.Getenv("GRAFT_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Server.RateRPS = f
		}
	}

	// Service
	if v := os.Getenv("GRAFT_MAX_SOURCE_BYTES"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Service.MaxSourceBytes = i
		}
	}
	if v := os.Getenv("GRAFT_MAX_BATCH_FILES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Service.MaxBatchFiles = i
		}
	}
	if v := os.Getenv("GRAFT_MAX_RUN_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Service.MaxRunDuration = d
		}
	}

	// Engine
	if v := os.Getenv("GRAFT_RULES_FILE"); v != "" {
		config.Engine.RulesFile = v
	}
	if v := os.Getenv("GRAFT_MAX_PARALLEL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Engine.MaxParallel = i
		}
	}

	// Cache
	if v := os.Getenv("GRAFT_CACHE_ENABLED"); v != "" {
		config.Cache.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("GRAFT_CACHE_DIR"); v != "" {
		config.Cache.Dir = v
	}
	if v := os.Getenv("GRAFT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Cache.TTL = d
		}
	}

	// Watch
	if v := os.Getenv("GRAFT_WATCH_ENABLED"); v != "" {
		config.Watch.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("GRAFT_WATCH_ROOT"); v != "" {
		config.Watch.Root = v
	}
	if v := os.Getenv("GRAFT_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Watch.Debounce = d
		}
	}
	if v := os.Getenv("GRAFT_WATCH_WRITE_BACK"); v != "" {
		config.Watch.WriteBack = v == "true" || v == "1"
	}

	// Telemetry
	if v := os.Getenv("GRAFT_ENV"); v != "" {
		config.Telemetry.Environment = v
	}
	if v := os.Getenv("GRAFT_TRACE_EXPORTER"); v != "" {
		config.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("GRAFT_METRIC_EXPORTER"); v != "" {
		config.Telemetry.MetricExporter = v
	}
	if v := os.Getenv("GRAFT_OTLP_ENDPOINT"); v != "" {
		config.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("GRAFT_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Telemetry.SampleRate = f
		}
	}

	// Logging
	if v := os.Getenv("GRAFT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("GRAFT_LOG_DIR"); v != "" {
		config.Logging.Dir = v
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RateRPS < 0 {
		return fmt.Errorf("server.rate_rps must be >= 0")
	}
	if c.Service.MaxSourceBytes < 1 {
		return fmt.Errorf("service.max_source_bytes must be >= 1")
	}
	if c.Service.MaxBatchFiles < 1 {
		return fmt.Errorf("service.max_batch_files must be >= 1")
	}
	if c.Engine.RulesFile == "" {
		return fmt.Errorf("engine.rules_file is required")
	}
	if c.Engine.MaxParallel < 0 {
		return fmt.Errorf("engine.max_parallel must be >= 0")
	}
	if c.Cache.Enabled && !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when the cache is enabled")
	}
	if c.Watch.Enabled && c.Watch.Root == "" {
		return fmt.Errorf("watch.root is required when watch mode is enabled")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	switch c.Telemetry.TraceExporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("telemetry.trace_exporter must be otlp, stdout, or none")
	}
	switch c.Telemetry.MetricExporter {
	case "prometheus", "stdout", "none":
	default:
		return fmt.Errorf("telemetry.metric_exporter must be prometheus, stdout, or none")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
