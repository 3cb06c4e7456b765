// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rewrite provides the graft rewrite HTTP service.
//
// The service exposes endpoints for:
//   - Rewriting a single source snippet in memory
//   - Rewriting batches of files on disk, with optional write-back
//   - Inspecting the tree a snippet parses to
//   - Reading the loaded rule set and its fingerprint
//   - Streaming per-file rewrite events over a websocket
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/engine"
	"github.com/AleutianAI/graft/services/rewrite/telemetry"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

// tracerName identifies spans created by the service layer.
const tracerName = "aleutian.rewrite.service"

// summaryTextLimit caps the source excerpt attached to each node in a
// parse inspection response.
const summaryTextLimit = 120

// ServiceConfig configures the rewrite service.
type ServiceConfig struct {
	// MaxSourceBytes is the maximum size of an inline source payload.
	// Default: 2MB
	MaxSourceBytes int64

	// MaxBatchFiles is the maximum number of files in a batch request.
	// Default: 500
	MaxBatchFiles int

	// MaxRunDuration is the maximum time allowed for a batch run.
	// Default: 60s
	MaxRunDuration time.Duration

	// AllowedRoots is an optional list of allowed path prefixes for
	// batch files. If empty, all absolute paths are allowed. Security
	// feature.
	AllowedRoots []string

	// Logger receives service logs. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxSourceBytes: 2 << 20, // 2MB
		MaxBatchFiles:  500,
		MaxRunDuration: 60 * time.Second,
	}
}

// Service is the rewrite service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. The engine handles its own
//	locking and the event hub guards its subscriber set.
type Service struct {
	config ServiceConfig
	engine *engine.Engine
	hub    *EventHub
	log    *slog.Logger
}

// NewService creates a new rewrite service around an engine.
//
// Description:
//
//	The service owns no rule or cache state of its own. It wraps the
//	engine with payload limits, path validation, write-back, and event
//	broadcasting.
//
// Inputs:
//
//	eng - The rewrite engine. Must not be nil.
//	config - Service configuration
//
// Outputs:
//
//	*Service - The configured service
//	error - Non-nil if eng is nil
func NewService(eng *engine.Engine, config ServiceConfig) (*Service, error) {
	if eng == nil {
		return nil, errors.New("engine must not be nil")
	}
	if config.MaxSourceBytes <= 0 {
		config.MaxSourceBytes = DefaultServiceConfig().MaxSourceBytes
	}
	if config.MaxBatchFiles <= 0 {
		config.MaxBatchFiles = DefaultServiceConfig().MaxBatchFiles
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Service{
		config: config,
		engine: eng,
		hub:    NewEventHub(config.Logger),
		log:    config.Logger,
	}, nil
}

// Hub returns the event hub serving websocket subscribers.
func (s *Service) Hub() *EventHub {
	return s.hub
}

// RewriteSource rewrites a single in-memory source payload.
//
// Description:
//
//	Runs the full record and apply pipeline on the given content
//	without touching the filesystem. The path only selects the parser
//	and labels the result.
//
// Inputs:
//
//	ctx - Context for cancellation
//	path - File path the content should be treated as
//	content - Raw source text
//
// Outputs:
//
//	*engine.Result - Rewritten output and counters
//	error - Non-nil on validation or pipeline failure
//
// Errors:
//
//	ErrSourceTooLarge - Content exceeds MaxSourceBytes
//	engine.ErrUnsupportedFile - No parser for the path's extension
//	ast.ErrParseFailed - Content does not parse
func (s *Service) RewriteSource(ctx context.Context, path, content string) (*engine.Result, error) {
	if int64(len(content)) > s.config.MaxSourceBytes {
		return nil, fmt.Errorf("%d bytes: %w", len(content), ErrSourceTooLarge)
	}

	ctx, span := telemetry.StartSpan(ctx, tracerName, "Service.RewriteSource",
		trace.WithAttributes(attribute.String("rewrite.path", path)))
	defer span.End()

	res, err := s.engine.RewriteSource(ctx, path, []byte(content))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetSpanOK(span)

	s.hub.Broadcast(Event{
		Type:     EventFileRewritten,
		Path:     res.Path,
		Changed:  res.Changed,
		Applied:  res.Applied,
		CacheHit: res.CacheHit,
	})
	telemetry.LoggerWithTrace(ctx, s.log).Debug("source rewritten",
		"path", res.Path,
		"changed", res.Changed,
		"applied", res.Applied)
	return res, nil
}

// RewriteBatch rewrites a batch of files on disk.
//
// Description:
//
//	Validates every path up front, then hands the batch to the engine.
//	Per-file failures land in the response's Failures list and never
//	abort the rest of the batch. When write is true, changed output is
//	written back over the source file; a failed write moves that file
//	from Results to Failures.
//
// Inputs:
//
//	ctx - Context for cancellation
//	paths - Absolute paths of the files to rewrite
//	write - Write changed output back to disk
//
// Outputs:
//
//	*RewriteBatchResponse - Per-file outcomes
//	error - Non-nil on validation failure or cancellation
//
// Errors:
//
//	ErrEmptyBatch - No paths given
//	ErrBatchTooLarge - More paths than MaxBatchFiles
//	ErrRelativePath - A path is not absolute
//	ErrPathTraversal - A path contains .. sequences
//	ErrPathNotAllowed - A path is outside AllowedRoots
func (s *Service) RewriteBatch(ctx context.Context, paths []string, write bool) (*RewriteBatchResponse, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(paths) > s.config.MaxBatchFiles {
		return nil, fmt.Errorf("%d files: %w", len(paths), ErrBatchTooLarge)
	}
	for _, p := range paths {
		if err := s.validatePath(p); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if s.config.MaxRunDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.MaxRunDuration)
		defer cancel()
	}

	ctx, span := telemetry.StartSpan(ctx, tracerName, "Service.RewriteBatch",
		trace.WithAttributes(
			attribute.Int("rewrite.batch.files", len(paths)),
			attribute.Bool("rewrite.batch.write", write)))
	defer span.End()

	report, err := s.engine.Run(ctx, paths)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := &RewriteBatchResponse{
		RunID:      report.RunID,
		DurationMs: report.Duration.Milliseconds(),
	}
	for _, res := range report.Results {
		fr := FileResult{
			Path:     res.Path,
			Recorded: res.Recorded,
			Applied:  res.Applied,
			Changed:  res.Changed,
			CacheHit: res.CacheHit,
		}
		if write && res.Changed {
			if werr := os.WriteFile(res.Path, res.Output, 0o644); werr != nil {
				resp.Failures = append(resp.Failures, FileFailure{
					Path:  res.Path,
					Error: fmt.Sprintf("write back failed: %v", werr),
				})
				s.broadcastFailure(report.RunID, res.Path, werr)
				continue
			}
			fr.Written = true
		}
		if fr.Changed {
			resp.FilesChanged++
		}
		resp.Results = append(resp.Results, fr)
		s.hub.Broadcast(Event{
			Type:     EventFileRewritten,
			RunID:    report.RunID,
			Path:     fr.Path,
			Changed:  fr.Changed,
			Applied:  fr.Applied,
			CacheHit: fr.CacheHit,
		})
	}
	for _, fe := range report.Failures {
		resp.Failures = append(resp.Failures, FileFailure{
			Path:  fe.Path,
			Error: fe.Cause.Error(),
		})
		s.broadcastFailure(report.RunID, fe.Path, fe.Cause)
	}

	s.hub.Broadcast(Event{
		Type:    EventRunComplete,
		RunID:   report.RunID,
		Changed: resp.FilesChanged > 0,
	})
	span.SetAttributes(
		attribute.Int("rewrite.batch.changed", resp.FilesChanged),
		attribute.Int("rewrite.batch.failures", len(resp.Failures)))
	telemetry.SetSpanOK(span)
	telemetry.LoggerWithTrace(ctx, s.log).Info("batch rewrite served",
		"run_id", report.RunID,
		"files", len(paths),
		"changed", resp.FilesChanged,
		"failures", len(resp.Failures),
		"write", write)
	return resp, nil
}

// ParseSource parses a source payload and lists the resulting nodes.
//
// Description:
//
//	Exists so rule authors can see the node kinds and spans a snippet
//	produces before writing matchers against them. Nodes come back in
//	document order, parents before children.
//
// Inputs:
//
//	ctx - Context for cancellation
//	path - File path the content should be treated as (default: input.js)
//	content - Raw source text
//
// Outputs:
//
//	*ParseResponse - Node summaries and parse metadata
//	error - Non-nil on validation or parse failure
//
// Errors:
//
//	ErrSourceTooLarge - Content exceeds MaxSourceBytes
//	engine.ErrUnsupportedFile - No parser for the path's extension
//	ast.ErrParseFailed - Content does not parse
func (s *Service) ParseSource(ctx context.Context, path, content string) (*ParseResponse, error) {
	if path == "" {
		path = "input.js"
	}
	if int64(len(content)) > s.config.MaxSourceBytes {
		return nil, fmt.Errorf("%d bytes: %w", len(content), ErrSourceTooLarge)
	}

	ctx, span := telemetry.StartSpan(ctx, tracerName, "Service.ParseSource",
		trace.WithAttributes(attribute.String("rewrite.path", path)))
	defer span.End()

	ext := strings.ToLower(filepath.Ext(path))
	parser, ok := s.engine.Registry().GetByExtension(ext)
	if !ok {
		err := fmt.Errorf("%q: %w", ext, engine.ErrUnsupportedFile)
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := parser.Parse(ctx, []byte(content), path)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetSpanOK(span)

	resp := &ParseResponse{
		Language:   result.Language,
		NodeCount:  result.NodeCount,
		DurationMs: result.Duration.Milliseconds(),
	}
	// The walker starts below the root, so list the root by hand.
	resp.Nodes = append(resp.Nodes, NodeSummary{
		Kind:  engine.NodeKind(result.Program),
		Start: result.Program.Span().Start,
		End:   result.Program.Span().End,
		Text:  summaryText(content, result.Program.Span()),
	})
	ast.Inspect(result.Program, func(n ast.Node) {
		sp := n.Span()
		resp.Nodes = append(resp.Nodes, NodeSummary{
			Kind:  engine.NodeKind(n),
			Start: sp.Start,
			End:   sp.End,
			Text:  summaryText(content, sp),
			Value: engine.NodeValue(n),
		})
	}, nil)
	return resp, nil
}

// Rules describes the loaded rule set.
func (s *Service) Rules() *RulesResponse {
	rules := s.engine.Rules()
	return &RulesResponse{
		Count:       len(rules),
		Fingerprint: s.engine.Fingerprint(),
		Rules:       rules,
	}
}

// Ready reports whether the service can serve rewrites.
func (s *Service) Ready() *ReadyResponse {
	rules := s.engine.Rules()
	return &ReadyResponse{
		Ready:        len(rules) > 0,
		Rules:        len(rules),
		CacheEnabled: s.engine.CacheEnabled(),
		Subscribers:  s.hub.Subscribers(),
	}
}

// Close releases service resources. The engine is owned by the caller
// and stays open.
func (s *Service) Close() error {
	s.hub.CloseAll()
	return nil
}

// validatePath validates one batch file path.
func (s *Service) validatePath(path string) error {
	// Must be absolute
	if !filepath.IsAbs(path) {
		return ErrRelativePath
	}

	// No path traversal
	if strings.Contains(path, "..") {
		return ErrPathTraversal
	}

	// Check against allowlist if configured
	if len(s.config.AllowedRoots) > 0 {
		allowed := false
		for _, root := range s.config.AllowedRoots {
			if strings.HasPrefix(path, root) {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrPathNotAllowed
		}
	}

	return nil
}

func (s *Service) broadcastFailure(runID, path string, cause error) {
	s.hub.Broadcast(Event{
		Type:  EventFileFailed,
		RunID: runID,
		Path:  path,
		Error: cause.Error(),
	})
}

// summaryText returns the span's source text, truncated for display.
func summaryText(content string, sp ast.Span) string {
	start, end := int(sp.Start), int(sp.End)
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	text := content[start:end]
	if len(text) > summaryTextLimit {
		return text[:summaryTextLimit] + "..."
	}
	return text
}
