// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for rewrite engine operations.
var (
	tracer = otel.Tracer("aleutian.rewrite.engine")
	meter  = otel.Meter("aleutian.rewrite.engine")
)

// Metrics for rewrite operations.
var (
	rewriteLatency metric.Float64Histogram
	rewriteTotal   metric.Int64Counter
	batchFiles     metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		rewriteLatency, err = meter.Float64Histogram(
			"rewrite_duration_seconds",
			metric.WithDescription("Duration of single-file rewrites"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rewriteTotal, err = meter.Int64Counter(
			"rewrite_files_total",
			metric.WithDescription("Total number of files rewritten"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		batchFiles, err = meter.Int64Histogram(
			"rewrite_batch_files",
			metric.WithDescription("Number of files per batch run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRewriteSpan creates a span for a single-file rewrite.
func startRewriteSpan(ctx context.Context, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.RewriteSource",
		trace.WithAttributes(
			attribute.String("rewrite.path", filePath),
		),
	)
}

// setRewriteSpanResult sets the result attributes on a rewrite span.
func setRewriteSpanResult(span trace.Span, res *Result, success bool) {
	span.SetAttributes(attribute.Bool("rewrite.success", success))
	if res != nil {
		span.SetAttributes(
			attribute.Int("rewrite.recorded", res.Recorded),
			attribute.Int("rewrite.applied", res.Applied),
			attribute.Bool("rewrite.changed", res.Changed),
			attribute.Bool("rewrite.cache_hit", res.CacheHit),
		)
	}
}

// recordRewriteMetrics records metrics for a single-file rewrite.
func recordRewriteMetrics(ctx context.Context, duration time.Duration, changed, cacheHit, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("changed", changed),
		attribute.Bool("cache_hit", cacheHit),
		attribute.Bool("success", success),
	)

	rewriteLatency.Record(ctx, duration.Seconds(), attrs)
	rewriteTotal.Add(ctx, 1, attrs)
}

// recordBatchMetrics records the size of a batch run.
func recordBatchMetrics(ctx context.Context, files int) {
	if err := initMetrics(); err != nil {
		return
	}
	batchFiles.Record(ctx, int64(files))
}
