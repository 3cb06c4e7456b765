// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for the rewrite cache.
var meter = otel.Meter("aleutian.rewrite.cache")

// Metrics for cache operations.
var (
	cacheLookups metric.Int64Counter
	cachePuts    metric.Int64Counter
	cachePutSize metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheLookups, err = meter.Int64Counter(
			"rewrite_cache_lookups_total",
			metric.WithDescription("Total number of cache lookups"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cachePuts, err = meter.Int64Counter(
			"rewrite_cache_puts_total",
			metric.WithDescription("Total number of cache writes"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cachePutSize, err = meter.Int64Histogram(
			"rewrite_cache_put_bytes",
			metric.WithDescription("Size of cached rewrite outputs"),
			metric.WithUnit("By"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCacheLookup records one lookup and its outcome.
func recordCacheLookup(ctx context.Context, hit bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// recordCachePut records one write and the stored size.
func recordCachePut(ctx context.Context, size int) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	cachePuts.Add(ctx, 1)
	cachePutSize.Record(ctx, int64(size))
}
