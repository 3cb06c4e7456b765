// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package astpath

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for path recording and replay. Record and Apply
// are synchronous and carry no context, so measurements are recorded
// against the background context and there is no tracer here; spans
// around rewrite operations belong to the callers.
var meter = otel.Meter("aleutian.rewrite.astpath")

// Metrics for recording and replay operations.
var (
	recordTotal       metric.Int64Counter
	chainsRegistered  metric.Int64Histogram
	applyTotal        metric.Int64Counter
	transformsApplied metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		recordTotal, err = meter.Int64Counter(
			"rewrite_astpath_record_total",
			metric.WithDescription("Total number of recording traversals"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		chainsRegistered, err = meter.Int64Histogram(
			"rewrite_astpath_chains_registered",
			metric.WithDescription("Number of chains registered per recording traversal"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		applyTotal, err = meter.Int64Counter(
			"rewrite_astpath_apply_total",
			metric.WithDescription("Total number of replay traversals"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		transformsApplied, err = meter.Int64Histogram(
			"rewrite_astpath_transforms_applied",
			metric.WithDescription("Number of transforms fired per replay traversal"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordRecordMetrics records metrics for one recording traversal.
func recordRecordMetrics(registered int) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	ctx := context.Background()
	recordTotal.Add(ctx, 1)
	chainsRegistered.Record(ctx, int64(registered))
}

// recordApplyMetrics records metrics for one replay traversal.
func recordApplyMetrics(applied int, success bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	ctx := context.Background()
	applyTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	transformsApplied.Record(ctx, int64(applied))
}
