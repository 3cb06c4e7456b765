// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"github.com/AleutianAI/graft/services/rewrite/engine"
)

// RewriteSourceRequest is the request body for POST /v1/rewrite/source.
type RewriteSourceRequest struct {
	// Path is the file path the content should be treated as. It
	// selects the parser by extension and scopes glob rules. Required.
	Path string `json:"path" binding:"required"`

	// Content is the source code to rewrite. Required.
	Content string `json:"content" binding:"required"`
}

// RewriteSourceResponse is the response for POST /v1/rewrite/source.
type RewriteSourceResponse struct {
	// Path echoes the request path.
	Path string `json:"path"`

	// Output is the rewritten source. Byte-identical to the input
	// when no rule fired.
	Output string `json:"output"`

	// Recorded is the number of rule registrations collected.
	Recorded int `json:"recorded"`

	// Applied is the number of transforms that ran.
	Applied int `json:"applied"`

	// Changed is true if the output differs from the input.
	Changed bool `json:"changed"`

	// CacheHit is true if the output came from the rewrite cache.
	CacheHit bool `json:"cache_hit"`

	// DurationMs is the processing time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// RewriteBatchRequest is the request body for POST /v1/rewrite.
type RewriteBatchRequest struct {
	// Paths is the list of absolute file paths to rewrite. Required.
	Paths []string `json:"paths" binding:"required"`

	// Write enables writing changed outputs back to disk. Default:
	// false (dry run, results report what would change).
	Write bool `json:"write"`
}

// FileResult summarizes one file of a batch run.
type FileResult struct {
	// Path is the rewritten file.
	Path string `json:"path"`

	// Recorded is the number of rule registrations collected.
	Recorded int `json:"recorded"`

	// Applied is the number of transforms that ran.
	Applied int `json:"applied"`

	// Changed is true if the output differs from the file content.
	Changed bool `json:"changed"`

	// CacheHit is true if the output came from the rewrite cache.
	CacheHit bool `json:"cache_hit"`

	// Written is true if the output was written back to disk.
	Written bool `json:"written"`
}

// FileFailure describes one file that could not be rewritten.
type FileFailure struct {
	// Path is the file that failed.
	Path string `json:"path"`

	// Error is the failure message.
	Error string `json:"error"`
}

// RewriteBatchResponse is the response for POST /v1/rewrite.
type RewriteBatchResponse struct {
	// RunID identifies this batch run in logs and events.
	RunID string `json:"run_id"`

	// Results holds per-file outcomes for files that processed.
	Results []FileResult `json:"results"`

	// Failures holds per-file errors. A batch with failures still
	// returns 200; only validation and cancellation fail the request.
	Failures []FileFailure `json:"failures,omitempty"`

	// FilesChanged is the number of results with Changed=true.
	FilesChanged int `json:"files_changed"`

	// DurationMs is the total batch time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// ParseRequest is the request body for POST /v1/parse.
type ParseRequest struct {
	// Path is the file path the content should be treated as.
	// Default: "input.js".
	Path string `json:"path"`

	// Content is the source code to parse. Required.
	Content string `json:"content" binding:"required"`
}

// NodeSummary describes one tree node in a parse listing.
type NodeSummary struct {
	// Kind is the node type name, e.g. "CallExpression".
	Kind string `json:"kind"`

	// Start is the byte offset where the node begins.
	Start uint32 `json:"start"`

	// End is the byte offset one past where the node ends.
	End uint32 `json:"end"`

	// Text is the source text the node covers, truncated for display.
	Text string `json:"text"`

	// Value is the node payload for literals, identifiers, and
	// module declarations.
	Value string `json:"value,omitempty"`
}

// ParseResponse is the response for POST /v1/parse.
type ParseResponse struct {
	// Language is the canonical language name.
	Language string `json:"language"`

	// NodeCount is the number of tree nodes built.
	NodeCount int `json:"node_count"`

	// DurationMs is the parse time in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Nodes lists every node in document order (parents first).
	Nodes []NodeSummary `json:"nodes"`
}

// RulesResponse is the response for GET /v1/rules.
type RulesResponse struct {
	// Count is the number of loaded rules.
	Count int `json:"count"`

	// Fingerprint is the hex digest of the rule set. It changes
	// whenever any rule changes, and keys the rewrite cache.
	Fingerprint string `json:"fingerprint"`

	// Rules is the loaded rule set in evaluation order.
	Rules []engine.Rule `json:"rules"`
}

// HealthResponse is the response for GET /v1/health.
type HealthResponse struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/ready.
type ReadyResponse struct {
	// Ready is true if the service can accept rewrite requests.
	Ready bool `json:"ready"`

	// Rules is the number of loaded rules.
	Rules int `json:"rules"`

	// CacheEnabled is true if a rewrite cache is attached.
	CacheEnabled bool `json:"cache_enabled"`

	// Subscribers is the number of connected event stream clients.
	Subscribers int `json:"subscribers"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
