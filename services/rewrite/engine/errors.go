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
	"errors"
	"fmt"
)

// Sentinel errors for engine configuration and per-file failures.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrNoRules indicates the engine was constructed without any rules.
	// An engine with nothing to rewrite is almost always a configuration
	// mistake, so New rejects it instead of silently passing files through.
	ErrNoRules = errors.New("no rules configured")

	// ErrInvalidRule indicates a rule failed validation: missing name,
	// missing fields for its kind, or a malformed scope glob.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownRuleKind indicates a rule names a kind the engine does not
	// implement. The set of valid kinds is fixed at compile time; a typo in
	// a rules file surfaces here rather than as a rule that never fires.
	ErrUnknownRuleKind = errors.New("unknown rule kind")

	// ErrUnsupportedFile indicates no parser is registered for the file's
	// extension. Watch mode filters these before rewriting; direct calls
	// to RewriteFile surface them.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrEngineClosed indicates an operation was attempted after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// FileError records a rewrite failure for one file within a batch run.
//
// Run isolates per-file failures: one file that fails to parse or apply
// does not abort the rest of the batch. Each failure is wrapped in a
// FileError so the report keeps the path alongside the cause.
//
// Example:
//
//	report, _ := eng.Run(ctx, paths)
//	for _, fe := range report.Failures {
//	    log.Warn("rewrite failed", "path", fe.Path, "err", fe.Cause)
//	}
type FileError struct {
	// Path is the file that failed.
	Path string

	// Cause is the underlying error.
	Cause error
}

// Error returns "path: cause".
func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *FileError) Unwrap() error {
	return e.Cause
}

// IsUnsupportedFile checks if an error indicates a file type with no
// registered parser.
func IsUnsupportedFile(err error) bool {
	return errors.Is(err, ErrUnsupportedFile)
}

// IsInvalidRule checks if an error indicates a rule that failed
// validation, including unknown kinds.
func IsInvalidRule(err error) bool {
	return errors.Is(err, ErrInvalidRule) || errors.Is(err, ErrUnknownRuleKind)
}
