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
	"errors"
	"fmt"

	"github.com/AleutianAI/graft/services/rewrite/ast"
)

// Sentinel errors for path recording and replay failures.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrEmptyChain indicates a registration whose chain holds no markers.
	// A chain addresses a node by at least one marker (the top-level item
	// it lives under), so an empty chain addresses nothing and cannot be
	// indexed for replay.
	ErrEmptyChain = errors.New("empty chain")

	// ErrDepthExceeded indicates the applier reached a traversal depth
	// past the end of a pending registration's chain. With a lookup built
	// by NewLookup this cannot happen: a registration only survives into
	// the next depth while markers remain. Seeing it means the lookup was
	// assembled by hand with chains shorter than the keys imply, and the
	// replay stops immediately rather than mutate nodes the chain never
	// addressed.
	ErrDepthExceeded = errors.New("chain depth exceeded")
)

// ApplyError reports an invariant violation during replay, with enough
// position information to identify the offending registration.
//
// The applier stops at the first violation; partial mutations made
// before the stop are left in place, so callers should discard the tree
// when an ApplyError is returned.
//
// Example:
//
//	if err := astpath.Apply(prog, regs); err != nil {
//	    var applyErr *astpath.ApplyError
//	    if errors.As(err, &applyErr) {
//	        log.Error("replay failed", "depth", applyErr.Depth, "marker", applyErr.Marker)
//	    }
//	}
type ApplyError struct {
	// Depth is the zero-based traversal depth at which the violation was
	// detected. Depth 0 is a top-level item of the program.
	Depth int

	// Marker is the span of the node being visited when the violation
	// was detected.
	Marker ast.Span

	// Chain is the offending registration's chain.
	Chain Chain

	// Cause is the underlying sentinel error.
	Cause error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("apply failed at depth %d on marker %s (chain %v): %v",
			e.Depth, e.Marker, e.Chain, e.Cause)
	}
	return fmt.Sprintf("apply failed at depth %d on marker %s (chain %v)",
		e.Depth, e.Marker, e.Chain)
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// IsEmptyChain reports whether err is or wraps ErrEmptyChain.
func IsEmptyChain(err error) bool {
	return errors.Is(err, ErrEmptyChain)
}

// IsDepthExceeded reports whether err is or wraps ErrDepthExceeded.
func IsDepthExceeded(err error) bool {
	return errors.Is(err, ErrDepthExceeded)
}
