// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"bytes"
	"fmt"
)

// Span is the half-open byte range [Start, End) a node occupies in its
// source file. Spans are assigned once at parse time and never mutated
// afterwards; they are the position identity the rewrite machinery keys on.
//
// Spans are NOT unique within a tree: cloning a subtree duplicates the spans
// of every node in it. Code that needs to address a single node must use the
// full ancestor span chain, not a lone span (see the astpath package).
//
// The zero Span is valid and denotes an empty range at offset 0; synthesized
// nodes that never came from source carry it.
type Span struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes the span covers.
func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Text slices the span out of the source it was produced from.
// The caller must pass the same content the tree was parsed from;
// out-of-range spans yield an empty slice rather than panicking.
func (s Span) Text(content []byte) []byte {
	if int(s.Start) > len(content) || int(s.End) > len(content) || s.End < s.Start {
		return nil
	}
	return content[s.Start:s.End]
}

// String renders the span in "[start,end)" form for logs and test failures.
func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// SpanOf locates the first occurrence of snippet in content and returns its
// span. It exists for tests and debugging tools that need to name a node by
// the source text it covers; production callers take spans from parsed nodes.
func SpanOf(content []byte, snippet string) (Span, bool) {
	idx := bytes.Index(content, []byte(snippet))
	if idx < 0 {
		return Span{}, false
	}
	return Span{Start: uint32(idx), End: uint32(idx + len(snippet))}, true
}
