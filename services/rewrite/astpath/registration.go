// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package astpath addresses individual tree nodes by the chain of byte
// spans leading from a top-level item down to the node, and replays
// shallow transforms against exactly those nodes in a later traversal.
//
// The work is split into two phases on purpose. Record walks a tree
// once, asks a decision function about every node it meets, and turns
// each acceptance into a Registration: the node's full chain plus a
// factory for the transform to run there. Apply takes those
// registrations to any tree with the same span layout (the same tree,
// or a clone of it) and descends only along registered chains, pruning
// every subtree no chain passes through. The registrations in between
// are plain immutable data: they can be stored, shared, and replayed
// concurrently against distinct trees.
//
// Spans work as node identity here because cloning preserves them and
// printing does not depend on them. Two nodes with identical text at
// different positions have different spans, so a chain never confuses
// one occurrence with another.
package astpath

import (
	"fmt"

	"github.com/AleutianAI/graft/services/rewrite/ast"
)

// Chain is the sequence of markers from a top-level item of the program
// down to one node, outermost first. The Program root itself is not
// part of the chain; chain position 0 is always a top-level statement
// or module declaration.
//
// A chain has at least one marker. Chains are compared element-wise;
// the byte spans come straight from the parsed tree, so equal spans
// mean the same source extent.
type Chain []ast.Span

// Clone returns an independent copy of the chain.
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	copy(out, c)
	return out
}

// Equal reports whether c and other hold the same markers in the same
// order.
func (c Chain) Equal(other Chain) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Last returns the chain's final marker, the span of the node the chain
// addresses. ok is false for an empty chain.
func (c Chain) Last() (span ast.Span, ok bool) {
	if len(c) == 0 {
		return ast.Span{}, false
	}
	return c[len(c)-1], true
}

// TransformFactory constructs a transform for one matched node. The
// applier calls the factory once per match, so every matched node gets
// a fresh visitor and factories may close over shared configuration
// without the products sharing mutable state.
//
// The produced visitor is invoked shallowly: it receives the matched
// node's slot exactly once and is not walked into the node's children.
// Replacing the node, rewriting its fields, or doing nothing are all
// valid; descending is not the transform's job.
type TransformFactory func() ast.Visitor

// DecisionFunc is consulted by Record for every node in the tree. It
// receives the chain from the top-level item down to the current node
// and returns a factory to register the node for transformation, or nil
// to pass.
//
// The chain argument is only valid for the duration of the call; the
// recorder reuses its backing array as the traversal moves on. A
// decision function that wants to keep a chain must copy it with Clone.
type DecisionFunc func(chain Chain) TransformFactory

// Registration pairs one recorded chain with the factory for the
// transform to run at the addressed node.
//
// Registrations are immutable once created. A slice of registrations
// can be applied to any number of trees, concurrently, as long as each
// tree gets its own Apply call.
type Registration struct {
	// Chain addresses the node to transform.
	Chain Chain

	// NewTransform builds a fresh transform for each application.
	NewTransform TransformFactory
}

// Lookup indexes pending registrations by the marker each one expects
// at the current traversal depth. The applier consults it at every node
// it visits: a missing key means no registered chain passes through
// that node and the whole subtree is skipped.
type Lookup map[ast.Span][]Registration

// NewLookup builds the depth-zero lookup for a set of registrations,
// keyed on each chain's first marker. Registration order is preserved
// within each key, which is what makes multiple transforms on the same
// node run in registration order.
//
// Returns ErrEmptyChain (wrapped with the registration index) if any
// registration carries an empty chain.
func NewLookup(regs []Registration) (Lookup, error) {
	lookup := make(Lookup, len(regs))
	for i, reg := range regs {
		if len(reg.Chain) == 0 {
			return nil, fmt.Errorf("registration %d: %w", i, ErrEmptyChain)
		}
		head := reg.Chain[0]
		lookup[head] = append(lookup[head], reg)
	}
	return lookup, nil
}
