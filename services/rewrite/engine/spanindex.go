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
	"fmt"
	"strings"

	"github.com/AleutianAI/graft/services/rewrite/ast"
)

// NodeInfo describes one tree node for rule matching.
//
// The recording pass sees only span chains, not nodes. NodeInfo is the
// bridge back: given a span from a chain, the index reports what kind of
// node sits there and what it says, so rules can decide whether they
// care without re-walking the tree.
type NodeInfo struct {
	// Span is the node's source byte range.
	Span ast.Span

	// Kind is the node's type name, e.g. "StringLiteral" or
	// "CallExpression".
	Kind string

	// Text is the source text the span covers.
	Text string

	// Value is the node's payload where it has one: the decoded value
	// for string literals, the name for identifiers, the raw text for
	// number literals. Empty for structural nodes.
	Value string
}

// SpanIndex maps spans to the nodes parsed from them.
//
// Description:
//
//	SpanIndex is built once per parse with a single traversal and then
//	queried during recording, where the decision function runs for every
//	node and only has a chain in hand.
//
//	Distinct nodes can share a span: a statement with no trailing
//	semicolon covers exactly the bytes of its expression. Equal spans
//	always nest, so nodes sharing a span sit consecutively on one
//	root-to-node path; the occurrence count of the span within a chain
//	picks out which of them the chain ends at.
//
// Thread Safety:
//
//	SpanIndex is immutable after construction and safe for concurrent
//	reads.
type SpanIndex struct {
	nodes map[ast.Span][]NodeInfo
	count int
}

// NewSpanIndex builds an index over every node in the program.
//
// Parameters:
//   - prog: The parsed program. A nil program yields an empty index.
//   - content: The source bytes the program was parsed from, used to
//     slice out node text.
func NewSpanIndex(prog *ast.Program, content []byte) *SpanIndex {
	idx := &SpanIndex{nodes: make(map[ast.Span][]NodeInfo)}
	if prog == nil {
		return idx
	}
	ast.Inspect(prog, func(n ast.Node) {
		span := n.Span()
		idx.nodes[span] = append(idx.nodes[span], NodeInfo{
			Span:  span,
			Kind:  NodeKind(n),
			Text:  string(span.Text(content)),
			Value: NodeValue(n),
		})
		idx.count++
	}, nil)
	return idx
}

// Info returns the node at the given span.
//
// When several nodes share the span, the innermost one is returned.
// Use Lookup with an occurrence count to address the others.
func (idx *SpanIndex) Info(span ast.Span) (NodeInfo, bool) {
	infos := idx.nodes[span]
	if len(infos) == 0 {
		return NodeInfo{}, false
	}
	return infos[len(infos)-1], true
}

// Lookup returns the node at the given span by occurrence.
//
// Parameters:
//   - span: The span to look up.
//   - occurrence: 1-based position along the root-to-node path. The
//     outermost node with this span is occurrence 1. Passing the number
//     of times the span appears in a chain addresses exactly the node
//     that chain ends at.
func (idx *SpanIndex) Lookup(span ast.Span, occurrence int) (NodeInfo, bool) {
	infos := idx.nodes[span]
	if occurrence < 1 || occurrence > len(infos) {
		return NodeInfo{}, false
	}
	return infos[occurrence-1], true
}

// Len returns the number of indexed nodes.
func (idx *SpanIndex) Len() int {
	return idx.count
}

// NodeKind names a node by its concrete type, without the package
// prefix, e.g. "StringLiteral" or "CallExpression". Rule matchers and
// the parse inspection endpoint share this naming.
func NodeKind(n ast.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
}

// NodeValue extracts the payload of nodes that carry one. For module
// declarations the payload is the import/export source path, which is
// what scoping rules match against. Structural nodes yield "".
func NodeValue(n ast.Node) string {
	switch node := n.(type) {
	case *ast.StringLiteral:
		return node.Value
	case *ast.Identifier:
		return node.Name
	case *ast.NumberLiteral:
		return node.Raw
	case *ast.BooleanLiteral:
		if node.Value {
			return "true"
		}
		return "false"
	case *ast.ImportDeclaration:
		if node.Source != nil {
			return node.Source.Value
		}
		return ""
	case *ast.ExportNamedDeclaration:
		if node.Source != nil {
			return node.Source.Value
		}
		return ""
	case *ast.ExportAllDeclaration:
		if node.Source != nil {
			return node.Source.Value
		}
		return ""
	default:
		return ""
	}
}
