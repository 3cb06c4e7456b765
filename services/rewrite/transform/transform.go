// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package transform provides the shallow mutators the rewrite engine
// registers at recorded nodes.
//
// Every transform implements ast.Visitor through ast.NopVisitor
// embedding and mutates only the node it is handed; descending into
// children is the applier's job, never the transform's. Each type also
// ships a Factory method producing an astpath.TransformFactory, so a
// configured transform can be registered once and stamped out fresh for
// every matched node.
package transform

import (
	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/astpath"
)

// StringReplacer rewrites the value of the string literal it is handed
// and clears Raw so the printer emits the new value.
//
// Old is a guard: when non-empty, the literal only changes if its
// current value equals Old. That protects against a stale registration
// addressing a node whose content moved between record and apply.
// Non-string nodes are left alone.
type StringReplacer struct {
	ast.NopVisitor
	Old string
	New string
}

// VisitExpr implements the shallow mutation.
func (r *StringReplacer) VisitExpr(slot *ast.Expr) {
	lit, ok := (*slot).(*ast.StringLiteral)
	if !ok {
		return
	}
	if r.Old != "" && lit.Value != r.Old {
		return
	}
	lit.Value = r.New
	lit.Raw = ""
}

// Factory returns a factory that builds a fresh replacer per match with
// this configuration.
func (r *StringReplacer) Factory() astpath.TransformFactory {
	cfg := *r
	return func() ast.Visitor {
		c := cfg
		return &c
	}
}

// IdentifierRenamer renames an identifier in expression or pattern
// position. Both hooks are needed because the same name can appear as a
// value reference and as a binding.
type IdentifierRenamer struct {
	ast.NopVisitor
	From string
	To   string
}

// VisitExpr renames a matching identifier used as a value.
func (r *IdentifierRenamer) VisitExpr(slot *ast.Expr) {
	if id, ok := (*slot).(*ast.Identifier); ok && id.Name == r.From {
		id.Name = r.To
	}
}

// VisitPat renames a matching identifier used as a binding.
func (r *IdentifierRenamer) VisitPat(slot *ast.Pat) {
	if id, ok := (*slot).(*ast.Identifier); ok && id.Name == r.From {
		id.Name = r.To
	}
}

// Factory returns a factory that builds a fresh renamer per match with
// this configuration.
func (r *IdentifierRenamer) Factory() astpath.TransformFactory {
	cfg := *r
	return func() ast.Visitor {
		c := cfg
		return &c
	}
}

// ExprReplacer swaps the handed expression slot for a newly built node.
//
// Build runs once per handed slot, so replacements are never aliased
// between matches or between trees. A nil Build or a nil built node
// leaves the slot unchanged.
type ExprReplacer struct {
	ast.NopVisitor
	Build func() ast.Expr
}

// VisitExpr performs the slot replacement.
func (r *ExprReplacer) VisitExpr(slot *ast.Expr) {
	if r.Build == nil {
		return
	}
	if e := r.Build(); e != nil {
		*slot = e
	}
}

// Factory returns a factory that builds a fresh replacer per match
// sharing this Build function.
func (r *ExprReplacer) Factory() astpath.TransformFactory {
	build := r.Build
	return func() ast.Visitor {
		return &ExprReplacer{Build: build}
	}
}
