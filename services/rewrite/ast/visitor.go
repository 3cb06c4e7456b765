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

// Visitor has one hook per traversal category. Each hook receives a pointer
// to the interface slot the node occupies in its parent, so an
// implementation may mutate the node's fields, replace the node entirely
// (`*slot = replacement`), or do nothing.
//
// The same interface serves two roles:
//
//   - Traversals (the astpath recorder and applier, the engine's span
//     indexer) implement all five hooks and drive descent themselves via
//     the Walk*Children helpers.
//   - Shallow transforms (the transform package) embed NopVisitor and
//     override only the hooks they care about; by contract they must not
//     descend into the node they are handed.
//
// Thread Safety: Visitor implementations carry their own state and are not
// safe for concurrent use unless documented otherwise; use a fresh instance
// per traversal.
type Visitor interface {
	VisitExpr(slot *Expr)
	VisitStmt(slot *Stmt)
	VisitPat(slot *Pat)
	VisitProp(slot *Prop)
	VisitModuleDecl(slot *ModuleDecl)
}

// NopVisitor is an embeddable base whose hooks do nothing. Transforms embed
// it so they only implement the categories they actually rewrite.
type NopVisitor struct{}

func (NopVisitor) VisitExpr(*Expr)             {}
func (NopVisitor) VisitStmt(*Stmt)             {}
func (NopVisitor) VisitPat(*Pat)               {}
func (NopVisitor) VisitProp(*Prop)             {}
func (NopVisitor) VisitModuleDecl(*ModuleDecl) {}

var _ Visitor = NopVisitor{}

// Inspect walks every category node of prog in depth-first pre-order,
// calling enter before a node's subtree and leave after it. Either callback
// may be nil. It exists for consumers that want plain read-only iteration
// without writing a Visitor (span indexing, dump tooling, tests).
func Inspect(prog *Program, enter, leave func(n Node)) {
	in := &inspectVisitor{enter: enter, leave: leave}
	WalkProgram(in, prog)
}

type inspectVisitor struct {
	enter func(n Node)
	leave func(n Node)
}

func (v *inspectVisitor) around(n Node, children func()) {
	if v.enter != nil {
		v.enter(n)
	}
	children()
	if v.leave != nil {
		v.leave(n)
	}
}

func (v *inspectVisitor) VisitExpr(slot *Expr) {
	v.around(*slot, func() { WalkExprChildren(v, *slot) })
}

func (v *inspectVisitor) VisitStmt(slot *Stmt) {
	v.around(*slot, func() { WalkStmtChildren(v, *slot) })
}

func (v *inspectVisitor) VisitPat(slot *Pat) {
	v.around(*slot, func() { WalkPatChildren(v, *slot) })
}

func (v *inspectVisitor) VisitProp(slot *Prop) {
	v.around(*slot, func() { WalkPropChildren(v, *slot) })
}

func (v *inspectVisitor) VisitModuleDecl(slot *ModuleDecl) {
	v.around(*slot, func() { WalkModuleDeclChildren(v, *slot) })
}
