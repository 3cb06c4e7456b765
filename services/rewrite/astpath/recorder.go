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
	"github.com/AleutianAI/graft/services/rewrite/ast"
)

// Record walks prog in pre-order and offers every node's chain to the
// decision function, collecting a registration for each acceptance.
//
// Description:
//
//	For each node the traversal pushes the node's marker onto a working
//	chain, calls decide with the chain as it stands, and then descends
//	into the node's children with the marker still in place. A non-nil
//	factory from decide becomes a Registration holding an independent
//	copy of the chain. The decision never short-circuits the walk: the
//	recorder visits every node exactly once whether or not its
//	ancestors were accepted, so one pass can register a node and any of
//	its descendants.
//
//	Registrations come back in visit order, which is pre-order over the
//	tree. The tree itself is never modified.
//
// Inputs:
//   - prog: The parsed tree to examine. A nil program records nothing.
//   - decide: Called once per node. A nil decision function records
//     nothing.
//
// Outputs:
//   - The registrations accepted by decide, in visit order. Nil when
//     nothing was accepted.
//
// Thread Safety: Record only reads the tree, but it must not run
// concurrently with anything mutating prog. The returned registrations
// are immutable and safe to share across goroutines.
func Record(prog *ast.Program, decide DecisionFunc) []Registration {
	if prog == nil || decide == nil {
		return nil
	}
	r := &recorder{
		decide: decide,
		chain:  make(Chain, 0, 16),
	}
	ast.WalkProgram(r, prog)
	recordRecordMetrics(len(r.regs))
	return r.regs
}

// recorder is the traversal state behind Record. The working chain is a
// single reused slice: markers are appended on the way down and sliced
// off on the way back up, so only accepted chains are ever copied.
type recorder struct {
	decide DecisionFunc
	chain  Chain
	regs   []Registration
}

// enter runs the per-node protocol: push the marker, consult the
// decision function, then descend. The pop is deferred so a panicking
// decision function or a panic further down cannot leave a stale marker
// on the chain.
func (r *recorder) enter(n ast.Node, descend func()) {
	r.chain = append(r.chain, n.Span())
	defer func() {
		r.chain = r.chain[:len(r.chain)-1]
	}()

	if factory := r.decide(r.chain); factory != nil {
		r.regs = append(r.regs, Registration{
			Chain:        r.chain.Clone(),
			NewTransform: factory,
		})
	}
	descend()
}

func (r *recorder) VisitExpr(slot *ast.Expr) {
	n := *slot
	r.enter(n, func() { ast.WalkExprChildren(r, n) })
}

func (r *recorder) VisitStmt(slot *ast.Stmt) {
	n := *slot
	r.enter(n, func() { ast.WalkStmtChildren(r, n) })
}

func (r *recorder) VisitPat(slot *ast.Pat) {
	n := *slot
	r.enter(n, func() { ast.WalkPatChildren(r, n) })
}

func (r *recorder) VisitProp(slot *ast.Prop) {
	n := *slot
	r.enter(n, func() { ast.WalkPropChildren(r, n) })
}

func (r *recorder) VisitModuleDecl(slot *ast.ModuleDecl) {
	n := *slot
	r.enter(n, func() { ast.WalkModuleDeclChildren(r, n) })
}
