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

// Apply replays registrations against prog, mutating the addressed
// nodes in place.
//
// Description:
//
//	The registrations are indexed by their first marker and the tree is
//	walked top-down. At every node the applier looks up the node's span
//	in the current index: a miss means no registered chain passes
//	through here and the entire subtree is skipped without visiting it.
//	On a hit each pending registration is resolved independently. A
//	registration at its final marker fires: a fresh transform is built
//	and handed the node's slot, once, shallowly. A registration with
//	markers left survives into a new index keyed on its next marker,
//	and the applier descends into this node's children with that index.
//	The same node can fire registrations and carry others downward at
//	the same time.
//
//	Transforms on one node run in registration order, and duplicate
//	registrations fire once each; nothing is deduplicated. Chains that
//	match no node, including chains recorded against a tree with a
//	different span layout, are skipped silently. The only hard failure
//	is a structural one: a registration still pending below the end of
//	its own chain stops the replay with ErrDepthExceeded.
//
// Inputs:
//   - prog: The tree to mutate. Must have the span layout the
//     registrations were recorded against (the recorded tree or a clone
//     of it). A nil program is a no-op.
//   - regs: The registrations to replay. An empty slice is a no-op.
//
// Outputs:
//   - nil on success, ErrEmptyChain (wrapped) if a registration carries
//     an empty chain, or an *ApplyError wrapping ErrDepthExceeded on a
//     structural violation. After an error the tree may hold a partial
//     set of mutations and should be discarded.
//
// Thread Safety: The registrations are only read, so the same slice may
// be applied to distinct trees from multiple goroutines. The tree being
// mutated must not be touched by anything else during the call.
func Apply(prog *ast.Program, regs []Registration) error {
	if prog == nil || len(regs) == 0 {
		return nil
	}
	lookup, err := NewLookup(regs)
	if err != nil {
		return err
	}
	a := NewApplier(lookup)
	ast.WalkProgram(a, prog)
	recordApplyMetrics(a.Applied(), a.Err() == nil)
	return a.Err()
}

// Applier is the visitor that replays a lookup over one tree. Most
// callers want Apply; constructing an Applier directly is for callers
// that build their own Lookup or drive the walk themselves:
//
//	a := astpath.NewApplier(lookup)
//	ast.WalkProgram(a, prog)
//	if err := a.Err(); err != nil { ... }
//
// An Applier replays one traversal over one tree. Create a new one per
// tree; the descent spawns child appliers internally that share this
// one's error and counters.
type Applier struct {
	lookup Lookup
	depth  int
	state  *applyState
}

// applyState is shared by an applier and all its descendants so a
// violation anywhere stops the whole replay.
type applyState struct {
	err     error
	applied int
}

// NewApplier returns an applier that replays the given depth-zero
// lookup. The lookup must be keyed the way NewLookup keys it: each
// registration listed under the marker it expects at depth zero.
func NewApplier(lookup Lookup) *Applier {
	return &Applier{
		lookup: lookup,
		state:  &applyState{},
	}
}

// Err returns the first violation encountered, or nil. Once set, the
// remaining traversal is skipped.
func (a *Applier) Err() error {
	return a.state.err
}

// Applied returns the number of transforms fired so far.
func (a *Applier) Applied() int {
	return a.state.applied
}

// step resolves one visited node against the current lookup.
// applyShallow hands a fresh transform the node's slot; descend walks
// the node's children under a child applier.
func (a *Applier) step(span ast.Span, applyShallow func(ast.Visitor), descend func(child *Applier)) {
	if a.state.err != nil {
		return
	}
	regs, ok := a.lookup[span]
	if !ok {
		// No registered chain passes through this node. Skip the
		// whole subtree.
		return
	}

	var nested Lookup
	for _, reg := range regs {
		if a.depth >= len(reg.Chain) {
			a.state.err = &ApplyError{
				Depth:  a.depth,
				Marker: span,
				Chain:  reg.Chain,
				Cause:  ErrDepthExceeded,
			}
			return
		}
		if a.depth == len(reg.Chain)-1 {
			// Terminal. The final marker is re-checked even though
			// the lookup key already matched: a mis-keyed entry in a
			// hand-built lookup must not mutate a node its chain
			// never addressed.
			if reg.Chain[a.depth] != span {
				continue
			}
			applyShallow(reg.NewTransform())
			a.state.applied++
			continue
		}
		if nested == nil {
			nested = make(Lookup)
		}
		next := reg.Chain[a.depth+1]
		nested[next] = append(nested[next], reg)
	}

	if nested != nil {
		descend(&Applier{
			lookup: nested,
			depth:  a.depth + 1,
			state:  a.state,
		})
	}
}

// The hooks below read the slot's current node after transforms ran, so
// a terminal transform that replaced the node has its replacement, not
// the original, walked for the registrations that continue deeper.

func (a *Applier) VisitExpr(slot *ast.Expr) {
	a.step((*slot).Span(),
		func(t ast.Visitor) { t.VisitExpr(slot) },
		func(child *Applier) { ast.WalkExprChildren(child, *slot) },
	)
}

func (a *Applier) VisitStmt(slot *ast.Stmt) {
	a.step((*slot).Span(),
		func(t ast.Visitor) { t.VisitStmt(slot) },
		func(child *Applier) { ast.WalkStmtChildren(child, *slot) },
	)
}

func (a *Applier) VisitPat(slot *ast.Pat) {
	a.step((*slot).Span(),
		func(t ast.Visitor) { t.VisitPat(slot) },
		func(child *Applier) { ast.WalkPatChildren(child, *slot) },
	)
}

func (a *Applier) VisitProp(slot *ast.Prop) {
	a.step((*slot).Span(),
		func(t ast.Visitor) { t.VisitProp(slot) },
		func(child *Applier) { ast.WalkPropChildren(child, *slot) },
	)
}

func (a *Applier) VisitModuleDecl(slot *ast.ModuleDecl) {
	a.step((*slot).Span(),
		func(t ast.Visitor) { t.VisitModuleDecl(slot) },
		func(child *Applier) { ast.WalkModuleDeclChildren(child, *slot) },
	)
}
