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
	"reflect"
	"testing"
)

func TestCloneProgram_Independence(t *testing.T) {
	prog := mustParse(t, "let s = 'hi';\nf(s, [1, 2]);")
	clone := CloneProgram(prog)

	// Mutate the clone's literal.
	cloneLit := clone.Body[0].(*VariableDeclaration).Decls[0].Init.(*StringLiteral)
	cloneLit.Value = "changed"
	cloneLit.Raw = ""

	origLit := prog.Body[0].(*VariableDeclaration).Decls[0].Init.(*StringLiteral)
	if origLit.Value != "hi" {
		t.Errorf("original value = %q, want hi", origLit.Value)
	}
	if origLit.Raw != "'hi'" {
		t.Errorf("original raw = %q, want 'hi'", origLit.Raw)
	}

	// Mutate a nested slot in the original; the clone must not move.
	origCall := prog.Body[1].(*ExpressionStatement).Expr.(*CallExpression)
	origCall.Args[0] = &NullLiteral{}

	cloneCall := clone.Body[1].(*ExpressionStatement).Expr.(*CallExpression)
	if _, ok := cloneCall.Args[0].(*Identifier); !ok {
		t.Errorf("clone arg = %T, want *Identifier", cloneCall.Args[0])
	}
}

func TestCloneProgram_PreservesSpans(t *testing.T) {
	prog := mustParse(t, "export const v = { a: 1, ...rest };\nwhile (x) { x = g(x); }")
	clone := CloneProgram(prog)

	var origSpans, cloneSpans []Span
	Inspect(prog, func(n Node) { origSpans = append(origSpans, n.Span()) }, nil)
	Inspect(clone, func(n Node) { cloneSpans = append(cloneSpans, n.Span()) }, nil)

	if len(origSpans) == 0 {
		t.Fatal("expected spans, got none")
	}
	if !reflect.DeepEqual(origSpans, cloneSpans) {
		t.Errorf("clone spans differ from original:\n  orig:  %v\n  clone: %v", origSpans, cloneSpans)
	}
}

func TestCloneProgram_PrintsIdentically(t *testing.T) {
	source := "import { a } from './m';\nconst f = (x = 1, ...rest) => x + rest.length;\n"
	prog := mustParse(t, source)
	clone := CloneProgram(prog)

	if got, want := Print(clone), Print(prog); got != want {
		t.Errorf("clone prints %q, original prints %q", got, want)
	}
}

func TestClone_NilSafety(t *testing.T) {
	if CloneProgram(nil) != nil {
		t.Error("CloneProgram(nil) should be nil")
	}
	if CloneExpr(nil) != nil {
		t.Error("CloneExpr(nil) should be nil")
	}
	if CloneStmt(nil) != nil {
		t.Error("CloneStmt(nil) should be nil")
	}
	if ClonePat(nil) != nil {
		t.Error("ClonePat(nil) should be nil")
	}

	// Array holes survive cloning.
	arr := &ArrayExpression{Elements: []Expr{&NumberLiteral{Value: 1, Raw: "1"}, nil}}
	cloned := CloneExpr(arr).(*ArrayExpression)
	if len(cloned.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(cloned.Elements))
	}
	if cloned.Elements[1] != nil {
		t.Error("expected hole to survive cloning")
	}
}
