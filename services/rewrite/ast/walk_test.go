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

// nodeTexts walks prog in pre-order and returns the source text of every
// visited node.
func nodeTexts(prog *Program, content []byte) []string {
	var texts []string
	Inspect(prog, func(n Node) {
		texts = append(texts, string(n.Span().Text(content)))
	}, nil)
	return texts
}

func TestWalkProgram_PreOrder(t *testing.T) {
	source := "let x = f(1);"
	prog := mustParse(t, source)

	got := nodeTexts(prog, []byte(source))
	want := []string{"let x = f(1);", "x", "f(1)", "f", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pre-order texts = %q, want %q", got, want)
	}
}

func TestWalkProgram_NestedSequence(t *testing.T) {
	source := "('foo', 'bar', ['baz']);"
	prog := mustParse(t, source)

	got := nodeTexts(prog, []byte(source))
	want := []string{
		"('foo', 'bar', ['baz']);",
		"('foo', 'bar', ['baz'])",
		"'foo', 'bar', ['baz']",
		"'foo'",
		"'bar'",
		"['baz']",
		"'baz'",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pre-order texts = %q, want %q", got, want)
	}
}

func TestWalkProgram_MemberPropertyIsInert(t *testing.T) {
	source := "a.b;"
	prog := mustParse(t, source)

	var names []string
	Inspect(prog, func(n Node) {
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
	}, nil)

	if !reflect.DeepEqual(names, []string{"a"}) {
		t.Errorf("visited identifiers = %q, want [a]", names)
	}
}

func TestWalkProgram_ObjectKeysAreInert(t *testing.T) {
	source := "({ k: v, [c]: w, s });"
	prog := mustParse(t, source)

	var names []string
	Inspect(prog, func(n Node) {
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
	}, nil)

	// k is a plain key (inert), c is computed (visited), v and w are
	// values (visited), s is shorthand (nothing visited inside).
	want := []string{"v", "c", "w"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("visited identifiers = %q, want %q", names, want)
	}
}

func TestWalkProgram_FunctionInternals(t *testing.T) {
	source := "function add(a, b) { return a + b; }"
	prog := mustParse(t, source)

	var kinds []string
	content := []byte(source)
	Inspect(prog, func(n Node) {
		kinds = append(kinds, string(n.Span().Text(content)))
	}, nil)

	// The function name is inert and the body block contributes no
	// statement slot of its own.
	want := []string{
		"function add(a, b) { return a + b; }",
		"a",
		"b",
		"return a + b;",
		"a + b",
		"a",
		"b",
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("pre-order texts = %q, want %q", kinds, want)
	}
}

func TestWalkProgram_ShorthandPatternBindsValue(t *testing.T) {
	source := "let { k } = o;"
	prog := mustParse(t, source)

	var names []string
	Inspect(prog, func(n Node) {
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
	}, nil)

	// The binding identifier k is visited once (as the pattern value),
	// never twice for key and value.
	want := []string{"k", "o"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("visited identifiers = %q, want %q", names, want)
	}
}

// replaceIdentifiers rewrites every identifier expression named from into
// one named to, driving its own descent.
type replaceIdentifiers struct {
	from, to string
}

func (r *replaceIdentifiers) VisitExpr(slot *Expr) {
	if id, ok := (*slot).(*Identifier); ok && id.Name == r.from {
		*slot = &Identifier{Name: r.to}
		return
	}
	WalkExprChildren(r, *slot)
}

func (r *replaceIdentifiers) VisitStmt(slot *Stmt)             { WalkStmtChildren(r, *slot) }
func (r *replaceIdentifiers) VisitPat(slot *Pat)               { WalkPatChildren(r, *slot) }
func (r *replaceIdentifiers) VisitProp(slot *Prop)             { WalkPropChildren(r, *slot) }
func (r *replaceIdentifiers) VisitModuleDecl(slot *ModuleDecl) { WalkModuleDeclChildren(r, *slot) }

func TestWalkProgram_SlotReplacement(t *testing.T) {
	prog := mustParse(t, "f(old, old.field, { v: old });")

	WalkProgram(&replaceIdentifiers{from: "old", to: "fresh"}, prog)

	got := Print(prog)
	want := "f(fresh, fresh.field, { v: fresh });\n"
	if got != want {
		t.Errorf("printed = %q, want %q", got, want)
	}
}

// dropStatements replaces every top-level expression statement with an
// empty statement, exercising write-back through the ModuleItem slot.
type dropStatements struct {
	NopVisitor
}

func (d *dropStatements) VisitStmt(slot *Stmt) {
	if _, ok := (*slot).(*ExpressionStatement); ok {
		*slot = &EmptyStatement{}
	}
}

func TestWalkProgram_TopLevelReplacement(t *testing.T) {
	prog := mustParse(t, "a();\nlet keep = 1;")

	WalkProgram(&dropStatements{}, prog)

	if _, ok := prog.Body[0].(*EmptyStatement); !ok {
		t.Errorf("expected *EmptyStatement at top level, got %T", prog.Body[0])
	}
	if _, ok := prog.Body[1].(*VariableDeclaration); !ok {
		t.Errorf("expected *VariableDeclaration untouched, got %T", prog.Body[1])
	}
}

func TestInspect_EnterLeaveBalance(t *testing.T) {
	prog := mustParse(t, "if (a) { b(c); } else d();")

	var enters, leaves int
	var last Node
	Inspect(prog, func(n Node) {
		enters++
	}, func(n Node) {
		leaves++
		last = n
	})

	if enters == 0 {
		t.Fatal("expected at least one visit")
	}
	if enters != leaves {
		t.Errorf("enters = %d, leaves = %d", enters, leaves)
	}
	// The last leave is the outermost node.
	if _, ok := last.(*IfStatement); !ok {
		t.Errorf("last leave = %T, want *IfStatement", last)
	}
}
