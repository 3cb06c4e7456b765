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
	"context"
	"errors"
	"sync"
	"testing"
)

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	parser := NewJavaScriptParser()
	result, err := parser.Parse(context.Background(), []byte(source), "test.js")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if result.Program == nil {
		t.Fatal("expected program, got nil")
	}
	return result.Program
}

func TestJavaScriptParser_Parse_EmptyFile(t *testing.T) {
	parser := NewJavaScriptParser()
	result, err := parser.Parse(context.Background(), []byte(""), "empty.js")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if result.Language != "javascript" {
		t.Errorf("expected language 'javascript', got %q", result.Language)
	}
	if result.FilePath != "empty.js" {
		t.Errorf("expected filePath 'empty.js', got %q", result.FilePath)
	}
	if len(result.Program.Body) != 0 {
		t.Errorf("expected empty body, got %d items", len(result.Program.Body))
	}
}

func TestJavaScriptParser_Parse_SequenceInParens(t *testing.T) {
	source := "('foo', 'bar', ['baz']);"
	prog := mustParse(t, source)

	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 item, got %d", len(prog.Body))
	}
	stmt, ok := prog.Body[0].(*ExpressionStatement)
	if !ok {
		t.Fatalf("expected *ExpressionStatement, got %T", prog.Body[0])
	}
	paren, ok := stmt.Expr.(*ParenthesizedExpression)
	if !ok {
		t.Fatalf("expected *ParenthesizedExpression, got %T", stmt.Expr)
	}
	seq, ok := paren.Expr.(*SequenceExpression)
	if !ok {
		t.Fatalf("expected *SequenceExpression, got %T", paren.Expr)
	}
	if len(seq.Exprs) != 3 {
		t.Fatalf("expected 3 flattened operands, got %d", len(seq.Exprs))
	}

	// Spans must point at the exact source bytes.
	content := []byte(source)
	wantBar, ok := SpanOf(content, "'bar'")
	if !ok {
		t.Fatal("SpanOf could not find 'bar'")
	}
	bar, ok := seq.Exprs[1].(*StringLiteral)
	if !ok {
		t.Fatalf("expected *StringLiteral, got %T", seq.Exprs[1])
	}
	if bar.Span() != wantBar {
		t.Errorf("bar span = %v, want %v", bar.Span(), wantBar)
	}
	if bar.Value != "bar" {
		t.Errorf("bar value = %q, want %q", bar.Value, "bar")
	}

	arr, ok := seq.Exprs[2].(*ArrayExpression)
	if !ok {
		t.Fatalf("expected *ArrayExpression, got %T", seq.Exprs[2])
	}
	if len(arr.Elements) != 1 {
		t.Fatalf("expected 1 array element, got %d", len(arr.Elements))
	}

	if stmt.Span() != (Span{Start: 0, End: uint32(len(source))}) {
		t.Errorf("statement span = %v, want whole source", stmt.Span())
	}
	wantParen, _ := SpanOf(content, "('foo', 'bar', ['baz'])")
	if paren.Span() != wantParen {
		t.Errorf("paren span = %v, want %v", paren.Span(), wantParen)
	}
}

func TestJavaScriptParser_Parse_SpansAreDeterministic(t *testing.T) {
	source := "let x = f(1 + 2);\nf(x);\n"
	parser := NewJavaScriptParser()

	first, err := parser.Parse(context.Background(), []byte(source), "a.js")
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := parser.Parse(context.Background(), []byte(source), "a.js")
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	var firstSpans, secondSpans []Span
	Inspect(first.Program, func(n Node) {
		firstSpans = append(firstSpans, n.Span())
	}, nil)
	Inspect(second.Program, func(n Node) {
		secondSpans = append(secondSpans, n.Span())
	}, nil)

	if len(firstSpans) == 0 {
		t.Fatal("expected spans, got none")
	}
	if len(firstSpans) != len(secondSpans) {
		t.Fatalf("span counts differ: %d vs %d", len(firstSpans), len(secondSpans))
	}
	for i := range firstSpans {
		if firstSpans[i] != secondSpans[i] {
			t.Errorf("span %d differs: %v vs %v", i, firstSpans[i], secondSpans[i])
		}
	}
}

func TestJavaScriptParser_Parse_VariableDeclarations(t *testing.T) {
	prog := mustParse(t, "const a = 1, b = 'two';\nvar c;\nlet [d, , e] = xs;")

	decl, ok := prog.Body[0].(*VariableDeclaration)
	if !ok {
		t.Fatalf("expected *VariableDeclaration, got %T", prog.Body[0])
	}
	if decl.Kind != "const" {
		t.Errorf("kind = %q, want const", decl.Kind)
	}
	if len(decl.Decls) != 2 {
		t.Fatalf("expected 2 declarators, got %d", len(decl.Decls))
	}
	if decl.Decls[1].Init == nil {
		t.Error("expected initializer on second declarator")
	}

	varDecl := prog.Body[1].(*VariableDeclaration)
	if varDecl.Kind != "var" {
		t.Errorf("kind = %q, want var", varDecl.Kind)
	}
	if varDecl.Decls[0].Init != nil {
		t.Error("expected no initializer on c")
	}

	letDecl := prog.Body[2].(*VariableDeclaration)
	arrPat, ok := letDecl.Decls[0].Name.(*ArrayPattern)
	if !ok {
		t.Fatalf("expected *ArrayPattern, got %T", letDecl.Decls[0].Name)
	}
	if len(arrPat.Elements) != 3 {
		t.Fatalf("expected 3 pattern slots, got %d", len(arrPat.Elements))
	}
	if arrPat.Elements[1] != nil {
		t.Error("expected elision in middle slot")
	}
}

func TestJavaScriptParser_Parse_Functions(t *testing.T) {
	prog := mustParse(t, `
async function fetchData(url, { timeout = 0, ...rest }) {
    return await fetch(url);
}
const f = (a) => a + 1;
const g = x => ({ value: x });
`)

	fn, ok := prog.Body[0].(*FunctionDeclaration)
	if !ok {
		t.Fatalf("expected *FunctionDeclaration, got %T", prog.Body[0])
	}
	if !fn.Async {
		t.Error("expected async function")
	}
	if fn.Name == nil || fn.Name.Name != "fetchData" {
		t.Errorf("name = %v, want fetchData", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	objParam, ok := fn.Params[1].(*ObjectPattern)
	if !ok {
		t.Fatalf("expected *ObjectPattern param, got %T", fn.Params[1])
	}
	if len(objParam.Props) != 2 {
		t.Fatalf("expected 2 pattern props, got %d", len(objParam.Props))
	}
	if _, ok := objParam.Props[0].Value.(*AssignmentPattern); !ok {
		t.Errorf("expected default value pattern, got %T", objParam.Props[0].Value)
	}
	if _, ok := objParam.Props[1].Value.(*RestPattern); !ok {
		t.Errorf("expected rest pattern, got %T", objParam.Props[1].Value)
	}

	ret, ok := fn.Body.Body[0].(*ReturnStatement)
	if !ok {
		t.Fatalf("expected *ReturnStatement, got %T", fn.Body.Body[0])
	}
	if _, ok := ret.Arg.(*AwaitExpression); !ok {
		t.Errorf("expected *AwaitExpression, got %T", ret.Arg)
	}

	fDecl := prog.Body[1].(*VariableDeclaration)
	arrow, ok := fDecl.Decls[0].Init.(*ArrowFunction)
	if !ok {
		t.Fatalf("expected *ArrowFunction, got %T", fDecl.Decls[0].Init)
	}
	if arrow.BodyExpr == nil {
		t.Error("expected expression body")
	}

	gDecl := prog.Body[2].(*VariableDeclaration)
	gArrow := gDecl.Decls[0].Init.(*ArrowFunction)
	if len(gArrow.Params) != 1 {
		t.Fatalf("expected 1 bare param, got %d", len(gArrow.Params))
	}
	paren, ok := gArrow.BodyExpr.(*ParenthesizedExpression)
	if !ok {
		t.Fatalf("expected *ParenthesizedExpression body, got %T", gArrow.BodyExpr)
	}
	if _, ok := paren.Expr.(*ObjectExpression); !ok {
		t.Errorf("expected *ObjectExpression, got %T", paren.Expr)
	}
}

func TestJavaScriptParser_Parse_Imports(t *testing.T) {
	prog := mustParse(t, `
import def from './a';
import * as ns from './b';
import { one, two as alias } from './c';
import './side-effect';
`)

	if len(prog.Body) != 4 {
		t.Fatalf("expected 4 items, got %d", len(prog.Body))
	}

	first := prog.Body[0].(*ImportDeclaration)
	if first.Source.Value != "./a" {
		t.Errorf("source = %q, want ./a", first.Source.Value)
	}
	if len(first.Specifiers) != 1 || first.Specifiers[0].Kind != ImportDefault || first.Specifiers[0].Local != "def" {
		t.Errorf("unexpected default specifier: %+v", first.Specifiers)
	}

	second := prog.Body[1].(*ImportDeclaration)
	if second.Specifiers[0].Kind != ImportNamespace || second.Specifiers[0].Local != "ns" {
		t.Errorf("unexpected namespace specifier: %+v", second.Specifiers[0])
	}

	third := prog.Body[2].(*ImportDeclaration)
	if len(third.Specifiers) != 2 {
		t.Fatalf("expected 2 named specifiers, got %d", len(third.Specifiers))
	}
	if third.Specifiers[0].Imported != "one" || third.Specifiers[0].Local != "one" {
		t.Errorf("unexpected first specifier: %+v", third.Specifiers[0])
	}
	if third.Specifiers[1].Imported != "two" || third.Specifiers[1].Local != "alias" {
		t.Errorf("unexpected aliased specifier: %+v", third.Specifiers[1])
	}

	bare := prog.Body[3].(*ImportDeclaration)
	if len(bare.Specifiers) != 0 {
		t.Errorf("expected no specifiers, got %d", len(bare.Specifiers))
	}
	if bare.Source.Value != "./side-effect" {
		t.Errorf("source = %q, want ./side-effect", bare.Source.Value)
	}
}

func TestJavaScriptParser_Parse_Exports(t *testing.T) {
	prog := mustParse(t, `
export const version = '1.0';
export { a, b as c } from './x';
export default function setup() {}
export * from './y';
`)

	named := prog.Body[0].(*ExportNamedDeclaration)
	if named.Decl == nil {
		t.Fatal("expected inner declaration")
	}
	if _, ok := named.Decl.(*VariableDeclaration); !ok {
		t.Errorf("expected *VariableDeclaration, got %T", named.Decl)
	}

	clause := prog.Body[1].(*ExportNamedDeclaration)
	if len(clause.Specifiers) != 2 {
		t.Fatalf("expected 2 specifiers, got %d", len(clause.Specifiers))
	}
	if clause.Specifiers[1].Local != "b" || clause.Specifiers[1].Exported != "c" {
		t.Errorf("unexpected aliased specifier: %+v", clause.Specifiers[1])
	}
	if clause.Source == nil || clause.Source.Value != "./x" {
		t.Errorf("expected re-export source ./x, got %+v", clause.Source)
	}

	def := prog.Body[2].(*ExportDefaultDeclaration)
	fn, ok := def.Decl.(*FunctionExpression)
	if !ok {
		t.Fatalf("expected *FunctionExpression, got %T", def.Decl)
	}
	if fn.Name != "setup" {
		t.Errorf("name = %q, want setup", fn.Name)
	}

	all := prog.Body[3].(*ExportAllDeclaration)
	if all.Source.Value != "./y" {
		t.Errorf("source = %q, want ./y", all.Source.Value)
	}
}

func TestJavaScriptParser_Parse_StringEscapes(t *testing.T) {
	prog := mustParse(t, `let s = 'a\nb\tA\x21';`)

	decl := prog.Body[0].(*VariableDeclaration)
	lit := decl.Decls[0].Init.(*StringLiteral)
	if lit.Value != "a\nb\tA!" {
		t.Errorf("cooked value = %q, want %q", lit.Value, "a\nb\tA!")
	}
	if lit.Raw != `'a\nb\tA\x21'` {
		t.Errorf("raw = %q", lit.Raw)
	}
}

func TestJavaScriptParser_Parse_NumberForms(t *testing.T) {
	prog := mustParse(t, "let a = 0xFF; let b = 1_000.5; let c = 0b101;")

	a := prog.Body[0].(*VariableDeclaration).Decls[0].Init.(*NumberLiteral)
	if a.Value != 255 {
		t.Errorf("a = %v, want 255", a.Value)
	}
	if a.Raw != "0xFF" {
		t.Errorf("a raw = %q, want 0xFF", a.Raw)
	}
	b := prog.Body[1].(*VariableDeclaration).Decls[0].Init.(*NumberLiteral)
	if b.Value != 1000.5 {
		t.Errorf("b = %v, want 1000.5", b.Value)
	}
	c := prog.Body[2].(*VariableDeclaration).Decls[0].Init.(*NumberLiteral)
	if c.Value != 5 {
		t.Errorf("c = %v, want 5", c.Value)
	}
}

func TestJavaScriptParser_Parse_TemplateLiteral(t *testing.T) {
	prog := mustParse(t, "let s = `a ${x} b ${y} c`;")

	decl := prog.Body[0].(*VariableDeclaration)
	tpl, ok := decl.Decls[0].Init.(*TemplateLiteral)
	if !ok {
		t.Fatalf("expected *TemplateLiteral, got %T", decl.Decls[0].Init)
	}
	if len(tpl.Exprs) != 2 {
		t.Fatalf("expected 2 substitutions, got %d", len(tpl.Exprs))
	}
	if len(tpl.Quasis) != 3 {
		t.Fatalf("expected 3 quasis, got %d", len(tpl.Quasis))
	}
	if tpl.Quasis[0].Raw != "a " || tpl.Quasis[1].Raw != " b " || tpl.Quasis[2].Raw != " c" {
		t.Errorf("quasis = %q, %q, %q", tpl.Quasis[0].Raw, tpl.Quasis[1].Raw, tpl.Quasis[2].Raw)
	}
}

func TestJavaScriptParser_Parse_MemberAndSubscript(t *testing.T) {
	prog := mustParse(t, "a.b.c;\nxs[0];")

	stmt := prog.Body[0].(*ExpressionStatement)
	outer, ok := stmt.Expr.(*MemberExpression)
	if !ok {
		t.Fatalf("expected *MemberExpression, got %T", stmt.Expr)
	}
	if outer.Property != "c" {
		t.Errorf("property = %q, want c", outer.Property)
	}
	inner := outer.Object.(*MemberExpression)
	if inner.Property != "b" {
		t.Errorf("property = %q, want b", inner.Property)
	}

	sub := prog.Body[1].(*ExpressionStatement).Expr.(*SubscriptExpression)
	if _, ok := sub.Index.(*NumberLiteral); !ok {
		t.Errorf("expected number index, got %T", sub.Index)
	}
}

func TestJavaScriptParser_Parse_ControlFlow(t *testing.T) {
	prog := mustParse(t, `
if (ready) { go(); } else wait();
while (n > 0) n--;
throw new Error('boom');
`)

	ifStmt := prog.Body[0].(*IfStatement)
	if _, ok := ifStmt.Test.(*Identifier); !ok {
		t.Errorf("expected bare identifier test, got %T", ifStmt.Test)
	}
	if _, ok := ifStmt.Cons.(*BlockStatement); !ok {
		t.Errorf("expected block consequence, got %T", ifStmt.Cons)
	}
	if _, ok := ifStmt.Alt.(*ExpressionStatement); !ok {
		t.Errorf("expected expression alternative, got %T", ifStmt.Alt)
	}

	whileStmt := prog.Body[1].(*WhileStatement)
	bin, ok := whileStmt.Test.(*BinaryExpression)
	if !ok {
		t.Fatalf("expected *BinaryExpression, got %T", whileStmt.Test)
	}
	if bin.Op != ">" {
		t.Errorf("op = %q, want >", bin.Op)
	}

	throwStmt := prog.Body[2].(*ThrowStatement)
	newExpr, ok := throwStmt.Arg.(*NewExpression)
	if !ok {
		t.Fatalf("expected *NewExpression, got %T", throwStmt.Arg)
	}
	if len(newExpr.Args) != 1 {
		t.Errorf("expected 1 constructor arg, got %d", len(newExpr.Args))
	}
}

func TestJavaScriptParser_Parse_SyntaxError(t *testing.T) {
	parser := NewJavaScriptParser()
	_, err := parser.Parse(context.Background(), []byte("let x = ;"), "bad.js")

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrParseFailed) {
		t.Errorf("expected ErrParseFailed, got %v", err)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Line != 1 {
		t.Errorf("line = %d, want 1", parseErr.Line)
	}
}

func TestJavaScriptParser_Parse_UnsupportedSyntax(t *testing.T) {
	parser := NewJavaScriptParser()

	cases := []struct {
		name   string
		source string
	}{
		{"class", "class Foo {}"},
		{"for loop", "for (let i = 0; i < 3; i++) {}"},
		{"generator", "function* gen() {}"},
		{"tagged template", "tag`x`;"},
		{"optional chain", "a?.b;"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.Parse(context.Background(), []byte(tc.source), "unsupported.js")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrUnsupportedSyntax) {
				t.Errorf("expected ErrUnsupportedSyntax, got %v", err)
			}
		})
	}
}

func TestJavaScriptParser_Parse_FileTooLarge(t *testing.T) {
	parser := NewJavaScriptParser(WithJSMaxFileSize(8))
	_, err := parser.Parse(context.Background(), []byte("let abc = 12345;"), "big.js")

	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestJavaScriptParser_Parse_ContextCanceled(t *testing.T) {
	parser := NewJavaScriptParser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.Parse(ctx, []byte("let x = 1;"), "canceled.js")
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

func TestJavaScriptParser_Parse_Concurrent(t *testing.T) {
	parser := NewJavaScriptParser()
	source := []byte("const answer = compute(40 + 2);\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := parser.Parse(context.Background(), source, "concurrent.js")
			if err != nil {
				t.Errorf("parse failed: %v", err)
				return
			}
			if len(result.Program.Body) != 1 {
				t.Errorf("expected 1 item, got %d", len(result.Program.Body))
			}
		}()
	}
	wg.Wait()
}

func TestParserRegistry_Lookup(t *testing.T) {
	registry := DefaultRegistry()

	parser, ok := registry.GetByExtension(".js")
	if !ok {
		t.Fatal("expected a parser for .js")
	}
	if parser.Language() != "javascript" {
		t.Errorf("language = %q, want javascript", parser.Language())
	}

	if _, ok := registry.GetByExtension(".rs"); ok {
		t.Error("expected no parser for .rs")
	}

	byLang, ok := registry.GetByLanguage("javascript")
	if !ok || byLang == nil {
		t.Fatal("expected a parser for javascript")
	}

	// Lookups hand out distinct instances.
	other, _ := registry.GetByExtension(".js")
	if parser == other {
		t.Error("expected distinct parser instances per lookup")
	}
}
