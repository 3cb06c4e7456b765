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
	"testing"
)

func TestPrint_Canonical(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "variable declaration",
			source: "let x = 1;",
			want:   "let x = 1;\n",
		},
		{
			name:   "multiple declarators keep raw literals",
			source: "const a = 0xFF, b = 'two';",
			want:   "const a = 0xFF, b = 'two';\n",
		},
		{
			name:   "parenthesized sequence",
			source: "('foo', 'bar', ['baz']);",
			want:   "('foo', 'bar', ['baz']);\n",
		},
		{
			name:   "member chain",
			source: "a.b.c;",
			want:   "a.b.c;\n",
		},
		{
			name:   "subscript",
			source: "xs[0];",
			want:   "xs[0];\n",
		},
		{
			name:   "if else",
			source: "if (ready) { go(); } else wait();",
			want:   "if (ready) {\n    go();\n} else wait();\n",
		},
		{
			name:   "while with postfix update",
			source: "while (n > 0) n--;",
			want:   "while (n > 0) n--;\n",
		},
		{
			name:   "throw new",
			source: "throw new Error('boom');",
			want:   "throw new Error('boom');\n",
		},
		{
			name:   "array holes",
			source: "[1, , 2];",
			want:   "[1, , 2];\n",
		},
		{
			name:   "default import",
			source: "import def from './a';",
			want:   "import def from './a';\n",
		},
		{
			name:   "namespace import",
			source: "import * as ns from './b';",
			want:   "import * as ns from './b';\n",
		},
		{
			name:   "named imports",
			source: "import { one, two as alias } from './c';",
			want:   "import { one, two as alias } from './c';\n",
		},
		{
			name:   "side-effect import",
			source: "import './side';",
			want:   "import './side';\n",
		},
		{
			name:   "export clause with source",
			source: "export { a, b as c } from './x';",
			want:   "export { a, b as c } from './x';\n",
		},
		{
			name:   "export star",
			source: "export * from './y';",
			want:   "export * from './y';\n",
		},
		{
			name:   "export default function",
			source: "export default function setup() {}",
			want:   "export default function setup() {}\n",
		},
		{
			name:   "template literal",
			source: "let s = `a ${x} b`;",
			want:   "let s = `a ${x} b`;\n",
		},
		{
			name:   "object statement keeps parens",
			source: "({ a: 1 });",
			want:   "({ a: 1 });\n",
		},
		{
			name:   "spread in call and object",
			source: "f(...xs, { ...rest });",
			want:   "f(...xs, { ...rest });\n",
		},
		{
			name:   "conditional",
			source: "let r = ok ? a : b;",
			want:   "let r = ok ? a : b;\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog := mustParse(t, tc.source)
			if got := Print(prog); got != tc.want {
				t.Errorf("Print = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPrint_ClearedRawUsesValue(t *testing.T) {
	prog := mustParse(t, "let s = \"hi\";")

	lit := prog.Body[0].(*VariableDeclaration).Decls[0].Init.(*StringLiteral)
	lit.Value = "rewritten"
	lit.Raw = ""

	if got, want := Print(prog), "let s = 'rewritten';\n"; got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}

func TestPrint_RebuiltTreeGetsParens(t *testing.T) {
	// (a + b) * c assembled by hand; the paren must come from precedence,
	// not from a ParenthesizedExpression node.
	expr := &BinaryExpression{
		Op: "*",
		Left: &BinaryExpression{
			Op:    "+",
			Left:  &Identifier{Name: "a"},
			Right: &Identifier{Name: "b"},
		},
		Right: &Identifier{Name: "c"},
	}
	if got, want := PrintExpr(expr), "(a + b) * c"; got != want {
		t.Errorf("PrintExpr = %q, want %q", got, want)
	}

	// A sequence in argument position needs parens to stay one argument.
	call := &CallExpression{
		Callee: &Identifier{Name: "f"},
		Args: []Expr{&SequenceExpression{Exprs: []Expr{
			&Identifier{Name: "a"},
			&Identifier{Name: "b"},
		}}},
	}
	if got, want := PrintExpr(call), "f((a, b))"; got != want {
		t.Errorf("PrintExpr = %q, want %q", got, want)
	}
}

func TestPrint_ReparseStable(t *testing.T) {
	sources := []string{
		"let x = f(1 + 2);",
		"('foo', 'bar', ['baz']);",
		"import { a as b } from './m';\nexport { b };",
		"async function go(u) {\n    return await fetch(u);\n}",
		"const g = (x) => ({ value: x });",
		"while (i < 10) i += 1;",
	}

	for _, source := range sources {
		prog := mustParse(t, source)
		printed := Print(prog)

		reparsed := mustParse(t, printed)
		if got := Print(reparsed); got != printed {
			t.Errorf("reprint of %q unstable:\n  first:  %q\n  second: %q", source, printed, got)
		}
	}
}
