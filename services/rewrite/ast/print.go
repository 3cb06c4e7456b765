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
	"fmt"
	"strconv"
	"strings"
)

// Print renders a Program back to JavaScript source.
//
// Output is canonical, not byte-preserving: comments are gone, whitespace
// is normalized, and statements end in semicolons. Literals print their
// Raw text when present, so untouched code keeps its original spelling;
// transforms that change a literal clear Raw to make the new Value take
// effect.
//
// Parentheses are reinserted from operator precedence, so trees built or
// rearranged by transforms print as valid source even where the original
// had no parens.
func Print(prog *Program) string {
	p := &printer{}
	for i, item := range prog.Body {
		if i > 0 {
			p.sb.WriteByte('\n')
		}
		p.printModuleItem(item)
	}
	p.sb.WriteByte('\n')
	return p.sb.String()
}

// PrintExpr renders a single expression. Used for diagnostics and tests.
func PrintExpr(e Expr) string {
	p := &printer{}
	p.printExpr(e, precSequence)
	return p.sb.String()
}

// PrintStmt renders a single statement. Used for diagnostics and tests.
func PrintStmt(s Stmt) string {
	p := &printer{}
	p.printStmt(s)
	return p.sb.String()
}

// Expression precedence levels, loosest to tightest. Binary operators
// sit between precAssign and precUnary via binaryPrec.
const (
	precSequence = 1
	precAssign   = 2
	precCond     = 4
	precUnary    = 16
	precPostfix  = 17
	precCall     = 18
	precPrimary  = 20
)

var binaryPrec = map[string]int{
	"??": 4,
	"||": 5,
	"&&": 6,
	"|":  7,
	"^":  8,
	"&":  9,
	"==": 10, "!=": 10, "===": 10, "!==": 10,
	"<": 11, ">": 11, "<=": 11, ">=": 11, "in": 11, "instanceof": 11,
	"<<": 12, ">>": 12, ">>>": 12,
	"+": 13, "-": 13,
	"*": 14, "/": 14, "%": 14,
	"**": 15,
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) ws() {
	for i := 0; i < p.indent; i++ {
		p.sb.WriteString("    ")
	}
}

// ---------------------------------------------------------------------------
// Statements and module items
// ---------------------------------------------------------------------------

func (p *printer) printModuleItem(item ModuleItem) {
	switch n := item.(type) {
	case ModuleDecl:
		p.printModuleDecl(n)
	case Stmt:
		p.printStmt(n)
	default:
		p.sb.WriteString(fmt.Sprintf("/* unprintable %T */", item))
	}
}

func (p *printer) printStmt(s Stmt) {
	switch n := s.(type) {
	case *ExpressionStatement:
		if stmtNeedsParens(n.Expr) {
			p.sb.WriteByte('(')
			p.printExpr(n.Expr, precSequence)
			p.sb.WriteString(");")
		} else {
			p.printExpr(n.Expr, precSequence)
			p.sb.WriteByte(';')
		}

	case *BlockStatement:
		p.printBlock(n)

	case *EmptyStatement:
		p.sb.WriteByte(';')

	case *VariableDeclaration:
		p.printVariableDeclaration(n)
		p.sb.WriteByte(';')

	case *FunctionDeclaration:
		if n.Async {
			p.sb.WriteString("async ")
		}
		p.sb.WriteString("function ")
		if n.Name != nil {
			p.sb.WriteString(n.Name.Name)
		}
		p.printParams(n.Params)
		p.sb.WriteByte(' ')
		p.printBlock(n.Body)

	case *ReturnStatement:
		p.sb.WriteString("return")
		if n.Arg != nil {
			p.sb.WriteByte(' ')
			p.printExpr(n.Arg, precSequence)
		}
		p.sb.WriteByte(';')

	case *IfStatement:
		p.sb.WriteString("if (")
		p.printExpr(n.Test, precSequence)
		p.sb.WriteString(") ")
		p.printStmt(n.Cons)
		if n.Alt != nil {
			p.sb.WriteString(" else ")
			p.printStmt(n.Alt)
		}

	case *WhileStatement:
		p.sb.WriteString("while (")
		p.printExpr(n.Test, precSequence)
		p.sb.WriteString(") ")
		p.printStmt(n.Body)

	case *ThrowStatement:
		p.sb.WriteString("throw ")
		p.printExpr(n.Arg, precSequence)
		p.sb.WriteByte(';')

	default:
		p.sb.WriteString(fmt.Sprintf("/* unprintable %T */;", s))
	}
}

func (p *printer) printBlock(block *BlockStatement) {
	if len(block.Body) == 0 {
		p.sb.WriteString("{}")
		return
	}
	p.sb.WriteString("{\n")
	p.indent++
	for _, s := range block.Body {
		p.ws()
		p.printStmt(s)
		p.sb.WriteByte('\n')
	}
	p.indent--
	p.ws()
	p.sb.WriteByte('}')
}

func (p *printer) printVariableDeclaration(decl *VariableDeclaration) {
	kind := decl.Kind
	if kind == "" {
		kind = "var"
	}
	p.sb.WriteString(kind)
	p.sb.WriteByte(' ')
	for i, d := range decl.Decls {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.printPat(d.Name)
		if d.Init != nil {
			p.sb.WriteString(" = ")
			p.printExpr(d.Init, precAssign)
		}
	}
}

func (p *printer) printModuleDecl(d ModuleDecl) {
	switch n := d.(type) {
	case *ImportDeclaration:
		p.printImport(n)

	case *ExportNamedDeclaration:
		p.sb.WriteString("export ")
		if n.Decl != nil {
			p.printStmt(n.Decl)
			return
		}
		p.sb.WriteString("{ ")
		for i, spec := range n.Specifiers {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(spec.Local)
			if spec.Exported != "" && spec.Exported != spec.Local {
				p.sb.WriteString(" as ")
				p.sb.WriteString(spec.Exported)
			}
		}
		p.sb.WriteString(" }")
		if n.Source != nil {
			p.sb.WriteString(" from ")
			p.printStringLiteral(n.Source)
		}
		p.sb.WriteByte(';')

	case *ExportDefaultDeclaration:
		p.sb.WriteString("export default ")
		p.printExpr(n.Decl, precAssign)
		// A default-exported function form is a declaration; no semicolon.
		if _, isFn := n.Decl.(*FunctionExpression); !isFn {
			p.sb.WriteByte(';')
		}

	case *ExportAllDeclaration:
		p.sb.WriteString("export * from ")
		p.printStringLiteral(n.Source)
		p.sb.WriteByte(';')

	default:
		p.sb.WriteString(fmt.Sprintf("/* unprintable %T */;", d))
	}
}

func (p *printer) printImport(decl *ImportDeclaration) {
	p.sb.WriteString("import ")

	if len(decl.Specifiers) == 0 {
		p.printStringLiteral(decl.Source)
		p.sb.WriteByte(';')
		return
	}

	wrote := false
	var named []*ImportSpecifier
	for _, spec := range decl.Specifiers {
		switch spec.Kind {
		case ImportDefault:
			if wrote {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(spec.Local)
			wrote = true
		case ImportNamespace:
			if wrote {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString("* as ")
			p.sb.WriteString(spec.Local)
			wrote = true
		case ImportNamed:
			named = append(named, spec)
		}
	}
	if len(named) > 0 {
		if wrote {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString("{ ")
		for i, spec := range named {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(spec.Imported)
			if spec.Local != "" && spec.Local != spec.Imported {
				p.sb.WriteString(" as ")
				p.sb.WriteString(spec.Local)
			}
		}
		p.sb.WriteString(" }")
	}

	p.sb.WriteString(" from ")
	p.printStringLiteral(decl.Source)
	p.sb.WriteByte(';')
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// printExpr renders e, wrapping it in parentheses when its precedence is
// looser than the context requires.
func (p *printer) printExpr(e Expr, min int) {
	if e == nil {
		return
	}
	if exprPrec(e) < min {
		p.sb.WriteByte('(')
		p.printExprBare(e)
		p.sb.WriteByte(')')
		return
	}
	p.printExprBare(e)
}

func (p *printer) printExprBare(e Expr) {
	switch n := e.(type) {
	case *Identifier:
		p.sb.WriteString(n.Name)

	case *StringLiteral:
		p.printStringLiteral(n)

	case *NumberLiteral:
		if n.Raw != "" {
			p.sb.WriteString(n.Raw)
		} else {
			p.sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
		}

	case *BooleanLiteral:
		if n.Value {
			p.sb.WriteString("true")
		} else {
			p.sb.WriteString("false")
		}

	case *NullLiteral:
		p.sb.WriteString("null")

	case *ArrayExpression:
		p.sb.WriteByte('[')
		for i, elem := range n.Elements {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if elem != nil {
				p.printExpr(elem, precAssign)
			}
		}
		// A trailing elision needs its own comma to survive a reparse.
		if len(n.Elements) > 0 && n.Elements[len(n.Elements)-1] == nil {
			p.sb.WriteByte(',')
		}
		p.sb.WriteByte(']')

	case *ObjectExpression:
		if len(n.Props) == 0 {
			p.sb.WriteString("{}")
			return
		}
		p.sb.WriteString("{ ")
		for i, prop := range n.Props {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printProp(prop)
		}
		p.sb.WriteString(" }")

	case *SequenceExpression:
		for i, sub := range n.Exprs {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printExpr(sub, precAssign)
		}

	case *ParenthesizedExpression:
		p.sb.WriteByte('(')
		p.printExpr(n.Expr, precSequence)
		p.sb.WriteByte(')')

	case *CallExpression:
		p.printExpr(n.Callee, precCall)
		p.printArgs(n.Args)

	case *MemberExpression:
		// A bare number before a dot would read as a decimal point.
		if _, isNum := n.Object.(*NumberLiteral); isNum {
			p.sb.WriteByte('(')
			p.printExprBare(n.Object)
			p.sb.WriteByte(')')
		} else {
			p.printExpr(n.Object, precCall)
		}
		p.sb.WriteByte('.')
		p.sb.WriteString(n.Property)

	case *SubscriptExpression:
		p.printExpr(n.Object, precCall)
		p.sb.WriteByte('[')
		p.printExpr(n.Index, precSequence)
		p.sb.WriteByte(']')

	case *BinaryExpression:
		prec := binaryPrec[n.Op]
		if prec == 0 {
			prec = precCond
		}
		leftMin, rightMin := prec, prec+1
		if n.Op == "**" {
			leftMin, rightMin = prec+1, prec
		}
		p.printExpr(n.Left, leftMin)
		p.sb.WriteByte(' ')
		p.sb.WriteString(n.Op)
		p.sb.WriteByte(' ')
		p.printExpr(n.Right, rightMin)

	case *AssignmentExpression:
		p.printExpr(n.Left, precCall)
		p.sb.WriteByte(' ')
		p.sb.WriteString(n.Op)
		p.sb.WriteByte(' ')
		p.printExpr(n.Right, precAssign)

	case *UnaryExpression:
		p.sb.WriteString(n.Op)
		if isWordOperator(n.Op) {
			p.sb.WriteByte(' ')
		}
		p.printExpr(n.Arg, precUnary)

	case *UpdateExpression:
		if n.Prefix {
			p.sb.WriteString(n.Op)
			p.printExpr(n.Arg, precUnary)
		} else {
			p.printExpr(n.Arg, precPostfix)
			p.sb.WriteString(n.Op)
		}

	case *ConditionalExpression:
		p.printExpr(n.Test, precCond+1)
		p.sb.WriteString(" ? ")
		p.printExpr(n.Cons, precAssign)
		p.sb.WriteString(" : ")
		p.printExpr(n.Alt, precAssign)

	case *ArrowFunction:
		if n.Async {
			p.sb.WriteString("async ")
		}
		p.printParams(n.Params)
		p.sb.WriteString(" => ")
		if n.BodyBlock != nil {
			p.printBlock(n.BodyBlock)
		} else if stmtNeedsParens(n.BodyExpr) {
			p.sb.WriteByte('(')
			p.printExpr(n.BodyExpr, precAssign)
			p.sb.WriteByte(')')
		} else {
			p.printExpr(n.BodyExpr, precAssign)
		}

	case *FunctionExpression:
		if n.Async {
			p.sb.WriteString("async ")
		}
		p.sb.WriteString("function")
		if n.Name != "" {
			p.sb.WriteByte(' ')
			p.sb.WriteString(n.Name)
		}
		p.printParams(n.Params)
		p.sb.WriteByte(' ')
		p.printBlock(n.Body)

	case *NewExpression:
		p.sb.WriteString("new ")
		p.printExpr(n.Callee, precCall)
		p.printArgs(n.Args)

	case *AwaitExpression:
		p.sb.WriteString("await ")
		p.printExpr(n.Arg, precUnary)

	case *TemplateLiteral:
		p.sb.WriteByte('`')
		for i, quasi := range n.Quasis {
			p.sb.WriteString(quasi.Raw)
			if i < len(n.Exprs) {
				p.sb.WriteString("${")
				p.printExpr(n.Exprs[i], precSequence)
				p.sb.WriteByte('}')
			}
		}
		p.sb.WriteByte('`')

	case *SpreadElement:
		p.sb.WriteString("...")
		p.printExpr(n.Arg, precAssign)

	default:
		p.sb.WriteString(fmt.Sprintf("/* unprintable %T */", e))
	}
}

func (p *printer) printArgs(args []Expr) {
	p.sb.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.printExpr(arg, precAssign)
	}
	p.sb.WriteByte(')')
}

func (p *printer) printStringLiteral(lit *StringLiteral) {
	if lit == nil {
		p.sb.WriteString("''")
		return
	}
	if lit.Raw != "" {
		p.sb.WriteString(lit.Raw)
		return
	}
	p.sb.WriteString(quoteJS(lit.Value))
}

func (p *printer) printProp(prop Prop) {
	switch n := prop.(type) {
	case *Property:
		if n.Shorthand {
			p.printExpr(n.Key, precPrimary)
			return
		}
		if n.Computed {
			p.sb.WriteByte('[')
			p.printExpr(n.Key, precAssign)
			p.sb.WriteByte(']')
		} else {
			p.printExpr(n.Key, precPrimary)
		}
		p.sb.WriteString(": ")
		p.printExpr(n.Value, precAssign)

	case *SpreadProperty:
		p.sb.WriteString("...")
		p.printExpr(n.Arg, precAssign)

	default:
		p.sb.WriteString(fmt.Sprintf("/* unprintable %T */", prop))
	}
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (p *printer) printParams(params []Pat) {
	p.sb.WriteByte('(')
	for i, param := range params {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.printPat(param)
	}
	p.sb.WriteByte(')')
}

func (p *printer) printPat(pat Pat) {
	switch n := pat.(type) {
	case *Identifier:
		p.sb.WriteString(n.Name)

	case *ObjectPattern:
		if len(n.Props) == 0 {
			p.sb.WriteString("{}")
			return
		}
		p.sb.WriteString("{ ")
		for i, prop := range n.Props {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printObjectPatternProp(prop)
		}
		p.sb.WriteString(" }")

	case *ArrayPattern:
		p.sb.WriteByte('[')
		for i, elem := range n.Elements {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if elem != nil {
				p.printPat(elem)
			}
		}
		if len(n.Elements) > 0 && n.Elements[len(n.Elements)-1] == nil {
			p.sb.WriteByte(',')
		}
		p.sb.WriteByte(']')

	case *AssignmentPattern:
		p.printPat(n.Left)
		p.sb.WriteString(" = ")
		p.printExpr(n.Right, precAssign)

	case *RestPattern:
		p.sb.WriteString("...")
		p.printPat(n.Arg)

	default:
		p.sb.WriteString(fmt.Sprintf("/* unprintable %T */", pat))
	}
}

func (p *printer) printObjectPatternProp(prop *ObjectPatternProp) {
	// Rest property: Key is nil, Value is the RestPattern.
	if prop.Key == nil {
		p.printPat(prop.Value)
		return
	}
	if prop.Shorthand {
		// { a } or { a = 1 }: the Value carries any default.
		p.printPat(prop.Value)
		return
	}
	if prop.Computed {
		p.sb.WriteByte('[')
		p.printExpr(prop.Key, precAssign)
		p.sb.WriteByte(']')
	} else {
		p.printExpr(prop.Key, precPrimary)
	}
	p.sb.WriteString(": ")
	p.printPat(prop.Value)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func exprPrec(e Expr) int {
	switch n := e.(type) {
	case *SequenceExpression:
		return precSequence
	case *AssignmentExpression, *ArrowFunction:
		return precAssign
	case *ConditionalExpression:
		return precCond
	case *BinaryExpression:
		if prec, ok := binaryPrec[n.Op]; ok {
			return prec
		}
		return precCond
	case *UnaryExpression, *AwaitExpression:
		return precUnary
	case *UpdateExpression:
		if n.Prefix {
			return precUnary
		}
		return precPostfix
	case *CallExpression, *MemberExpression, *SubscriptExpression, *NewExpression:
		return precCall
	case *SpreadElement:
		return precAssign
	default:
		return precPrimary
	}
}

// stmtNeedsParens reports whether the expression's leftmost token would
// be misread at the start of an expression statement ({ or function).
func stmtNeedsParens(e Expr) bool {
	switch n := e.(type) {
	case *ObjectExpression, *FunctionExpression:
		return true
	case *BinaryExpression:
		return stmtNeedsParens(n.Left)
	case *AssignmentExpression:
		return stmtNeedsParens(n.Left)
	case *SequenceExpression:
		return len(n.Exprs) > 0 && stmtNeedsParens(n.Exprs[0])
	case *CallExpression:
		return stmtNeedsParens(n.Callee)
	case *MemberExpression:
		return stmtNeedsParens(n.Object)
	case *SubscriptExpression:
		return stmtNeedsParens(n.Object)
	case *ConditionalExpression:
		return stmtNeedsParens(n.Test)
	case *UpdateExpression:
		return !n.Prefix && stmtNeedsParens(n.Arg)
	}
	return false
}

func isWordOperator(op string) bool {
	switch op {
	case "in", "instanceof", "typeof", "void", "delete":
		return true
	}
	return false
}

// quoteJS renders a cooked string value as a single-quoted literal.
func quoteJS(value string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range value {
		switch r {
		case '\'':
			sb.WriteString("\\'")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
