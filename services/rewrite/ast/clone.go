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

// Deep copies. Clones share no mutable state with their originals but keep
// the original spans: a clone is positionally indistinguishable from its
// source subtree, which is exactly why single spans cannot address nodes
// and span chains can. The engine clones a pristine program per apply run;
// tests clone subtrees to manufacture duplicate-span layouts.

// CloneProgram returns a deep copy of prog. Nil in, nil out.
func CloneProgram(prog *Program) *Program {
	if prog == nil {
		return nil
	}
	out := &Program{Loc: prog.Loc}
	if prog.Body != nil {
		out.Body = make([]ModuleItem, len(prog.Body))
		for i, item := range prog.Body {
			out.Body[i] = CloneModuleItem(item)
		}
	}
	return out
}

// CloneModuleItem deep-copies one Program body entry.
func CloneModuleItem(item ModuleItem) ModuleItem {
	switch n := item.(type) {
	case nil:
		return nil
	case ModuleDecl:
		d := CloneModuleDecl(n)
		if d == nil {
			return nil
		}
		return d.(ModuleItem)
	case Stmt:
		s := CloneStmt(n)
		if s == nil {
			return nil
		}
		return s.(ModuleItem)
	default:
		return nil
	}
}

// CloneStmt deep-copies a statement.
func CloneStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ExpressionStatement:
		return &ExpressionStatement{Loc: n.Loc, Expr: CloneExpr(n.Expr)}
	case *BlockStatement:
		return cloneBlock(n)
	case *EmptyStatement:
		return &EmptyStatement{Loc: n.Loc}
	case *VariableDeclaration:
		out := &VariableDeclaration{Loc: n.Loc, Kind: n.Kind}
		for _, d := range n.Decls {
			out.Decls = append(out.Decls, cloneDeclarator(d))
		}
		return out
	case *FunctionDeclaration:
		return &FunctionDeclaration{
			Loc:    n.Loc,
			Name:   cloneIdentifier(n.Name),
			Params: clonePats(n.Params),
			Body:   cloneBlock(n.Body),
			Async:  n.Async,
		}
	case *ReturnStatement:
		return &ReturnStatement{Loc: n.Loc, Arg: CloneExpr(n.Arg)}
	case *IfStatement:
		return &IfStatement{
			Loc:  n.Loc,
			Test: CloneExpr(n.Test),
			Cons: CloneStmt(n.Cons),
			Alt:  CloneStmt(n.Alt),
		}
	case *WhileStatement:
		return &WhileStatement{Loc: n.Loc, Test: CloneExpr(n.Test), Body: CloneStmt(n.Body)}
	case *ThrowStatement:
		return &ThrowStatement{Loc: n.Loc, Arg: CloneExpr(n.Arg)}
	default:
		return nil
	}
}

// CloneModuleDecl deep-copies an import/export declaration.
func CloneModuleDecl(d ModuleDecl) ModuleDecl {
	switch n := d.(type) {
	case nil:
		return nil
	case *ImportDeclaration:
		out := &ImportDeclaration{Loc: n.Loc, Source: cloneStringLiteral(n.Source)}
		for _, s := range n.Specifiers {
			if s == nil {
				continue
			}
			cp := *s
			out.Specifiers = append(out.Specifiers, &cp)
		}
		return out
	case *ExportNamedDeclaration:
		out := &ExportNamedDeclaration{
			Loc:    n.Loc,
			Decl:   CloneStmt(n.Decl),
			Source: cloneStringLiteral(n.Source),
		}
		for _, s := range n.Specifiers {
			if s == nil {
				continue
			}
			cp := *s
			out.Specifiers = append(out.Specifiers, &cp)
		}
		return out
	case *ExportDefaultDeclaration:
		return &ExportDefaultDeclaration{Loc: n.Loc, Decl: CloneExpr(n.Decl)}
	case *ExportAllDeclaration:
		return &ExportAllDeclaration{Loc: n.Loc, Source: cloneStringLiteral(n.Source)}
	default:
		return nil
	}
}

// CloneExpr deep-copies an expression.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *Identifier:
		return &Identifier{Loc: n.Loc, Name: n.Name}
	case *StringLiteral:
		return &StringLiteral{Loc: n.Loc, Value: n.Value, Raw: n.Raw}
	case *NumberLiteral:
		return &NumberLiteral{Loc: n.Loc, Value: n.Value, Raw: n.Raw}
	case *BooleanLiteral:
		return &BooleanLiteral{Loc: n.Loc, Value: n.Value}
	case *NullLiteral:
		return &NullLiteral{Loc: n.Loc}
	case *ArrayExpression:
		return &ArrayExpression{Loc: n.Loc, Elements: cloneExprs(n.Elements)}
	case *ObjectExpression:
		out := &ObjectExpression{Loc: n.Loc}
		for _, p := range n.Props {
			out.Props = append(out.Props, CloneProp(p))
		}
		return out
	case *SequenceExpression:
		return &SequenceExpression{Loc: n.Loc, Exprs: cloneExprs(n.Exprs)}
	case *ParenthesizedExpression:
		return &ParenthesizedExpression{Loc: n.Loc, Expr: CloneExpr(n.Expr)}
	case *CallExpression:
		return &CallExpression{Loc: n.Loc, Callee: CloneExpr(n.Callee), Args: cloneExprs(n.Args)}
	case *MemberExpression:
		return &MemberExpression{Loc: n.Loc, Object: CloneExpr(n.Object), Property: n.Property, PropLoc: n.PropLoc}
	case *SubscriptExpression:
		return &SubscriptExpression{Loc: n.Loc, Object: CloneExpr(n.Object), Index: CloneExpr(n.Index)}
	case *BinaryExpression:
		return &BinaryExpression{Loc: n.Loc, Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *AssignmentExpression:
		return &AssignmentExpression{Loc: n.Loc, Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *UnaryExpression:
		return &UnaryExpression{Loc: n.Loc, Op: n.Op, Arg: CloneExpr(n.Arg)}
	case *UpdateExpression:
		return &UpdateExpression{Loc: n.Loc, Op: n.Op, Prefix: n.Prefix, Arg: CloneExpr(n.Arg)}
	case *ConditionalExpression:
		return &ConditionalExpression{
			Loc:  n.Loc,
			Test: CloneExpr(n.Test),
			Cons: CloneExpr(n.Cons),
			Alt:  CloneExpr(n.Alt),
		}
	case *ArrowFunction:
		return &ArrowFunction{
			Loc:       n.Loc,
			Params:    clonePats(n.Params),
			BodyBlock: cloneBlock(n.BodyBlock),
			BodyExpr:  CloneExpr(n.BodyExpr),
			Async:     n.Async,
		}
	case *FunctionExpression:
		return &FunctionExpression{
			Loc:    n.Loc,
			Name:   n.Name,
			Params: clonePats(n.Params),
			Body:   cloneBlock(n.Body),
			Async:  n.Async,
		}
	case *NewExpression:
		return &NewExpression{Loc: n.Loc, Callee: CloneExpr(n.Callee), Args: cloneExprs(n.Args)}
	case *AwaitExpression:
		return &AwaitExpression{Loc: n.Loc, Arg: CloneExpr(n.Arg)}
	case *TemplateLiteral:
		out := &TemplateLiteral{Loc: n.Loc, Exprs: cloneExprs(n.Exprs)}
		for _, q := range n.Quasis {
			if q == nil {
				continue
			}
			cp := *q
			out.Quasis = append(out.Quasis, &cp)
		}
		return out
	case *SpreadElement:
		return &SpreadElement{Loc: n.Loc, Arg: CloneExpr(n.Arg)}
	default:
		return nil
	}
}

// CloneProp deep-copies an object literal property.
func CloneProp(p Prop) Prop {
	switch n := p.(type) {
	case nil:
		return nil
	case *Property:
		return &Property{
			Loc:       n.Loc,
			Key:       CloneExpr(n.Key),
			Value:     CloneExpr(n.Value),
			Shorthand: n.Shorthand,
			Computed:  n.Computed,
		}
	case *SpreadProperty:
		return &SpreadProperty{Loc: n.Loc, Arg: CloneExpr(n.Arg)}
	default:
		return nil
	}
}

// ClonePat deep-copies a binding pattern.
func ClonePat(p Pat) Pat {
	switch n := p.(type) {
	case nil:
		return nil
	case *Identifier:
		return &Identifier{Loc: n.Loc, Name: n.Name}
	case *ObjectPattern:
		out := &ObjectPattern{Loc: n.Loc}
		for _, prop := range n.Props {
			if prop == nil {
				continue
			}
			out.Props = append(out.Props, &ObjectPatternProp{
				Loc:       prop.Loc,
				Key:       CloneExpr(prop.Key),
				Value:     ClonePat(prop.Value),
				Shorthand: prop.Shorthand,
				Computed:  prop.Computed,
			})
		}
		return out
	case *ArrayPattern:
		return &ArrayPattern{Loc: n.Loc, Elements: clonePats(n.Elements)}
	case *AssignmentPattern:
		return &AssignmentPattern{Loc: n.Loc, Left: ClonePat(n.Left), Right: CloneExpr(n.Right)}
	case *RestPattern:
		return &RestPattern{Loc: n.Loc, Arg: ClonePat(n.Arg)}
	default:
		return nil
	}
}

func cloneExprs(in []Expr) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = CloneExpr(e)
	}
	return out
}

func clonePats(in []Pat) []Pat {
	if in == nil {
		return nil
	}
	out := make([]Pat, len(in))
	for i, p := range in {
		out[i] = ClonePat(p)
	}
	return out
}

func cloneBlock(b *BlockStatement) *BlockStatement {
	if b == nil {
		return nil
	}
	out := &BlockStatement{Loc: b.Loc}
	if b.Body != nil {
		out.Body = make([]Stmt, len(b.Body))
		for i, s := range b.Body {
			out.Body[i] = CloneStmt(s)
		}
	}
	return out
}

func cloneDeclarator(d *VariableDeclarator) *VariableDeclarator {
	if d == nil {
		return nil
	}
	return &VariableDeclarator{Loc: d.Loc, Name: ClonePat(d.Name), Init: CloneExpr(d.Init)}
}

func cloneIdentifier(id *Identifier) *Identifier {
	if id == nil {
		return nil
	}
	return &Identifier{Loc: id.Loc, Name: id.Name}
}

func cloneStringLiteral(s *StringLiteral) *StringLiteral {
	if s == nil {
		return nil
	}
	return &StringLiteral{Loc: s.Loc, Value: s.Value, Raw: s.Raw}
}
