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

// This file enumerates, for every concrete node type, the category slots
// directly reachable from it. "Directly" means through any amount of
// non-category structure (declarators, specifiers, parameter lists) but
// never through another category node: a walker invokes the visitor hook
// for each slot and descends no further. Recursion is the visitor's call,
// which is what lets the applier descend selectively.
//
// Slots holding nil are skipped, so hooks never observe a nil node. Inert
// positions are deliberately not slots: function names in their defining
// position, non-computed property keys, member access property names,
// import/export specifiers, and import/export source strings. Those are
// data of their parent node, not traversal targets. Declarator names are
// binding patterns and do get a slot.

// WalkProgram invokes v on every top-level item slot of prog.
func WalkProgram(v Visitor, prog *Program) {
	for i := range prog.Body {
		walkModuleItem(v, &prog.Body[i])
	}
}

// walkModuleItem dispatches one Program body slot to the statement or
// module-declaration hook. The category value is copied out, visited, and
// written back so slot replacement by the visitor takes effect; replacement
// nodes must implement ModuleItem to survive at top level.
func walkModuleItem(v Visitor, slot *ModuleItem) {
	switch n := (*slot).(type) {
	case ModuleDecl:
		d := n
		v.VisitModuleDecl(&d)
		storeModuleItem(slot, d)
	case Stmt:
		s := n
		v.VisitStmt(&s)
		storeModuleItem(slot, s)
	}
}

func storeModuleItem(slot *ModuleItem, n Node) {
	if n == nil {
		*slot = nil
		return
	}
	if item, ok := n.(ModuleItem); ok {
		*slot = item
	}
}

// WalkStmtChildren invokes v on each category slot directly inside s.
func WalkStmtChildren(v Visitor, s Stmt) {
	switch n := s.(type) {
	case *ExpressionStatement:
		if n.Expr != nil {
			v.VisitExpr(&n.Expr)
		}
	case *BlockStatement:
		for i := range n.Body {
			if n.Body[i] != nil {
				v.VisitStmt(&n.Body[i])
			}
		}
	case *VariableDeclaration:
		for _, d := range n.Decls {
			if d == nil {
				continue
			}
			if d.Name != nil {
				v.VisitPat(&d.Name)
			}
			if d.Init != nil {
				v.VisitExpr(&d.Init)
			}
		}
	case *FunctionDeclaration:
		walkParams(v, n.Params)
		walkFunctionBody(v, n.Body)
	case *ReturnStatement:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	case *IfStatement:
		if n.Test != nil {
			v.VisitExpr(&n.Test)
		}
		if n.Cons != nil {
			v.VisitStmt(&n.Cons)
		}
		if n.Alt != nil {
			v.VisitStmt(&n.Alt)
		}
	case *WhileStatement:
		if n.Test != nil {
			v.VisitExpr(&n.Test)
		}
		if n.Body != nil {
			v.VisitStmt(&n.Body)
		}
	case *ThrowStatement:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	case *EmptyStatement:
	}
}

// WalkModuleDeclChildren invokes v on each category slot directly inside d.
// Import/export specifiers and source strings are inert.
func WalkModuleDeclChildren(v Visitor, d ModuleDecl) {
	switch n := d.(type) {
	case *ExportNamedDeclaration:
		if n.Decl != nil {
			v.VisitStmt(&n.Decl)
		}
	case *ExportDefaultDeclaration:
		if n.Decl != nil {
			v.VisitExpr(&n.Decl)
		}
	case *ImportDeclaration, *ExportAllDeclaration:
	}
}

// WalkExprChildren invokes v on each category slot directly inside e.
func WalkExprChildren(v Visitor, e Expr) {
	switch n := e.(type) {
	case *ArrayExpression:
		for i := range n.Elements {
			if n.Elements[i] != nil {
				v.VisitExpr(&n.Elements[i])
			}
		}
	case *ObjectExpression:
		for i := range n.Props {
			if n.Props[i] != nil {
				v.VisitProp(&n.Props[i])
			}
		}
	case *SequenceExpression:
		for i := range n.Exprs {
			if n.Exprs[i] != nil {
				v.VisitExpr(&n.Exprs[i])
			}
		}
	case *ParenthesizedExpression:
		if n.Expr != nil {
			v.VisitExpr(&n.Expr)
		}
	case *CallExpression:
		if n.Callee != nil {
			v.VisitExpr(&n.Callee)
		}
		walkArgs(v, n.Args)
	case *MemberExpression:
		if n.Object != nil {
			v.VisitExpr(&n.Object)
		}
	case *SubscriptExpression:
		if n.Object != nil {
			v.VisitExpr(&n.Object)
		}
		if n.Index != nil {
			v.VisitExpr(&n.Index)
		}
	case *BinaryExpression:
		if n.Left != nil {
			v.VisitExpr(&n.Left)
		}
		if n.Right != nil {
			v.VisitExpr(&n.Right)
		}
	case *AssignmentExpression:
		if n.Left != nil {
			v.VisitExpr(&n.Left)
		}
		if n.Right != nil {
			v.VisitExpr(&n.Right)
		}
	case *UnaryExpression:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	case *UpdateExpression:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	case *ConditionalExpression:
		if n.Test != nil {
			v.VisitExpr(&n.Test)
		}
		if n.Cons != nil {
			v.VisitExpr(&n.Cons)
		}
		if n.Alt != nil {
			v.VisitExpr(&n.Alt)
		}
	case *ArrowFunction:
		walkParams(v, n.Params)
		if n.BodyBlock != nil {
			walkFunctionBody(v, n.BodyBlock)
		}
		if n.BodyExpr != nil {
			v.VisitExpr(&n.BodyExpr)
		}
	case *FunctionExpression:
		walkParams(v, n.Params)
		walkFunctionBody(v, n.Body)
	case *NewExpression:
		if n.Callee != nil {
			v.VisitExpr(&n.Callee)
		}
		walkArgs(v, n.Args)
	case *AwaitExpression:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	case *TemplateLiteral:
		for i := range n.Exprs {
			if n.Exprs[i] != nil {
				v.VisitExpr(&n.Exprs[i])
			}
		}
	case *SpreadElement:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	case *Identifier, *StringLiteral, *NumberLiteral, *BooleanLiteral, *NullLiteral:
	}
}

// WalkPropChildren invokes v on each category slot directly inside p.
// Shorthand properties have no slots (their lone identifier is a binding
// name); non-computed keys are inert.
func WalkPropChildren(v Visitor, p Prop) {
	switch n := p.(type) {
	case *Property:
		if n.Shorthand {
			return
		}
		if n.Computed && n.Key != nil {
			v.VisitExpr(&n.Key)
		}
		if n.Value != nil {
			v.VisitExpr(&n.Value)
		}
	case *SpreadProperty:
		if n.Arg != nil {
			v.VisitExpr(&n.Arg)
		}
	}
}

// WalkPatChildren invokes v on each category slot directly inside p.
func WalkPatChildren(v Visitor, p Pat) {
	switch n := p.(type) {
	case *ObjectPattern:
		for _, prop := range n.Props {
			if prop == nil {
				continue
			}
			if prop.Computed && prop.Key != nil {
				v.VisitExpr(&prop.Key)
			}
			if prop.Value != nil {
				v.VisitPat(&prop.Value)
			}
		}
	case *ArrayPattern:
		for i := range n.Elements {
			if n.Elements[i] != nil {
				v.VisitPat(&n.Elements[i])
			}
		}
	case *AssignmentPattern:
		if n.Left != nil {
			v.VisitPat(&n.Left)
		}
		if n.Right != nil {
			v.VisitExpr(&n.Right)
		}
	case *RestPattern:
		if n.Arg != nil {
			v.VisitPat(&n.Arg)
		}
	case *Identifier:
	}
}

func walkParams(v Visitor, params []Pat) {
	for i := range params {
		if params[i] != nil {
			v.VisitPat(&params[i])
		}
	}
}

func walkArgs(v Visitor, args []Expr) {
	for i := range args {
		if args[i] != nil {
			v.VisitExpr(&args[i])
		}
	}
}

// walkFunctionBody walks the statements of a function body block. The block
// itself is not in statement position, so it contributes no slot of its own;
// only a block written as a statement does.
func walkFunctionBody(v Visitor, body *BlockStatement) {
	if body == nil {
		return
	}
	for i := range body.Body {
		if body.Body[i] != nil {
			v.VisitStmt(&body.Body[i])
		}
	}
}
