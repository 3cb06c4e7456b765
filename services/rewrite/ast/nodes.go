// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast defines the mutable JavaScript syntax tree the rewrite engine
// operates on, the visitor contract for traversing and mutating it, and the
// tree-sitter backed parser that produces it.
//
// The tree is deliberately not a concrete-syntax tree: tokens, punctuation,
// and comments are dropped at parse time, and every surviving node carries
// the byte Span of the source text it was built from. Spans are the only
// positional identity in the system; the astpath package addresses nodes by
// chains of ancestor spans, so span assignment must be deterministic for a
// given source (Parse of identical bytes yields an identical span layout).
//
// Node categories:
//
//	Five categories participate in span-chain traversal: Expr, Stmt, Pat,
//	Prop, and ModuleDecl. These are the valid transform targets. Everything
//	else (declarators, specifiers, template elements, pattern properties)
//	is pass-through structure reached on the way to category slots and
//	never appears in a chain. The category set is a fixed design choice of
//	this grammar; extending it means adding a Visitor hook and teaching the
//	child walkers about the new slots.
//
// Mutability:
//
//	Visitors receive pointers to interface slots (e.g. *Expr), so a
//	transform may rewrite a node's fields in place or replace the node in
//	its parent wholesale. Nothing in this package re-checks tree
//	well-formedness after mutation; that is the transform author's problem.
package ast

// Node is implemented by every syntax tree node.
type Node interface {
	// Span returns the source byte range the node was parsed from.
	// Synthesized nodes return the zero Span.
	Span() Span
}

// Expr is a JavaScript expression. One of the five traversal categories.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement. One of the five traversal categories.
type Stmt interface {
	Node
	stmtNode()
}

// Pat is a binding pattern (destructuring target, parameter, declarator
// name). One of the five traversal categories. Identifier implements both
// Expr and Pat; which category it traverses under is decided by the slot it
// occupies, not by its type.
type Pat interface {
	Node
	patNode()
}

// Prop is an object literal property. One of the five traversal categories.
type Prop interface {
	Node
	propNode()
}

// ModuleDecl is a top-level import/export form. One of the five traversal
// categories.
type ModuleDecl interface {
	Node
	moduleDeclNode()
}

// ModuleItem is anything that may appear in a Program body: every Stmt and
// every ModuleDecl implements it.
type ModuleItem interface {
	Node
	moduleItemNode()
}

// Program is the root of a parsed file. It is a container, not a traversal
// category: span chains start at its items, never at the Program itself.
type Program struct {
	Loc  Span
	Body []ModuleItem
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExpressionStatement is an expression in statement position, semicolon
// included in the span.
type ExpressionStatement struct {
	Loc  Span
	Expr Expr
}

// BlockStatement is a `{ ... }` statement list. Function bodies reuse this
// struct but are not themselves visited as statements; only a block in
// statement position is.
type BlockStatement struct {
	Loc  Span
	Body []Stmt
}

// EmptyStatement is a lone semicolon.
type EmptyStatement struct {
	Loc Span
}

// VariableDeclaration covers var/let/const with one or more declarators.
type VariableDeclaration struct {
	Loc   Span
	Kind  string // "var", "let", or "const"
	Decls []*VariableDeclarator
}

// VariableDeclarator is one `name = init` unit of a VariableDeclaration.
// Not a traversal category; its Name and Init slots are.
type VariableDeclarator struct {
	Loc  Span
	Name Pat
	Init Expr // nil when the declarator has no initializer
}

// FunctionDeclaration is a named `function f(...) { ... }` statement.
type FunctionDeclaration struct {
	Loc    Span
	Name   *Identifier
	Params []Pat
	Body   *BlockStatement
	Async  bool
}

// ReturnStatement returns Arg, or nothing when Arg is nil.
type ReturnStatement struct {
	Loc Span
	Arg Expr
}

// IfStatement. Alt is nil when there is no else branch.
type IfStatement struct {
	Loc  Span
	Test Expr
	Cons Stmt
	Alt  Stmt
}

// WhileStatement.
type WhileStatement struct {
	Loc  Span
	Test Expr
	Body Stmt
}

// ThrowStatement.
type ThrowStatement struct {
	Loc Span
	Arg Expr
}

// ---------------------------------------------------------------------------
// Module declarations
// ---------------------------------------------------------------------------

// ImportKind distinguishes the binding forms of an import specifier.
type ImportKind string

const (
	// ImportDefault binds the module's default export: `import x from "m"`.
	ImportDefault ImportKind = "default"
	// ImportNamed binds one named export: `import { a as b } from "m"`.
	ImportNamed ImportKind = "named"
	// ImportNamespace binds the whole namespace: `import * as m from "m"`.
	ImportNamespace ImportKind = "namespace"
)

// ImportDeclaration is a top-level `import ... from "source"` statement.
// A bare `import "source"` has no specifiers.
type ImportDeclaration struct {
	Loc        Span
	Specifiers []*ImportSpecifier
	Source     *StringLiteral
}

// ImportSpecifier is one imported binding. Not a traversal category.
// Imported is empty for default and namespace forms.
type ImportSpecifier struct {
	Loc      Span
	Kind     ImportKind
	Local    string
	Imported string
}

// ExportNamedDeclaration covers `export { a, b }`, `export { a } from "m"`,
// and `export <declaration>`. Exactly one of Decl or Specifiers is set;
// Source is non-nil only for the re-export form.
type ExportNamedDeclaration struct {
	Loc        Span
	Decl       Stmt
	Specifiers []*ExportSpecifier
	Source     *StringLiteral
}

// ExportSpecifier is one `local as exported` pair. Not a traversal category.
type ExportSpecifier struct {
	Loc      Span
	Local    string
	Exported string
}

// ExportDefaultDeclaration is `export default <expression>`.
type ExportDefaultDeclaration struct {
	Loc  Span
	Decl Expr
}

// ExportAllDeclaration is `export * from "source"`.
type ExportAllDeclaration struct {
	Loc    Span
	Source *StringLiteral
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Identifier is a name in expression or pattern position.
type Identifier struct {
	Loc  Span
	Name string
}

// StringLiteral holds both the decoded value and the original raw text
// (quotes included). The printer emits Raw verbatim when present; a
// transform that changes Value must clear Raw so the new value is emitted.
type StringLiteral struct {
	Loc   Span
	Value string
	Raw   string
}

// NumberLiteral keeps Raw so hex/binary/exponent notation survives printing.
type NumberLiteral struct {
	Loc   Span
	Value float64
	Raw   string
}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Loc   Span
	Value bool
}

// NullLiteral is `null`.
type NullLiteral struct {
	Loc Span
}

// ArrayExpression. A nil element is an elision hole (`[a, , b]`).
type ArrayExpression struct {
	Loc      Span
	Elements []Expr
}

// ObjectExpression is an object literal.
type ObjectExpression struct {
	Loc   Span
	Props []Prop
}

// SequenceExpression is a comma expression, stored flat: the parser folds
// the grammar's right-nested comma chains into a single node whose span
// covers the whole list.
type SequenceExpression struct {
	Loc   Span
	Exprs []Expr
}

// ParenthesizedExpression keeps explicit parens as a real node so its span
// participates in chains (the inner expression has a strictly smaller span).
type ParenthesizedExpression struct {
	Loc  Span
	Expr Expr
}

// CallExpression is `callee(args...)`.
type CallExpression struct {
	Loc    Span
	Callee Expr
	Args   []Expr
}

// MemberExpression is dot access `object.property`. The property is an inert
// name, not an expression slot; computed access is SubscriptExpression.
type MemberExpression struct {
	Loc      Span
	Object   Expr
	Property string
	PropLoc  Span
}

// SubscriptExpression is computed access `object[index]`.
type SubscriptExpression struct {
	Loc    Span
	Object Expr
	Index  Expr
}

// BinaryExpression covers arithmetic, comparison, logical, and relational
// operators; Op is the operator token text ("+", "===", "&&", ...).
type BinaryExpression struct {
	Loc   Span
	Op    string
	Left  Expr
	Right Expr
}

// AssignmentExpression covers plain and compound assignment ("=", "+=", ...).
type AssignmentExpression struct {
	Loc   Span
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpression is a prefix operator expression (`!x`, `typeof x`, `-x`).
type UnaryExpression struct {
	Loc Span
	Op  string
	Arg Expr
}

// UpdateExpression is `++x`, `x++`, `--x`, or `x--`.
type UpdateExpression struct {
	Loc    Span
	Op     string
	Prefix bool
	Arg    Expr
}

// ConditionalExpression is the ternary `test ? cons : alt`.
type ConditionalExpression struct {
	Loc  Span
	Test Expr
	Cons Expr
	Alt  Expr
}

// ArrowFunction has either a block body or an expression body; exactly one
// of BodyBlock and BodyExpr is non-nil.
type ArrowFunction struct {
	Loc       Span
	Params    []Pat
	BodyBlock *BlockStatement
	BodyExpr  Expr
	Async     bool
}

// FunctionExpression is a (possibly named) function literal.
type FunctionExpression struct {
	Loc    Span
	Name   string
	Params []Pat
	Body   *BlockStatement
	Async  bool
}

// NewExpression is `new callee(args...)`.
type NewExpression struct {
	Loc    Span
	Callee Expr
	Args   []Expr
}

// AwaitExpression.
type AwaitExpression struct {
	Loc Span
	Arg Expr
}

// TemplateLiteral is a backtick string. Quasis always has exactly
// len(Exprs)+1 elements; empty text segments are present as empty quasis.
type TemplateLiteral struct {
	Loc    Span
	Quasis []*TemplateElement
	Exprs  []Expr
}

// TemplateElement is one raw text segment of a template literal.
// Not a traversal category.
type TemplateElement struct {
	Loc Span
	Raw string
}

// SpreadElement is `...arg` in call arguments or array literals.
type SpreadElement struct {
	Loc Span
	Arg Expr
}

// ---------------------------------------------------------------------------
// Object properties
// ---------------------------------------------------------------------------

// Property is one `key: value` entry of an object literal. Non-computed
// keys are inert names (the Key node exists for printing but is not walked);
// computed keys are live expression slots.
type Property struct {
	Loc       Span
	Key       Expr
	Value     Expr
	Shorthand bool
	Computed  bool
}

// SpreadProperty is `...arg` inside an object literal.
type SpreadProperty struct {
	Loc Span
	Arg Expr
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

// ObjectPattern destructures an object. Rest bindings appear as a prop whose
// Key is nil and whose Value is a *RestPattern.
type ObjectPattern struct {
	Loc   Span
	Props []*ObjectPatternProp
}

// ObjectPatternProp is one destructuring entry. Not a traversal category;
// like Property, only computed keys are walked.
type ObjectPatternProp struct {
	Loc       Span
	Key       Expr
	Value     Pat
	Shorthand bool
	Computed  bool
}

// ArrayPattern destructures an array. A nil element is a hole.
type ArrayPattern struct {
	Loc      Span
	Elements []Pat
}

// AssignmentPattern is a default value binding `left = right`.
type AssignmentPattern struct {
	Loc   Span
	Left  Pat
	Right Expr
}

// RestPattern is `...arg` in parameter or destructuring position.
type RestPattern struct {
	Loc Span
	Arg Pat
}

// ---------------------------------------------------------------------------
// Span accessors
// ---------------------------------------------------------------------------

func (n *Program) Span() Span                  { return n.Loc }
func (n *ExpressionStatement) Span() Span      { return n.Loc }
func (n *BlockStatement) Span() Span           { return n.Loc }
func (n *EmptyStatement) Span() Span           { return n.Loc }
func (n *VariableDeclaration) Span() Span      { return n.Loc }
func (n *VariableDeclarator) Span() Span       { return n.Loc }
func (n *FunctionDeclaration) Span() Span      { return n.Loc }
func (n *ReturnStatement) Span() Span          { return n.Loc }
func (n *IfStatement) Span() Span              { return n.Loc }
func (n *WhileStatement) Span() Span           { return n.Loc }
func (n *ThrowStatement) Span() Span           { return n.Loc }
func (n *ImportDeclaration) Span() Span        { return n.Loc }
func (n *ImportSpecifier) Span() Span          { return n.Loc }
func (n *ExportNamedDeclaration) Span() Span   { return n.Loc }
func (n *ExportSpecifier) Span() Span          { return n.Loc }
func (n *ExportDefaultDeclaration) Span() Span { return n.Loc }
func (n *ExportAllDeclaration) Span() Span     { return n.Loc }
func (n *Identifier) Span() Span               { return n.Loc }
func (n *StringLiteral) Span() Span            { return n.Loc }
func (n *NumberLiteral) Span() Span            { return n.Loc }
func (n *BooleanLiteral) Span() Span           { return n.Loc }
func (n *NullLiteral) Span() Span              { return n.Loc }
func (n *ArrayExpression) Span() Span          { return n.Loc }
func (n *ObjectExpression) Span() Span         { return n.Loc }
func (n *SequenceExpression) Span() Span       { return n.Loc }
func (n *ParenthesizedExpression) Span() Span  { return n.Loc }
func (n *CallExpression) Span() Span           { return n.Loc }
func (n *MemberExpression) Span() Span         { return n.Loc }
func (n *SubscriptExpression) Span() Span      { return n.Loc }
func (n *BinaryExpression) Span() Span         { return n.Loc }
func (n *AssignmentExpression) Span() Span     { return n.Loc }
func (n *UnaryExpression) Span() Span          { return n.Loc }
func (n *UpdateExpression) Span() Span         { return n.Loc }
func (n *ConditionalExpression) Span() Span    { return n.Loc }
func (n *ArrowFunction) Span() Span            { return n.Loc }
func (n *FunctionExpression) Span() Span       { return n.Loc }
func (n *NewExpression) Span() Span            { return n.Loc }
func (n *AwaitExpression) Span() Span          { return n.Loc }
func (n *TemplateLiteral) Span() Span          { return n.Loc }
func (n *TemplateElement) Span() Span          { return n.Loc }
func (n *SpreadElement) Span() Span            { return n.Loc }
func (n *Property) Span() Span                 { return n.Loc }
func (n *SpreadProperty) Span() Span           { return n.Loc }
func (n *ObjectPattern) Span() Span            { return n.Loc }
func (n *ObjectPatternProp) Span() Span        { return n.Loc }
func (n *ArrayPattern) Span() Span             { return n.Loc }
func (n *AssignmentPattern) Span() Span        { return n.Loc }
func (n *RestPattern) Span() Span              { return n.Loc }

// ---------------------------------------------------------------------------
// Category markers
// ---------------------------------------------------------------------------

func (*ExpressionStatement) stmtNode() {}
func (*BlockStatement) stmtNode()      {}
func (*EmptyStatement) stmtNode()      {}
func (*VariableDeclaration) stmtNode() {}
func (*FunctionDeclaration) stmtNode() {}
func (*ReturnStatement) stmtNode()     {}
func (*IfStatement) stmtNode()         {}
func (*WhileStatement) stmtNode()      {}
func (*ThrowStatement) stmtNode()      {}

func (*ImportDeclaration) moduleDeclNode()        {}
func (*ExportNamedDeclaration) moduleDeclNode()   {}
func (*ExportDefaultDeclaration) moduleDeclNode() {}
func (*ExportAllDeclaration) moduleDeclNode()     {}

func (*ExpressionStatement) moduleItemNode()      {}
func (*BlockStatement) moduleItemNode()           {}
func (*EmptyStatement) moduleItemNode()           {}
func (*VariableDeclaration) moduleItemNode()      {}
func (*FunctionDeclaration) moduleItemNode()      {}
func (*ReturnStatement) moduleItemNode()          {}
func (*IfStatement) moduleItemNode()              {}
func (*WhileStatement) moduleItemNode()           {}
func (*ThrowStatement) moduleItemNode()           {}
func (*ImportDeclaration) moduleItemNode()        {}
func (*ExportNamedDeclaration) moduleItemNode()   {}
func (*ExportDefaultDeclaration) moduleItemNode() {}
func (*ExportAllDeclaration) moduleItemNode()     {}

func (*Identifier) exprNode()              {}
func (*StringLiteral) exprNode()           {}
func (*NumberLiteral) exprNode()           {}
func (*BooleanLiteral) exprNode()          {}
func (*NullLiteral) exprNode()             {}
func (*ArrayExpression) exprNode()         {}
func (*ObjectExpression) exprNode()        {}
func (*SequenceExpression) exprNode()      {}
func (*ParenthesizedExpression) exprNode() {}
func (*CallExpression) exprNode()          {}
func (*MemberExpression) exprNode()        {}
func (*SubscriptExpression) exprNode()     {}
func (*BinaryExpression) exprNode()        {}
func (*AssignmentExpression) exprNode()    {}
func (*UnaryExpression) exprNode()         {}
func (*UpdateExpression) exprNode()        {}
func (*ConditionalExpression) exprNode()   {}
func (*ArrowFunction) exprNode()           {}
func (*FunctionExpression) exprNode()      {}
func (*NewExpression) exprNode()           {}
func (*AwaitExpression) exprNode()         {}
func (*TemplateLiteral) exprNode()         {}
func (*SpreadElement) exprNode()           {}

func (*Property) propNode()       {}
func (*SpreadProperty) propNode() {}

func (*Identifier) patNode()        {}
func (*ObjectPattern) patNode()     {}
func (*ArrayPattern) patNode()      {}
func (*AssignmentPattern) patNode() {}
func (*RestPattern) patNode()       {}
