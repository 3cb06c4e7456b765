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
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptParser builds rewrite trees from JavaScript source code.
//
// Description:
//
//	JavaScriptParser uses tree-sitter to parse JavaScript source files and
//	convert the concrete syntax tree into the mutable tree defined in this
//	package. It supports the ES module subset the rewrite engine operates
//	on: imports/exports, functions and arrows, the common expression forms,
//	object and array literals, destructuring patterns, and template strings.
//
//	The parser is strict. Syntax errors fail the whole parse with
//	ErrParseFailed, and constructs outside the supported subset (classes,
//	generators, loops other than while, regex literals, tagged templates)
//	fail with ErrUnsupportedSyntax. Both surface as *ParseError with the
//	offending position.
//
// Thread Safety:
//
//	JavaScriptParser is safe for concurrent use. Multiple goroutines can
//	call Parse simultaneously. Each Parse call creates its own tree-sitter
//	parser instance.
//
// Example:
//
//	parser := NewJavaScriptParser()
//	result, err := parser.Parse(ctx, content, "app.js")
//	if err != nil {
//	    return fmt.Errorf("parse: %w", err)
//	}
//	ast.WalkProgram(visitor, result.Program)
type JavaScriptParser struct {
	options JavaScriptParserOptions
}

// JavaScriptParserOptions configures JavaScriptParser behavior.
type JavaScriptParserOptions struct {
	// MaxFileSize is the maximum file size in bytes to parse.
	// Files larger than this return ErrFileTooLarge.
	// Default: 10MB
	MaxFileSize int

	// ParseTimeout bounds a single Parse call. Zero means no limit
	// beyond the caller's context.
	// Default: 30s
	ParseTimeout time.Duration
}

// DefaultJavaScriptParserOptions returns the default options.
func DefaultJavaScriptParserOptions() JavaScriptParserOptions {
	return JavaScriptParserOptions{
		MaxFileSize:  10 * 1024 * 1024, // 10MB
		ParseTimeout: 30 * time.Second,
	}
}

// JavaScriptParserOption is a functional option for configuring JavaScriptParser.
type JavaScriptParserOption func(*JavaScriptParserOptions)

// WithJSMaxFileSize sets the maximum file size for parsing.
func WithJSMaxFileSize(size int) JavaScriptParserOption {
	return func(o *JavaScriptParserOptions) {
		o.MaxFileSize = size
	}
}

// WithJSParseTimeout sets the per-call parse timeout.
func WithJSParseTimeout(d time.Duration) JavaScriptParserOption {
	return func(o *JavaScriptParserOptions) {
		o.ParseTimeout = d
	}
}

// NewJavaScriptParser creates a new JavaScriptParser with the given options.
//
// Example:
//
//	// Default options
//	parser := NewJavaScriptParser()
//
//	// With custom options
//	parser := NewJavaScriptParser(
//	    WithJSMaxFileSize(5 * 1024 * 1024),
//	    WithJSParseTimeout(10 * time.Second),
//	)
func NewJavaScriptParser(opts ...JavaScriptParserOption) *JavaScriptParser {
	options := DefaultJavaScriptParserOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &JavaScriptParser{options: options}
}

// Language returns the language name for this parser.
func (p *JavaScriptParser) Language() string {
	return "javascript"
}

// Extensions returns the file extensions this parser handles.
func (p *JavaScriptParser) Extensions() []string {
	return []string{".js", ".mjs", ".cjs"}
}

// Parse builds a rewrite tree from JavaScript source code.
//
// Inputs:
//
//	ctx      - Context for cancellation. Checked before and after parsing.
//	content  - Raw JavaScript source bytes. Must be valid UTF-8.
//	filePath - Path to the file (for error reporting).
//
// Outputs:
//
//	*ParseResult - The built tree and parse metadata. Never nil on success.
//	error        - Non-nil on any failure. Syntax errors wrap ErrParseFailed,
//	               out-of-subset constructs wrap ErrUnsupportedSyntax.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *JavaScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, WrapParseError(p.ctxError(err), filePath)
	}

	// Validate content. Empty content is a valid empty program.
	if p.options.MaxFileSize > 0 && len(content) > p.options.MaxFileSize {
		return nil, WrapParseError(
			fmt.Errorf("%d bytes exceeds limit of %d: %w", len(content), p.options.MaxFileSize, ErrFileTooLarge),
			filePath,
		)
	}
	if !utf8.Valid(content) {
		return nil, WrapParseError(fmt.Errorf("content is not valid UTF-8: %w", ErrInvalidContent), filePath)
	}

	if p.options.ParseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.options.ParseTimeout)
		defer cancel()
	}

	ctx, span := startParseSpan(ctx, "javascript", filePath, len(content))
	defer span.End()

	start := time.Now()

	// Parse with tree-sitter
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "javascript", time.Since(start), 0, false)
		return nil, WrapParseError(p.ctxError(err), filePath)
	}
	defer tree.Close()

	// Check context after parsing
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "javascript", time.Since(start), 0, false)
		return nil, WrapParseError(p.ctxError(err), filePath)
	}

	root := tree.RootNode()
	if root.HasError() {
		recordParseMetrics(ctx, "javascript", time.Since(start), 0, false)
		setParseSpanResult(span, 0, 1)
		return nil, syntaxError(root, filePath)
	}

	b := &jsBuilder{content: content, filePath: filePath}
	prog, err := b.buildProgram(root)
	if err != nil {
		recordParseMetrics(ctx, "javascript", time.Since(start), b.nodeCount, false)
		setParseSpanResult(span, b.nodeCount, 1)
		return nil, WrapParseError(err, filePath)
	}

	duration := time.Since(start)
	recordParseMetrics(ctx, "javascript", duration, b.nodeCount, true)
	setParseSpanResult(span, b.nodeCount, 0)

	return &ParseResult{
		Program:   prog,
		Language:  "javascript",
		FilePath:  filePath,
		NodeCount: b.nodeCount,
		Duration:  duration,
	}, nil
}

// ctxError maps context errors onto the package sentinels.
func (p *JavaScriptParser) ctxError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("javascript parse: %w", ErrTimeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("javascript parse: %w", ErrContextCanceled)
	default:
		return fmt.Errorf("javascript parse: %v: %w", err, ErrParseFailed)
	}
}

// syntaxError builds a positioned ParseError for a tree containing
// error nodes.
func syntaxError(root *sitter.Node, filePath string) error {
	perr := &ParseError{
		FilePath: filePath,
		Message:  "syntax error",
		Cause:    ErrParseFailed,
	}
	if bad := findFirstSyntaxError(root); bad != nil {
		perr.Line = int(bad.StartPoint().Row) + 1
		perr.Column = int(bad.StartPoint().Column)
		perr.NodeType = bad.Type()
		if bad.IsMissing() {
			perr.Message = fmt.Sprintf("syntax error: missing %q", bad.Type())
		}
	}
	return perr
}

// findFirstSyntaxError locates the first ERROR or missing node in a subtree.
func findFirstSyntaxError(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.Type() == jsNodeErrorNode || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if found := findFirstSyntaxError(child); found != nil {
			return found
		}
	}
	return node
}

// ---------------------------------------------------------------------------
// CST to tree conversion
// ---------------------------------------------------------------------------

// jsBuilder converts a tree-sitter CST into the rewrite tree.
//
// The builder is strict: any construct outside the supported subset aborts
// the build rather than producing a partial tree, because a partial tree
// cannot be printed back faithfully.
type jsBuilder struct {
	content   []byte
	filePath  string
	nodeCount int
}

func (b *jsBuilder) span(node *sitter.Node) Span {
	return Span{Start: node.StartByte(), End: node.EndByte()}
}

func (b *jsBuilder) text(node *sitter.Node) string {
	return string(b.content[node.StartByte():node.EndByte()])
}

// unsupported reports a construct outside the supported ES subset.
func (b *jsBuilder) unsupported(node *sitter.Node) error {
	return &ParseError{
		FilePath: b.filePath,
		Line:     int(node.StartPoint().Row) + 1,
		Column:   int(node.StartPoint().Column),
		NodeType: node.Type(),
		Message:  fmt.Sprintf("unsupported syntax %q", node.Type()),
		Cause:    ErrUnsupportedSyntax,
	}
}

// malformed reports a CST shape the builder cannot interpret.
func (b *jsBuilder) malformed(node *sitter.Node, what string) error {
	return &ParseError{
		FilePath: b.filePath,
		Line:     int(node.StartPoint().Row) + 1,
		Column:   int(node.StartPoint().Column),
		NodeType: node.Type(),
		Message:  fmt.Sprintf("malformed %s node: %s", node.Type(), what),
		Cause:    ErrParseFailed,
	}
}

func (b *jsBuilder) buildProgram(root *sitter.Node) (*Program, error) {
	prog := &Program{Loc: b.span(root)}
	b.nodeCount++

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		item, err := b.buildModuleItem(child)
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, item)
	}
	return prog, nil
}

func (b *jsBuilder) buildModuleItem(node *sitter.Node) (ModuleItem, error) {
	switch node.Type() {
	case jsNodeImportStatement:
		return b.buildImport(node)
	case jsNodeExportStatement:
		return b.buildExport(node)
	default:
		s, err := b.buildStmt(node)
		if err != nil {
			return nil, err
		}
		return s.(ModuleItem), nil
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (b *jsBuilder) buildStmt(node *sitter.Node) (Stmt, error) {
	switch node.Type() {
	case jsNodeExpressionStatement:
		inner := firstNamedChild(node)
		if inner == nil {
			return nil, b.malformed(node, "no expression child")
		}
		expr, err := b.buildExpr(inner)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ExpressionStatement{Loc: b.span(node), Expr: expr}, nil

	case jsNodeStatementBlock:
		return b.buildBlock(node)

	case jsNodeEmptyStatement:
		b.nodeCount++
		return &EmptyStatement{Loc: b.span(node)}, nil

	case jsNodeLexicalDeclaration, jsNodeVariableDeclaration:
		return b.buildVariableDeclaration(node)

	case jsNodeFunctionDeclaration:
		return b.buildFunctionDeclaration(node)

	case jsNodeReturnStatement:
		stmt := &ReturnStatement{Loc: b.span(node)}
		b.nodeCount++
		if arg := firstNamedChild(node); arg != nil {
			expr, err := b.buildExpr(arg)
			if err != nil {
				return nil, err
			}
			stmt.Arg = expr
		}
		return stmt, nil

	case jsNodeIfStatement:
		return b.buildIf(node)

	case jsNodeWhileStatement:
		return b.buildWhile(node)

	case jsNodeThrowStatement:
		arg := firstNamedChild(node)
		if arg == nil {
			return nil, b.malformed(node, "no argument child")
		}
		expr, err := b.buildExpr(arg)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ThrowStatement{Loc: b.span(node), Arg: expr}, nil

	default:
		return nil, b.unsupported(node)
	}
}

func (b *jsBuilder) buildBlock(node *sitter.Node) (*BlockStatement, error) {
	block := &BlockStatement{Loc: b.span(node)}
	b.nodeCount++
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		s, err := b.buildStmt(child)
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, s)
	}
	return block, nil
}

func (b *jsBuilder) buildVariableDeclaration(node *sitter.Node) (Stmt, error) {
	decl := &VariableDeclaration{Loc: b.span(node)}
	b.nodeCount++

	// The kind keyword is the first token.
	if node.ChildCount() > 0 {
		decl.Kind = b.text(node.Child(0))
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != jsNodeVariableDeclarator {
			continue
		}
		d, err := b.buildDeclarator(child)
		if err != nil {
			return nil, err
		}
		decl.Decls = append(decl.Decls, d)
	}
	if len(decl.Decls) == 0 {
		return nil, b.malformed(node, "no declarators")
	}
	return decl, nil
}

func (b *jsBuilder) buildDeclarator(node *sitter.Node) (*VariableDeclarator, error) {
	d := &VariableDeclarator{Loc: b.span(node)}
	b.nodeCount++

	nameNode := node.ChildByFieldName(jsFieldName)
	if nameNode == nil {
		return nil, b.malformed(node, "no name field")
	}
	name, err := b.buildPat(nameNode)
	if err != nil {
		return nil, err
	}
	d.Name = name

	if valueNode := node.ChildByFieldName(jsFieldValue); valueNode != nil {
		init, err := b.buildExpr(valueNode)
		if err != nil {
			return nil, err
		}
		d.Init = init
	}
	return d, nil
}

func (b *jsBuilder) buildFunctionDeclaration(node *sitter.Node) (Stmt, error) {
	fn := &FunctionDeclaration{Loc: b.span(node)}
	b.nodeCount++

	if nameNode := node.ChildByFieldName(jsFieldName); nameNode != nil {
		fn.Name = &Identifier{Loc: b.span(nameNode), Name: b.text(nameNode)}
		b.nodeCount++
	}

	params, body, async, err := b.buildFunctionParts(node)
	if err != nil {
		return nil, err
	}
	fn.Params = params
	fn.Body = body
	fn.Async = async
	return fn, nil
}

func (b *jsBuilder) buildIf(node *sitter.Node) (Stmt, error) {
	stmt := &IfStatement{Loc: b.span(node)}
	b.nodeCount++

	cond := node.ChildByFieldName(jsFieldCondition)
	if cond == nil {
		return nil, b.malformed(node, "no condition field")
	}
	test, err := b.buildCondition(cond)
	if err != nil {
		return nil, err
	}
	stmt.Test = test

	cons := node.ChildByFieldName(jsFieldConsequence)
	if cons == nil {
		return nil, b.malformed(node, "no consequence field")
	}
	consStmt, err := b.buildStmt(cons)
	if err != nil {
		return nil, err
	}
	stmt.Cons = consStmt

	if alt := node.ChildByFieldName(jsFieldAlternative); alt != nil {
		// The alternative field is an else_clause wrapping the statement.
		target := alt
		if alt.Type() == jsNodeElseClause {
			target = firstNamedChild(alt)
			if target == nil {
				return nil, b.malformed(alt, "empty else clause")
			}
		}
		altStmt, err := b.buildStmt(target)
		if err != nil {
			return nil, err
		}
		stmt.Alt = altStmt
	}
	return stmt, nil
}

func (b *jsBuilder) buildWhile(node *sitter.Node) (Stmt, error) {
	stmt := &WhileStatement{Loc: b.span(node)}
	b.nodeCount++

	cond := node.ChildByFieldName(jsFieldCondition)
	if cond == nil {
		return nil, b.malformed(node, "no condition field")
	}
	test, err := b.buildCondition(cond)
	if err != nil {
		return nil, err
	}
	stmt.Test = test

	bodyNode := node.ChildByFieldName(jsFieldBody)
	if bodyNode == nil {
		return nil, b.malformed(node, "no body field")
	}
	body, err := b.buildStmt(bodyNode)
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// buildCondition unwraps the grammar's parenthesized_expression around
// if/while conditions. The parens are statement syntax, not expression
// syntax; the printer re-adds them.
func (b *jsBuilder) buildCondition(cond *sitter.Node) (Expr, error) {
	if cond.Type() == jsNodeParenthesizedExpr {
		inner := firstNamedChild(cond)
		if inner == nil {
			return nil, b.malformed(cond, "empty condition")
		}
		return b.buildExpr(inner)
	}
	return b.buildExpr(cond)
}

// ---------------------------------------------------------------------------
// Module declarations
// ---------------------------------------------------------------------------

func (b *jsBuilder) buildImport(node *sitter.Node) (ModuleItem, error) {
	decl := &ImportDeclaration{Loc: b.span(node)}
	b.nodeCount++

	sourceNode := node.ChildByFieldName(jsFieldSource)
	if sourceNode == nil {
		return nil, b.malformed(node, "no source field")
	}
	source, err := b.buildStringLiteral(sourceNode)
	if err != nil {
		return nil, err
	}
	decl.Source = source

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != jsNodeImportClause {
			continue
		}
		if err := b.buildImportClause(child, decl); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (b *jsBuilder) buildImportClause(node *sitter.Node, decl *ImportDeclaration) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case jsNodeIdentifier:
			// import foo from '...'
			decl.Specifiers = append(decl.Specifiers, &ImportSpecifier{
				Loc:      b.span(child),
				Kind:     ImportDefault,
				Local:    b.text(child),
				Imported: "default",
			})
			b.nodeCount++

		case jsNodeNamespaceImport:
			// import * as foo from '...'
			name := firstNamedChild(child)
			if name == nil {
				return b.malformed(child, "no namespace name")
			}
			decl.Specifiers = append(decl.Specifiers, &ImportSpecifier{
				Loc:      b.span(child),
				Kind:     ImportNamespace,
				Local:    b.text(name),
				Imported: "*",
			})
			b.nodeCount++

		case jsNodeNamedImports:
			// import { foo, bar as baz } from '...'
			for j := 0; j < int(child.NamedChildCount()); j++ {
				gc := child.NamedChild(j)
				if gc.Type() != jsNodeImportSpecifier {
					continue
				}
				spec, err := b.buildImportSpecifier(gc)
				if err != nil {
					return err
				}
				decl.Specifiers = append(decl.Specifiers, spec)
			}

		default:
			return b.unsupported(child)
		}
	}
	return nil
}

func (b *jsBuilder) buildImportSpecifier(node *sitter.Node) (*ImportSpecifier, error) {
	nameNode := node.ChildByFieldName(jsFieldName)
	if nameNode == nil {
		return nil, b.malformed(node, "no name field")
	}
	spec := &ImportSpecifier{
		Loc:      b.span(node),
		Kind:     ImportNamed,
		Imported: b.text(nameNode),
		Local:    b.text(nameNode),
	}
	if alias := node.ChildByFieldName("alias"); alias != nil {
		spec.Local = b.text(alias)
	}
	b.nodeCount++
	return spec, nil
}

func (b *jsBuilder) buildExport(node *sitter.Node) (ModuleItem, error) {
	// export * from '...'
	if hasChildToken(node, jsNodeStar) {
		sourceNode := node.ChildByFieldName(jsFieldSource)
		if sourceNode == nil {
			return nil, b.malformed(node, "no source field")
		}
		source, err := b.buildStringLiteral(sourceNode)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ExportAllDeclaration{Loc: b.span(node), Source: source}, nil
	}

	if hasChildToken(node, jsNodeDefault) {
		return b.buildExportDefault(node)
	}

	// export <declaration>
	if declNode := node.ChildByFieldName(jsFieldDeclaration); declNode != nil {
		inner, err := b.buildStmt(declNode)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ExportNamedDeclaration{Loc: b.span(node), Decl: inner}, nil
	}

	// export { a, b as c } [from '...']
	decl := &ExportNamedDeclaration{Loc: b.span(node)}
	b.nodeCount++
	if sourceNode := node.ChildByFieldName(jsFieldSource); sourceNode != nil {
		source, err := b.buildStringLiteral(sourceNode)
		if err != nil {
			return nil, err
		}
		decl.Source = source
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != jsNodeExportClause {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			gc := child.NamedChild(j)
			if gc.Type() != jsNodeExportSpecifier {
				continue
			}
			spec, err := b.buildExportSpecifier(gc)
			if err != nil {
				return nil, err
			}
			decl.Specifiers = append(decl.Specifiers, spec)
		}
	}
	return decl, nil
}

func (b *jsBuilder) buildExportDefault(node *sitter.Node) (ModuleItem, error) {
	decl := &ExportDefaultDeclaration{Loc: b.span(node)}
	b.nodeCount++

	// The named children are the exported declaration or expression,
	// plus possible comments.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		// export default function f() {} exports a function value.
		if child.Type() == jsNodeFunctionDeclaration {
			expr, err := b.buildFunctionValue(child)
			if err != nil {
				return nil, err
			}
			decl.Decl = expr
			return decl, nil
		}
		expr, err := b.buildExpr(child)
		if err != nil {
			return nil, err
		}
		decl.Decl = expr
		return decl, nil
	}
	return nil, b.malformed(node, "no default export value")
}

func (b *jsBuilder) buildExportSpecifier(node *sitter.Node) (*ExportSpecifier, error) {
	nameNode := node.ChildByFieldName(jsFieldName)
	if nameNode == nil {
		return nil, b.malformed(node, "no name field")
	}
	spec := &ExportSpecifier{
		Loc:      b.span(node),
		Local:    b.text(nameNode),
		Exported: b.text(nameNode),
	}
	if alias := node.ChildByFieldName("alias"); alias != nil {
		spec.Exported = b.text(alias)
	}
	b.nodeCount++
	return spec, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (b *jsBuilder) buildExpr(node *sitter.Node) (Expr, error) {
	switch node.Type() {
	case jsNodeIdentifier, jsNodeUndefined:
		b.nodeCount++
		return &Identifier{Loc: b.span(node), Name: b.text(node)}, nil

	case jsNodeString:
		return b.buildStringLiteral(node)

	case jsNodeNumber:
		return b.buildNumberLiteral(node)

	case jsNodeTrue:
		b.nodeCount++
		return &BooleanLiteral{Loc: b.span(node), Value: true}, nil

	case jsNodeFalse:
		b.nodeCount++
		return &BooleanLiteral{Loc: b.span(node), Value: false}, nil

	case jsNodeNull:
		b.nodeCount++
		return &NullLiteral{Loc: b.span(node)}, nil

	case jsNodeArray:
		elems, err := b.arrayExprElements(node)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ArrayExpression{Loc: b.span(node), Elements: elems}, nil

	case jsNodeObject:
		return b.buildObject(node)

	case jsNodeSequenceExpression:
		return b.buildSequence(node)

	case jsNodeParenthesizedExpr:
		inner := firstNamedChild(node)
		if inner == nil {
			return nil, b.malformed(node, "empty parentheses")
		}
		expr, err := b.buildExpr(inner)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ParenthesizedExpression{Loc: b.span(node), Expr: expr}, nil

	case jsNodeCallExpression:
		return b.buildCall(node)

	case jsNodeMemberExpression:
		return b.buildMember(node)

	case jsNodeSubscriptExpression:
		return b.buildSubscript(node)

	case jsNodeBinaryExpression:
		return b.buildBinary(node)

	case jsNodeAssignmentExpr, jsNodeAugmentedAssignExpr:
		return b.buildAssignment(node)

	case jsNodeUnaryExpression:
		return b.buildUnary(node)

	case jsNodeUpdateExpression:
		return b.buildUpdate(node)

	case jsNodeTernaryExpression:
		return b.buildTernary(node)

	case jsNodeArrowFunction:
		return b.buildArrow(node)

	case jsNodeFunction, jsNodeFunctionExpression:
		return b.buildFunctionValue(node)

	case jsNodeNewExpression:
		return b.buildNew(node)

	case jsNodeAwaitExpression:
		arg := firstNamedChild(node)
		if arg == nil {
			return nil, b.malformed(node, "no awaited expression")
		}
		expr, err := b.buildExpr(arg)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &AwaitExpression{Loc: b.span(node), Arg: expr}, nil

	case jsNodeTemplateString:
		return b.buildTemplate(node)

	case jsNodeSpreadElement:
		arg := firstNamedChild(node)
		if arg == nil {
			return nil, b.malformed(node, "no spread argument")
		}
		expr, err := b.buildExpr(arg)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &SpreadElement{Loc: b.span(node), Arg: expr}, nil

	default:
		return nil, b.unsupported(node)
	}
}

func (b *jsBuilder) buildStringLiteral(node *sitter.Node) (*StringLiteral, error) {
	if node.Type() != jsNodeString {
		return nil, b.unsupported(node)
	}
	lit := &StringLiteral{Loc: b.span(node), Raw: b.text(node)}
	b.nodeCount++

	// Cook the value from fragment and escape children. An empty string
	// has neither.
	var sb strings.Builder
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case jsNodeStringFragment:
			sb.WriteString(b.text(child))
		case jsNodeEscapeSequence:
			sb.WriteString(cookEscape(b.text(child)))
		}
	}
	lit.Value = sb.String()
	return lit, nil
}

func (b *jsBuilder) buildNumberLiteral(node *sitter.Node) (*NumberLiteral, error) {
	raw := b.text(node)
	value, err := parseJSNumber(raw)
	if err != nil {
		return nil, &ParseError{
			FilePath: b.filePath,
			Line:     int(node.StartPoint().Row) + 1,
			Column:   int(node.StartPoint().Column),
			NodeType: node.Type(),
			Message:  fmt.Sprintf("number literal %q: %v", raw, err),
			Cause:    ErrUnsupportedSyntax,
		}
	}
	b.nodeCount++
	return &NumberLiteral{Loc: b.span(node), Value: value, Raw: raw}, nil
}

func (b *jsBuilder) buildObject(node *sitter.Node) (Expr, error) {
	obj := &ObjectExpression{Loc: b.span(node)}
	b.nodeCount++
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		prop, err := b.buildProp(child)
		if err != nil {
			return nil, err
		}
		obj.Props = append(obj.Props, prop)
	}
	return obj, nil
}

func (b *jsBuilder) buildSequence(node *sitter.Node) (Expr, error) {
	seq := &SequenceExpression{Loc: b.span(node)}
	b.nodeCount++
	if err := b.flattenSequence(node, seq); err != nil {
		return nil, err
	}
	if len(seq.Exprs) < 2 {
		return nil, b.malformed(node, "fewer than two operands")
	}
	return seq, nil
}

// flattenSequence appends the comma operands of node to seq. Grammar
// revisions differ here: older ones nest `a, b, c` to the right as
// (a, (b, c)) with left/right fields, newer ones produce a flat child
// list. Both shapes flatten to the same operand order. Explicitly
// parenthesized inner sequences stay nested.
func (b *jsBuilder) flattenSequence(node *sitter.Node, seq *SequenceExpression) error {
	left := node.ChildByFieldName(jsFieldLeft)
	right := node.ChildByFieldName(jsFieldRight)
	if left != nil && right != nil {
		l, err := b.buildExpr(left)
		if err != nil {
			return err
		}
		seq.Exprs = append(seq.Exprs, l)
		if right.Type() == jsNodeSequenceExpression {
			return b.flattenSequence(right, seq)
		}
		r, err := b.buildExpr(right)
		if err != nil {
			return err
		}
		seq.Exprs = append(seq.Exprs, r)
		return nil
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		if child.Type() == jsNodeSequenceExpression {
			if err := b.flattenSequence(child, seq); err != nil {
				return err
			}
			continue
		}
		e, err := b.buildExpr(child)
		if err != nil {
			return err
		}
		seq.Exprs = append(seq.Exprs, e)
	}
	return nil
}

func (b *jsBuilder) buildCall(node *sitter.Node) (Expr, error) {
	fnNode := node.ChildByFieldName(jsFieldFunction)
	argsNode := node.ChildByFieldName(jsFieldArguments)
	if fnNode == nil || argsNode == nil {
		return nil, b.malformed(node, "missing function or arguments field")
	}
	// Tagged templates parse as call_expression with a template argument.
	if argsNode.Type() == jsNodeTemplateString {
		return nil, b.unsupported(node)
	}
	if hasChildToken(node, jsNodeOptionalChain) {
		return nil, b.unsupported(node)
	}

	callee, err := b.buildExpr(fnNode)
	if err != nil {
		return nil, err
	}
	args, err := b.buildArgs(argsNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &CallExpression{Loc: b.span(node), Callee: callee, Args: args}, nil
}

func (b *jsBuilder) buildArgs(argsNode *sitter.Node) ([]Expr, error) {
	var args []Expr
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		child := argsNode.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		arg, err := b.buildExpr(child)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (b *jsBuilder) buildMember(node *sitter.Node) (Expr, error) {
	if hasChildToken(node, jsNodeOptionalChain) {
		return nil, b.unsupported(node)
	}
	objNode := node.ChildByFieldName(jsFieldObject)
	propNode := node.ChildByFieldName(jsFieldProperty)
	if objNode == nil || propNode == nil {
		return nil, b.malformed(node, "missing object or property field")
	}
	if propNode.Type() != jsNodePropertyIdentifier {
		return nil, b.unsupported(propNode)
	}
	obj, err := b.buildExpr(objNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &MemberExpression{
		Loc:      b.span(node),
		Object:   obj,
		Property: b.text(propNode),
		PropLoc:  b.span(propNode),
	}, nil
}

func (b *jsBuilder) buildSubscript(node *sitter.Node) (Expr, error) {
	if hasChildToken(node, jsNodeOptionalChain) {
		return nil, b.unsupported(node)
	}
	objNode := node.ChildByFieldName(jsFieldObject)
	idxNode := node.ChildByFieldName(jsFieldIndex)
	if objNode == nil || idxNode == nil {
		return nil, b.malformed(node, "missing object or index field")
	}
	obj, err := b.buildExpr(objNode)
	if err != nil {
		return nil, err
	}
	idx, err := b.buildExpr(idxNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &SubscriptExpression{Loc: b.span(node), Object: obj, Index: idx}, nil
}

func (b *jsBuilder) buildBinary(node *sitter.Node) (Expr, error) {
	leftNode := node.ChildByFieldName(jsFieldLeft)
	opNode := node.ChildByFieldName(jsFieldOperator)
	rightNode := node.ChildByFieldName(jsFieldRight)
	if leftNode == nil || opNode == nil || rightNode == nil {
		return nil, b.malformed(node, "missing left, operator, or right field")
	}
	left, err := b.buildExpr(leftNode)
	if err != nil {
		return nil, err
	}
	right, err := b.buildExpr(rightNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &BinaryExpression{
		Loc:   b.span(node),
		Op:    b.text(opNode),
		Left:  left,
		Right: right,
	}, nil
}

func (b *jsBuilder) buildAssignment(node *sitter.Node) (Expr, error) {
	leftNode := node.ChildByFieldName(jsFieldLeft)
	rightNode := node.ChildByFieldName(jsFieldRight)
	if leftNode == nil || rightNode == nil {
		return nil, b.malformed(node, "missing left or right field")
	}
	op := "="
	if opNode := node.ChildByFieldName(jsFieldOperator); opNode != nil {
		op = b.text(opNode)
	}
	left, err := b.buildExpr(leftNode)
	if err != nil {
		return nil, err
	}
	right, err := b.buildExpr(rightNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &AssignmentExpression{
		Loc:   b.span(node),
		Op:    op,
		Left:  left,
		Right: right,
	}, nil
}

func (b *jsBuilder) buildUnary(node *sitter.Node) (Expr, error) {
	opNode := node.ChildByFieldName(jsFieldOperator)
	argNode := node.ChildByFieldName(jsFieldArgument)
	if opNode == nil || argNode == nil {
		return nil, b.malformed(node, "missing operator or argument field")
	}
	arg, err := b.buildExpr(argNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &UnaryExpression{Loc: b.span(node), Op: b.text(opNode), Arg: arg}, nil
}

func (b *jsBuilder) buildUpdate(node *sitter.Node) (Expr, error) {
	opNode := node.ChildByFieldName(jsFieldOperator)
	argNode := node.ChildByFieldName(jsFieldArgument)
	if opNode == nil || argNode == nil {
		return nil, b.malformed(node, "missing operator or argument field")
	}
	arg, err := b.buildExpr(argNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &UpdateExpression{
		Loc:    b.span(node),
		Op:     b.text(opNode),
		Prefix: opNode.StartByte() < argNode.StartByte(),
		Arg:    arg,
	}, nil
}

func (b *jsBuilder) buildTernary(node *sitter.Node) (Expr, error) {
	condNode := node.ChildByFieldName(jsFieldCondition)
	consNode := node.ChildByFieldName(jsFieldConsequence)
	altNode := node.ChildByFieldName(jsFieldAlternative)
	if condNode == nil || consNode == nil || altNode == nil {
		return nil, b.malformed(node, "missing condition, consequence, or alternative field")
	}
	test, err := b.buildExpr(condNode)
	if err != nil {
		return nil, err
	}
	cons, err := b.buildExpr(consNode)
	if err != nil {
		return nil, err
	}
	alt, err := b.buildExpr(altNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount++
	return &ConditionalExpression{Loc: b.span(node), Test: test, Cons: cons, Alt: alt}, nil
}

func (b *jsBuilder) buildArrow(node *sitter.Node) (Expr, error) {
	arrow := &ArrowFunction{Loc: b.span(node), Async: hasChildToken(node, jsNodeAsync)}
	b.nodeCount++

	if single := node.ChildByFieldName(jsFieldParameter); single != nil {
		// x => ... form with a single bare parameter.
		p, err := b.buildPat(single)
		if err != nil {
			return nil, err
		}
		arrow.Params = []Pat{p}
	} else if params := node.ChildByFieldName(jsFieldParameters); params != nil {
		ps, err := b.buildParams(params)
		if err != nil {
			return nil, err
		}
		arrow.Params = ps
	}

	bodyNode := node.ChildByFieldName(jsFieldBody)
	if bodyNode == nil {
		return nil, b.malformed(node, "no body field")
	}
	if bodyNode.Type() == jsNodeStatementBlock {
		block, err := b.buildBlock(bodyNode)
		if err != nil {
			return nil, err
		}
		arrow.BodyBlock = block
	} else {
		expr, err := b.buildExpr(bodyNode)
		if err != nil {
			return nil, err
		}
		arrow.BodyExpr = expr
	}
	return arrow, nil
}

// buildFunctionValue builds a function in expression position. It also
// serves export default function declarations, which export a function
// value.
func (b *jsBuilder) buildFunctionValue(node *sitter.Node) (Expr, error) {
	fn := &FunctionExpression{Loc: b.span(node)}
	b.nodeCount++

	if nameNode := node.ChildByFieldName(jsFieldName); nameNode != nil {
		fn.Name = b.text(nameNode)
	}

	params, body, async, err := b.buildFunctionParts(node)
	if err != nil {
		return nil, err
	}
	fn.Params = params
	fn.Body = body
	fn.Async = async
	return fn, nil
}

func (b *jsBuilder) buildFunctionParts(node *sitter.Node) ([]Pat, *BlockStatement, bool, error) {
	async := hasChildToken(node, jsNodeAsync)

	var params []Pat
	if pn := node.ChildByFieldName(jsFieldParameters); pn != nil {
		var err error
		params, err = b.buildParams(pn)
		if err != nil {
			return nil, nil, false, err
		}
	}

	bodyNode := node.ChildByFieldName(jsFieldBody)
	if bodyNode == nil || bodyNode.Type() != jsNodeStatementBlock {
		return nil, nil, false, b.malformed(node, "no statement block body")
	}
	body, err := b.buildBlock(bodyNode)
	if err != nil {
		return nil, nil, false, err
	}
	return params, body, async, nil
}

func (b *jsBuilder) buildNew(node *sitter.Node) (Expr, error) {
	ctorNode := node.ChildByFieldName(jsFieldConstructor)
	if ctorNode == nil {
		return nil, b.malformed(node, "no constructor field")
	}
	callee, err := b.buildExpr(ctorNode)
	if err != nil {
		return nil, err
	}
	expr := &NewExpression{Loc: b.span(node), Callee: callee}
	b.nodeCount++

	if argsNode := node.ChildByFieldName(jsFieldArguments); argsNode != nil {
		args, err := b.buildArgs(argsNode)
		if err != nil {
			return nil, err
		}
		expr.Args = args
	}
	return expr, nil
}

func (b *jsBuilder) buildTemplate(node *sitter.Node) (Expr, error) {
	tpl := &TemplateLiteral{Loc: b.span(node)}
	b.nodeCount++

	// Quasi spans are the gaps around substitutions, computed from byte
	// offsets rather than child nodes. Grammar revisions name the literal
	// chunks differently; the gaps are stable.
	cursor := node.StartByte() + 1 // past the opening backtick
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != jsNodeTemplateSubstitution {
			continue
		}
		q := Span{Start: cursor, End: child.StartByte()}
		tpl.Quasis = append(tpl.Quasis, &TemplateElement{Loc: q, Raw: string(q.Text(b.content))})
		b.nodeCount++

		inner := firstNamedChild(child)
		if inner == nil {
			return nil, b.malformed(child, "empty substitution")
		}
		expr, err := b.buildExpr(inner)
		if err != nil {
			return nil, err
		}
		tpl.Exprs = append(tpl.Exprs, expr)
		cursor = child.EndByte()
	}

	end := node.EndByte() - 1 // before the closing backtick
	if end < cursor {
		end = cursor
	}
	q := Span{Start: cursor, End: end}
	tpl.Quasis = append(tpl.Quasis, &TemplateElement{Loc: q, Raw: string(q.Text(b.content))})
	b.nodeCount++
	return tpl, nil
}

// arrayExprElements builds array literal elements, preserving elisions
// as nil entries. A trailing comma does not create an elision.
func (b *jsBuilder) arrayExprElements(node *sitter.Node) ([]Expr, error) {
	var elems []Expr
	filled := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch {
		case child.Type() == jsNodeComma:
			if filled {
				filled = false
			} else {
				elems = append(elems, nil)
			}
		case child.IsNamed() && child.Type() != jsNodeComment:
			e, err := b.buildExpr(child)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			filled = true
		}
	}
	return elems, nil
}

// ---------------------------------------------------------------------------
// Object members
// ---------------------------------------------------------------------------

func (b *jsBuilder) buildProp(node *sitter.Node) (Prop, error) {
	switch node.Type() {
	case jsNodePair:
		keyNode := node.ChildByFieldName(jsFieldKey)
		valueNode := node.ChildByFieldName(jsFieldValue)
		if keyNode == nil || valueNode == nil {
			return nil, b.malformed(node, "missing key or value field")
		}
		key, computed, err := b.buildPropertyKey(keyNode)
		if err != nil {
			return nil, err
		}
		value, err := b.buildExpr(valueNode)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &Property{Loc: b.span(node), Key: key, Value: value, Computed: computed}, nil

	case jsNodeShorthandPropertyIdent:
		// { foo } reads the binding foo. Key and value are distinct
		// nodes over the same span.
		b.nodeCount += 3
		return &Property{
			Loc:       b.span(node),
			Key:       &Identifier{Loc: b.span(node), Name: b.text(node)},
			Value:     &Identifier{Loc: b.span(node), Name: b.text(node)},
			Shorthand: true,
		}, nil

	case jsNodeSpreadElement:
		arg := firstNamedChild(node)
		if arg == nil {
			return nil, b.malformed(node, "no spread argument")
		}
		expr, err := b.buildExpr(arg)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &SpreadProperty{Loc: b.span(node), Arg: expr}, nil

	default:
		// Object methods and getters/setters are out of subset.
		return nil, b.unsupported(node)
	}
}

// buildPropertyKey builds a property key, shared by object literals and
// object patterns. Computed keys unwrap to the inner expression.
func (b *jsBuilder) buildPropertyKey(node *sitter.Node) (Expr, bool, error) {
	switch node.Type() {
	case jsNodePropertyIdentifier, jsNodeIdentifier:
		b.nodeCount++
		return &Identifier{Loc: b.span(node), Name: b.text(node)}, false, nil
	case jsNodeString:
		lit, err := b.buildStringLiteral(node)
		if err != nil {
			return nil, false, err
		}
		return lit, false, nil
	case jsNodeNumber:
		lit, err := b.buildNumberLiteral(node)
		if err != nil {
			return nil, false, err
		}
		return lit, false, nil
	case jsNodeComputedPropertyName:
		inner := firstNamedChild(node)
		if inner == nil {
			return nil, false, b.malformed(node, "empty computed key")
		}
		expr, err := b.buildExpr(inner)
		if err != nil {
			return nil, false, err
		}
		return expr, true, nil
	default:
		return nil, false, b.unsupported(node)
	}
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (b *jsBuilder) buildPat(node *sitter.Node) (Pat, error) {
	switch node.Type() {
	case jsNodeIdentifier:
		b.nodeCount++
		return &Identifier{Loc: b.span(node), Name: b.text(node)}, nil

	case jsNodeObjectPattern:
		return b.buildObjectPattern(node)

	case jsNodeArrayPattern:
		elems, err := b.arrayPatElements(node)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &ArrayPattern{Loc: b.span(node), Elements: elems}, nil

	case jsNodeAssignmentPattern:
		leftNode := node.ChildByFieldName(jsFieldLeft)
		rightNode := node.ChildByFieldName(jsFieldRight)
		if leftNode == nil || rightNode == nil {
			return nil, b.malformed(node, "missing left or right field")
		}
		left, err := b.buildPat(leftNode)
		if err != nil {
			return nil, err
		}
		right, err := b.buildExpr(rightNode)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &AssignmentPattern{Loc: b.span(node), Left: left, Right: right}, nil

	case jsNodeRestPattern:
		arg := firstNamedChild(node)
		if arg == nil {
			return nil, b.malformed(node, "no rest argument")
		}
		inner, err := b.buildPat(arg)
		if err != nil {
			return nil, err
		}
		b.nodeCount++
		return &RestPattern{Loc: b.span(node), Arg: inner}, nil

	default:
		return nil, b.unsupported(node)
	}
}

func (b *jsBuilder) buildObjectPattern(node *sitter.Node) (Pat, error) {
	pat := &ObjectPattern{Loc: b.span(node)}
	b.nodeCount++

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case jsNodeComment:
			continue

		case jsNodePairPattern:
			keyNode := child.ChildByFieldName(jsFieldKey)
			valueNode := child.ChildByFieldName(jsFieldValue)
			if keyNode == nil || valueNode == nil {
				return nil, b.malformed(child, "missing key or value field")
			}
			key, computed, err := b.buildPropertyKey(keyNode)
			if err != nil {
				return nil, err
			}
			value, err := b.buildPat(valueNode)
			if err != nil {
				return nil, err
			}
			b.nodeCount++
			pat.Props = append(pat.Props, &ObjectPatternProp{
				Loc:      b.span(child),
				Key:      key,
				Value:    value,
				Computed: computed,
			})

		case jsNodeShorthandPropertyIdentPat:
			b.nodeCount += 3
			pat.Props = append(pat.Props, &ObjectPatternProp{
				Loc:       b.span(child),
				Key:       &Identifier{Loc: b.span(child), Name: b.text(child)},
				Value:     &Identifier{Loc: b.span(child), Name: b.text(child)},
				Shorthand: true,
			})

		case jsNodeObjectAssignmentPattern:
			prop, err := b.buildObjectAssignmentPattern(child)
			if err != nil {
				return nil, err
			}
			pat.Props = append(pat.Props, prop)

		case jsNodeRestPattern:
			arg := firstNamedChild(child)
			if arg == nil {
				return nil, b.malformed(child, "no rest argument")
			}
			inner, err := b.buildPat(arg)
			if err != nil {
				return nil, err
			}
			b.nodeCount += 2
			pat.Props = append(pat.Props, &ObjectPatternProp{
				Loc:   b.span(child),
				Value: &RestPattern{Loc: b.span(child), Arg: inner},
			})

		default:
			return nil, b.unsupported(child)
		}
	}
	return pat, nil
}

// buildObjectAssignmentPattern handles `{ a = 1 }`: a shorthand binding
// with a default value.
func (b *jsBuilder) buildObjectAssignmentPattern(node *sitter.Node) (*ObjectPatternProp, error) {
	leftNode := node.ChildByFieldName(jsFieldLeft)
	rightNode := node.ChildByFieldName(jsFieldRight)
	if leftNode == nil || rightNode == nil {
		return nil, b.malformed(node, "missing left or right field")
	}
	if leftNode.Type() != jsNodeShorthandPropertyIdentPat && leftNode.Type() != jsNodeIdentifier {
		return nil, b.unsupported(leftNode)
	}

	right, err := b.buildExpr(rightNode)
	if err != nil {
		return nil, err
	}
	b.nodeCount += 4
	return &ObjectPatternProp{
		Loc: b.span(node),
		Key: &Identifier{Loc: b.span(leftNode), Name: b.text(leftNode)},
		Value: &AssignmentPattern{
			Loc:   b.span(node),
			Left:  &Identifier{Loc: b.span(leftNode), Name: b.text(leftNode)},
			Right: right,
		},
		Shorthand: true,
	}, nil
}

// arrayPatElements builds array pattern elements, preserving elisions as
// nil entries, same slot rules as arrayExprElements.
func (b *jsBuilder) arrayPatElements(node *sitter.Node) ([]Pat, error) {
	var elems []Pat
	filled := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch {
		case child.Type() == jsNodeComma:
			if filled {
				filled = false
			} else {
				elems = append(elems, nil)
			}
		case child.IsNamed() && child.Type() != jsNodeComment:
			p, err := b.buildPat(child)
			if err != nil {
				return nil, err
			}
			elems = append(elems, p)
			filled = true
		}
	}
	return elems, nil
}

func (b *jsBuilder) buildParams(node *sitter.Node) ([]Pat, error) {
	var params []Pat
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		p, err := b.buildPat(child)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// ---------------------------------------------------------------------------
// Small helpers
// ---------------------------------------------------------------------------

// firstNamedChild returns the first named non-comment child, or nil.
func firstNamedChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != jsNodeComment {
			return child
		}
	}
	return nil
}

// hasChildToken reports whether node has a direct child token of the
// given type, named or anonymous.
func hasChildToken(node *sitter.Node, tokenType string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == tokenType {
			return true
		}
	}
	return false
}

// cookEscape converts one escape sequence, backslash included, to its
// runtime value.
func cookEscape(esc string) string {
	if len(esc) < 2 {
		return esc
	}
	switch esc[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		if len(esc) == 2 {
			return "\x00"
		}
	case 'x':
		if v, err := strconv.ParseUint(esc[2:], 16, 32); err == nil {
			return string(rune(v))
		}
	case 'u':
		hex := strings.TrimSuffix(strings.TrimPrefix(esc[2:], "{"), "}")
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
	case '\n':
		return "" // line continuation
	}
	// Identity escapes: \' \" \\ \` and anything unrecognized.
	return esc[1:]
}

// parseJSNumber converts a JavaScript numeric literal to a float64.
// Separators are stripped; hex, octal, and binary forms are converted.
// BigInt literals are out of subset.
func parseJSNumber(raw string) (float64, error) {
	clean := strings.ReplaceAll(raw, "_", "")
	if strings.HasSuffix(clean, "n") {
		return 0, fmt.Errorf("bigint literals are not supported")
	}
	if len(clean) > 2 {
		var base int
		switch clean[:2] {
		case "0x", "0X":
			base = 16
		case "0o", "0O":
			base = 8
		case "0b", "0B":
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseUint(clean[2:], base, 64)
			if err != nil {
				return 0, err
			}
			return float64(v), nil
		}
	}
	return strconv.ParseFloat(clean, 64)
}
