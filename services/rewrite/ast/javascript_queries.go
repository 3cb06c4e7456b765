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

// JavaScript Tree-sitter Node Types
//
// This file documents the tree-sitter node types used by JavaScriptParser
// to build the rewrite tree. The parser uses direct node traversal rather
// than tree-sitter's query language for precise control over tree shape.
//
// Reference: https://github.com/tree-sitter/tree-sitter-javascript

// Node type constants for JavaScript AST traversal.
const (
	// Top-level nodes
	jsNodeProgram = "program"

	// Import-related nodes
	jsNodeImportStatement = "import_statement"
	jsNodeImportClause    = "import_clause"
	jsNodeNamespaceImport = "namespace_import"
	jsNodeNamedImports    = "named_imports"
	jsNodeImportSpecifier = "import_specifier"
	jsNodeString          = "string"
	jsNodeStringFragment  = "string_fragment"
	jsNodeEscapeSequence  = "escape_sequence"

	// Export-related nodes
	jsNodeExportStatement = "export_statement"
	jsNodeExportClause    = "export_clause"
	jsNodeExportSpecifier = "export_specifier"

	// Statement nodes
	jsNodeExpressionStatement = "expression_statement"
	jsNodeStatementBlock      = "statement_block"
	jsNodeEmptyStatement      = "empty_statement"
	jsNodeLexicalDeclaration  = "lexical_declaration"
	jsNodeVariableDeclaration = "variable_declaration"
	jsNodeVariableDeclarator  = "variable_declarator"
	jsNodeFunctionDeclaration = "function_declaration"
	jsNodeReturnStatement     = "return_statement"
	jsNodeIfStatement         = "if_statement"
	jsNodeElseClause          = "else_clause"
	jsNodeWhileStatement      = "while_statement"
	jsNodeThrowStatement      = "throw_statement"

	// Expression nodes
	jsNodeIdentifier          = "identifier"
	jsNodeNumber              = "number"
	jsNodeTrue                = "true"
	jsNodeFalse               = "false"
	jsNodeNull                = "null"
	jsNodeUndefined           = "undefined"
	jsNodeArray               = "array"
	jsNodeObject              = "object"
	jsNodeSequenceExpression  = "sequence_expression"
	jsNodeParenthesizedExpr   = "parenthesized_expression"
	jsNodeCallExpression      = "call_expression"
	jsNodeArguments           = "arguments"
	jsNodeMemberExpression    = "member_expression"
	jsNodeSubscriptExpression = "subscript_expression"
	jsNodeBinaryExpression    = "binary_expression"
	jsNodeAssignmentExpr      = "assignment_expression"
	jsNodeAugmentedAssignExpr = "augmented_assignment_expression"
	jsNodeUnaryExpression     = "unary_expression"
	jsNodeUpdateExpression    = "update_expression"
	jsNodeTernaryExpression   = "ternary_expression"
	jsNodeArrowFunction       = "arrow_function"
	jsNodeNewExpression       = "new_expression"
	jsNodeAwaitExpression     = "await_expression"
	jsNodeTemplateString      = "template_string"
	jsNodeTemplateSubstitution = "template_substitution"
	jsNodeSpreadElement       = "spread_element"
	jsNodePropertyIdentifier  = "property_identifier"
	jsNodeComputedPropertyName = "computed_property_name"

	// Function-expression node type differs across grammar revisions:
	// older revisions name it "function", newer ones "function_expression".
	// Both are handled.
	jsNodeFunction           = "function"
	jsNodeFunctionExpression = "function_expression"

	// Object member nodes
	jsNodePair                    = "pair"
	jsNodeShorthandPropertyIdent  = "shorthand_property_identifier"
	jsNodeMethodDefinition        = "method_definition"

	// Pattern nodes
	jsNodeObjectPattern              = "object_pattern"
	jsNodeArrayPattern               = "array_pattern"
	jsNodePairPattern                = "pair_pattern"
	jsNodeShorthandPropertyIdentPat  = "shorthand_property_identifier_pattern"
	jsNodeObjectAssignmentPattern    = "object_assignment_pattern"
	jsNodeAssignmentPattern          = "assignment_pattern"
	jsNodeRestPattern                = "rest_pattern"
	jsNodeFormalParameters           = "formal_parameters"

	// Misc nodes
	jsNodeComment       = "comment"
	jsNodeErrorNode     = "ERROR"
	jsNodeOptionalChain = "optional_chain"

	// Keywords and punctuation
	jsNodeAsync   = "async"
	jsNodeDefault = "default"
	jsNodeComma   = ","
	jsNodeStar    = "*"
)

// Tree-sitter field names used during tree construction.
const (
	jsFieldName        = "name"
	jsFieldValue       = "value"
	jsFieldKey         = "key"
	jsFieldBody        = "body"
	jsFieldSource      = "source"
	jsFieldCondition   = "condition"
	jsFieldConsequence = "consequence"
	jsFieldAlternative = "alternative"
	jsFieldLeft        = "left"
	jsFieldRight       = "right"
	jsFieldOperator    = "operator"
	jsFieldArgument    = "argument"
	jsFieldArguments   = "arguments"
	jsFieldFunction    = "function"
	jsFieldConstructor = "constructor"
	jsFieldObject      = "object"
	jsFieldProperty    = "property"
	jsFieldIndex       = "index"
	jsFieldParameter   = "parameter"
	jsFieldParameters  = "parameters"
	jsFieldDeclaration = "declaration"
)
