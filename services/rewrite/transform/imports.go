// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transform

import (
	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/astpath"
)

// ImportSourceRewriter rewrites the module specifier of the import or
// re-export declaration it is handed. Specifier strings are inert to
// the tree walk, so this is the one place they can change: a
// registration addresses the declaration itself and the rewriter
// reaches into its source field.
//
// Resolve maps the current specifier to its replacement; returning
// ok=false leaves the declaration untouched. Declarations without a
// source (plain `export { a };`) are skipped.
type ImportSourceRewriter struct {
	ast.NopVisitor
	Resolve func(source string) (next string, ok bool)
}

// VisitModuleDecl rewrites the source string on any declaration form
// that carries one.
func (r *ImportSourceRewriter) VisitModuleDecl(slot *ast.ModuleDecl) {
	if r.Resolve == nil {
		return
	}
	var src *ast.StringLiteral
	switch n := (*slot).(type) {
	case *ast.ImportDeclaration:
		src = n.Source
	case *ast.ExportNamedDeclaration:
		src = n.Source
	case *ast.ExportAllDeclaration:
		src = n.Source
	}
	if src == nil {
		return
	}
	if next, ok := r.Resolve(src.Value); ok {
		src.Value = next
		src.Raw = ""
	}
}

// Factory returns a factory that builds a fresh rewriter per match
// sharing this Resolve function.
func (r *ImportSourceRewriter) Factory() astpath.TransformFactory {
	resolve := r.Resolve
	return func() ast.Visitor {
		return &ImportSourceRewriter{Resolve: resolve}
	}
}

// NewImportSourceMap builds a rewriter over a fixed specifier mapping.
// Specifiers absent from the mapping are left untouched.
func NewImportSourceMap(mapping map[string]string) *ImportSourceRewriter {
	return &ImportSourceRewriter{
		Resolve: func(source string) (string, bool) {
			next, ok := mapping[source]
			return next, ok
		},
	}
}
